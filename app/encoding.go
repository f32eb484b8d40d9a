package main

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"strings"
)

// CompressionError 表示 gzip 压缩失败，由连接处理器映射为 500
type CompressionError struct {
	Err error
}

func (e *CompressionError) Error() string {
	return "gzip 压缩失败: " + e.Err.Error()
}

func (e *CompressionError) Unwrap() error { return e.Err }

// Compress 以最高压缩级别生成 gzip 格式数据。
// gzip 头部不带文件名和修改时间，所以相同输入得到相同输出。
func Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, &CompressionError{Err: err}
	}
	if _, err := gw.Write(data); err != nil {
		return nil, &CompressionError{Err: err}
	}
	// Close 写入 trailer（CRC32 + 长度），失败说明流不完整
	if err := gw.Close(); err != nil {
		return nil, &CompressionError{Err: fmt.Errorf("关闭 gzip writer: %w", err)}
	}
	return buf.Bytes(), nil
}

// EncodingSet 是 Accept-Encoding 中声明的编码集合
type EncodingSet map[string]struct{}

// ParseEncodingSet 按逗号切分 Accept-Encoding，去掉空白和 ;q= 参数
func ParseEncodingSet(value string) EncodingSet {
	set := make(EncodingSet)
	if value == "" {
		return set
	}
	for _, token := range strings.Split(value, ",") {
		if i := strings.IndexByte(token, ';'); i >= 0 {
			token = token[:i]
		}
		token = strings.ToLower(strings.TrimSpace(token))
		if token == "" {
			continue
		}
		set[token] = struct{}{}
	}
	return set
}

// Has 判断客户端是否接受某种编码（大小写不敏感）
func (s EncodingSet) Has(encoding string) bool {
	_, ok := s[strings.ToLower(encoding)]
	return ok
}
