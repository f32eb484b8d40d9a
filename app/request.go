package main

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/textproto"
	"strconv"
	"strings"
)

// CRLF \r\n 是两个字符组成的序列：
// \r：carriage return，中文通常叫 回车
// \n：line feed，中文通常叫 换行
const CRLF = "\r\n" // 回车换行

var (
	ErrMalformedRequest = errors.New("invalid request line")
	ErrBadContentLength = errors.New("invalid Content-Length")
	ErrBodyTooLarge     = errors.New("request body too large")
	ErrHeaderTooLarge   = errors.New("request header too large")
)

// MaxHeaderBytes 请求行加全部请求头的字节上限
const MaxHeaderBytes = 8 << 10

// Header 请求头，key 统一为规范形式（如 user-agent -> User-Agent），查找大小写不敏感
type Header map[string]string

// Get 按规范化后的名字取值，不存在返回空字符串
func (h Header) Get(key string) string {
	return h[textproto.CanonicalMIMEHeaderKey(key)]
}

// Set 重复的头部以最后一次为准
func (h Header) Set(key, value string) {
	h[textproto.CanonicalMIMEHeaderKey(key)] = value
}

// Request 表示一个简单的 HTTP 请求（不依赖 net/http）
type Request struct {
	Method    string
	Path      string
	Version   string
	Headers   Header
	Body      []byte
	Encodings EncodingSet
}

// ParseRequest 从一段完整的原始字节中解析请求
func ParseRequest(raw []byte) (*Request, error) {
	return ReadRequest(bufio.NewReader(bytes.NewReader(raw)), 0)
}

// ReadRequest 从 reader 中读取并解析一个请求。
// maxBody <= 0 表示不限制请求体大小。
// 在读到请求行任何字节之前遇到 EOF 时原样返回 io.EOF。
func ReadRequest(reader *bufio.Reader, maxBody int64) (*Request, error) {
	budget := MaxHeaderBytes
	line, err := readLine(reader, &budget)
	if err != nil {
		if err == io.EOF && line == "" {
			return nil, io.EOF
		}
		// 请求行没读完整
		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	parts := strings.Fields(line)
	if len(parts) < 3 {
		return nil, ErrMalformedRequest
	}
	req := &Request{
		Method:  parts[0],
		Path:    parts[1],
		Version: parts[2],
		Headers: make(Header),
	}

	// 读取请求头
	for {
		line, err := readLine(reader, &budget) // 读取之后reader会往下走
		if err != nil {
			if err == io.EOF {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		// 读到尾
		if line == CRLF || line == "\n" {
			break
		}
		line = strings.TrimRight(line, CRLF)
		// 按第一个 ':' 分成两部分：key 和 value，value 只去掉一个前导空格
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		req.Headers.Set(strings.TrimSpace(key), strings.TrimPrefix(value, " "))
	}
	req.Encodings = ParseEncodingSet(req.Headers.Get("Accept-Encoding"))

	// 按 Content-Length 读取请求体，没有该头部视为空请求体
	clStr := strings.TrimSpace(req.Headers.Get("Content-Length"))
	if clStr == "" {
		return req, nil
	}
	length, err := strconv.ParseInt(clStr, 10, 64)
	if err != nil || length < 0 {
		return nil, fmt.Errorf("%w: %q", ErrBadContentLength, clStr)
	}
	if maxBody > 0 && length > maxBody {
		return nil, fmt.Errorf("%w: %d > %d", ErrBodyTooLarge, length, maxBody)
	}
	if length > 0 {
		// Content-Length 来自客户端，不能按它预先分配内存
		var body bytes.Buffer
		if _, err := io.CopyN(&body, reader, length); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, fmt.Errorf("error reading request body: %w", err)
		}
		req.Body = body.Bytes()
	}
	return req, nil
}

// readLine 读取一行（包含 \n），累计长度超过 budget 时返回 ErrHeaderTooLarge
func readLine(reader *bufio.Reader, budget *int) (string, error) {
	var line []byte
	for {
		chunk, err := reader.ReadSlice('\n')
		if len(chunk) > *budget {
			return "", fmt.Errorf("%w: more than %d bytes", ErrHeaderTooLarge, MaxHeaderBytes)
		}
		*budget -= len(chunk)
		line = append(line, chunk...)
		if err == bufio.ErrBufferFull {
			continue
		}
		return string(line), err
	}
}
