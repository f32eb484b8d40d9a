package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
)

const (
	StatusOK                  = 200
	StatusCreated             = 201
	StatusBadRequest          = 400
	StatusNotFound            = 404
	StatusRequestTooLarge     = 413
	StatusHeaderTooLarge      = 431
	StatusInternalServerError = 500
)

var statusText = map[int]string{
	StatusOK:                  "OK",
	StatusCreated:             "Created",
	StatusBadRequest:          "Bad Request",
	StatusNotFound:            "Not Found",
	StatusRequestTooLarge:     "Payload Too Large",
	StatusHeaderTooLarge:      "Request Header Fields Too Large",
	StatusInternalServerError: "Internal Server Error",
}

// HeaderField 响应头部，保持写入顺序
type HeaderField struct {
	Name  string
	Value string
}

// Response 表示一个待发送的 HTTP 响应
type Response struct {
	Status  int
	Headers []HeaderField
	Body    []byte
}

// NewResponse 创建一个只有状态行的响应
func NewResponse(status int) *Response {
	return &Response{Status: status}
}

// SetHeader 已存在的同名头部会被覆盖，位置不变
func (r *Response) SetHeader(name, value string) {
	for i := range r.Headers {
		if r.Headers[i].Name == name {
			r.Headers[i].Value = value
			return
		}
	}
	r.Headers = append(r.Headers, HeaderField{Name: name, Value: value})
}

// Header 返回指定头部的值
func (r *Response) Header(name string) string {
	for _, f := range r.Headers {
		if f.Name == name {
			return f.Value
		}
	}
	return ""
}

// SetBody 设置响应体并同步 Content-Length
func (r *Response) SetBody(contentType string, body []byte) {
	r.SetHeader("Content-Type", contentType)
	r.SetHeader("Content-Length", strconv.Itoa(len(body)))
	r.Body = body
}

// Gzip 压缩当前响应体，Content-Length 改为压缩后的长度
func (r *Response) Gzip() error {
	compressed, err := Compress(r.Body)
	if err != nil {
		return err
	}
	r.SetHeader("Content-Encoding", "gzip")
	r.SetHeader("Content-Length", strconv.Itoa(len(compressed)))
	r.Body = compressed
	return nil
}

// WriteTo 把响应序列化为 HTTP/1.1 报文写入 w
func (r *Response) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	text, ok := statusText[r.Status]
	if !ok {
		text = "Status " + strconv.Itoa(r.Status)
	}
	fmt.Fprintf(&buf, "HTTP/1.1 %d %s"+CRLF, r.Status, text)
	for _, f := range r.Headers {
		buf.WriteString(f.Name + ": " + f.Value + CRLF)
	}
	buf.WriteString(CRLF)
	buf.Write(r.Body)
	return buf.WriteTo(w)
}

// StatusError 携带状态码的处理错误，其他错误一律视为 500
type StatusError struct {
	Status int
	Err    error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%d %s: %v", e.Status, statusText[e.Status], e.Err)
}

func (e *StatusError) Unwrap() error { return e.Err }

// statusFromError 找出与错误最接近的状态码
func statusFromError(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	switch {
	case errors.Is(err, ErrMalformedRequest), errors.Is(err, ErrBadContentLength):
		return StatusBadRequest
	case errors.Is(err, ErrBodyTooLarge):
		return StatusRequestTooLarge
	case errors.Is(err, ErrHeaderTooLarge):
		return StatusHeaderTooLarge
	}
	return StatusInternalServerError
}
