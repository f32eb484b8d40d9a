package main

import (
	"errors"
	"io/fs"
	"strings"
)

const (
	contentTypeText   = "text/plain"
	contentTypeBinary = "application/octet-stream"
)

// registerRoutes 注册所有路由到 Mux
func registerRoutes(m *Mux, files *FileStore) {
	fh := &filesHandler{store: files}
	// /files/* 写文件
	m.Handle("POST", "/files/", fh.write)
	// 根路径 "/"
	m.Handle("GET", "/", rootHandler)
	// /echo/*
	m.Handle("GET", "/echo/", echoHandler)
	// /user-agent
	m.Handle("GET", "/user-agent", userAgentHandler)
	// /files/*
	m.Handle("GET", "/files/", fh.read)
}

// 根路径 Handler：返回 200 OK，无 body
func rootHandler(req *Request) (*Response, error) {
	return NewResponse(StatusOK), nil
}

// /echo/<text> Handler：返回最后一个 "/" 之后的内容
func echoHandler(req *Request) (*Response, error) {
	str := req.Path[strings.LastIndexByte(req.Path, '/')+1:]

	res := NewResponse(StatusOK)
	res.SetBody(contentTypeText, []byte(str))
	// gzip 压缩协商
	if req.Encodings.Has("gzip") {
		if err := res.Gzip(); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// /user-agent Handler，没有 User-Agent 时返回空 body
func userAgentHandler(req *Request) (*Response, error) {
	res := NewResponse(StatusOK)
	res.SetBody(contentTypeText, []byte(req.Headers.Get("User-Agent")))
	return res, nil
}

// /files/* Handler
type filesHandler struct {
	store *FileStore
}

func fileName(req *Request) string {
	return strings.TrimPrefix(req.Path, "/files/")
}

// 读文件
func (h *filesHandler) read(req *Request) (*Response, error) {
	content, err := h.store.Read(fileName(req))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, ErrInvalidName) {
			return NewResponse(StatusNotFound), nil
		}
		return nil, err
	}
	res := NewResponse(StatusOK)
	res.SetBody(contentTypeBinary, content)
	return res, nil
}

// 写文件，覆盖已有内容
func (h *filesHandler) write(req *Request) (*Response, error) {
	if err := h.store.Write(fileName(req), req.Body); err != nil {
		if errors.Is(err, ErrInvalidName) {
			return nil, &StatusError{Status: StatusNotFound, Err: err}
		}
		return nil, err
	}
	return NewResponse(StatusCreated), nil
}
