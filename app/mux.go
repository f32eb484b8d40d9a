package main

import (
	"fmt"
	"strings"
)

// HandlerFunc 路由处理函数类型。
// 返回的 error 交给连接处理器：*StatusError 用自带的状态码，其他错误按 500 处理。
type HandlerFunc func(req *Request) (*Response, error)

type route struct {
	pattern  string
	prefix   bool
	handlers map[string]HandlerFunc // method -> handler
}

// Mux 非 net/http 版本的极简路由器
type Mux struct {
	routes []*route
}

// NewMux 创建一个新的路由器
func NewMux() *Mux {
	return &Mux{}
}

// Handle 注册路由
// pattern 约定：
//
//	"/"            -> 只匹配 "/"
//	"/echo/"       -> 以 "/" 结尾的是前缀匹配，匹配 "/echo/xxx"
//	"/user-agent"  -> 匹配 "/user-agent" 以及 "/user-agent/xxx"
//
// 同一 pattern 可以按 method 注册多个 handler。
func (m *Mux) Handle(method, pattern string, handler HandlerFunc) {
	if !strings.HasPrefix(pattern, "/") {
		panic(fmt.Sprintf("mux: pattern %q 必须以 / 开头", pattern))
	}
	for _, r := range m.routes {
		if r.pattern == pattern {
			r.handlers[method] = handler
			return
		}
	}
	m.routes = append(m.routes, &route{
		pattern:  pattern,
		prefix:   len(pattern) > 1 && strings.HasSuffix(pattern, "/"),
		handlers: map[string]HandlerFunc{method: handler},
	})
}

func (r *route) match(path string) bool {
	if r.prefix {
		return strings.HasPrefix(path, r.pattern)
	}
	if path == r.pattern {
		return true
	}
	return r.pattern != "/" && strings.HasPrefix(path, r.pattern+"/")
}

// lookup 返回匹配最长的路由
func (m *Mux) lookup(path string) *route {
	var best *route
	for _, r := range m.routes {
		if r.match(path) && (best == nil || len(r.pattern) > len(best.pattern)) {
			best = r
		}
	}
	return best
}

// Serve 根据 method 和 path 分发到对应的 Handler
// 如果没有匹配的路由，或者路由不支持该 method，则返回 404
func (m *Mux) Serve(req *Request) (*Response, error) {
	if r := m.lookup(req.Path); r != nil {
		if h, ok := r.handlers[req.Method]; ok {
			return h(req)
		}
	}
	// 默认 404
	return NewResponse(StatusNotFound), nil
}
