package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Server 每个连接只处理一个请求，写完响应即关闭
type Server struct {
	cfg Config
	mux *Mux
	log zerolog.Logger
	sem chan struct{} // nil 表示不限制并发
	wg  sync.WaitGroup
}

// NewServer 初始化并注册路由
func NewServer(cfg Config, log zerolog.Logger) *Server {
	s := &Server{
		cfg: cfg,
		mux: NewMux(),
		log: log,
	}
	if cfg.MaxConns > 0 {
		s.sem = make(chan struct{}, cfg.MaxConns)
	}
	registerRoutes(s.mux, NewFileStore(cfg.Directory))
	return s
}

// ListenAndServe 监听 cfg.Addr 并开始服务
func (s *Server) ListenAndServe(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("绑定端口失败: %w", err)
	}
	return s.Serve(ctx, listener)
}

// Serve 在 listener 上接受连接，直到 ctx 被取消。
// 返回前会等待所有正在处理的连接结束。
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	s.log.Info().Str("addr", listener.Addr().String()).Str("directory", s.cfg.Directory).Msg("开始接受连接")

	stop := context.AfterFunc(ctx, func() {
		listener.Close()
	})
	defer func() {
		stop()
		listener.Close()
		s.wg.Wait()
		s.log.Info().Msg("监听器已关闭")
	}()

	var tempDelay time.Duration
	for {
		if !s.acquire(ctx) {
			return nil
		}
		conn, err := listener.Accept()
		if err != nil {
			s.release()
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			// 其他错误退避后继续，不让单个错误拖垮监听器
			if tempDelay == 0 {
				tempDelay = 5 * time.Millisecond
			} else {
				tempDelay = min(2*tempDelay, time.Second)
			}
			s.log.Warn().Err(err).Dur("retry_in", tempDelay).Msg("接受连接时出错")
			time.Sleep(tempDelay)
			continue
		}
		tempDelay = 0
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.release()
			// 单个连接里的 panic 不能拖垮监听器
			defer func() {
				if r := recover(); r != nil {
					s.log.Error().Interface("panic", r).Msg("connection panic")
				}
			}()
			s.handleConnection(conn)
		}()
	}
}

// acquire 占用一个并发名额，连接数达到上限时阻塞
func (s *Server) acquire(ctx context.Context) bool {
	if s.sem == nil {
		return ctx.Err() == nil
	}
	select {
	case s.sem <- struct{}{}:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *Server) release() {
	if s.sem != nil {
		<-s.sem
	}
}

// handleConnection Read → Parse → Route → Write → Close
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	start := time.Now()
	log := s.log.With().Str("remote", conn.RemoteAddr().String()).Logger()

	if s.cfg.ReadTimeout > 0 {
		conn.SetReadDeadline(start.Add(s.cfg.ReadTimeout))
	}
	req, err := ReadRequest(bufio.NewReader(conn), s.cfg.MaxBodyBytes)
	if err != nil {
		// 客户端没发任何数据就关闭连接
		if errors.Is(err, io.EOF) {
			log.Debug().Msg("连接在请求之前关闭")
			return
		}
		status := statusFromError(err)
		if status == StatusInternalServerError {
			// 读失败：记录后直接关闭，不写响应
			log.Warn().Err(err).Msg("读取请求失败")
			return
		}
		log.Info().Err(err).Int("status", status).Msg("请求格式错误")
		s.writeResponse(conn, log, NewResponse(status))
		lingerClose(conn)
		return
	}

	log = log.With().Str("method", req.Method).Str("path", req.Path).Logger()
	res := s.route(req, log)
	n := s.writeResponse(conn, log, res)
	log.Info().
		Int("status", res.Status).
		Int64("bytes", n).
		Dur("elapsed", time.Since(start)).
		Msg("请求完成")
}

// route 调用 handler，把错误和 panic 转成对应状态码的响应
func (s *Server) route(req *Request, log zerolog.Logger) (res *Response) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("handler panic")
			res = NewResponse(StatusInternalServerError)
		}
	}()
	res, err := s.mux.Serve(req)
	if err != nil {
		status := statusFromError(err)
		ev := log.Warn()
		if status == StatusInternalServerError {
			ev = log.Error()
		}
		var ce *CompressionError
		ev.Err(err).Bool("compression", errors.As(err, &ce)).Int("status", status).Msg("处理请求出错")
		return NewResponse(status)
	}
	if res == nil {
		return NewResponse(StatusInternalServerError)
	}
	return res
}

func (s *Server) writeResponse(conn net.Conn, log zerolog.Logger, res *Response) int64 {
	if s.cfg.WriteTimeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}
	n, err := res.WriteTo(conn)
	if err != nil {
		// 写失败一般意味着客户端断开
		log.Warn().Err(err).Msg("发送响应失败")
	}
	return n
}

// lingerClose 提前拒绝请求时，客户端可能还在发送数据。
// 直接关闭会触发 RST，客户端可能读不到已经写出的响应，所以先关写端再丢弃一部分剩余数据。
func lingerClose(conn net.Conn) {
	tc, ok := conn.(*net.TCPConn)
	if !ok {
		return
	}
	tc.CloseWrite()
	tc.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
	io.Copy(io.Discard, io.LimitReader(tc, 256<<10))
}
