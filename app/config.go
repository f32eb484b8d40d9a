package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"time"
)

// Config 启动时确定，之后只读，在所有连接间共享
type Config struct {
	Directory    string        // --directory，/files/* 的基础目录
	Addr         string        // 监听地址
	MaxConns     int           // 同时处理的连接数上限，<= 0 表示不限制
	ReadTimeout  time.Duration // 读取请求的超时，0 表示不限制
	WriteTimeout time.Duration // 写响应的超时，0 表示不限制
	MaxBodyBytes int64         // 请求体上限，<= 0 表示不限制
	LogLevel     string
	LogPretty    bool
}

// DefaultConfig 默认监听 0.0.0.0:4221
func DefaultConfig() Config {
	return Config{
		Addr:         "0.0.0.0:4221",
		MaxConns:     128,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		MaxBodyBytes: 10 << 20,
		LogLevel:     "info",
	}
}

// ParseConfig 解析命令行参数，args 不包含程序名
// 示例：./your_program.sh --directory /tmp/data/...
func ParseConfig(args []string) (Config, error) {
	cfg := DefaultConfig()
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&cfg.Directory, "directory", cfg.Directory, "directory served by /files/")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	fs.IntVar(&cfg.MaxConns, "max-conns", cfg.MaxConns, "max concurrent connections (0 = unlimited)")
	fs.DurationVar(&cfg.ReadTimeout, "read-timeout", cfg.ReadTimeout, "request read timeout (0 = none)")
	fs.DurationVar(&cfg.WriteTimeout, "write-timeout", cfg.WriteTimeout, "response write timeout (0 = none)")
	fs.Int64Var(&cfg.MaxBodyBytes, "max-body", cfg.MaxBodyBytes, "max request body bytes (0 = unlimited)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	fs.BoolVar(&cfg.LogPretty, "log-pretty", cfg.LogPretty, "human readable logs")
	if err := fs.Parse(args); err != nil {
		return Config{}, fmt.Errorf("解析命令行参数失败: %w", err)
	}
	if fs.NArg() > 0 {
		return Config{}, fmt.Errorf("多余的参数: %v", fs.Args())
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Addr == "" {
		return errors.New("监听地址不能为空")
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 {
		return errors.New("超时不能为负数")
	}
	return nil
}
