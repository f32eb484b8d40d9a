package main

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig(nil)
	if err != nil {
		t.Fatal(err)
	}
	ExpectEqual(t, "", cfg.Directory)
	ExpectEqual(t, "0.0.0.0:4221", cfg.Addr)
	if cfg.MaxConns != 128 || cfg.ReadTimeout != 30*time.Second {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestParseConfigFlags(t *testing.T) {
	cfg, err := ParseConfig([]string{
		"--directory", "/tmp/data/",
		"--addr", "127.0.0.1:8080",
		"--max-conns", "0",
		"--read-timeout", "1s",
		"--max-body", "42",
		"--log-level", "debug",
	})
	if err != nil {
		t.Fatal(err)
	}
	ExpectEqual(t, "/tmp/data/", cfg.Directory)
	ExpectEqual(t, "127.0.0.1:8080", cfg.Addr)
	if cfg.MaxConns != 0 || cfg.ReadTimeout != time.Second || cfg.MaxBodyBytes != 42 {
		t.Errorf("flags not applied: %+v", cfg)
	}
}

func TestParseConfigErrors(t *testing.T) {
	for _, args := range [][]string{
		{"--directory"},
		{"--unknown"},
		{"--read-timeout", "-1s"},
		{"--addr", ""},
		{"extra"},
	} {
		if _, err := ParseConfig(args); err == nil {
			t.Errorf("ParseConfig(%v) expected error", args)
		}
	}
}

func TestNewLogger(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "warn"
	buf := new(bytes.Buffer)
	log, err := newLogger(buf, cfg)
	if err != nil {
		t.Fatal(err)
	}
	log.Info().Msg("hidden")
	log.Warn().Str("path", "/echo/abc").Msg("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, `"path":"/echo/abc"`) {
		t.Errorf("unexpected log output %q", out)
	}

	cfg.LogLevel = "loud"
	if _, err := newLogger(buf, cfg); err == nil {
		t.Errorf("expected error for unknown level")
	}
}
