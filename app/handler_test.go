package main

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func newTestMux(t *testing.T) (*Mux, string) {
	t.Helper()
	dir := t.TempDir()
	m := NewMux()
	registerRoutes(m, NewFileStore(dir))
	return m, dir
}

func serve(t *testing.T, m *Mux, raw string) *Response {
	t.Helper()
	req, err := ParseRequest([]byte(raw))
	if err != nil {
		t.Fatalf("ParseRequest(%q): %v", raw, err)
	}
	res, err := m.Serve(req)
	if err != nil {
		t.Fatalf("Serve(%q): %v", raw, err)
	}
	return res
}

func TestRootHandler(t *testing.T) {
	m, _ := newTestMux(t)
	res := serve(t, m, "GET / HTTP/1.1\r\nAccept-Encoding: gzip\r\nUser-Agent: x\r\n\r\n")
	if res.Status != StatusOK || len(res.Body) != 0 {
		t.Errorf("GET / = %d %q, want 200 with empty body", res.Status, res.Body)
	}
}

func TestEchoHandler(t *testing.T) {
	m, _ := newTestMux(t)
	for _, s := range []string{"abc", "pineapple", "grape-mango"} {
		res := serve(t, m, "GET /echo/"+s+" HTTP/1.1\r\n\r\n")
		if res.Status != StatusOK {
			t.Fatalf("status %d", res.Status)
		}
		ExpectEqual(t, "text/plain", res.Header("Content-Type"))
		ExpectEqual(t, strconv.Itoa(len(s)), res.Header("Content-Length"))
		ExpectEqual(t, "", res.Header("Content-Encoding"))
		ExpectEqual(t, s, string(res.Body))
	}
}

func TestEchoHandlerGzip(t *testing.T) {
	m, _ := newTestMux(t)
	res := serve(t, m, "GET /echo/abc HTTP/1.1\r\nAccept-Encoding: encoding-1, gzip, encoding-2\r\n\r\n")
	ExpectEqual(t, "gzip", res.Header("Content-Encoding"))
	ExpectEqual(t, strconv.Itoa(len(res.Body)), res.Header("Content-Length"))
	ExpectEqual(t, "abc", gunzip(t, res.Body))

	res = serve(t, m, "GET /echo/abc HTTP/1.1\r\naccept-encoding: invalid-encoding\r\n\r\n")
	ExpectEqual(t, "", res.Header("Content-Encoding"))
	ExpectEqual(t, "abc", string(res.Body))
}

func TestUserAgentHandler(t *testing.T) {
	m, _ := newTestMux(t)
	res := serve(t, m, "GET /user-agent HTTP/1.1\r\nuser-agent: foobar/1.2.3\r\n\r\n")
	ExpectEqual(t, "foobar/1.2.3", string(res.Body))
	ExpectEqual(t, "12", res.Header("Content-Length"))

	res = serve(t, m, "GET /user-agent HTTP/1.1\r\n\r\n")
	if res.Status != StatusOK {
		t.Errorf("status %d, want 200", res.Status)
	}
	ExpectEqual(t, "", string(res.Body))
	ExpectEqual(t, "0", res.Header("Content-Length"))
}

func TestFilesHandler(t *testing.T) {
	m, dir := newTestMux(t)

	res := serve(t, m, "POST /files/foo.txt HTTP/1.1\r\nContent-Length: 5\r\n\r\nhello")
	if res.Status != StatusCreated || len(res.Body) != 0 {
		t.Fatalf("POST = %d %q, want 201 with empty body", res.Status, res.Body)
	}
	onDisk, err := os.ReadFile(filepath.Join(dir, "foo.txt"))
	if err != nil {
		t.Fatal(err)
	}
	ExpectEqual(t, "hello", string(onDisk))

	res = serve(t, m, "GET /files/foo.txt HTTP/1.1\r\n\r\n")
	if res.Status != StatusOK {
		t.Fatalf("GET status %d", res.Status)
	}
	ExpectEqual(t, "application/octet-stream", res.Header("Content-Type"))
	ExpectEqual(t, "5", res.Header("Content-Length"))
	ExpectEqual(t, "hello", string(res.Body))

	for _, path := range []string{"/files/does-not-exist", "/files/", "/files/../secret", "/files/.upload-123"} {
		res = serve(t, m, "GET "+path+" HTTP/1.1\r\n\r\n")
		if res.Status != StatusNotFound || len(res.Body) != 0 {
			t.Errorf("GET %s = %d %q, want 404 with empty body", path, res.Status, res.Body)
		}
	}
}

func TestFilesHandlerInvalidPost(t *testing.T) {
	m, _ := newTestMux(t)
	req, err := ParseRequest([]byte("POST /files/../x HTTP/1.1\r\nContent-Length: 1\r\n\r\nx"))
	if err != nil {
		t.Fatal(err)
	}
	_, err = m.Serve(req)
	if statusFromError(err) != StatusNotFound {
		t.Errorf("POST outside directory: error %v, want 404", err)
	}
}

func TestUnhandledRoutes(t *testing.T) {
	m, _ := newTestMux(t)
	for _, raw := range []string{
		"GET /unknown/path HTTP/1.1\r\n\r\n",
		"POST /echo/abc HTTP/1.1\r\nContent-Length: 0\r\n\r\n",
		"POST /somewhere HTTP/1.1\r\n\r\n",
		"PUT /files/a HTTP/1.1\r\n\r\n",
	} {
		if res := serve(t, m, raw); res.Status != StatusNotFound {
			t.Errorf("%q: status %d, want 404", raw, res.Status)
		}
	}
}
