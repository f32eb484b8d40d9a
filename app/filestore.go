package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrInvalidName 文件名为空、是绝对路径、会跳出基础目录，或者是上传用的临时文件
var ErrInvalidName = errors.New("invalid file name")

// uploadTempPrefix 写入过程中的临时文件前缀，不对外可见
const uploadTempPrefix = ".upload-"

// FileStore 把 /files/* 的读写限定在基础目录内
type FileStore struct {
	dir   string
	locks *pathLocks
}

// NewFileStore dir 为空时相对于进程工作目录
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir, locks: newPathLocks()}
}

func (s *FileStore) path(name string) (string, error) {
	if name == "" || !filepath.IsLocal(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	for _, elem := range strings.Split(filepath.ToSlash(name), "/") {
		if strings.HasPrefix(elem, uploadTempPrefix) {
			return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
		}
	}
	return filepath.Join(s.dir, name), nil
}

// Read 读取整个文件。目录按不存在处理。
func (s *FileStore) Read(name string) ([]byte, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.rlock(p)
	defer unlock()

	info, err := os.Stat(p)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, &fs.PathError{Op: "read", Path: p, Err: fs.ErrNotExist}
	}
	return os.ReadFile(p)
}

// Write 用 data 覆盖文件全部内容。
// 先写同目录下的临时文件再 rename，读者不会看到写了一半的文件。
func (s *FileStore) Write(name string, data []byte) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	unlock := s.locks.lock(p)
	defer unlock()

	tmp, err := os.CreateTemp(filepath.Dir(p), uploadTempPrefix+"*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, p); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// pathLocks 每个路径一把读写锁，引用计数归零时删除
type pathLocks struct {
	mu sync.Mutex
	m  map[string]*pathLock
}

type pathLock struct {
	rw   sync.RWMutex
	refs int
}

func newPathLocks() *pathLocks {
	return &pathLocks{m: make(map[string]*pathLock)}
}

func (l *pathLocks) acquire(p string) *pathLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	pl, ok := l.m[p]
	if !ok {
		pl = &pathLock{}
		l.m[p] = pl
	}
	pl.refs++
	return pl
}

func (l *pathLocks) release(p string, pl *pathLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	pl.refs--
	if pl.refs == 0 {
		delete(l.m, p)
	}
}

func (l *pathLocks) lock(p string) func() {
	pl := l.acquire(p)
	pl.rw.Lock()
	return func() {
		pl.rw.Unlock()
		l.release(p, pl)
	}
}

func (l *pathLocks) rlock(p string) func() {
	pl := l.acquire(p)
	pl.rw.RLock()
	return func() {
		pl.rw.RUnlock()
		l.release(p, pl)
	}
}
