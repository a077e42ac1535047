package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Local writes files under a directory that the HTTP server exposes at publicPath.
type Local struct {
	dir        string
	publicPath string
}

func NewLocal(dir, publicPath string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Local{dir: dir, publicPath: strings.TrimRight(publicPath, "/")}, nil
}

func (l *Local) Dir() string { return l.dir }

func (l *Local) Put(_ context.Context, prefix, filename, contentType string, r io.Reader, _ int64) (Object, error) {
	key, err := objectKey(prefix, filename, contentType)
	if err != nil {
		return Object{}, err
	}

	path := filepath.Join(l.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Object{}, fmt.Errorf("create upload dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return Object{}, fmt.Errorf("create upload file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return Object{}, fmt.Errorf("write upload file: %w", err)
	}
	if err := f.Close(); err != nil {
		return Object{}, fmt.Errorf("close upload file: %w", err)
	}

	return Object{Key: key, URL: l.publicPath + "/" + key}, nil
}

func (l *Local) Delete(_ context.Context, key string) error {
	if key == "" {
		return nil
	}
	err := os.Remove(filepath.Join(l.dir, filepath.FromSlash(key)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
