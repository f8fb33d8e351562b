package local

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// Store 将照片对象写入本地文件系统，用于开发环境。
// SignURL 直接拼接 BaseURL，不做真正的签名。
type Store struct {
	BaseDir string
	BaseURL string
}

func NewStore(baseDir, baseURL string) *Store {
	return &Store{BaseDir: baseDir, BaseURL: baseURL}
}

// Put 写入对象。先写临时文件再 rename，避免读到写了一半的内容。
func (s *Store) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if s == nil {
		return fmt.Errorf("local store uninitialized")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	targetPath := filepath.Join(s.BaseDir, filepath.Clean(key))
	if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}

	tempPath := targetPath + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	if _, err := io.Copy(file, r); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("write file: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("sync file: %w", err)
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("close file: %w", err)
	}

	if err := os.Rename(tempPath, targetPath); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}

// Delete 删除指定 key 的本地文件。
func (s *Store) Delete(ctx context.Context, key string) error {
	if s == nil {
		return fmt.Errorf("local store uninitialized")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	targetPath := filepath.Join(s.BaseDir, filepath.Clean(key))
	if err := os.Remove(targetPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", key)
		}
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

// SignURL 返回 BaseURL 下的静态路径。本地驱动没有访问控制，
// ttl 仅用于满足接口。
func (s *Store) SignURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if s == nil {
		return "", fmt.Errorf("local store uninitialized")
	}
	if s.BaseURL == "" {
		return "", fmt.Errorf("local store has no base url")
	}

	targetPath := filepath.Join(s.BaseDir, filepath.Clean(key))
	if _, err := os.Stat(targetPath); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("file not found: %s", key)
		}
		return "", fmt.Errorf("stat file: %w", err)
	}

	u, err := url.JoinPath(s.BaseURL, filepath.ToSlash(filepath.Clean(key)))
	if err != nil {
		return "", fmt.Errorf("join url: %w", err)
	}
	return u, nil
}
