package urlcache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore 把去重缓存条目持久化为单个 JSON 文件，
// 对应原来松散的本地 key/value 存储的类型化替代。
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Load 读取全部条目。文件不存在视为空缓存。
func (s *FileStore) Load() ([]Entry, error) {
	if s == nil || s.Path == "" {
		return nil, fmt.Errorf("file store uninitialized")
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read cache file: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode cache file: %w", err)
	}
	return entries, nil
}

// Save 原子写入全部条目：先写临时文件再 rename。
func (s *FileStore) Save(entries []Entry) error {
	if s == nil || s.Path == "" {
		return fmt.Errorf("file store uninitialized")
	}

	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode cache file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return fmt.Errorf("ensure cache dir: %w", err)
	}

	tempPath := s.Path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := os.Rename(tempPath, s.Path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("rename cache file: %w", err)
	}
	return nil
}
