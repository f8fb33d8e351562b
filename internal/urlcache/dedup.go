package urlcache

import (
	"fmt"
	"sync"
	"time"
)

// PersistentStore 是去重缓存的持久化抽象，把缓存契约与具体
// 存储介质解耦；默认实现为本地 JSON 文件（见 filestore.go）。
type PersistentStore interface {
	Load() ([]Entry, error)
	Save(entries []Entry) error
}

// DedupCache 记录近期确认上传成功的对象 key，窗口期内重复提交
// 同一 key 时直接跳过重新上传。与展示 URL 缓存是两套独立机制，
// 各有自己的 TTL。
type DedupCache struct {
	store PersistentStore
	ttl   time.Duration
	mu    sync.Mutex
	byKey map[string]Entry
	now   func() time.Time
}

// NewDedup 加载持久化的去重缓存并清理过期条目。
func NewDedup(store PersistentStore, ttl time.Duration) (*DedupCache, error) {
	c := &DedupCache{
		store: store,
		ttl:   ttl,
		byKey: make(map[string]Entry),
		now:   time.Now,
	}

	if store != nil {
		entries, err := store.Load()
		if err != nil {
			return nil, fmt.Errorf("load dedup cache: %w", err)
		}
		now := c.now()
		for _, entry := range entries {
			if now.Before(entry.ExpiresAt) {
				c.byKey[entry.Key] = entry
			}
		}
		// 启动时把裁剪后的结果写回，持久层不会无限增长
		if err := c.persistLocked(); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Lookup 返回 key 在有效窗口内的缓存 URL，未命中返回 false。
func (c *DedupCache) Lookup(key string) (string, bool) {
	if c == nil {
		return "", false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.byKey[key]
	if !ok || !c.now().Before(entry.ExpiresAt) {
		return "", false
	}
	return entry.SignedURL, true
}

// Record 登记一次确认成功的上传。持久化失败不影响上传结果，
// 只是下次重复提交会再走一遍对象写入。
func (c *DedupCache) Record(key, url string) error {
	if c == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.byKey[key] = Entry{
		Key:       key,
		SignedURL: url,
		ExpiresAt: c.now().Add(c.ttl),
	}
	return c.persistLocked()
}

// PruneExpired 丢弃全部过期条目并写回持久层。
func (c *DedupCache) PruneExpired() error {
	if c == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, entry := range c.byKey {
		if !now.Before(entry.ExpiresAt) {
			delete(c.byKey, key)
		}
	}
	return c.persistLocked()
}

func (c *DedupCache) persistLocked() error {
	if c.store == nil {
		return nil
	}

	entries := make([]Entry, 0, len(c.byKey))
	for _, entry := range c.byKey {
		entries = append(entries, entry)
	}
	if err := c.store.Save(entries); err != nil {
		return fmt.Errorf("save dedup cache: %w", err)
	}
	return nil
}
