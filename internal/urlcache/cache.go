package urlcache

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Signer 抽象出签名 URL 的签发方，由对象存储实现。
type Signer interface {
	SignURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Entry 是一条已签发的 URL 缓存。
type Entry struct {
	Key       string    `json:"key"`
	SignedURL string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Cache 缓存展示用的签名 URL，避免同一张照片每次渲染都重新签名。
// 条目按读取时惰性判断过期；已经交给调用方的 URL 在其有效期内
// 始终可用，后续的清理不影响它。
type Cache struct {
	signer  Signer
	ttl     time.Duration
	mu      sync.Mutex
	entries map[string]Entry
	now     func() time.Time
}

// New 创建展示 URL 缓存，ttl 即签名 URL 的有效期。
func New(signer Signer, ttl time.Duration) *Cache {
	return &Cache{
		signer:  signer,
		ttl:     ttl,
		entries: make(map[string]Entry),
		now:     time.Now,
	}
}

// Resolve 返回 key 对应的可读 URL。命中未过期缓存时不触发签名调用，
// 否则签发一次并记录。
func (c *Cache) Resolve(ctx context.Context, key string) (string, error) {
	if c == nil || c.signer == nil {
		return "", errors.New("url cache uninitialized")
	}

	c.mu.Lock()
	if entry, ok := c.entries[key]; ok && c.now().Before(entry.ExpiresAt) {
		c.mu.Unlock()
		cacheHitsTotal.Inc()
		return entry.SignedURL, nil
	}
	c.mu.Unlock()

	// 签名调用放在锁外，避免网络请求阻塞其他 key 的读取。
	signCallsTotal.Inc()
	signed, err := c.signer.SignURL(ctx, key, c.ttl)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.entries[key] = Entry{
		Key:       key,
		SignedURL: signed,
		ExpiresAt: c.now().Add(c.ttl),
	}
	c.mu.Unlock()

	return signed, nil
}

// Invalidate 移除单个 key 的缓存条目，删除照片后调用。
func (c *Cache) Invalidate(key string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// InvalidateExpired 清理全部已过期条目，在会话开始时机会性调用。
func (c *Cache) InvalidateExpired() {
	if c == nil {
		return
	}
	now := c.now()

	c.mu.Lock()
	for key, entry := range c.entries {
		if !now.Before(entry.ExpiresAt) {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()
}
