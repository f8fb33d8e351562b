package storage

import (
	"context"
	"io"
	"time"
)

// ObjectStore 定义照片二进制对象的存储接口。
// bucket、region 等属于实现的固定配置，不作为调用参数。
type ObjectStore interface {
	// Put 以流式方式写入对象。对象一经写入视为不可变，
	// 同一逻辑照片的重新上传总是使用新 key，不覆盖旧对象。
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Delete 删除指定 key 的对象。
	Delete(ctx context.Context, key string) error
	// SignURL 签发一个限时可读的访问 URL。
	SignURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}
