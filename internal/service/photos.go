package service

import (
	"time"

	"cloudock/internal/repository"
	"cloudock/internal/storage"
	"cloudock/internal/urlcache"
)

const (
	// DefaultFreeStorageLimit 免费层存储上限：5 GiB。
	DefaultFreeStorageLimit int64 = 5 * 1024 * 1024 * 1024
	// DefaultDedupTTL 上传去重缓存的有效窗口。
	DefaultDedupTTL = 24 * time.Hour
	// DefaultDisplayURLTTL 展示用签名 URL 的有效期。
	DefaultDisplayURLTTL = time.Hour
)

// PhotoService 封装照片的上传、删除与浏览编排。
// 对象存储、元数据库和配额账本是三个互相独立的系统，
// 这里只保证既定的调用顺序，不提供跨系统事务。
type PhotoService struct {
	photos    repository.PhotoRepository
	quota     repository.QuotaRepository
	store     storage.ObjectStore
	display   *urlcache.Cache
	dedup     *urlcache.DedupCache
	freeLimit int64
	now       func() time.Time
}

func NewPhotoService(
	photos repository.PhotoRepository,
	quota repository.QuotaRepository,
	store storage.ObjectStore,
	display *urlcache.Cache,
	dedup *urlcache.DedupCache,
	freeLimit int64,
) *PhotoService {
	if freeLimit <= 0 {
		freeLimit = DefaultFreeStorageLimit
	}
	return &PhotoService{
		photos:    photos,
		quota:     quota,
		store:     store,
		display:   display,
		dedup:     dedup,
		freeLimit: freeLimit,
		now:       time.Now,
	}
}
