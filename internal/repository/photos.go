package repository

import (
	"context"
	"time"
)

// PhotoRecord 代表数据库中一张照片的元数据。
// 除开放的 Metadata 字段外，记录在创建后不再变更。
type PhotoRecord struct {
	ID         string         `json:"id"`
	OwnerID    string         `json:"owner_id"`
	StorageKey string         `json:"storage_key"`
	Filename   string         `json:"filename"`
	SizeBytes  int64          `json:"size_bytes"`
	MimeType   string         `json:"mime_type"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// PhotoRepository 统一照片元数据持久层接口。
type PhotoRepository interface {
	Insert(ctx context.Context, record *PhotoRecord) (*PhotoRecord, error)
	GetByID(ctx context.Context, id string) (*PhotoRecord, error)
	// ListByOwner 按创建时间倒序返回指定用户的全部照片。
	ListByOwner(ctx context.Context, ownerID string) ([]PhotoRecord, error)
	DeleteByID(ctx context.Context, id string) error
}
