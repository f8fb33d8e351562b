package repository

import "context"

// QuotaState 代表一个用户的存储配额账本。
// StorageUsedBytes 只通过 IncrementQuota 的原子加法变更，
// 不允许由客户端读取后回写，以容忍多会话并发上传。
type QuotaState struct {
	OwnerID          string `json:"owner_id"`
	StorageUsedBytes int64  `json:"storage_used_bytes"`
	IsPremium        bool   `json:"is_premium"`
}

// QuotaRepository 是配额账本的访问接口。
type QuotaRepository interface {
	// GetQuota 读取用户配额，用户首次访问时自动建立零值记录。
	GetQuota(ctx context.Context, ownerID string) (*QuotaState, error)
	// IncrementQuota 在存储端原子地增加已用字节数，delta 可为负。
	IncrementQuota(ctx context.Context, ownerID string, delta int64) error
}
