package service

import (
	"context"
	"errors"
	"fmt"
)

// StorageInfo 是设置页展示的存储用量摘要。
type StorageInfo struct {
	UsedBytes int64 `json:"used_bytes"`
	IsPremium bool  `json:"is_premium"`
	// LimitBytes 对高级用户为 nil（不设上限）。
	LimitBytes  *int64  `json:"limit_bytes,omitempty"`
	UsedPercent float64 `json:"used_percent"`
}

// StorageInfo 读取用户配额并换算展示字段。
func (s *PhotoService) StorageInfo(ctx context.Context, ownerID string) (*StorageInfo, error) {
	if s == nil || s.quota == nil {
		return nil, errors.New("photo service not initialized")
	}
	if ownerID == "" {
		return nil, fmt.Errorf("owner id is required")
	}

	quota, err := s.quota.GetQuota(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("read quota: %w", err)
	}

	info := &StorageInfo{
		UsedBytes: quota.StorageUsedBytes,
		IsPremium: quota.IsPremium,
	}
	if !quota.IsPremium {
		limit := s.freeLimit
		info.LimitBytes = &limit
		percent := float64(quota.StorageUsedBytes) / float64(limit) * 100
		if percent > 100 {
			percent = 100
		}
		info.UsedPercent = percent
	}

	return info, nil
}
