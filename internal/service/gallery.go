package service

import (
	"context"
	"errors"
	"fmt"

	"cloudock/internal/repository"
)

// GalleryPhoto 是带可读 URL 的照片记录。
type GalleryPhoto struct {
	repository.PhotoRecord
	SignedURL string `json:"signed_url,omitempty"`
	// Unavailable 表示记录存在但 URL 解析失败（典型是删除半途
	// 留下的悬空记录），列表整体不因此失败。
	Unavailable bool `json:"unavailable,omitempty"`
}

// GalleryGroup 按拍摄日聚合照片，供画廊按天分组展示。
type GalleryGroup struct {
	Date   string         `json:"date"`
	Photos []GalleryPhoto `json:"photos"`
}

// ListPhotos 按创建时间倒序返回用户全部照片，并为每张解析签名 URL。
// 解析走展示缓存，同一窗口内的重复渲染不会重复签名。
func (s *PhotoService) ListPhotos(ctx context.Context, ownerID string) ([]GalleryPhoto, error) {
	if s == nil || s.photos == nil {
		return nil, errors.New("photo service not initialized")
	}
	if ownerID == "" {
		return nil, fmt.Errorf("owner id is required")
	}

	// 会话开始时机会性清理过期条目
	s.display.InvalidateExpired()

	records, err := s.photos.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}

	photos := make([]GalleryPhoto, 0, len(records))
	for _, rec := range records {
		photo := GalleryPhoto{PhotoRecord: rec}
		url, err := s.display.Resolve(ctx, rec.StorageKey)
		if err != nil {
			photo.Unavailable = true
		} else {
			photo.SignedURL = url
		}
		photos = append(photos, photo)
	}

	return photos, nil
}

// GetPhoto 返回单条照片记录，带归属校验；他人照片一律按不存在处理。
func (s *PhotoService) GetPhoto(ctx context.Context, ownerID, photoID string) (*repository.PhotoRecord, error) {
	if s == nil || s.photos == nil {
		return nil, errors.New("photo service not initialized")
	}

	record, err := s.photos.GetByID(ctx, photoID)
	if err != nil {
		return nil, err
	}
	if record.OwnerID != ownerID {
		return nil, repository.ErrNotFound
	}
	return record, nil
}

// PhotoURL 返回单张照片的签名 URL，带归属校验。
func (s *PhotoService) PhotoURL(ctx context.Context, ownerID, photoID string) (string, error) {
	if s == nil || s.photos == nil {
		return "", errors.New("photo service not initialized")
	}

	record, err := s.GetPhoto(ctx, ownerID, photoID)
	if err != nil {
		return "", err
	}

	url, err := s.display.Resolve(ctx, record.StorageKey)
	if err != nil {
		return "", &ObjectStoreError{Op: "sign", Key: record.StorageKey, Err: err}
	}
	return url, nil
}

// GroupByDate 把照片按创建日期（本地历法日，新在前）分组。
// 输入假定已按创建时间倒序排列。
func GroupByDate(photos []GalleryPhoto) []GalleryGroup {
	var groups []GalleryGroup
	for _, photo := range photos {
		date := photo.CreatedAt.Format("January 2, 2006")
		if n := len(groups); n > 0 && groups[n-1].Date == date {
			groups[n-1].Photos = append(groups[n-1].Photos, photo)
			continue
		}
		groups = append(groups, GalleryGroup{Date: date, Photos: []GalleryPhoto{photo}})
	}
	return groups
}
