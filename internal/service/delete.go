package service

import (
	"context"
	"errors"
	"fmt"

	"cloudock/internal/repository"
)

// DeleteResult 是一次删除操作的结果。
type DeleteResult struct {
	// Quota 是删除后重新读取的配额快照，读取失败时为 nil。
	Quota *repository.QuotaState
	// QuotaWarning 记录配额重读失败；删除本身已经成功。
	QuotaWarning error
}

// DeletePhoto 以对象存储优先的顺序删除一张照片：
// 先删对象，再删元数据记录，最后重读配额。
//
// 顺序的取舍：对象删除失败则整个操作中止，照片对用户完全无损；
// 对象删除成功而记录删除失败时留下指向缺失对象的悬空记录，
// 以 MetadataError 上报。相比让记录指向一个已不存在的对象，
// 孤儿对象只浪费存储、不破坏正确性，因此选择先删对象。
// 两步之间没有事务，也不自动重试第二步。
func (s *PhotoService) DeletePhoto(ctx context.Context, record *repository.PhotoRecord) (*DeleteResult, error) {
	if s == nil || s.photos == nil || s.quota == nil || s.store == nil {
		return nil, errors.New("photo service not initialized")
	}
	if record == nil || record.ID == "" || record.StorageKey == "" {
		return nil, fmt.Errorf("photo record is incomplete")
	}

	if err := s.store.Delete(ctx, record.StorageKey); err != nil {
		deletesTotal.WithLabelValues("object_failed").Inc()
		return nil, &ObjectStoreError{Op: "delete", Key: record.StorageKey, Err: err}
	}

	if err := s.photos.DeleteByID(ctx, record.ID); err != nil {
		// 对象已经没了，记录还在：悬空记录，后续解析 URL 会失败
		deletesTotal.WithLabelValues("record_failed").Inc()
		return nil, &MetadataError{Op: "delete", Key: record.StorageKey, Err: err}
	}

	s.display.Invalidate(record.StorageKey)
	deletesTotal.WithLabelValues("success").Inc()

	// 配额重读只是让调用方拿到最新快照，不做客户端推算的减量
	result := &DeleteResult{}
	quota, err := s.quota.GetQuota(ctx, record.OwnerID)
	if err != nil {
		result.QuotaWarning = fmt.Errorf("refresh quota after delete: %w", err)
	} else {
		result.Quota = quota
	}

	return result, nil
}
