package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"cloudock/internal/repository"
	"cloudock/internal/storage"

	"github.com/google/uuid"
)

// UploadFile 描述一批上传中的单个文件。
type UploadFile struct {
	Filename  string
	MimeType  string
	SizeBytes int64
	Reader    io.Reader
}

// TaskState 描述单个上传任务的终态。
type TaskState string

const (
	TaskPending    TaskState = "pending"
	TaskCachedSkip TaskState = "cached_skip"
	TaskSuccess    TaskState = "success"
	TaskFailed     TaskState = "failed"
)

// UploadTask 是一个文件的上传进度与结果，任务之间互不共享可变状态。
type UploadTask struct {
	Filename   string
	StorageKey string
	SizeBytes  int64
	Progress   int
	State      TaskState
	// Err 是导致任务失败的原始错误。
	Err error
	// QuotaWarning 表示文件已安全存储但账本增量失败，用量暂时少计。
	QuotaWarning error
	// Record 在任务成功后指向新建的元数据记录。
	Record *repository.PhotoRecord
}

// SubmitBatch 提交一批文件。配额闸门对整批生效：免费用户只要
// 已用量加上整批大小超限，整批拒绝且不发生任何写入。通过闸门的
// 文件各自独立并发处理，彼此失败互不影响。
//
// 闸门是先读后判的快照检查，同一用户的多个会话可能同时通过并
// 合计超限；这是已接受的竞态，账本侧的原子加法保证最终总量正确。
func (s *PhotoService) SubmitBatch(ctx context.Context, ownerID string, files []UploadFile) ([]UploadTask, error) {
	if s == nil || s.photos == nil || s.quota == nil || s.store == nil {
		return nil, errors.New("photo service not initialized")
	}
	if ownerID == "" {
		return nil, fmt.Errorf("owner id is required")
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files in batch")
	}
	for _, f := range files {
		if f.Filename == "" {
			return nil, fmt.Errorf("filename is required")
		}
		if f.SizeBytes < 0 {
			return nil, fmt.Errorf("size must not be negative")
		}
	}

	quota, err := s.quota.GetQuota(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("read quota: %w", err)
	}

	var totalBatchSize int64
	for _, f := range files {
		totalBatchSize += f.SizeBytes
	}

	if !quota.IsPremium && quota.StorageUsedBytes+totalBatchSize > s.freeLimit {
		uploadsTotal.WithLabelValues("quota_rejected").Add(float64(len(files)))
		return nil, &QuotaExceededError{
			OwnerID:        ownerID,
			UsedBytes:      quota.StorageUsedBytes,
			RequestedBytes: totalBatchSize,
			LimitBytes:     s.freeLimit,
		}
	}

	tasks := make([]UploadTask, len(files))

	var wg sync.WaitGroup
	for i := range files {
		tasks[i] = UploadTask{
			Filename:  files[i].Filename,
			SizeBytes: files[i].SizeBytes,
			State:     TaskPending,
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.uploadOne(ctx, ownerID, files[i], &tasks[i])
		}(i)
	}
	wg.Wait()

	return tasks, nil
}

// uploadOne 执行单文件的 对象写入 → 元数据插入 → 配额增量 序列。
// 任何一步失败都不回滚已成功的步骤，也不自动重试。
func (s *PhotoService) uploadOne(ctx context.Context, ownerID string, file UploadFile, task *UploadTask) {
	key := storage.BuildKey(ownerID, file.Filename, s.now())
	task.StorageKey = key

	// 去重：窗口期内已确认上传过同一 key 时直接跳过
	if _, ok := s.dedup.Lookup(key); ok {
		task.State = TaskCachedSkip
		task.Progress = 100
		uploadsTotal.WithLabelValues("cached_skip").Inc()
		return
	}

	if err := s.store.Put(ctx, key, file.Reader, file.SizeBytes, file.MimeType); err != nil {
		s.failTask(task, &ObjectStoreError{Op: "put", Key: key, Err: err})
		return
	}

	// 对象已写入，登记去重缓存；签名拿不到 URL 也照常登记，
	// 去重只看 key 是否在窗口内
	signedURL, err := s.store.SignURL(ctx, key, DefaultDedupTTL)
	if err != nil {
		signedURL = ""
	}
	// 持久化失败只损失去重能力，不影响本次上传
	_ = s.dedup.Record(key, signedURL)

	record := &repository.PhotoRecord{
		ID:         uuid.NewString(),
		OwnerID:    ownerID,
		StorageKey: key,
		Filename:   file.Filename,
		SizeBytes:  file.SizeBytes,
		MimeType:   file.MimeType,
		Metadata:   map[string]any{},
	}

	created, err := s.photos.Insert(ctx, record)
	if err != nil {
		// 对象已在存储中，留作孤儿，由上层决定是否重试
		s.failTask(task, &MetadataError{Op: "insert", Key: key, Err: err})
		return
	}
	task.Record = created

	if err := s.quota.IncrementQuota(ctx, ownerID, file.SizeBytes); err != nil {
		// 文件已安全存储，账本少计作为警告上报而非失败
		task.QuotaWarning = &QuotaUpdateError{OwnerID: ownerID, Delta: file.SizeBytes, Err: err}
	}

	task.State = TaskSuccess
	task.Progress = 100
	uploadsTotal.WithLabelValues("success").Inc()
	uploadedBytesTotal.Add(float64(file.SizeBytes))
}

func (s *PhotoService) failTask(task *UploadTask, err error) {
	task.State = TaskFailed
	task.Err = err
	uploadsTotal.WithLabelValues("failed").Inc()
}
