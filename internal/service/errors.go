package service

import "fmt"

// QuotaExceededError 表示整批上传在配额闸门被拒绝，未产生任何写入。
type QuotaExceededError struct {
	OwnerID        string
	UsedBytes      int64
	RequestedBytes int64
	LimitBytes     int64
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("storage quota exceeded: used %d + requested %d > limit %d",
		e.UsedBytes, e.RequestedBytes, e.LimitBytes)
}

// ObjectStoreError 表示对象存储调用（写入/删除/签名）失败，
// 发生在元数据写入之前，不会留下半成品记录。
type ObjectStoreError struct {
	Op  string // "put" / "delete" / "sign"
	Key string
	Err error
}

func (e *ObjectStoreError) Error() string {
	return fmt.Sprintf("object store %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *ObjectStoreError) Unwrap() error { return e.Err }

// MetadataError 表示元数据库操作失败。上传路径上对象已写入存储，
// 留下一个有意保留的孤儿对象；删除路径上对象已删除，留下悬空记录。
// 本层不重试也不回滚。
type MetadataError struct {
	Op  string // "insert" / "delete"
	Key string
	Err error
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("photo metadata %s (key %s): %v", e.Op, e.Key, e.Err)
}

func (e *MetadataError) Unwrap() error { return e.Err }

// QuotaUpdateError 表示对象与元数据均已成功、仅账本增量失败。
// 文件已安全存储，因此它作为警告上报，与上传失败区分开。
type QuotaUpdateError struct {
	OwnerID string
	Delta   int64
	Err     error
}

func (e *QuotaUpdateError) Error() string {
	return fmt.Sprintf("quota increment %+d for %s: %v", e.Delta, e.OwnerID, e.Err)
}

func (e *QuotaUpdateError) Unwrap() error { return e.Err }
