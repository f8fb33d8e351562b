package service

import (
	"context"
	"errors"
	"testing"

	"cloudock/internal/repository"
)

func testRecord() *repository.PhotoRecord {
	return &repository.PhotoRecord{
		ID:         "photo-1",
		OwnerID:    "user-1",
		StorageKey: "user-1/1700000000000-cat.jpg",
		Filename:   "cat.jpg",
		SizeBytes:  1234,
		MimeType:   "image/jpeg",
	}
}

func TestDeletePhoto_ObjectDeleteFailureKeepsRecord(t *testing.T) {
	photos := &mockPhotoRepo{}
	quota := &mockQuotaRepo{}
	store := newMockObjectStore()
	store.deleteErr = errors.New("access denied")
	svc := newTestService(photos, quota, store)

	_, err := svc.DeletePhoto(context.Background(), testRecord())

	var storeErr *ObjectStoreError
	if !errors.As(err, &storeErr) {
		t.Fatalf("expected ObjectStoreError, got %v", err)
	}
	if len(photos.deletedIDs) != 0 {
		t.Fatalf("metadata record must survive object delete failure, deleted %v", photos.deletedIDs)
	}
}

func TestDeletePhoto_RecordDeleteFailureReportsDanglingRecord(t *testing.T) {
	photos := &mockPhotoRepo{deleteErr: errors.New("db timeout")}
	quota := &mockQuotaRepo{}
	store := newMockObjectStore()
	svc := newTestService(photos, quota, store)

	record := testRecord()
	_, err := svc.DeletePhoto(context.Background(), record)

	var metaErr *MetadataError
	if !errors.As(err, &metaErr) {
		t.Fatalf("expected MetadataError, got %v", err)
	}
	// 对象已确认删除，记录悬空
	if len(store.deleted) != 1 || store.deleted[0] != record.StorageKey {
		t.Fatalf("object should be deleted, got %v", store.deleted)
	}
}

func TestDeletePhoto_SuccessRefreshesQuota(t *testing.T) {
	photos := &mockPhotoRepo{}
	quota := &mockQuotaRepo{}
	quota.state.StorageUsedBytes = 777
	store := newMockObjectStore()
	svc := newTestService(photos, quota, store)

	record := testRecord()
	result, err := svc.DeletePhoto(context.Background(), record)
	if err != nil {
		t.Fatalf("DeletePhoto returned error: %v", err)
	}

	if len(store.deleted) != 1 {
		t.Fatalf("expected one object delete, got %v", store.deleted)
	}
	if len(photos.deletedIDs) != 1 || photos.deletedIDs[0] != record.ID {
		t.Fatalf("expected record delete, got %v", photos.deletedIDs)
	}
	if result.Quota == nil || result.Quota.StorageUsedBytes != 777 {
		t.Fatalf("expected refreshed quota snapshot, got %+v", result.Quota)
	}
	if result.QuotaWarning != nil {
		t.Fatalf("unexpected quota warning: %v", result.QuotaWarning)
	}
}

func TestDeletePhoto_QuotaRefreshFailureIsWarning(t *testing.T) {
	photos := &mockPhotoRepo{}
	quota := &mockQuotaRepo{getErr: errors.New("ledger down")}
	store := newMockObjectStore()
	svc := newTestService(photos, quota, store)

	result, err := svc.DeletePhoto(context.Background(), testRecord())
	if err != nil {
		t.Fatalf("delete itself succeeded, got error: %v", err)
	}
	if result.QuotaWarning == nil {
		t.Fatal("expected quota refresh warning")
	}
	if result.Quota != nil {
		t.Fatalf("quota should be nil on refresh failure, got %+v", result.Quota)
	}
}
