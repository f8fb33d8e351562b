package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"cloudock/internal/repository"
	"cloudock/internal/urlcache"
)

type mockPhotoRepo struct {
	mu         sync.Mutex
	inserted   []*repository.PhotoRecord
	insertErr  error
	getResult  *repository.PhotoRecord
	getErr     error
	listResult []repository.PhotoRecord
	listErr    error
	deletedIDs []string
	deleteErr  error
}

func (m *mockPhotoRepo) Insert(ctx context.Context, record *repository.PhotoRecord) (*repository.PhotoRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return nil, m.insertErr
	}
	record.CreatedAt = time.Now()
	m.inserted = append(m.inserted, record)
	return record, nil
}

func (m *mockPhotoRepo) GetByID(ctx context.Context, id string) (*repository.PhotoRecord, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.getResult == nil {
		return nil, repository.ErrNotFound
	}
	return m.getResult, nil
}

func (m *mockPhotoRepo) ListByOwner(ctx context.Context, ownerID string) ([]repository.PhotoRecord, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.listResult, nil
}

func (m *mockPhotoRepo) DeleteByID(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deletedIDs = append(m.deletedIDs, id)
	return nil
}

func (m *mockPhotoRepo) insertedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inserted)
}

type mockQuotaRepo struct {
	mu           sync.Mutex
	state        repository.QuotaState
	getErr       error
	incrementErr error
	increments   []int64
}

func (m *mockQuotaRepo) GetQuota(ctx context.Context, ownerID string) (*repository.QuotaState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	state := m.state
	state.OwnerID = ownerID
	return &state, nil
}

func (m *mockQuotaRepo) IncrementQuota(ctx context.Context, ownerID string, delta int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.incrementErr != nil {
		return m.incrementErr
	}
	m.increments = append(m.increments, delta)
	m.state.StorageUsedBytes += delta
	return nil
}

type mockObjectStore struct {
	mu         sync.Mutex
	putKeys    []string
	putData    map[string][]byte
	putErrFor  map[string]error // 按文件名后缀匹配
	deleted    []string
	deleteErr  error
	signCalls  int
	signErrFor map[string]error
}

func newMockObjectStore() *mockObjectStore {
	return &mockObjectStore{
		putData:    make(map[string][]byte),
		putErrFor:  make(map[string]error),
		signErrFor: make(map[string]error),
	}
}

func (m *mockObjectStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	var data []byte
	if r != nil {
		var err error
		data, err = io.ReadAll(r)
		if err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for suffix, err := range m.putErrFor {
		if strings.HasSuffix(key, suffix) {
			return err
		}
	}
	m.putKeys = append(m.putKeys, key)
	m.putData[key] = data
	return nil
}

func (m *mockObjectStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *mockObjectStore) SignURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signCalls++
	if err, ok := m.signErrFor[key]; ok {
		return "", err
	}
	return fmt.Sprintf("https://signed.example/%s", key), nil
}

func (m *mockObjectStore) putCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.putKeys)
}

func newTestService(photos *mockPhotoRepo, quota *mockQuotaRepo, store *mockObjectStore) *PhotoService {
	display := urlcache.New(store, DefaultDisplayURLTTL)
	dedup, _ := urlcache.NewDedup(nil, DefaultDedupTTL)
	return NewPhotoService(photos, quota, store, display, dedup, 0)
}
