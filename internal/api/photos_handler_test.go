package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"cloudock/internal/middleware"
	"cloudock/internal/repository"
	"cloudock/internal/service"
	"cloudock/internal/urlcache"

	"github.com/go-chi/chi/v5"
)

type handlerPhotoRepo struct {
	mu        sync.Mutex
	inserted  []*repository.PhotoRecord
	getResult *repository.PhotoRecord
	list      []repository.PhotoRecord
	deleted   []string
}

func (m *handlerPhotoRepo) Insert(ctx context.Context, record *repository.PhotoRecord) (*repository.PhotoRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record.CreatedAt = time.Now()
	m.inserted = append(m.inserted, record)
	return record, nil
}

func (m *handlerPhotoRepo) GetByID(ctx context.Context, id string) (*repository.PhotoRecord, error) {
	if m.getResult == nil {
		return nil, repository.ErrNotFound
	}
	return m.getResult, nil
}

func (m *handlerPhotoRepo) ListByOwner(ctx context.Context, ownerID string) ([]repository.PhotoRecord, error) {
	return m.list, nil
}

func (m *handlerPhotoRepo) DeleteByID(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, id)
	return nil
}

type handlerQuotaRepo struct {
	mu    sync.Mutex
	state repository.QuotaState
}

func (m *handlerQuotaRepo) GetQuota(ctx context.Context, ownerID string) (*repository.QuotaState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state := m.state
	state.OwnerID = ownerID
	return &state, nil
}

func (m *handlerQuotaRepo) IncrementQuota(ctx context.Context, ownerID string, delta int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.StorageUsedBytes += delta
	return nil
}

type handlerObjectStore struct {
	mu   sync.Mutex
	puts []string
	dels []string
}

func (m *handlerObjectStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if r != nil {
		_, _ = io.ReadAll(r)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts = append(m.puts, key)
	return nil
}

func (m *handlerObjectStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dels = append(m.dels, key)
	return nil
}

func (m *handlerObjectStore) SignURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return fmt.Sprintf("https://signed.example/%s", key), nil
}

func newTestHandler(photos *handlerPhotoRepo, quota *handlerQuotaRepo, store *handlerObjectStore) *PhotoHandler {
	display := urlcache.New(store, time.Hour)
	dedup, _ := urlcache.NewDedup(nil, 24*time.Hour)
	svc := service.NewPhotoService(photos, quota, store, display, dedup, 0)
	return NewPhotoHandler(svc, 100*1024*1024)
}

func withOwner(req *http.Request, ownerID string) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.OwnerContextKey{}, ownerID)
	return req.WithContext(ctx)
}

func newUploadRequest(t *testing.T, files map[string][]byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	for name, content := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="photos"; filename=%q`, name))
		header.Set("Content-Type", "image/jpeg")

		part, err := writer.CreatePart(header)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		if _, err := part.Write(content); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}

	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/photos", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestPhotoHandler_UploadPhotos(t *testing.T) {
	photos := &handlerPhotoRepo{}
	quota := &handlerQuotaRepo{}
	store := &handlerObjectStore{}
	handler := newTestHandler(photos, quota, store)

	req := withOwner(newUploadRequest(t, map[string][]byte{
		"cat.jpg": []byte("fake jpeg"),
	}), "user-1")
	rec := httptest.NewRecorder()

	handler.UploadPhotos(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data []struct {
			Filename string `json:"filename"`
			State    string `json:"state"`
			Progress int    `json:"progress"`
			PhotoID  string `json:"photo_id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Data) != 1 {
		t.Fatalf("expected 1 task, got %d", len(resp.Data))
	}
	if resp.Data[0].State != "success" || resp.Data[0].Progress != 100 {
		t.Fatalf("unexpected task: %+v", resp.Data[0])
	}
	if resp.Data[0].PhotoID == "" {
		t.Fatal("expected photo id in task view")
	}
	if len(photos.inserted) != 1 {
		t.Fatalf("expected one record, got %d", len(photos.inserted))
	}
	if quota.state.StorageUsedBytes != int64(len("fake jpeg")) {
		t.Fatalf("quota not incremented, used=%d", quota.state.StorageUsedBytes)
	}
}

func TestPhotoHandler_UploadPhotos_QuotaExceeded(t *testing.T) {
	photos := &handlerPhotoRepo{}
	quota := &handlerQuotaRepo{}
	quota.state.StorageUsedBytes = service.DefaultFreeStorageLimit
	store := &handlerObjectStore{}
	handler := newTestHandler(photos, quota, store)

	req := withOwner(newUploadRequest(t, map[string][]byte{
		"cat.jpg": []byte("fake jpeg"),
	}), "user-1")
	rec := httptest.NewRecorder()

	handler.UploadPhotos(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if len(store.puts) != 0 {
		t.Fatalf("expected no object writes, got %v", store.puts)
	}
}

func TestPhotoHandler_UploadPhotos_RejectsNonImage(t *testing.T) {
	handler := newTestHandler(&handlerPhotoRepo{}, &handlerQuotaRepo{}, &handlerObjectStore{})

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="photos"; filename="doc.pdf"`)
	header.Set("Content-Type", "application/pdf")
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	_, _ = part.Write([]byte("%PDF"))
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/photos", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()

	handler.UploadPhotos(rec, withOwner(req, "user-1"))

	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", rec.Code)
	}
}

func TestPhotoHandler_UploadPhotos_RequiresOwner(t *testing.T) {
	handler := newTestHandler(&handlerPhotoRepo{}, &handlerQuotaRepo{}, &handlerObjectStore{})

	req := newUploadRequest(t, map[string][]byte{"cat.jpg": []byte("x")})
	rec := httptest.NewRecorder()

	handler.UploadPhotos(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestPhotoHandler_ListPhotos(t *testing.T) {
	photos := &handlerPhotoRepo{
		list: []repository.PhotoRecord{
			{ID: "1", OwnerID: "user-1", StorageKey: "user-1/1-a.jpg", Filename: "a.jpg", CreatedAt: time.Now()},
		},
	}
	handler := newTestHandler(photos, &handlerQuotaRepo{}, &handlerObjectStore{})

	req := withOwner(httptest.NewRequest(http.MethodGet, "/photos", nil), "user-1")
	rec := httptest.NewRecorder()

	handler.ListPhotos(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Data []service.GalleryPhoto `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Data) != 1 {
		t.Fatalf("expected 1 photo, got %d", len(resp.Data))
	}
	if resp.Data[0].SignedURL == "" {
		t.Fatal("expected signed url on listing")
	}
}

func TestPhotoHandler_DeletePhoto(t *testing.T) {
	record := &repository.PhotoRecord{
		ID: "photo-1", OwnerID: "user-1", StorageKey: "user-1/1-a.jpg", Filename: "a.jpg",
	}
	photos := &handlerPhotoRepo{getResult: record}
	quota := &handlerQuotaRepo{}
	store := &handlerObjectStore{}
	handler := newTestHandler(photos, quota, store)

	router := chi.NewRouter()
	router.Delete("/photos/{id}", handler.DeletePhoto)

	req := withOwner(httptest.NewRequest(http.MethodDelete, "/photos/photo-1", nil), "user-1")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(store.dels) != 1 || store.dels[0] != record.StorageKey {
		t.Fatalf("object not deleted: %v", store.dels)
	}
	if len(photos.deleted) != 1 || photos.deleted[0] != record.ID {
		t.Fatalf("record not deleted: %v", photos.deleted)
	}
}

func TestPhotoHandler_DeletePhoto_ForeignOwner(t *testing.T) {
	record := &repository.PhotoRecord{
		ID: "photo-1", OwnerID: "user-1", StorageKey: "user-1/1-a.jpg",
	}
	photos := &handlerPhotoRepo{getResult: record}
	handler := newTestHandler(photos, &handlerQuotaRepo{}, &handlerObjectStore{})

	router := chi.NewRouter()
	router.Delete("/photos/{id}", handler.DeletePhoto)

	req := withOwner(httptest.NewRequest(http.MethodDelete, "/photos/photo-1", nil), "user-2")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign photo, got %d", rec.Code)
	}
	if len(photos.deleted) != 0 {
		t.Fatalf("foreign photo must not be deleted: %v", photos.deleted)
	}
}

func TestPhotoHandler_StorageInfo(t *testing.T) {
	quota := &handlerQuotaRepo{}
	quota.state.StorageUsedBytes = 1024
	handler := newTestHandler(&handlerPhotoRepo{}, quota, &handlerObjectStore{})

	req := withOwner(httptest.NewRequest(http.MethodGet, "/storage", nil), "user-1")
	rec := httptest.NewRecorder()

	handler.StorageInfo(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Data service.StorageInfo `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.UsedBytes != 1024 {
		t.Fatalf("unexpected used bytes: %d", resp.Data.UsedBytes)
	}
	if resp.Data.LimitBytes == nil {
		t.Fatal("free user must have a limit")
	}
}
