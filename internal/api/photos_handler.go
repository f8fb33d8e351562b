package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"cloudock/internal/middleware"
	"cloudock/internal/repository"
	"cloudock/internal/service"

	"github.com/go-chi/chi/v5"
)

// PhotoHandler 提供照片相关的 HTTP 端点。
type PhotoHandler struct {
	service       *service.PhotoService
	maxUploadSize int64
}

func NewPhotoHandler(s *service.PhotoService, maxUploadSize int64) *PhotoHandler {
	return &PhotoHandler{service: s, maxUploadSize: maxUploadSize}
}

func (h *PhotoHandler) RegisterRoutes(r chi.Router) {
	r.Route("/photos", func(r chi.Router) {
		r.Get("/", h.ListPhotos)
		r.Post("/", h.UploadPhotos)
		r.Get("/{id}/url", h.PhotoURL)
		r.Delete("/{id}", h.DeletePhoto)
	})
	r.Get("/storage", h.StorageInfo)
}

type envelope struct {
	Data any `json:"data"`
}

type errorEnvelope struct {
	Error string `json:"error"`
}

const (
	multipartMemoryBudget int64 = 16 * 1024 * 1024
	// 一次请求最多携带的文件数，读入上限按此计算
	maxBatchFiles = 32
)

// uploadTaskView 是任务结果的对外表示，错误以原文透出。
type uploadTaskView struct {
	Filename     string `json:"filename"`
	StorageKey   string `json:"storage_key,omitempty"`
	SizeBytes    int64  `json:"size_bytes"`
	Progress     int    `json:"progress"`
	State        string `json:"state"`
	Error        string `json:"error,omitempty"`
	QuotaWarning string `json:"quota_warning,omitempty"`
	PhotoID      string `json:"photo_id,omitempty"`
}

// UploadPhotos 接受 multipart/form-data 的一批照片并提交上传编排。
// 整批配额超限时返回 403 且不产生任何写入；单个文件的失败只影响
// 该文件对应的任务。
func (h *PhotoHandler) UploadPhotos(w http.ResponseWriter, r *http.Request) {
	if h == nil {
		writeError(w, http.StatusInternalServerError, "handler not initialized")
		return
	}

	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		writeError(w, http.StatusUnauthorized, "owner not resolved")
		return
	}
	if r.Body == nil {
		writeError(w, http.StatusBadRequest, "request body is empty")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize*maxBatchFiles+multipartMemoryBudget)
	defer r.Body.Close()

	if err := r.ParseMultipartForm(multipartMemoryBudget); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid multipart form: %v", err))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	headers := r.MultipartForm.File["photos"]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "photos field is required")
		return
	}
	if len(headers) > maxBatchFiles {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("too many files in one batch (max %d)", maxBatchFiles))
		return
	}

	files := make([]service.UploadFile, 0, len(headers))
	opened := make([]multipart.File, 0, len(headers))
	defer func() {
		for _, f := range opened {
			f.Close()
		}
	}()

	for _, header := range headers {
		if header.Size > h.maxUploadSize {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("file %s exceeds size limit", header.Filename))
			return
		}

		mimeType := header.Header.Get("Content-Type")
		if !strings.HasPrefix(mimeType, "image/") {
			writeError(w, http.StatusUnsupportedMediaType,
				fmt.Sprintf("file %s is not an image", header.Filename))
			return
		}

		file, err := header.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("open %s: %v", header.Filename, err))
			return
		}
		opened = append(opened, file)

		files = append(files, service.UploadFile{
			Filename:  header.Filename,
			MimeType:  mimeType,
			SizeBytes: header.Size,
			Reader:    file,
		})
	}

	tasks, err := h.service.SubmitBatch(r.Context(), ownerID, files)
	if err != nil {
		var quotaErr *service.QuotaExceededError
		if errors.As(err, &quotaErr) {
			writeError(w, http.StatusForbidden, quotaErr.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	views := make([]uploadTaskView, len(tasks))
	for i, task := range tasks {
		views[i] = uploadTaskView{
			Filename:   task.Filename,
			StorageKey: task.StorageKey,
			SizeBytes:  task.SizeBytes,
			Progress:   task.Progress,
			State:      string(task.State),
		}
		if task.Err != nil {
			views[i].Error = task.Err.Error()
		}
		if task.QuotaWarning != nil {
			views[i].QuotaWarning = task.QuotaWarning.Error()
		}
		if task.Record != nil {
			views[i].PhotoID = task.Record.ID
		}
	}

	writeJSON(w, http.StatusCreated, envelope{Data: views})
}

// ListPhotos 返回当前用户的照片，?group=date 时按天分组。
func (h *PhotoHandler) ListPhotos(w http.ResponseWriter, r *http.Request) {
	if h == nil {
		writeError(w, http.StatusInternalServerError, "handler not initialized")
		return
	}

	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		writeError(w, http.StatusUnauthorized, "owner not resolved")
		return
	}

	photos, err := h.service.ListPhotos(r.Context(), ownerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if r.URL.Query().Get("group") == "date" {
		writeJSON(w, http.StatusOK, envelope{Data: service.GroupByDate(photos)})
		return
	}

	writeJSON(w, http.StatusOK, envelope{Data: photos})
}

// PhotoURL 返回单张照片的签名访问 URL。
func (h *PhotoHandler) PhotoURL(w http.ResponseWriter, r *http.Request) {
	if h == nil {
		writeError(w, http.StatusInternalServerError, "handler not initialized")
		return
	}

	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		writeError(w, http.StatusUnauthorized, "owner not resolved")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "photo id is required")
		return
	}

	url, err := h.service.PhotoURL(r.Context(), ownerID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "photo not found")
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, envelope{Data: map[string]string{"url": url}})
}

// DeletePhoto 删除照片对象与元数据记录，成功后附带最新配额快照。
func (h *PhotoHandler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	if h == nil {
		writeError(w, http.StatusInternalServerError, "handler not initialized")
		return
	}

	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		writeError(w, http.StatusUnauthorized, "owner not resolved")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "photo id is required")
		return
	}

	record, err := h.service.GetPhoto(r.Context(), ownerID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "photo not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	result, err := h.service.DeletePhoto(r.Context(), record)
	if err != nil {
		// 失败时照片保持可见，错误原样透出供前端重新展示
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	payload := map[string]any{"id": id, "deleted": true}
	if result.Quota != nil {
		payload["storage_used_bytes"] = result.Quota.StorageUsedBytes
	}
	if result.QuotaWarning != nil {
		payload["quota_warning"] = result.QuotaWarning.Error()
	}

	writeJSON(w, http.StatusOK, envelope{Data: payload})
}

// StorageInfo 返回设置页所需的存储用量摘要。
func (h *PhotoHandler) StorageInfo(w http.ResponseWriter, r *http.Request) {
	if h == nil {
		writeError(w, http.StatusInternalServerError, "handler not initialized")
		return
	}

	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		writeError(w, http.StatusUnauthorized, "owner not resolved")
		return
	}

	info, err := h.service.StorageInfo(r.Context(), ownerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, envelope{Data: info})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorEnvelope{Error: message})
}
