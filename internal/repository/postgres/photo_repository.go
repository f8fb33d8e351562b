package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"cloudock/internal/repository"
)

// NewPhotoRepository 返回基于 *sql.DB 的 Postgres 实现。
func NewPhotoRepository(db *sql.DB) *PhotoRepository {
	return &PhotoRepository{db: db}
}

// PhotoRepository 实现 repository.PhotoRepository。
type PhotoRepository struct {
	db *sql.DB
}

var photoSelectColumns = []string{
	"id",
	"owner_id",
	"storage_key",
	"filename",
	"size_bytes",
	"mime_type",
	"metadata",
	"created_at",
}

var photoInsertColumns = []string{
	"id",
	"owner_id",
	"storage_key",
	"filename",
	"size_bytes",
	"mime_type",
	"metadata",
}

// Insert 插入照片记录并返回数据库生成字段（如时间戳）。
func (r *PhotoRepository) Insert(ctx context.Context, record *repository.PhotoRecord) (*repository.PhotoRecord, error) {
	if record == nil {
		return nil, fmt.Errorf("photo record is nil")
	}

	metadataBytes, err := encodeMetadata(record.Metadata)
	if err != nil {
		return nil, err
	}

	placeholders := make([]string, len(photoInsertColumns))
	for i := range photoInsertColumns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf(`INSERT INTO photos (%s)
	VALUES (%s)
	RETURNING %s`,
		strings.Join(photoInsertColumns, ","),
		strings.Join(placeholders, ","),
		strings.Join(photoSelectColumns, ","),
	)

	row := r.db.QueryRowContext(
		ctx,
		query,
		record.ID,
		record.OwnerID,
		record.StorageKey,
		record.Filename,
		record.SizeBytes,
		record.MimeType,
		metadataBytes,
	)

	return scanPhotoRecord(row)
}

// GetByID 通过主键查询照片记录。
func (r *PhotoRepository) GetByID(ctx context.Context, id string) (*repository.PhotoRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM photos WHERE id = $1`, strings.Join(photoSelectColumns, ","))
	row := r.db.QueryRowContext(ctx, query, id)
	photo, err := scanPhotoRecord(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return photo, nil
}

// ListByOwner 按创建时间倒序返回用户的全部照片。
func (r *PhotoRepository) ListByOwner(ctx context.Context, ownerID string) ([]repository.PhotoRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM photos WHERE owner_id = $1 ORDER BY created_at DESC`,
		strings.Join(photoSelectColumns, ","))

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []repository.PhotoRecord
	for rows.Next() {
		rec, err := scanPhotoRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// DeleteByID 删除照片记录。
func (r *PhotoRepository) DeleteByID(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM photos WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPhotoRecord(rs rowScanner) (*repository.PhotoRecord, error) {
	var (
		rec      repository.PhotoRecord
		metadata []byte
	)

	if err := rs.Scan(
		&rec.ID,
		&rec.OwnerID,
		&rec.StorageKey,
		&rec.Filename,
		&rec.SizeBytes,
		&rec.MimeType,
		&metadata,
		&rec.CreatedAt,
	); err != nil {
		return nil, err
	}

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &rec.Metadata); err != nil {
			return nil, err
		}
	}
	if rec.Metadata == nil {
		rec.Metadata = map[string]any{}
	}

	return &rec, nil
}

func encodeMetadata(meta map[string]any) ([]byte, error) {
	if meta == nil {
		meta = map[string]any{}
	}
	return json.Marshal(meta)
}
