package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"cloudock/internal/repository"
)

// NewQuotaRepository 返回基于 *sql.DB 的配额账本实现。
func NewQuotaRepository(db *sql.DB) *QuotaRepository {
	return &QuotaRepository{db: db}
}

// QuotaRepository 实现 repository.QuotaRepository。
type QuotaRepository struct {
	db *sql.DB
}

// GetQuota 读取用户配额。首次访问的用户自动插入零值行，
// 保证后续的原子增量总有目标行可用。
func (r *QuotaRepository) GetQuota(ctx context.Context, ownerID string) (*repository.QuotaState, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("owner id is empty")
	}

	query := `INSERT INTO user_storage (owner_id) VALUES ($1)
	ON CONFLICT (owner_id) DO UPDATE SET owner_id = EXCLUDED.owner_id
	RETURNING owner_id, storage_used, is_premium`

	state := &repository.QuotaState{}
	if err := r.db.QueryRowContext(ctx, query, ownerID).Scan(
		&state.OwnerID,
		&state.StorageUsedBytes,
		&state.IsPremium,
	); err != nil {
		return nil, fmt.Errorf("get quota: %w", err)
	}

	return state, nil
}

// IncrementQuota 在数据库端原子地累加已用字节数。
// 加法发生在 UPDATE 语句内部，不经过客户端读-改-写，
// 因此多会话并发上传时最终总量仍然正确。
func (r *QuotaRepository) IncrementQuota(ctx context.Context, ownerID string, delta int64) error {
	if ownerID == "" {
		return fmt.Errorf("owner id is empty")
	}

	query := `UPDATE user_storage
	SET storage_used = GREATEST(storage_used + $1, 0), updated_at = NOW()
	WHERE owner_id = $2`

	res, err := r.db.ExecContext(ctx, query, delta, ownerID)
	if err != nil {
		return fmt.Errorf("increment quota: %w", err)
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
