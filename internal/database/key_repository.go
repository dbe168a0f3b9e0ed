package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gaoxing-kai/douyin-ai-assistant/internal/domain"
)

// InviteKeyRepo implements domain.InviteKeyRepository.
type InviteKeyRepo struct {
	pool *pgxpool.Pool
}

func NewInviteKeyRepo(pool *pgxpool.Pool) *InviteKeyRepo {
	return &InviteKeyRepo{pool: pool}
}

// NewInviteKey generates one 16-character key from a fresh UUID.
func NewInviteKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

func (r *InviteKeyRepo) CreateBatch(ctx context.Context, count int) ([]string, error) {
	keys := make([]string, 0, count)
	for i := 0; i < count; i++ {
		keys = append(keys, NewInviteKey())
	}

	for _, key := range keys {
		if _, err := r.pool.Exec(ctx, `INSERT INTO invite_keys (key) VALUES ($1)`, key); err != nil {
			return nil, fmt.Errorf("failed to insert invite key: %w", err)
		}
	}
	return keys, nil
}

func (r *InviteKeyRepo) List(ctx context.Context) ([]domain.InviteKey, error) {
	rows, err := r.pool.Query(ctx, `SELECT key, is_used, user_id, created_at FROM invite_keys ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list invite keys: %w", err)
	}
	defer rows.Close()

	var keys []domain.InviteKey
	for rows.Next() {
		var k domain.InviteKey
		if err := rows.Scan(&k.Key, &k.IsUsed, &k.UserID, &k.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan invite key row: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
