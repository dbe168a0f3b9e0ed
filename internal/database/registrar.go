package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gaoxing-kai/douyin-ai-assistant/internal/domain"
)

// Registrar implements invitation-key registration as one transaction:
// insert the user, consume the key, create default settings. Any failure
// rolls the whole thing back, so a key is never burned without an account.
type Registrar struct {
	pool *pgxpool.Pool
}

func NewRegistrar(pool *pgxpool.Pool) *Registrar {
	return &Registrar{pool: pool}
}

func (r *Registrar) Register(ctx context.Context, username, passwordHash, inviteKey string) (*domain.User, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin registration: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var user domain.User
	err = tx.QueryRow(ctx, `
		INSERT INTO users (username, password_hash)
		VALUES ($1, $2)
		RETURNING `+userColumns,
		username, passwordHash,
	).Scan(
		&user.ID, &user.Username, &user.PasswordHash, &user.IsAdmin,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return nil, domain.ErrUsernameTaken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE invite_keys
		SET is_used = TRUE, user_id = $2
		WHERE key = $1 AND NOT is_used
	`, inviteKey, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to redeem invite key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.ErrInviteKeyInvalid
	}

	defaults := domain.DefaultSettings(user.ID)
	if _, err := tx.Exec(ctx, `
		INSERT INTO settings (user_id, prompt, mode, voice_style, speech_speed, volume, poll_interval_seconds)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, defaults.UserID, defaults.Prompt, defaults.Mode, defaults.VoiceStyle,
		defaults.SpeechSpeed, defaults.Volume, defaults.PollIntervalSeconds); err != nil {
		return nil, fmt.Errorf("failed to create default settings: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit registration: %w", err)
	}
	return &user, nil
}
