package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/gaoxing-kai/douyin-ai-assistant/internal/domain"
)

const bootstrapKeyCount = 5

// Bootstrap seeds a first admin account and a batch of invitation keys when
// the users table is empty. The generated keys are logged once so the
// operator can hand them out.
func Bootstrap(ctx context.Context, pool *pgxpool.Pool, adminUsername, adminPassword string) error {
	users := NewUserRepo(pool)

	count, err := users.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin bootstrap: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var adminID uuid.UUID
	err = tx.QueryRow(ctx, `
		INSERT INTO users (username, password_hash, is_admin)
		VALUES ($1, $2, TRUE)
		RETURNING id
	`, adminUsername, string(hash)).Scan(&adminID)
	if err != nil {
		return fmt.Errorf("failed to insert admin user: %w", err)
	}

	defaults := domain.DefaultSettings(adminID)
	if _, err := tx.Exec(ctx, `
		INSERT INTO settings (user_id, prompt, mode, voice_style, speech_speed, volume, poll_interval_seconds)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, defaults.UserID, defaults.Prompt, defaults.Mode, defaults.VoiceStyle,
		defaults.SpeechSpeed, defaults.Volume, defaults.PollIntervalSeconds); err != nil {
		return fmt.Errorf("failed to create admin settings: %w", err)
	}

	keys := make([]string, 0, bootstrapKeyCount)
	for i := 0; i < bootstrapKeyCount; i++ {
		key := NewInviteKey()
		if _, err := tx.Exec(ctx, `INSERT INTO invite_keys (key) VALUES ($1)`, key); err != nil {
			return fmt.Errorf("failed to insert bootstrap invite key: %w", err)
		}
		keys = append(keys, key)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit bootstrap: %w", err)
	}

	slog.Info("seeded initial admin and invitation keys",
		"admin", adminUsername, "invite_keys", keys)
	return nil
}
