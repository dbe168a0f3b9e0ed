package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gaoxing-kai/douyin-ai-assistant/internal/domain"
)

// SettingsRepo implements domain.SettingsRepository.
type SettingsRepo struct {
	pool *pgxpool.Pool
}

func NewSettingsRepo(pool *pgxpool.Pool) *SettingsRepo {
	return &SettingsRepo{pool: pool}
}

func (r *SettingsRepo) Get(ctx context.Context, userID uuid.UUID) (domain.Settings, error) {
	var s domain.Settings
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, prompt, mode, voice_style, speech_speed, volume, poll_interval_seconds, created_at, updated_at
		FROM settings
		WHERE user_id = $1
	`, userID).Scan(
		&s.UserID, &s.Prompt, &s.Mode, &s.VoiceStyle, &s.SpeechSpeed,
		&s.Volume, &s.PollIntervalSeconds, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Settings{}, domain.ErrSettingsNotFound
	}
	if err != nil {
		return domain.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	return s, nil
}

func (r *SettingsRepo) Update(ctx context.Context, s domain.Settings) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE settings
		SET prompt = $1, mode = $2, voice_style = $3, speech_speed = $4, volume = $5,
		    poll_interval_seconds = $6, updated_at = NOW()
		WHERE user_id = $7
	`, s.Prompt, s.Mode, s.VoiceStyle, s.SpeechSpeed, s.Volume, s.PollIntervalSeconds, s.UserID)
	if err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSettingsNotFound
	}
	return nil
}
