package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AIMode selects the tone of generated replies.
type AIMode string

const (
	AIModeNormal       AIMode = "normal"
	AIModeProfessional AIMode = "professional"
	AIModeFriendly     AIMode = "friendly"
)

// ParseAIMode validates a mode string coming from the settings form.
func ParseAIMode(s string) (AIMode, error) {
	switch AIMode(s) {
	case AIModeNormal, AIModeProfessional, AIModeFriendly:
		return AIMode(s), nil
	}
	return "", fmt.Errorf("unknown ai mode %q", s)
}

// Default assistant settings, created on registration.
const (
	DefaultPrompt              = "你是一个专业的直播助手，请用简洁的语言回复观众的问题"
	DefaultVoiceStyle          = "知性女声"
	DefaultSpeechSpeed         = 5
	DefaultVolume              = 5
	DefaultPollIntervalSeconds = 5
)

// Settings holds a user's assistant configuration. The live core treats it
// as read-only; mutation goes through the settings repository.
type Settings struct {
	UserID              uuid.UUID
	Prompt              string
	Mode                AIMode
	VoiceStyle          string
	SpeechSpeed         int
	Volume              int
	PollIntervalSeconds int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// DefaultSettings returns the settings a fresh account starts with.
func DefaultSettings(userID uuid.UUID) Settings {
	return Settings{
		UserID:              userID,
		Prompt:              DefaultPrompt,
		Mode:                AIModeNormal,
		VoiceStyle:          DefaultVoiceStyle,
		SpeechSpeed:         DefaultSpeechSpeed,
		Volume:              DefaultVolume,
		PollIntervalSeconds: DefaultPollIntervalSeconds,
	}
}

// Validate checks field ranges before persisting.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.Prompt) == "" {
		return fmt.Errorf("prompt cannot be empty")
	}
	if len(s.Prompt) > 2000 {
		return fmt.Errorf("prompt exceeds 2000 characters")
	}
	if _, err := ParseAIMode(string(s.Mode)); err != nil {
		return err
	}
	if strings.TrimSpace(s.VoiceStyle) == "" {
		return fmt.Errorf("voice style cannot be empty")
	}
	if s.SpeechSpeed < 1 || s.SpeechSpeed > 10 {
		return fmt.Errorf("speech speed must be between 1 and 10")
	}
	if s.Volume < 1 || s.Volume > 10 {
		return fmt.Errorf("volume must be between 1 and 10")
	}
	if s.PollIntervalSeconds < 1 {
		return fmt.Errorf("poll interval must be at least 1 second")
	}
	return nil
}
