package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered streamer account. PasswordHash is a bcrypt hash;
// plaintext passwords never leave the auth handlers.
type User struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// InviteKey gates registration. A key is single-use: once redeemed it stays
// bound to the user that consumed it.
type InviteKey struct {
	Key       string
	IsUsed    bool
	UserID    *uuid.UUID
	CreatedAt time.Time
}
