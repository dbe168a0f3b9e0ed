package domain

import "errors"

var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameTaken indicates the username is already registered.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrInviteKeyInvalid indicates the invitation key is unknown or already used.
	ErrInviteKeyInvalid = errors.New("invitation key invalid or already used")

	// ErrSettingsNotFound indicates no assistant settings exist for the user.
	ErrSettingsNotFound = errors.New("assistant settings not found")

	// ErrInvalidCredentials indicates a failed username/password check.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrPipelineBusy indicates the analyze worker pool queue is full.
	ErrPipelineBusy = errors.New("reply pipeline queue is full")
)
