package domain

import "time"

// Comment is a single viewer comment. Ephemeral - it exists only to be
// broadcast, never persisted beyond the channel history.
//
// Answered is set false at creation and currently never mutated; nothing in
// the core tracks whether a comment was later answered.
type Comment struct {
	Author    string
	Text      string
	Timestamp time.Time
	Answered  bool
}

// ReplyResult is the outcome of analyzing one comment. Exactly one of
// AudioURL (synthesized speech available) or FallbackText (synthesis failed,
// render text only) is set.
type ReplyResult struct {
	ReplyText    string
	AudioURL     string
	FallbackText string
	Timestamp    time.Time
}
