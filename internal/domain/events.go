package domain

import "time"

// EventKind enumerates the realtime channel event types.
type EventKind string

const (
	EventNewComment    EventKind = "new_comment"
	EventAIReply       EventKind = "ai_reply"
	EventSystemMessage EventKind = "system_message"
)

// Event is the JSON payload pushed to browser clients joined to a channel.
type Event struct {
	Kind         EventKind `json:"kind"`
	Author       string    `json:"author"`
	Content      string    `json:"content"`
	Timestamp    time.Time `json:"timestamp"`
	AudioURL     string    `json:"audio_url,omitempty"`
	TextFallback string    `json:"text_fallback,omitempty"`
}

// CommentEvent builds a new_comment event from a viewer comment.
func CommentEvent(c Comment) Event {
	return Event{
		Kind:      EventNewComment,
		Author:    c.Author,
		Content:   c.Text,
		Timestamp: c.Timestamp,
	}
}

// ReplyEvent builds an ai_reply event from a pipeline result.
func ReplyEvent(author string, r ReplyResult) Event {
	return Event{
		Kind:         EventAIReply,
		Author:       author,
		Content:      r.ReplyText,
		Timestamp:    r.Timestamp,
		AudioURL:     r.AudioURL,
		TextFallback: r.FallbackText,
	}
}

// SystemEvent builds a system_message event.
func SystemEvent(message string, at time.Time) Event {
	return Event{
		Kind:      EventSystemMessage,
		Author:    "系统",
		Content:   message,
		Timestamp: at,
	}
}
