// Package ai implements the two upstream collaborators: an OpenAI-compatible
// chat-completions client for reply generation and a text-to-speech client.
//
// Both have simulator variants used when no API key is configured, matching
// the fixtures the dashboard demo ships with.
package ai
