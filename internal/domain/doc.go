// Package domain defines the core domain types and interfaces.
//
// Concept-oriented files (errors.go, user.go, settings.go, live.go, events.go)
// hold shared types and cross-cutting interfaces. No implementation code -
// just contracts. Keeping interfaces here prevents circular imports between
// the live-session, pipeline and server packages.
package domain
