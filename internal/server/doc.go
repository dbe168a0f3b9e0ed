// Package server wires the HTTP surface: auth, settings, live session
// control, the realtime WebSocket endpoint, admin pages, and health checks.
package server
