// Package live implements the live-session core: the session registry, the
// per-user comment poller and channel derivation.
//
// The registry is an injected object, not a package singleton; request
// handlers and background goroutines share one instance. All session state
// lives behind a single mutex with minimal critical sections - never any I/O
// while holding it.
package live
