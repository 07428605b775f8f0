// Package authflow provides a session and authentication lifecycle
// orchestrator for role-segmented consoles: bootstrap sequencing, an
// identity-backend event consumer with deduplication, an inactivity timer
// with a warning edge, a role-gated MFA challenge flow, password recovery
// handling, and a role-aware navigation guard.
//
// The package is designed for concurrent use: Orchestrator methods are safe
// to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// authflow is the public surface. It exposes [Orchestrator], [Builder],
// [Config], and the boundary interfaces ([IdentityClient], [SettingsClient],
// [Navigator], [Notifier]). Mechanism lives in the sub-packages: session
// holds the owned session state, markers the durable cross-reload flags,
// idle the inactivity timer, and routes the navigation guard.
//
// # What this package must NOT do
//
//   - Verify credentials or second factors; the identity backend does that,
//     the orchestrator only consumes outcomes.
//   - Keep more than one authoritative copy of the session; every consumer
//     reads through the orchestrator.
//   - Navigate imperatively from sub-packages; all navigation funnels
//     through the [Navigator] boundary.
//
// # Lifecycle contract
//
// Bootstrap runs exactly once and always resolves: AuthReady flips true on
// every path, including failures. The recovery veto is checked before any
// other lifecycle decision, and the MFA gate is evaluated only on a
// completed sign-in, never on a token refresh.
package authflow
