// Package markers persists the small durable flags the orchestrator keeps
// across page reloads within one browsing session: recovery-in-progress,
// MFA-in-progress, MFA-completed, the pending challenge payload, challenge
// attempt accounting, and the branch preference.
//
// Two implementations are provided: an in-process store for a single client
// shell and a Redis-backed store for deployments that keep per-browser
// session state server-side. Preference keys survive ClearEphemeral; all
// auth markers do not.
package markers
