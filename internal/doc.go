// Package internal holds non-exported helpers shared by the orchestrator:
// page address parsing and identifier generation.
package internal
