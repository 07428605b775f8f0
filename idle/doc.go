// Package idle implements the inactivity auto-logout timer: a single
// warning/logout handle pair with explicit arm, disarm, and reset
// transitions and rate-limited activity sampling.
package idle
