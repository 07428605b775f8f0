// Package session holds the current authentication session and its derived
// user projection. Sessions are opaque token bundles owned by the identity
// backend; this package only stores, replaces, and projects them. Profile
// attributes missing from the backend payload are backfilled from the access
// token's claims.
package session
