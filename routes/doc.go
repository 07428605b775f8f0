// Package routes defines the application's route identifiers and the
// navigation guard that decides allow-or-redirect on every route change.
package routes
