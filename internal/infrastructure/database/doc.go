// Package database provides the SQLite connection backing the settings
// store: one long-lived connection with WAL and busy-timeout pragmas, a
// WAL checkpoint on close so the database stays a single file on disk, and
// a health check.
package database
