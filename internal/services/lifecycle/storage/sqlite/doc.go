// Package sqlite provides a SQLite-backed lifecycle storage implementation.
package sqlite
