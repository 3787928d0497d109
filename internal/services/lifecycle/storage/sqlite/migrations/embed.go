package migrations

import "embed"

// FS contains embedded SQLite migrations for lifecycle storage.
//
//go:embed *.sql
var FS embed.FS
