// Package migrations embeds the SQL schema migrations into the binary.
//
// The files are handed to database.DB.Migrate at startup when the sqlite
// storage driver is selected.
package migrations

import "embed"

// FS holds every migration file at its root.
//
//go:embed *.sql
var FS embed.FS
