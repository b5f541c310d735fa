// Package migrations embeds the SQL migrations for the SQLite store.
package migrations

import "embed"

// FS holds the migration files, named NNN_description.up.sql.
//
//go:embed *.sql
var FS embed.FS
