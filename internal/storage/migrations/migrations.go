// Package migrations embeds the goose migration scripts for the structured
// tier's SQLite schema.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
