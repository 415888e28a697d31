// Package migrations embeds the goose SQL migrations of solver-svc.
package migrations

import "embed"

//go:embed postgres/*.sql
var PostgresMigrations embed.FS

// PostgresDir is the directory inside PostgresMigrations passed to goose.
const PostgresDir = "postgres"
