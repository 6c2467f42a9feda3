// Package migrations embeds the goose SQL migrations for the optional
// Postgres-backed session prefix index.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
