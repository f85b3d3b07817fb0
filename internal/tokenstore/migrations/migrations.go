// Package migrations embeds the goose SQL migrations of the token cache.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
