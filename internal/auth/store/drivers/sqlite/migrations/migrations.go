// Package migrations embeds the sqlite schema migrations so the binary can
// apply them without external files.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
