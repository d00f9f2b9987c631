// Package migrations embeds the fixture cache schema migrations.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
