// Package migrations embeds the SQL schema so tests and tooling share one copy.
package migrations

import "embed"

//go:embed *.up.sql
var FS embed.FS
