// Package migrations embeds the numbered Postgres schema files applied by
// `handover-server migrate up`.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
