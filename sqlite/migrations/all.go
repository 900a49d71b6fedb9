// Package migrations holds the sqlite schema scripts, applied in file name
// order by sqlite.Migrator.
package migrations

import "embed"

//go:embed *.sql
var AllUp embed.FS
