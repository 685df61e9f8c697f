// Package migrations embeds the goose SQL migration set so the server binary
// can apply schema changes without a separate migrations directory on disk.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
