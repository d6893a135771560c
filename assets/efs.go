// Package assets embeds the database migrations and email templates so that
// the compiled binary is self-contained.
package assets

import (
	"embed"
)

//go:embed "emails" "migrations"
var EmbeddedFiles embed.FS
