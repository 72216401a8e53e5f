// Package appfs embeds the static assets shipped with the binaries.
package appfs

import "embed"

// FS holds the SQL migrations and the email templates.
//go:embed migrations all:templates
var FS embed.FS

const (
	MigrationsDir     = "migrations"
	EmailTemplatesDir = "templates/email"
)
