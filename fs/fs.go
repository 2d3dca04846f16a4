// Package appfs embeds the static assets shipped with the binaries.
package appfs

import "embed"

// FS holds the SQL migrations (migrations/) and email templates (templates/email/).
//
//go:embed migrations/*.sql templates/email/*
var FS embed.FS
