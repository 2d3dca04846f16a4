package core

import (
	"path/filepath"
	"strings"

	"github.com/gosimple/slug"
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// SecureFilename reduces a client supplied filename to a safe basename:
// no directories, ascii slug for the name, lower-case extension.
// It returns "" when nothing usable is left.
func SecureFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	ext := strings.ToLower(filepath.Ext(name))
	base := slug.Make(strings.TrimSuffix(name, filepath.Ext(name)))
	if base == "" {
		return ""
	}
	ext = slug.Make(ext)
	if ext == "" {
		return base
	}
	return base + "." + ext
}
