package web

import (
	"embed"
	"io/fs"
)

// Embed the 'templates' directory.
// The path is relative to this file (internal/web/web.go).
//
//go:embed templates
var Assets embed.FS

// GetTemplatesFS returns the embedded templates rooted at "templates".
func GetTemplatesFS() fs.FS {
	sub, err := fs.Sub(Assets, "templates")
	if err != nil {
		// The directory is embedded at build time; Sub only fails on an invalid name.
		panic(err)
	}
	return sub
}
