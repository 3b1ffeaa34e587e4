// Package courseshop provides embedded assets for production builds.
package courseshop

import (
	"embed"
	"io/fs"
)

// Embedded assets for production builds.
// In dev mode, templates are loaded from disk so edits show up without a rebuild.

//go:embed all:frontend/public
var publicFS embed.FS

//go:embed all:frontend/templates
var templateFS embed.FS

// PublicFS returns the static files rooted at frontend/public.
func PublicFS() fs.FS {
	sub, err := fs.Sub(publicFS, "frontend/public")
	if err != nil {
		panic(err)
	}
	return sub
}

// TemplateFS returns the page templates rooted at frontend/templates.
func TemplateFS() fs.FS {
	sub, err := fs.Sub(templateFS, "frontend/templates")
	if err != nil {
		panic(err)
	}
	return sub
}
