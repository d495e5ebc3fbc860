// Package embedded provides embedded static assets for the application.
package embedded

import (
	"embed"
)

// Files contains the dashboard frontend (web/), served directly via HTTP.
//
//go:embed web
var Files embed.FS
