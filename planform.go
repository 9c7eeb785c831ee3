// Package planform embeds the static assets served alongside the form page.
package planform

import "embed"

// WebFS holds the stylesheet and the progressive-enhancement script.
//
//go:embed web/static
var WebFS embed.FS
