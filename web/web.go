// Package web embeds the console templates and static assets.
package web

import "embed"

//go:embed templates static
var FS embed.FS
