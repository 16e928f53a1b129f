// Package assets embeds static files shipped with the binary.
package assets

import "embed"

//go:embed templates/email
var FS embed.FS
