package appfs

import "embed"

// FS embeds static assets shipped with the binary (DB migrations).
//go:embed migrations
var FS embed.FS
