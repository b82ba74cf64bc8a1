// Package migrations embeds the SurrQL schema files applied at startup and
// by `eventupctl migrate`.
package migrations

import "embed"

// Files holds every *.surql file of this directory
//
//go:embed *.surql
var Files embed.FS
