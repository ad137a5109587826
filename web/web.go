// Package web holds the embedded single-page UI served by the API server.
package web

import "embed"

//go:embed dist
var DistFS embed.FS
