// Package migrations embeds the goose SQL migrations for the telemetry store.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
