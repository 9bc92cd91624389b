// Package migrations embeds the SQL schema so the server and the integration
// tests apply the same DDL.
package migrations

import "embed"

//go:embed *.up.sql
var FS embed.FS
