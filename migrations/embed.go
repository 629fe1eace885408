// Package migrations embeds the SQL schema of the snapshot store into the
// binary, so the service migrates without SQL files on disk.
//
// Pass FS to database.DB.Migrate.
package migrations

import "embed"

// FS holds every *.sql migration at its root.
//
//go:embed *.sql
var FS embed.FS
