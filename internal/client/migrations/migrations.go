// Package migrations embeds the forward-only goose migrations for the local
// client database. Schema changes are additive: each migration is numbered,
// applied exactly once, and guarded with IF NOT EXISTS so re-running against
// an already-provisioned database is a no-op.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
