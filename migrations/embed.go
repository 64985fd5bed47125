// Package migrations embeds the SQL migrations applied by cmd/migrate.
package migrations

import "embed"

// FS holds every *.sql migration in this directory.
//
//go:embed *.sql
var FS embed.FS

// LeadsTable is the up migration that creates the leads table.
const LeadsTable = "000001_create_leads.up.sql"
