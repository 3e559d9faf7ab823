// Package db embeds the SQL schema applied at startup.
package db

import _ "embed"

// Schema holds the DDL for every table, index and constraint; it is
// applied idempotently by the migration runner.
//
//go:embed migrations/001_schema.sql
var Schema string
