// Package db embeds the SQL schema applied at startup.
package db

import _ "embed"

// Schema holds the DDL for every table the service uses. Applied
// idempotently by storage on boot.
//
//go:embed migrations/001_schema.sql
var Schema string
