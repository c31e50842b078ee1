package migrations

import "embed"

// FS схема PostgreSQL, применяется golang-migrate при старте
//
//go:embed *.sql
var FS embed.FS
