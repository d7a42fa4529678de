// Package migrations содержит SQL-миграции хранилища конфигураций.
package migrations

import "embed"

// FS - миграции, встроенные в бинарник мигратора.
//
//go:embed *.sql
var FS embed.FS
