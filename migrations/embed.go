// Package migrations содержит SQL миграции, встраиваемые в бинарники сервисов.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
