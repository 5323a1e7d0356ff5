// Package migrations embeds the goose SQL migrations for each SQL dialect.
package migrations

import "embed"

//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS

// Dir returns the migrations directory inside FS for a dialect name
func Dir(dialect string) string {
	if dialect == "sqlite" {
		return "sqlite"
	}
	return "postgres"
}
