// Package migrations holds the Circuit Stash schema. Importing it for side
// effects makes the schema available to database.Migrate.
package migrations

import (
	"embed"

	"github.com/circuitstash/core/internal/infrastructure/database"
)

//go:embed *.sql
var schema embed.FS

func init() {
	database.UseMigrations(schema, ".")
}
