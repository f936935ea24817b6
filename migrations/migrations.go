// Package migrations embeds the schema for every supported SQL dialect.
package migrations

import (
	"embed"
	"fmt"
	"io/fs"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// For returns the migration files for driver ("postgres" or "sqlite").
func For(driver string) (fs.FS, error) {
	switch driver {
	case "postgres", "sqlite":
		return fs.Sub(files, driver)
	}
	return nil, fmt.Errorf("migrations: unsupported driver %q", driver)
}
