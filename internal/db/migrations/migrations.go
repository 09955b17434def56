package migrations

import (
	"database/sql"
	"embed"

	"github.com/pressly/goose/v3"
)

//go:embed *.sql
var embedMigrations embed.FS

// QuietMode suppresses goose output for clean CLI startup
var QuietMode bool

// Run applies all pending migrations to the database
func Run(db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)

	if QuietMode {
		goose.SetLogger(goose.NopLogger())
	}

	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}

	return goose.Up(db, ".")
}
