package app

import (
	"fmt"
	"strings"

	"github.com/shrimpsizemoose/cgpacalc/internal/store"
	"github.com/shrimpsizemoose/cgpacalc/internal/store/file"
	"github.com/shrimpsizemoose/cgpacalc/internal/store/postgres"
	"github.com/shrimpsizemoose/cgpacalc/internal/store/sqlite"
)

const fileScheme = "file://"

func NewStore(dsn, migrationsDir string) (store.SessionStore, error) {
	dbType := store.DBTypeSQLite
	switch {
	case strings.HasPrefix(dsn, "postgres"):
		dbType = store.DBTypePostgres
	case strings.HasPrefix(dsn, fileScheme):
		dbType = store.DBTypeFile
	}

	switch dbType {
	case store.DBTypePostgres:
		return postgres.NewPostgresStore(dsn, migrationsDir)
	case store.DBTypeSQLite:
		return sqlite.NewSQLiteStore(dsn, migrationsDir)
	case store.DBTypeFile:
		return file.NewFileStore(strings.TrimPrefix(dsn, fileScheme))
	default:
		return nil, fmt.Errorf("unable to determine database type from DSN: %s", dsn)
	}
}
