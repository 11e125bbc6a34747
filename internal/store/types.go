package store

import (
	"errors"
	"time"

	"github.com/shrimpsizemoose/cgpacalc/internal/models"
)

type DatabaseType string

const (
	DBTypePostgres DatabaseType = "postgres"
	DBTypeSQLite   DatabaseType = "sqlite"
	DBTypeFile     DatabaseType = "file"
)

// AnonymousOwner keys the session saved without a logged in user.
const AnonymousOwner = "gpa_data"

var ErrUserExists = errors.New("user already exists")

type SavedSession struct {
	Owner     string
	Session   models.Session
	UpdatedAt time.Time
}

type sessionRow struct {
	Owner       string `db:"owner"`
	Level       string `db:"level"`
	SessionType string `db:"session_type"`
	Courses     string `db:"courses"`
	UpdatedAt   int64  `db:"updated_at"`
}

func OwnerKey(username string) string {
	if username == "" {
		return AnonymousOwner
	}
	return username
}
