package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/cgpacalc/internal/models"
)

type SessionStore interface {
	Close() error
	ApplyMigrations(dir string) error

	CreateUser(user *models.User) error
	GetUser(username string) (*models.User, error)
	UpdatePassword(username, password string) error

	SaveSession(owner string, session *models.Session) error
	LoadSession(owner string) (*models.Session, error)
	ListSessions() ([]SavedSession, error)
}

// BaseStore provides common functionality for different DB implementations
type BaseStore struct {
	DB        *sqlx.DB
	Converter func(string) string
}

func (s *BaseStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// ApplyMigrations applies SQL migrations from a directory, translating dialect if needed
func (s *BaseStore) ApplyMigrations(dir string, translateSQL func(string) string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	names := make([]string, 0, len(files))
	for _, file := range files {
		if strings.HasSuffix(file.Name(), ".sql") {
			names = append(names, file.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}

		sql := string(content)
		if translateSQL != nil {
			sql = translateSQL(sql)
		}

		logger.Debug.Printf("Applying migration: %s", name)
		if _, err := s.DB.Exec(sql); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", name, err)
		}
	}

	return nil
}

func (s *BaseStore) CreateUser(user *models.User) error {
	existing, err := s.GetUser(user.Username)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("%w: %s", ErrUserExists, user.Username)
	}

	if user.CreatedAt == 0 {
		user.CreatedAt = time.Now().UTC().Unix()
	}

	_, err = s.DB.NamedExec(`
		INSERT INTO users (username, password, created_at)
		VALUES (:username, :password, :created_at)
	`, user)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *BaseStore) GetUser(username string) (*models.User, error) {
	var user models.User
	query := s.Converter(`
		SELECT username, password, created_at
		FROM users
		WHERE username = ?
	`)

	err := s.DB.Get(&user, query, username)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (s *BaseStore) UpdatePassword(username, password string) error {
	query := s.Converter(`UPDATE users SET password = ? WHERE username = ?`)
	if _, err := s.DB.Exec(query, password, username); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

func (s *BaseStore) SaveSession(owner string, session *models.Session) error {
	list := session.Courses
	if list == nil {
		list = []models.Course{}
	}
	courses, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to encode courses: %w", err)
	}

	row := sessionRow{
		Owner:       OwnerKey(owner),
		Level:       session.Level,
		SessionType: session.SessionType,
		Courses:     string(courses),
		UpdatedAt:   time.Now().UTC().Unix(),
	}

	_, err = s.DB.NamedExec(`
		INSERT INTO sessions (owner, level, session_type, courses, updated_at)
		VALUES (:owner, :level, :session_type, :courses, :updated_at)
		ON CONFLICT(owner) DO UPDATE SET
		level = excluded.level,
		session_type = excluded.session_type,
		courses = excluded.courses,
		updated_at = excluded.updated_at
	`, row)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *BaseStore) LoadSession(owner string) (*models.Session, error) {
	var row sessionRow
	query := s.Converter(`
		SELECT owner, level, session_type, courses, updated_at
		FROM sessions
		WHERE owner = ?
	`)

	err := s.DB.Get(&row, query, OwnerKey(owner))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	saved, err := row.decode()
	if err != nil {
		return nil, err
	}
	return &saved.Session, nil
}

func (s *BaseStore) ListSessions() ([]SavedSession, error) {
	var rows []sessionRow
	err := s.DB.Select(&rows, `
		SELECT owner, level, session_type, courses, updated_at
		FROM sessions
		ORDER BY owner
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	sessions := make([]SavedSession, 0, len(rows))
	for _, row := range rows {
		saved, err := row.decode()
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, saved)
	}
	return sessions, nil
}

func (r sessionRow) decode() (SavedSession, error) {
	session := models.Session{
		Level:       r.Level,
		SessionType: r.SessionType,
		Courses:     []models.Course{},
	}
	if err := json.Unmarshal([]byte(r.Courses), &session.Courses); err != nil {
		return SavedSession{}, fmt.Errorf("failed to decode courses of %s: %w", r.Owner, err)
	}
	if session.Courses == nil {
		session.Courses = []models.Course{}
	}

	return SavedSession{
		Owner:     r.Owner,
		Session:   session,
		UpdatedAt: time.Unix(r.UpdatedAt, 0).UTC(),
	}, nil
}
