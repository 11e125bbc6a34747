// Package file keeps users and sessions as JSON documents in a directory,
// the layout the calculator has always used on disk.
package file

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/shrimpsizemoose/cgpacalc/internal/models"
	"github.com/shrimpsizemoose/cgpacalc/internal/store"
)

const (
	usersFile      = "user_data.json"
	sessionSuffix  = "_gpa_data.json"
	anonymousFile  = store.AnonymousOwner + ".json"
	filePermission = 0o644
)

type FileStore struct {
	root string
	mu   sync.Mutex
}

func NewFileStore(root string) (*FileStore, error) {
	s := &FileStore{root: root}
	if err := s.ApplyMigrations(""); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) Close() error {
	return nil
}

// ApplyMigrations only makes sure the data directory exists.
func (s *FileStore) ApplyMigrations(string) error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory %s: %w", s.root, err)
	}
	return nil
}

func (s *FileStore) CreateUser(user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.readUsers()
	if err != nil {
		return err
	}
	for _, u := range users {
		if u.Username == user.Username {
			return fmt.Errorf("%w: %s", store.ErrUserExists, user.Username)
		}
	}

	line, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}

	f, err := os.OpenFile(s.path(usersFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, filePermission)
	if err != nil {
		return fmt.Errorf("failed to open users file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *FileStore) GetUser(username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.readUsers()
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, nil
}

func (s *FileStore) UpdatePassword(username, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.readUsers()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	for _, u := range users {
		if u.Username == username {
			u.Password = password
		}
		line, err := json.Marshal(u)
		if err != nil {
			return fmt.Errorf("failed to encode user: %w", err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}

	return writeAtomic(s.path(usersFile), buf.Bytes())
}

func (s *FileStore) SaveSession(owner string, session *models.Session) error {
	doc := *session
	if doc.Courses == nil {
		doc.Courses = []models.Course{}
	}

	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return writeAtomic(s.path(sessionFile(owner)), data)
}

func (s *FileStore) LoadSession(owner string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.readSession(sessionFile(owner))
}

func (s *FileStore) ListSessions() ([]store.SavedSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	var saved []store.SavedSession
	for _, entry := range entries {
		owner, ok := ownerOf(entry.Name())
		if !ok || entry.IsDir() {
			continue
		}

		session, err := s.readSession(entry.Name())
		if err != nil {
			return nil, err
		}
		if session == nil {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", entry.Name(), err)
		}

		saved = append(saved, store.SavedSession{
			Owner:     owner,
			Session:   *session,
			UpdatedAt: info.ModTime().UTC(),
		})
	}

	sort.Slice(saved, func(i, j int) bool { return saved[i].Owner < saved[j].Owner })
	return saved, nil
}

func (s *FileStore) readUsers() ([]models.User, error) {
	f, err := os.Open(s.path(usersFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open users file: %w", err)
	}
	defer f.Close()

	var users []models.User
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var u models.User
		if err := json.Unmarshal([]byte(line), &u); err != nil {
			return nil, fmt.Errorf("failed to decode user record: %w", err)
		}
		users = append(users, u)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read users file: %w", err)
	}
	return users, nil
}

func (s *FileStore) readSession(name string) (*models.Session, error) {
	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session %s: %w", name, err)
	}

	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", name, err)
	}
	if session.Courses == nil {
		session.Courses = []models.Course{}
	}
	return &session, nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.root, name)
}

func sessionFile(owner string) string {
	key := store.OwnerKey(owner)
	if key == store.AnonymousOwner {
		return anonymousFile
	}
	return key + sessionSuffix
}

func ownerOf(name string) (string, bool) {
	if name == anonymousFile {
		return store.AnonymousOwner, true
	}
	if strings.HasSuffix(name, sessionSuffix) {
		return strings.TrimSuffix(name, sessionSuffix), true
	}
	return "", false
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, filePermission); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
