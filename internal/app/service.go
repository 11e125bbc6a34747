package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/cgpacalc/internal/metrics"
	"github.com/shrimpsizemoose/cgpacalc/internal/models"
	"github.com/shrimpsizemoose/cgpacalc/internal/report"
	"github.com/shrimpsizemoose/cgpacalc/internal/scoring"
	"github.com/shrimpsizemoose/cgpacalc/internal/store"
)

type Service struct {
	Config *Config
	Store  store.SessionStore
	Tokens TokenStore
	Grader *scoring.Grader
}

func NewService(configPath string) (*Service, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	store, err := NewStore(config.Database.DSN, config.Database.MigrationsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to init store: %w", err)
	}

	tokens, err := NewTokenStore(config)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to init token store: %w", err)
	}

	return New(config, store, tokens), nil
}

func New(config *Config, store store.SessionStore, tokens TokenStore) *Service {
	grader := config.Scoring
	return &Service{
		Config: config,
		Store:  store,
		Tokens: tokens,
		Grader: &grader,
	}
}

func (s *Service) Register(ctx context.Context, username, password, confirm string) (*UserSession, error) {
	us, err := s.register(ctx, strings.TrimSpace(username), password, confirm)
	metrics.AuthEventsTotal.WithLabelValues("register", outcome(err)).Inc()
	return us, err
}

func (s *Service) register(ctx context.Context, username, password, confirm string) (*UserSession, error) {
	if err := models.ValidateUsername(username); err != nil {
		return nil, err
	}
	if username == store.AnonymousOwner {
		return nil, models.ValidationError{Field: "Username", Value: username, Message: "is reserved"}
	}
	if password == "" {
		return nil, models.ValidationError{Field: "Password", Value: "", Message: "must not be empty"}
	}
	if password != confirm {
		return nil, ErrPasswordMismatch
	}

	existing, err := s.Store.GetUser(username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	hashed, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{Username: username, Password: hashed, CreatedAt: time.Now().UTC().Unix()}
	if err := s.Store.CreateUser(user); err != nil {
		if errors.Is(err, store.ErrUserExists) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	if err := s.Store.SaveSession(username, models.NewSession("", "")); err != nil {
		return nil, fmt.Errorf("failed to initialise saved session: %w", err)
	}

	logger.Info.Printf("Username '%s' registered successfully", username)
	return s.Tokens.Issue(ctx, username, models.NewSession("", ""))
}

func (s *Service) Login(ctx context.Context, username, password string) (*UserSession, error) {
	us, err := s.login(ctx, strings.TrimSpace(username), password)
	metrics.AuthEventsTotal.WithLabelValues("login", outcome(err)).Inc()
	return us, err
}

func (s *Service) login(ctx context.Context, username, password string) (*UserSession, error) {
	user, err := s.Store.GetUser(username)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	ok, legacy := VerifyPassword(user.Password, password)
	if !ok {
		logger.Debug.Printf("Password mismatch for user %s", username)
		return nil, ErrInvalidCredentials
	}

	if legacy {
		if hashed, err := HashPassword(password); err == nil {
			if err := s.Store.UpdatePassword(username, hashed); err != nil {
				logger.Error.Printf("Failed to upgrade password hash of %s: %v", username, err)
			}
		}
	}

	return s.Tokens.Issue(ctx, username, models.NewSession("", ""))
}

func (s *Service) Logout(ctx context.Context, token string) error {
	err := s.Tokens.Revoke(ctx, token)
	metrics.AuthEventsTotal.WithLabelValues("logout", outcome(err)).Inc()
	return err
}

// Resume returns the session context behind a token issued by Login or Register.
func (s *Service) Resume(ctx context.Context, token string) (*UserSession, error) {
	return s.Tokens.Fetch(ctx, token)
}

func (s *Service) SaveSession(ctx context.Context, us *UserSession) error {
	if err := us.Session.Validate(); err != nil {
		return err
	}
	if err := s.Store.SaveSession(us.Username, us.Session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	logger.Debug.Printf("Saved %d courses for %s", len(us.Session.Courses), us.Username)
	return nil
}

func (s *Service) LoadSession(ctx context.Context, us *UserSession) error {
	session, err := s.Store.LoadSession(us.Username)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return ErrNoSavedSession
	}

	session.EnsureIDs()
	us.Session = session
	return s.commit(ctx, us)
}

func (s *Service) SetMeta(ctx context.Context, us *UserSession, level, sessionType string) error {
	next := us.Session.Clone()
	next.Level = strings.TrimSpace(level)
	next.SessionType = strings.TrimSpace(sessionType)
	if err := next.Validate(); err != nil {
		return err
	}

	us.Session = next
	return s.commit(ctx, us)
}

func (s *Service) AddCourse(ctx context.Context, us *UserSession, c models.Course) (models.Course, error) {
	c.ID = ""
	if err := s.Grader.CheckCourse(&c); err != nil {
		return models.Course{}, err
	}

	added := us.Session.AddCourse(c)
	return added, s.commit(ctx, us)
}

// AddGeneratedCourse appends a placeholder course (ELE101, ...) with the
// lowest credit unit and an A, for the user to edit afterwards.
func (s *Service) AddGeneratedCourse(ctx context.Context, us *UserSession) (models.Course, error) {
	code, title := us.Session.NextGeneratedCourse()
	return s.AddCourse(ctx, us, models.Course{
		Code:       code,
		Title:      title,
		CreditUnit: s.Grader.MinCreditUnit,
		Grade:      models.GradeA,
	})
}

func (s *Service) UpdateCourse(ctx context.Context, us *UserSession, id string, c models.Course) (models.Course, error) {
	if err := s.Grader.CheckCourse(&c); err != nil {
		return models.Course{}, err
	}

	updated, err := us.Session.UpdateCourse(id, c)
	if err != nil {
		return models.Course{}, err
	}
	return updated, s.commit(ctx, us)
}

func (s *Service) RemoveCourse(ctx context.Context, us *UserSession, id string) error {
	if err := us.Session.RemoveCourse(id); err != nil {
		return err
	}
	return s.commit(ctx, us)
}

// ImportCourses replaces the workspace courses with the rows of an xlsx sheet.
func (s *Service) ImportCourses(ctx context.Context, us *UserSession, r io.Reader) (int, error) {
	courses, err := report.ReadCoursesXLSX(r)
	if err != nil {
		return 0, models.ValidationError{Field: "file", Value: "", Message: err.Error()}
	}

	next := us.Session.Clone()
	next.Courses = []models.Course{}
	for i, c := range courses {
		if err := s.Grader.CheckCourse(&c); err != nil {
			return 0, fmt.Errorf("row %d: %w", i+2, err)
		}
		next.AddCourse(c)
	}

	us.Session = next
	return len(courses), s.commit(ctx, us)
}

func (s *Service) Calculate(session *models.Session) models.Result {
	result := s.Grader.Evaluate(session)

	metrics.CalculationsTotal.WithLabelValues(result.Kind, result.ClassificationLabel).Inc()
	metrics.AverageHistogram.WithLabelValues(result.Kind).Observe(result.Average)
	if n := len(result.InvalidCourses); n > 0 {
		metrics.InvalidCoursesTotal.Add(float64(n))
	}

	return result
}

func (s *Service) Report(w io.Writer, us *UserSession, format string) error {
	doc := report.Document{
		Title:       s.Config.Report.Title,
		Username:    us.Username,
		Level:       us.Session.Level,
		SessionType: us.Session.SessionType,
		Lines:       scoring.Lines(us.Session.Courses),
		Result:      s.Calculate(us.Session),
		GeneratedAt: time.Now().UTC(),
	}

	switch format {
	case report.FormatPDF:
		return report.WritePDF(w, doc)
	case report.FormatXLSX:
		return report.WriteXLSX(w, doc)
	case report.FormatText:
		return report.WriteText(w, doc)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func (s *Service) commit(ctx context.Context, us *UserSession) error {
	if err := s.Tokens.Update(ctx, us); err != nil {
		return fmt.Errorf("failed to update workspace: %w", err)
	}
	return nil
}

func (s *Service) Close() error {
	var errs []error

	if err := s.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}
	if err := s.Tokens.Close(); err != nil {
		errs = append(errs, fmt.Errorf("tokens: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors while closing: %v", errs)
	}
	return nil
}

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
