package models

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	FirstSemester  = "First Semester"
	SecondSemester = "Second Semester"
	FullSession    = "Full Session"
)

var (
	Levels       = []string{"100", "200", "300", "400", "500", "600", "700"}
	SessionTypes = []string{FirstSemester, SecondSemester, FullSession}
)

const (
	generatedCodePrefix  = "ELE"
	generatedTitlePrefix = "Introduction to Course "
	generatedBase        = 100
)

// Session is the persisted document: metadata plus an ordered course list.
// Courses are addressed by ID, never by position.
type Session struct {
	Level       string   `json:"level" validate:"omitempty,oneof=100 200 300 400 500 600 700"`
	SessionType string   `json:"session_type" validate:"omitempty,oneof='First Semester' 'Second Semester' 'Full Session'"`
	Courses     []Course `json:"courses" validate:"dive"`
}

func NewSession(level, sessionType string) *Session {
	return &Session{
		Level:       level,
		SessionType: sessionType,
		Courses:     []Course{},
	}
}

func (s *Session) Validate() error {
	validate := validator.New()
	return validate.Struct(s)
}

// AddCourse appends a copy of c, assigning an ID if it has none, and returns it.
func (s *Session) AddCourse(c Course) Course {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	s.Courses = append(s.Courses, c)
	return c
}

func (s *Session) Course(id string) (Course, error) {
	i := s.indexOf(id)
	if i < 0 {
		return Course{}, fmt.Errorf("%w: %s", ErrCourseNotFound, id)
	}
	return s.Courses[i], nil
}

// UpdateCourse replaces the course with the given ID in place, keeping its ID.
func (s *Session) UpdateCourse(id string, c Course) (Course, error) {
	i := s.indexOf(id)
	if i < 0 {
		return Course{}, fmt.Errorf("%w: %s", ErrCourseNotFound, id)
	}
	c.ID = id
	s.Courses[i] = c
	return c, nil
}

func (s *Session) RemoveCourse(id string) error {
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrCourseNotFound, id)
	}
	s.Courses = append(s.Courses[:i], s.Courses[i+1:]...)
	return nil
}

// EnsureIDs assigns IDs to courses loaded from documents that predate them.
func (s *Session) EnsureIDs() {
	for i := range s.Courses {
		if s.Courses[i].ID == "" {
			s.Courses[i].ID = uuid.New().String()
		}
	}
}

// NextGeneratedCourse returns a placeholder code and title (ELE101,
// "Introduction to Course 1", ...) not already used in the session.
func (s *Session) NextGeneratedCourse() (string, string) {
	used := make(map[string]bool, len(s.Courses))
	for _, c := range s.Courses {
		used[c.Code] = true
	}

	n := len(s.Courses) + 1
	for used[generatedCodePrefix+strconv.Itoa(generatedBase+n)] {
		n++
	}
	return generatedCodePrefix + strconv.Itoa(generatedBase+n), generatedTitlePrefix + strconv.Itoa(n)
}

func (s *Session) Clone() *Session {
	out := *s
	out.Courses = make([]Course, len(s.Courses))
	for i, c := range s.Courses {
		if c.Score != nil {
			c.Score = ScoreOf(*c.Score)
		}
		out.Courses[i] = c
	}
	return &out
}

// IsCumulative reports whether the session spans both semesters.
func (s *Session) IsCumulative() bool {
	return strings.EqualFold(s.SessionType, FullSession)
}

func (s *Session) indexOf(id string) int {
	for i := range s.Courses {
		if s.Courses[i].ID == id {
			return i
		}
	}
	return -1
}
