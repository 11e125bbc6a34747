package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Grade string

const (
	GradeA       Grade = "A"
	GradeB       Grade = "B"
	GradeC       Grade = "C"
	GradeD       Grade = "D"
	GradeE       Grade = "E"
	GradeF       Grade = "F"
	GradeInvalid Grade = "Invalid"
)

// Grades lists the selectable letter grades, best first.
var Grades = []Grade{GradeA, GradeB, GradeC, GradeD, GradeE, GradeF}

var ErrCourseNotFound = errors.New("course not found")

type Course struct {
	ID         string   `json:"id,omitempty"`
	Code       string   `json:"course_code" validate:"required,max=16"`
	Title      string   `json:"course_title"`
	CreditUnit int      `json:"credit_unit" validate:"gt=0"`
	Grade      Grade    `json:"grade" validate:"omitempty,oneof=A B C D E F Invalid"`
	Score      *float64 `json:"score,omitempty"`
}

// ValidationError describes a single rejected course field.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s' with value '%v': %s",
		e.Field, e.Value, e.Message)
}

// Normalize uppercases the code and grade and trims free text.
func (c *Course) Normalize() {
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	c.Title = strings.TrimSpace(c.Title)
	if c.Grade != GradeInvalid {
		c.Grade = Grade(strings.ToUpper(strings.TrimSpace(string(c.Grade))))
	}
}

func (c *Course) Validate() error {
	validate := validator.New()
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return ValidationError{
			Field:   fe.Field(),
			Value:   fe.Value(),
			Message: fmt.Sprintf("failed on '%s' rule", fe.Tag()),
		}
	}
	return err
}

func ScoreOf(v float64) *float64 {
	return &v
}
