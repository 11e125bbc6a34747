// internal/scoring/grader.go
package scoring

import (
	"fmt"
	"math"

	"github.com/shrimpsizemoose/cgpacalc/internal/models"
)

var gradePoints = map[models.Grade]int{
	models.GradeA: 5,
	models.GradeB: 4,
	models.GradeC: 3,
	models.GradeD: 2,
	models.GradeE: 1,
	models.GradeF: 0,
}

// ScoreToGrade maps a raw 0-100 score onto a letter grade. Every band is
// inclusive at its lower edge; the A band is also inclusive at 100.
// Anything outside [0,100] is Invalid.
func ScoreToGrade(score float64) models.Grade {
	switch {
	case math.IsNaN(score) || score < 0 || score > 100:
		return models.GradeInvalid
	case score >= 70:
		return models.GradeA
	case score >= 60:
		return models.GradeB
	case score >= 50:
		return models.GradeC
	case score >= 45:
		return models.GradeD
	case score >= 40:
		return models.GradeE
	default:
		return models.GradeF
	}
}

func GradePoint(grade models.Grade) (int, bool) {
	point, ok := gradePoints[grade]
	return point, ok
}

// ResolveGrade returns the effective grade of a course. A recorded score
// wins over the letter grade.
func ResolveGrade(c models.Course) (models.Grade, int, bool) {
	grade := c.Grade
	if c.Score != nil {
		grade = ScoreToGrade(*c.Score)
	}
	point, ok := GradePoint(grade)
	return grade, point, ok
}

type Line struct {
	Course models.Course
	Grade  models.Grade
	Point  int
	Weight int
	Valid  bool
}

// Lines resolves every course, keeping order. Unresolvable courses are kept
// with Valid=false so callers can flag them.
func Lines(courses []models.Course) []Line {
	lines := make([]Line, 0, len(courses))
	for _, c := range courses {
		grade, point, ok := ResolveGrade(c)
		line := Line{Course: c, Grade: grade, Point: point, Valid: ok && c.CreditUnit > 0}
		if line.Valid {
			line.Weight = point * c.CreditUnit
		}
		lines = append(lines, line)
	}
	return lines
}

func totals(courses []models.Course) (weight, credits int) {
	for _, line := range Lines(courses) {
		if !line.Valid {
			continue
		}
		weight += line.Weight
		credits += line.Course.CreditUnit
	}
	return weight, credits
}

// ComputeAverage is the credit-weighted grade point average rounded to two
// decimals. No valid course means an average of exactly 0.
func ComputeAverage(courses []models.Course) float64 {
	weight, credits := totals(courses)
	if credits == 0 {
		return 0
	}
	return Round2(float64(weight) / float64(credits))
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

type Grader struct {
	MinCreditUnit int `toml:"min_credit_unit"`
	MaxCreditUnit int `toml:"max_credit_unit"`
}

func NewGrader(minCreditUnit, maxCreditUnit int) *Grader {
	return &Grader{
		MinCreditUnit: minCreditUnit,
		MaxCreditUnit: maxCreditUnit,
	}
}

// CheckCourse normalizes c and rejects it when it cannot take part in a
// session. A finite out-of-range score is not an error: it is flagged Invalid.
func (g *Grader) CheckCourse(c *models.Course) error {
	c.Normalize()
	if c.Score != nil {
		if math.IsNaN(*c.Score) || math.IsInf(*c.Score, 0) {
			return models.ValidationError{
				Field:   "Score",
				Value:   *c.Score,
				Message: "must be a finite number",
			}
		}
		c.Grade = ScoreToGrade(*c.Score)
	}

	if err := c.Validate(); err != nil {
		return err
	}

	if c.CreditUnit < g.MinCreditUnit || c.CreditUnit > g.MaxCreditUnit {
		return models.ValidationError{
			Field:   "CreditUnit",
			Value:   c.CreditUnit,
			Message: fmt.Sprintf("must be between %d and %d", g.MinCreditUnit, g.MaxCreditUnit),
		}
	}
	return nil
}

func (g *Grader) Evaluate(session *models.Session) models.Result {
	weight, credits := totals(session.Courses)

	average := 0.0
	if credits > 0 {
		average = Round2(float64(weight) / float64(credits))
	}

	label, message := Classify(average)

	result := models.Result{
		Kind:                  models.KindGPA,
		Average:               average,
		ClassificationLabel:   label,
		ClassificationMessage: message,
		TotalCredits:          credits,
		TotalWeight:           weight,
	}
	if session.IsCumulative() {
		result.Kind = models.KindCGPA
	}

	for _, line := range Lines(session.Courses) {
		if !line.Valid {
			result.InvalidCourses = append(result.InvalidCourses, line.Course.Code)
		}
	}

	return result
}
