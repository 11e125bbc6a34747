// Package report renders a calculated session for export.
package report

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shrimpsizemoose/cgpacalc/internal/models"
	"github.com/shrimpsizemoose/cgpacalc/internal/scoring"
)

const (
	FormatPDF  = "pdf"
	FormatXLSX = "xlsx"
	FormatText = "txt"
)

var ContentTypes = map[string]string{
	FormatPDF:  "application/pdf",
	FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	FormatText: "text/plain; charset=utf-8",
}

type Document struct {
	Title       string
	Username    string
	Level       string
	SessionType string
	Lines       []scoring.Line
	Result      models.Result
	GeneratedAt time.Time
}

var courseHeader = []string{"Course Code", "Course Title", "Credit Unit", "Score", "Grade", "Weight"}

func (d Document) rows() [][]string {
	rows := make([][]string, 0, len(d.Lines))
	for _, line := range d.Lines {
		rows = append(rows, []string{
			orNA(line.Course.Code),
			orNA(line.Course.Title),
			strconv.Itoa(line.Course.CreditUnit),
			scoreText(line.Course.Score),
			gradeText(line),
			weightText(line),
		})
	}
	return rows
}

func (d Document) averageLine() string {
	return fmt.Sprintf("%s: %.2f", d.Result.Kind, d.Result.Average)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func scoreText(score *float64) string {
	if score == nil {
		return "-"
	}
	return strconv.FormatFloat(*score, 'f', -1, 64)
}

func gradeText(line scoring.Line) string {
	if !line.Valid {
		if line.Grade == "" {
			return "-"
		}
		return string(models.GradeInvalid)
	}
	return string(line.Grade)
}

func weightText(line scoring.Line) string {
	if !line.Valid {
		if line.Grade == "" {
			return "-"
		}
		return string(models.GradeInvalid)
	}
	return strconv.Itoa(line.Weight)
}
