package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/shrimpsizemoose/cgpacalc/internal/models"
)

const (
	sheetName    = "GPA"
	summarySheet = "Summary"
)

func WriteXLSX(w io.Writer, doc Document) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(courseHeader))
	for i, h := range courseHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	row := 2
	for _, line := range doc.Lines {
		values := []interface{}{
			line.Course.Code,
			line.Course.Title,
			line.Course.CreditUnit,
			scoreText(line.Course.Score),
			gradeText(line),
			weightText(line),
		}
		if line.Course.Score != nil {
			values[3] = *line.Course.Score
		}
		if line.Valid {
			values[5] = line.Weight
		}

		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", row, err)
		}
		row++
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("failed to add summary sheet: %w", err)
	}
	summary := [][]interface{}{
		{"Username", doc.Username},
		{"Level", doc.Level},
		{"Session Type", doc.SessionType},
		{doc.Result.Kind, doc.Result.Average},
		{"Classification", doc.Result.ClassificationLabel},
		{"Message", doc.Result.ClassificationMessage},
	}
	for i, values := range summary {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}

	return f.Write(w)
}

// ReadCoursesXLSX parses the first sheet of a workbook. The first row is a
// header naming at least a code and a credit column, plus a grade or score
// column. The first row without a code ends the import.
func ReadCoursesXLSX(r io.Reader) ([]models.Course, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	if len(rows) < 1 {
		return nil, fmt.Errorf("missing header row")
	}

	columns := make(map[string]int)
	for i, col := range rows[0] {
		columns[normalizeColumn(col)] = i
	}

	codeCol, hasCode := columns["course_code"]
	creditCol, hasCredit := columns["credit_unit"]
	gradeCol, hasGrade := columns["grade"]
	scoreCol, hasScore := columns["score"]
	titleCol, hasTitle := columns["course_title"]
	if !hasCode || !hasCredit || (!hasGrade && !hasScore) {
		return nil, fmt.Errorf("header must name course code, credit unit and grade or score columns")
	}

	cell := func(row []string, idx int) string {
		if idx >= len(row) {
			return ""
		}
		v := strings.TrimSpace(row[idx])
		if v == "-" || v == "N/A" {
			return ""
		}
		return v
	}

	var courses []models.Course
	for i, row := range rows[1:] {
		code := cell(row, codeCol)
		if code == "" {
			break
		}

		credit, err := strconv.Atoi(cell(row, creditCol))
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid credit unit %q", i+2, cell(row, creditCol))
		}

		c := models.Course{Code: code, CreditUnit: credit}
		if hasTitle {
			c.Title = cell(row, titleCol)
		}
		if hasGrade {
			c.Grade = models.Grade(cell(row, gradeCol))
		}
		if hasScore && cell(row, scoreCol) != "" {
			score, err := strconv.ParseFloat(cell(row, scoreCol), 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid score %q", i+2, cell(row, scoreCol))
			}
			c.Score = models.ScoreOf(score)
		}
		courses = append(courses, c)
	}

	return courses, nil
}

func normalizeColumn(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, " ", "_")
	switch name {
	case "code", "course":
		return "course_code"
	case "title":
		return "course_title"
	case "credit", "credits", "unit", "units":
		return "credit_unit"
	}
	return name
}
