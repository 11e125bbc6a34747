package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/shrimpsizemoose/cgpacalc/internal/models"
	"github.com/shrimpsizemoose/cgpacalc/internal/scoring"
)

func sampleDocument() Document {
	session := models.NewSession("100", models.FirstSemester)
	session.AddCourse(models.Course{Code: "MTH101", Title: "Calculus", CreditUnit: 3, Grade: models.GradeA})
	session.AddCourse(models.Course{Code: "PHY101", CreditUnit: 2, Score: models.ScoreOf(65)})
	session.AddCourse(models.Course{Code: "CHM101", CreditUnit: 2, Score: models.ScoreOf(130)})

	return Document{
		Title:       "Student cGPA Report",
		Username:    "ada",
		Level:       session.Level,
		SessionType: session.SessionType,
		Lines:       scoring.Lines(session.Courses),
		Result:      scoring.NewGrader(1, 16).Evaluate(session),
		GeneratedAt: time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC),
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, sampleDocument()))

	out := buf.String()
	assert.Contains(t, out, "Student cGPA Report")
	assert.Contains(t, out, "Username: ada")
	assert.Contains(t, out, "MTH101")
	assert.Contains(t, out, "Calculus")
	assert.Contains(t, out, "Invalid")
	assert.Contains(t, out, "GPA: 4.60")
	assert.Contains(t, out, "Classification: First Class")
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, sampleDocument()))

	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Greater(t, buf.Len(), 500)
}

func TestLatin1(t *testing.T) {
	assert.Equal(t, "Congratulations!", latin1("🎉 Congratulations!"))
	assert.Equal(t, "café", latin1("café"))
}

func TestXLSXRoundTrip(t *testing.T) {
	doc := sampleDocument()

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, doc))

	courses, err := ReadCoursesXLSX(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, courses, 3)

	assert.Equal(t, "MTH101", courses[0].Code)
	assert.Equal(t, "Calculus", courses[0].Title)
	assert.Equal(t, 3, courses[0].CreditUnit)
	assert.Equal(t, models.GradeA, courses[0].Grade)
	assert.Nil(t, courses[0].Score)

	require.NotNil(t, courses[1].Score)
	assert.Equal(t, 65.0, *courses[1].Score)
	require.NotNil(t, courses[2].Score)
	assert.Equal(t, 130.0, *courses[2].Score)
}

func TestReadCoursesXLSX_HeaderAliases(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"Code", "Credits", "Grade"},
		{"csc101", 3, "b"},
		{"csc102", 2, "A"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	courses, err := ReadCoursesXLSX(&buf)
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, "csc101", courses[0].Code)
	assert.Equal(t, models.Grade("b"), courses[0].Grade)
	assert.Equal(t, 2, courses[1].CreditUnit)
}

func TestReadCoursesXLSX_Errors(t *testing.T) {
	_, err := ReadCoursesXLSX(strings.NewReader("definitely not a workbook"))
	assert.Error(t, err)

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	header := []interface{}{"Course Code", "Title"}
	require.NoError(t, f.SetSheetRow(sheet, "A1", &header))
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	_, err = ReadCoursesXLSX(&buf)
	assert.ErrorContains(t, err, "header must name")
}
