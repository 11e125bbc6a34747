package export

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/cgpacalc/internal/models"
	"github.com/shrimpsizemoose/cgpacalc/internal/scoring"
	"github.com/shrimpsizemoose/cgpacalc/internal/store"
)

func TestBuildRows(t *testing.T) {
	grader := scoring.NewGrader(1, 16)
	savedAt := time.Date(2024, 11, 3, 10, 30, 0, 0, time.UTC)

	full := models.NewSession("200", models.FullSession)
	full.AddCourse(models.Course{Code: "MTH201", CreditUnit: 3, Grade: models.GradeA})
	full.AddCourse(models.Course{Code: "PHY201", CreditUnit: 2, Grade: models.GradeB})

	rows := buildRows([]store.SavedSession{
		{Owner: "ada", Session: *full, UpdatedAt: savedAt},
		{Owner: "gpa_data", Session: *models.NewSession("", ""), UpdatedAt: savedAt},
	}, grader, "2006-01-02 15:04")

	require.Len(t, rows, 3)
	assert.Equal(t, sheetHeader, rows[0])
	assert.Equal(t, []interface{}{
		"ada", "200", models.FullSession, 2, 5, models.KindCGPA, "4.60", scoring.FirstClass, "2024-11-03 10:30",
	}, rows[1])
	assert.Equal(t, "0.00", rows[2][6])
	assert.Equal(t, models.KindGPA, rows[2][5])
}
