package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	m.Run()
}

func run(t *testing.T, input string) string {
	var out bytes.Buffer
	require.NoError(t, New(strings.NewReader(input), &out).Run())
	return out.String()
}

func TestRun(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "graded table and average",
			input: "2\nmth101\n75\n3\nphy101\n65\n2\n",
			want:  []string{"MTH101", "PHY101", "Your CGPA is 4.60", "First Class"},
		},
		{
			name:  "invalid score is excluded",
			input: "2\ncsc101\n150\n3\ncsc102\n50\n2\n",
			want:  []string{"Invalid", "Your CGPA is 3.00", "Second Class Lower"},
		},
		{
			name:  "bad numbers are asked again",
			input: "two\n1\neng101\nabc\ninf\n45\n0\n4\n",
			want:  []string{"Please enter a whole number of at least 0.", "Please enter a number.", "Please enter a whole number of at least 1.", "Your CGPA is 2.00"},
		},
		{
			name:  "end of input grades what was entered",
			input: "3\nmth101\n40\n2\nphy101\n",
			want:  []string{"MTH101", "Your CGPA is 1.00", "Pass"},
		},
		{
			name:  "no courses",
			input: "",
			want:  []string{"Your CGPA is 0.00", "No Class"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := run(t, tt.input)
			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestRun_PartialCourseIsDropped(t *testing.T) {
	out := run(t, "2\nmth101\n75\n3\nphy101\n")
	assert.NotContains(t, out, "PHY101")
	assert.Contains(t, out, "Your CGPA is 5.00")
}
