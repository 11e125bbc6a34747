// Package cli is the interactive terminal calculator: it asks for each
// course's code, score and credit unit, then prints the graded table and
// the cumulative average.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/shrimpsizemoose/cgpacalc/internal/models"
	"github.com/shrimpsizemoose/cgpacalc/internal/scoring"
)

const invalid = "Invalid"

type CLI struct {
	in  *bufio.Scanner
	out io.Writer
}

func New(in io.Reader, out io.Writer) *CLI {
	return &CLI{in: bufio.NewScanner(in), out: out}
}

// Run reads courses until the announced count is reached or input ends,
// then prints the result. Whatever was entered before end of input is graded.
func (c *CLI) Run() error {
	color.New(color.FgCyan, color.Bold).Fprintln(c.out, "WELCOME TO THE CGPA CALCULATOR")

	count, ok := c.askInt("Enter the number of courses: ", 0)
	if !ok {
		return c.report(nil)
	}

	courses := make([]models.Course, 0, count)
	for i := 0; i < count; i++ {
		course, ok := c.askCourse()
		if !ok {
			break
		}
		courses = append(courses, course)
	}

	return c.report(courses)
}

func (c *CLI) askCourse() (models.Course, bool) {
	code, ok := c.ask("Enter the course code: ")
	if !ok {
		return models.Course{}, false
	}
	score, ok := c.askFloat("Enter your score: ")
	if !ok {
		return models.Course{}, false
	}
	credit, ok := c.askInt("Enter the number of credit: ", 1)
	if !ok {
		return models.Course{}, false
	}

	course := models.Course{Code: code, CreditUnit: credit, Score: models.ScoreOf(score)}
	course.Normalize()
	return course, true
}

func (c *CLI) ask(prompt string) (string, bool) {
	fmt.Fprint(c.out, prompt)
	if !c.in.Scan() {
		fmt.Fprintln(c.out)
		return "", false
	}
	return strings.TrimSpace(c.in.Text()), true
}

func (c *CLI) askInt(prompt string, min int) (int, bool) {
	for {
		text, ok := c.ask(prompt)
		if !ok {
			return 0, false
		}
		n, err := strconv.Atoi(text)
		if err == nil && n >= min {
			return n, true
		}
		color.New(color.FgRed).Fprintf(c.out, "Please enter a whole number of at least %d.\n", min)
	}
}

func (c *CLI) askFloat(prompt string) (float64, bool) {
	for {
		text, ok := c.ask(prompt)
		if !ok {
			return 0, false
		}
		v, err := strconv.ParseFloat(text, 64)
		if err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
			return v, true
		}
		color.New(color.FgRed).Fprintln(c.out, "Please enter a number.")
	}
}

func (c *CLI) report(courses []models.Course) error {
	fmt.Fprintln(c.out)

	table := tablewriter.NewWriter(c.out)
	table.SetHeader([]string{"#", "Course", "Credit", "Score", "Grade", "Weight"})
	for i, line := range scoring.Lines(courses) {
		score, grade, weight := invalid, invalid, invalid
		if line.Valid {
			score = strconv.FormatFloat(*line.Course.Score, 'f', -1, 64)
			grade = string(line.Grade)
			weight = strconv.Itoa(line.Weight)
		}
		table.Append([]string{
			strconv.Itoa(i + 1),
			line.Course.Code,
			strconv.Itoa(line.Course.CreditUnit),
			score,
			grade,
			weight,
		})
	}
	table.Render()

	average := scoring.ComputeAverage(courses)
	label, message := scoring.Classify(average)

	if _, err := fmt.Fprintf(c.out, "\nYour CGPA is %.2f\n", average); err != nil {
		return err
	}
	classColor(label).Fprintf(c.out, "%s: %s\n", label, message)
	return nil
}

func classColor(label string) *color.Color {
	switch label {
	case scoring.FirstClass, scoring.SecondClassUpper:
		return color.New(color.FgGreen)
	case scoring.NoClass:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgYellow)
	}
}
