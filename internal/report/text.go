package report

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
)

func WriteText(w io.Writer, doc Document) error {
	if doc.Title != "" {
		if _, err := fmt.Fprintf(w, "%s\n\n", doc.Title); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "Username: %s\nLevel: %s\nSession Type: %s\n\n",
		orNA(doc.Username), orNA(doc.Level), orNA(doc.SessionType)); err != nil {
		return err
	}

	RenderCourses(w, doc)

	_, err := fmt.Fprintf(w, "\n%s\nClassification: %s\nMessage: %s\n",
		doc.averageLine(),
		doc.Result.ClassificationLabel,
		doc.Result.ClassificationMessage,
	)
	return err
}

// RenderCourses writes the course table only.
func RenderCourses(w io.Writer, doc Document) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(courseHeader)
	table.SetAutoWrapText(false)
	table.AppendBulk(doc.rows())
	table.SetFooter([]string{"", "Total", fmt.Sprint(doc.Result.TotalCredits), "", "", fmt.Sprint(doc.Result.TotalWeight)})
	table.Render()
}
