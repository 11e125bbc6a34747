package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
)

var pdfColumnWidths = []float64{28, 62, 24, 20, 22, 24}

func WritePDF(w io.Writer, doc Document) error {
	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetTitle(latin1(doc.Title), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, latin1(doc.Title), "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 11)
	for _, line := range []string{
		"Username: " + orNA(doc.Username),
		"Level: " + orNA(doc.Level),
		"Session Type: " + orNA(doc.SessionType),
	} {
		pdf.CellFormat(0, 7, latin1(line), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(128, 128, 128)
	pdf.SetTextColor(245, 245, 245)
	for i, h := range courseHeader {
		pdf.CellFormat(pdfColumnWidths[i], 8, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetFillColor(245, 245, 220)
	pdf.SetTextColor(0, 0, 0)
	for _, row := range doc.rows() {
		for i, cell := range row {
			pdf.CellFormat(pdfColumnWidths[i], 7, latin1(cell), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "", 11)
	for _, line := range []string{
		doc.averageLine(),
		"Classification: " + doc.Result.ClassificationLabel,
		"Message: " + doc.Result.ClassificationMessage,
	} {
		pdf.MultiCell(0, 7, latin1(line), "", "L", false)
	}

	if !doc.GeneratedAt.IsZero() {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 6, fmt.Sprintf("Generated %s UTC", doc.GeneratedAt.Format("2006-01-02 15:04")), "", 1, "R", false, 0, "")
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to render pdf: %w", err)
	}
	return pdf.Output(w)
}

// latin1 drops what the core PDF fonts cannot draw, emoji included.
func latin1(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r > 0xFF {
			return -1
		}
		return r
	}, s))
}
