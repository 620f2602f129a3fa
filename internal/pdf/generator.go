package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/fieldwise/visits-service/internal/model"
)

// Generator renders a worker's day sheet: the route list a field member
// takes along on paper.
type Generator struct {
	fontName string
}

func NewGenerator() *Generator {
	return &Generator{fontName: "Helvetica"}
}

func (g *Generator) Generate(sheet model.DaySheet) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont(g.fontName, "B", 14)
	pdf.CellFormat(0, 10, "Day sheet", "", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("%s - %s", sheet.Worker.Name, formatDate(sheet.Date)), "", 1, "C", false, 0, "")
	if sheet.Worker.Phone != nil {
		pdf.CellFormat(0, 6, fmt.Sprintf("Phone: %s", *sheet.Worker.Phone), "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)

	headers := []string{"Client", "Address", "City", "Status", "Comment"}
	colWidths := []float64{45, 45, 30, 25, 35}
	drawTableRow(pdf, g.fontName, headers, colWidths, true)

	for _, visit := range sheet.Visits {
		row := []string{
			visit.ClientName,
			visit.ClientAddress,
			visit.ClientCity,
			string(visit.Status),
			stringOrEmpty(visit.Comment),
		}
		drawTableRow(pdf, g.fontName, row, colWidths, false)
	}

	pdf.Ln(4)
	pdf.SetFont(g.fontName, "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("%d visits planned", len(sheet.Visits)), "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawTableRow(pdf *gofpdf.Fpdf, font string, cells []string, widths []float64, header bool) {
	if header {
		pdf.SetFont(font, "B", 10)
	} else {
		pdf.SetFont(font, "", 10)
	}
	for i, cell := range cells {
		pdf.CellFormat(widths[i], 7, cell, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatDate(t time.Time) string {
	return t.Format("02-01-2006")
}
