package excel

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/fieldwise/visits-service/internal/model"
)

// Generator renders a schedule report as an XLSX workbook: a summary
// sheet plus one sheet per worker.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Generate(report model.ScheduleReport) ([]byte, error) {
	file := excelize.NewFile()

	summarySheet := "Summary"
	file.SetSheetName("Sheet1", summarySheet)
	if err := g.writeSummary(file, summarySheet, report); err != nil {
		return nil, err
	}

	usedNames := map[string]struct{}{summarySheet: {}}
	for _, group := range report.Groups {
		sheetName := buildSheetName(group.WorkerName, usedNames)
		usedNames[sheetName] = struct{}{}

		file.NewSheet(sheetName)
		if err := g.writeWorkerSheet(file, sheetName, group); err != nil {
			return nil, err
		}
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(file *excelize.File, sheet string, report model.ScheduleReport) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Period start")
	set("B1", formatDate(report.PeriodStart))
	set("A2", "Period end")
	set("B2", formatDate(report.PeriodEnd))
	set("A3", "Total visits")
	set("B3", report.TotalVisits)

	tableRow := 5
	set(fmt.Sprintf("A%d", tableRow), "Worker")
	set(fmt.Sprintf("B%d", tableRow), "Visits")

	for i, group := range report.Groups {
		row := tableRow + 1 + i
		set(fmt.Sprintf("A%d", row), group.WorkerName)
		set(fmt.Sprintf("B%d", row), len(group.Visits))
	}

	return nil
}

func (g *Generator) writeWorkerSheet(file *excelize.File, sheet string, group model.WorkerSchedule) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	headers := []string{"Date", "Week", "Client", "Address", "City", "Status", "Comment"}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		set(cell, header)
	}

	for i, visit := range group.Visits {
		row := i + 2
		set(fmt.Sprintf("A%d", row), formatDate(visit.Date))
		set(fmt.Sprintf("B%d", row), visit.WeekNumber)
		set(fmt.Sprintf("C%d", row), visit.ClientName)
		set(fmt.Sprintf("D%d", row), visit.ClientAddress)
		set(fmt.Sprintf("E%d", row), visit.ClientCity)
		set(fmt.Sprintf("F%d", row), string(visit.Status))
		if visit.Comment != nil {
			set(fmt.Sprintf("G%d", row), *visit.Comment)
		}
	}

	return nil
}

// buildSheetName fits the worker name into excelize's 31-character
// sheet-name limit and deduplicates collisions.
func buildSheetName(name string, used map[string]struct{}) string {
	base := sanitizeSheetName(name)
	if base == "" {
		base = "Worker"
	}
	if len(base) > 28 {
		base = base[:28]
	}

	candidate := base
	for i := 2; ; i++ {
		if _, taken := used[candidate]; !taken {
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

func sanitizeSheetName(name string) string {
	replacer := strings.NewReplacer(
		":", "-", "\\", "-", "/", "-", "?", "-", "*", "-", "[", "-", "]", "-",
	)
	return strings.TrimSpace(replacer.Replace(name))
}

func formatDate(t time.Time) string {
	return t.Format("02-01-2006")
}
