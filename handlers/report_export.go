// handlers/report_export.go
package handlers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/jalaali/go-jalaali"
	"github.com/xuri/excelize/v2"

	"github.com/mechanicalh600-lang/CheckList/models"
)

var exportHeaders = []string{
	"کد رهگیری", "تاریخ", "ساعت", "نام تجهیز", "کد تجهیز", "بازرس",
	"فعالیت", "شرح وظیفه", "وضعیت", "توضیحات", "وضعیت گزارش",
}

// ExportInspectionsToExcel writes the hydrated record set for a date range as
// a spreadsheet, one row per checklist item.
func ExportInspectionsToExcel(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rows, err := historyService().FullReport(r.Context(), q.Get("start"), q.Get("end"))
	if err != nil {
		http.Error(w, "could not load report", http.StatusInternalServerError)
		return
	}

	excelFile, err := createInspectionExcel(rows)
	if err != nil {
		http.Error(w, "Failed to generate Excel file", http.StatusInternalServerError)
		return
	}

	buffer, err := excelFile.WriteToBuffer()
	if err != nil {
		http.Error(w, "Failed to write Excel file", http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("inspections_%s.xlsx", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", buffer.Len()))

	w.WriteHeader(http.StatusOK)
	w.Write(buffer.Bytes())
}

// ExportInspectionsToCSV is the plain-text sibling of the Excel export.
func ExportInspectionsToCSV(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rows, err := historyService().FullReport(r.Context(), q.Get("start"), q.Get("end"))
	if err != nil {
		http.Error(w, "could not load report", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	// BOM so spreadsheet apps detect UTF-8 and render the Persian text.
	buf.WriteString("\xEF\xBB\xBF")
	writer := csv.NewWriter(&buf)
	writer.Write(exportHeaders)
	for _, insp := range rows {
		for _, record := range exportRecords(insp) {
			writer.Write(record)
		}
	}
	writer.Flush()
	if writer.Error() != nil {
		http.Error(w, "Failed to generate CSV file", http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("inspections_%s.csv", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", buf.Len()))

	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func createInspectionExcel(rows []models.Inspection) (*excelize.File, error) {
	f := excelize.NewFile()
	sheetName := "Inspections"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#4472C4"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	for colIdx, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(colIdx+1, 1)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
		col, _ := excelize.ColumnNumberToName(colIdx + 1)
		f.SetColWidth(sheetName, col, col, 20)
	}

	rowIdx := 2
	for _, insp := range rows {
		for _, record := range exportRecords(insp) {
			for colIdx, value := range record {
				cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx)
				f.SetCellValue(sheetName, cell, value)
			}
			rowIdx++
		}
	}

	f.DeleteSheet("Sheet1")
	return f, nil
}

// exportRecords flattens one inspection into export rows, one per item. An
// orphan record with no surviving items still yields a single header row so
// the tracking code appears in the export.
func exportRecords(insp models.Inspection) [][]string {
	date, clock := formatJalali(insp.Timestamp)
	base := func(task, status, comment string) []string {
		return []string{
			insp.TrackingCode, date, clock, insp.EquipmentName, insp.EquipmentID,
			insp.InspectorName, activityLabel(insp.ActivityName),
			task, status, comment, insp.Status,
		}
	}

	if len(insp.Items) == 0 {
		return [][]string{base("", "", "")}
	}
	records := make([][]string, 0, len(insp.Items))
	for _, item := range insp.Items {
		records = append(records, base(item.Task, statusLabel(item.Status), item.Comment))
	}
	return records
}

func activityLabel(name string) string {
	if name == "" {
		return "بازدید عمومی"
	}
	return name
}

func statusLabel(status string) string {
	switch status {
	case models.StatusPass:
		return "سالم"
	case models.StatusFail:
		return "خراب"
	case models.StatusNA:
		return "موردی ندارد"
	default:
		return "نامشخص"
	}
}

// formatJalali renders a timestamp as a Jalali date plus a 24h clock.
func formatJalali(t time.Time) (date, clock string) {
	jy, jm, jd, err := jalaali.ToJalaali(t.Year(), t.Month(), t.Day())
	if err != nil {
		return t.Format("2006-01-02"), t.Format("15:04")
	}
	return fmt.Sprintf("%04d/%02d/%02d", jy, int(jm), jd), t.Format("15:04")
}
