package board

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/HutchE92/handover/internal/domain/patient"
)

const (
	SheetName    = "Handover"
	XLSXMIMEType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var wardSheetHeader = []string{
	"Bed", "Patient", "NHS Number", "Age", "Consultant", "Diagnosis", "Allergies",
	"Resus Status", "NEWS", "Situation", "Background", "Assessment", "Recommendation",
	"Handover By", "Handover At",
}

var wardSheetWidths = []float64{8, 24, 14, 6, 18, 28, 18, 14, 7, 40, 40, 40, 40, 18, 18}

// WardSheetFilename names the export of ward on day.
func WardSheetFilename(ward string, day time.Time) string {
	return fmt.Sprintf("handover-%s-%s.xlsx", slug(ward), day.Format("2006-01-02"))
}

func slug(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			out = append(out, c)
		case c >= 'A' && c <= 'Z':
			out = append(out, c+('a'-'A'))
		case len(out) > 0 && out[len(out)-1] != '-':
			out = append(out, '-')
		}
	}
	return string(bytes.TrimRight(out, "-"))
}

// WardSheet renders the ward board as a one-sheet workbook, one row per
// patient in bed order with their latest SBAR note.
func WardSheet(b *WardBoard, now time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	wrapStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return nil, fmt.Errorf("create body style: %w", err)
	}

	for i, h := range wardSheetHeader {
		if err := setCell(f, i+1, 1, h); err != nil {
			return nil, err
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(SheetName, col, col, wardSheetWidths[i]); err != nil {
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(wardSheetHeader), 1)
	if err := f.SetCellStyle(SheetName, "A1", last, headerStyle); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}

	for i, card := range b.Patients {
		row := i + 2
		for col, v := range cardRow(card, now) {
			if v == "" {
				continue
			}
			if err := setCell(f, col+1, row, v); err != nil {
				return nil, err
			}
		}
	}
	if len(b.Patients) > 0 {
		first, _ := excelize.CoordinatesToCellName(1, 2)
		end, _ := excelize.CoordinatesToCellName(len(wardSheetHeader), len(b.Patients)+1)
		if err := f.SetCellStyle(SheetName, first, end, wrapStyle); err != nil {
			return nil, fmt.Errorf("style rows: %w", err)
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func cardRow(card PatientCard, now time.Time) []string {
	p := card.Patient
	age := ""
	if a := p.Age(now); a >= 0 {
		age = strconv.Itoa(a)
	}
	news := ""
	if p.EarlyWarningScore != nil {
		news = strconv.Itoa(*p.EarlyWarningScore)
	}
	row := []string{
		p.BedNumber, p.FullName(), patient.FormatNHSNumber(p.NHSNumber), age, p.Consultant,
		p.Diagnosis, p.Allergies, string(p.ResuscitationStatus), news,
		"", "", "", "", "", "",
	}
	if n := card.LatestHandover; n != nil {
		row[9], row[10], row[11], row[12] = n.Situation, n.Background, n.Assessment, n.Recommendation
		row[13] = n.CreatedBy
		row[14] = n.CreatedAt.Local().Format("2006-01-02 15:04")
	}
	return row
}

func setCell(f *excelize.File, col, row int, v interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(SheetName, cell, v); err != nil {
		return fmt.Errorf("set cell %s: %w", cell, err)
	}
	return nil
}
