package report

import (
	"sunduqi-backend/internal/models"

	"github.com/xuri/excelize/v2"
)

type workbook struct {
	f      *excelize.File
	header int
	first  string
}

// newWorkbook opens a file whose default sheet is renamed to first.
func newWorkbook(first string) (*workbook, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", first); err != nil {
		_ = f.Close()
		return nil, err
	}
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &workbook{f: f, header: header, first: first}, nil
}

// sheet writes a header row followed by data rows, creating the sheet if needed.
func (w *workbook) sheet(name string, header []string, data [][]any) error {
	if name != w.first {
		if _, err := w.f.NewSheet(name); err != nil {
			return err
		}
	}
	cells := make([]any, len(header))
	for i, h := range header {
		cells[i] = h
	}
	return w.rows(name, cells, data)
}

func (w *workbook) rows(name string, header []any, data [][]any) error {
	rtl := true
	if err := w.f.SetSheetView(name, 0, &excelize.ViewOptions{RightToLeft: &rtl}); err != nil {
		return err
	}

	row := 1
	width := 2
	if header != nil {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := w.f.SetSheetRow(name, cell, &header); err != nil {
			return err
		}
		end, _ := excelize.CoordinatesToCellName(len(header), row)
		if err := w.f.SetCellStyle(name, cell, end, w.header); err != nil {
			return err
		}
		width = len(header)
		row++
	}
	for _, r := range data {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := w.f.SetSheetRow(name, cell, &r); err != nil {
			return err
		}
		if len(r) > width {
			width = len(r)
		}
		row++
	}

	last, _ := excelize.ColumnNumberToName(width)
	return w.f.SetColWidth(name, "A", last, 20)
}

func userName(u *models.User) string {
	if u == nil {
		return ""
	}
	return u.Name
}
