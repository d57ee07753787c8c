package xlsx

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

// Write encodes the table as a single-sheet workbook titled sheetName.
// The header is written as the first row; absent cells are left empty.
func Write(t *Table, sheetName string, w io.Writer) error {
	f, err := build(t, sheetName)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("could not encode workbook: %w", err)
	}
	return nil
}

// WriteFile creates a new .xlsx file at path holding the table.
func WriteFile(t *Table, sheetName, path string) error {
	f, err := build(t, sheetName)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("could not save %s: %w", path, err)
	}
	return nil
}

func build(t *Table, sheetName string) (*excelize.File, error) {
	f := excelize.NewFile()

	// Rename default sheet
	defaultSheet := f.GetSheetName(0)
	if sheetName != defaultSheet {
		if err := f.SetSheetName(defaultSheet, sheetName); err != nil {
			f.Close()
			return nil, fmt.Errorf("could not name sheet %q: %w", sheetName, err)
		}
	}

	w := &rowWriter{f: f, sheet: sheetName, styles: make(map[int]int)}

	header := make(Row, len(t.Header))
	for i, h := range t.Header {
		if h != "" {
			header[i] = h
		}
	}
	if err := w.setRow(1, header); err != nil {
		f.Close()
		return nil, err
	}

	for i, row := range t.Rows {
		if err := w.setRow(i+2, row); err != nil {
			f.Close()
			return nil, err
		}
	}

	return f, nil
}

// rowWriter sets cell values on one sheet, giving date cells a date number format.
type rowWriter struct {
	f      *excelize.File
	sheet  string
	styles map[int]int // number format -> style ID
}

func (w *rowWriter) setRow(rowNum int, row Row) error {
	for colIdx, cell := range row {
		if cell == nil {
			continue
		}
		cellName, err := excelize.CoordinatesToCellName(colIdx+1, rowNum)
		if err != nil {
			return fmt.Errorf("invalid cell coordinates: %w", err)
		}
		if err := w.f.SetCellValue(w.sheet, cellName, cell); err != nil {
			return fmt.Errorf("could not set cell %s: %w", cellName, err)
		}
		if t, ok := cell.(time.Time); ok {
			if err := w.setTimeStyle(cellName, t); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *rowWriter) setTimeStyle(cellName string, t time.Time) error {
	numFmt := timeStyle(t)
	id, ok := w.styles[numFmt]
	if !ok {
		var err error
		if id, err = w.f.NewStyle(&excelize.Style{NumFmt: numFmt}); err != nil {
			return fmt.Errorf("could not create date style: %w", err)
		}
		w.styles[numFmt] = id
	}
	if err := w.f.SetCellStyle(w.sheet, cellName, cellName, id); err != nil {
		return fmt.Errorf("could not style cell %s: %w", cellName, err)
	}
	return nil
}
