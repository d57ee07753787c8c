package xlsx

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrNotFound is returned when the workbook path does not resolve to a file.
	ErrNotFound = errors.New("xlsx: file not found")
	// ErrUnreadable is returned when the content is not a usable worksheet table.
	ErrUnreadable = errors.New("xlsx: unreadable workbook")
)

// ReadTable reads one sheet of an .xlsx file into a Table. The first row is
// the header; every following row is data. An empty sheet name selects the
// first sheet of the workbook. A missing path is reported as ErrNotFound
// before the extension is checked.
func ReadTable(path, sheet string) (*Table, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s — check that the path is correct", ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: could not access %s: %w", ErrUnreadable, path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory, not an .xlsx file", ErrUnreadable, path)
	}
	if !strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return nil, fmt.Errorf("%w: expected an .xlsx file, got %s", ErrUnreadable, path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: could not open %s — is this a valid .xlsx file? %w", ErrUnreadable, path, err)
	}
	defer f.Close()

	return readTable(f, sheet)
}

func readTable(f *excelize.File, sheet string) (*Table, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrUnreadable)
	}

	name := sheet
	if name == "" {
		name = sheets[0]
	} else if idx, err := f.GetSheetIndex(name); err != nil || idx == -1 {
		return nil, fmt.Errorf("%w: sheet %q not found — available sheets: %v", ErrUnreadable, name, sheets)
	}

	raw, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: could not read sheet %q: %w", ErrUnreadable, name, err)
	}
	if len(raw) == 0 || len(raw[0]) == 0 {
		return nil, fmt.Errorf("%w: sheet %q has no header row", ErrUnreadable, name)
	}

	props, err := f.GetWorkbookProps()
	if err != nil {
		return nil, fmt.Errorf("%w: could not read workbook properties: %w", ErrUnreadable, err)
	}
	cr := &cellReader{
		f:          f,
		sheet:      name,
		date1904:   props.Date1904 != nil && *props.Date1904,
		dateStyles: make(map[int]bool),
	}

	// The header is padded to the widest row so that data in columns with a
	// blank header cell is kept.
	width := 0
	for _, r := range raw {
		width = max(width, len(r))
	}
	header := make([]string, width)
	copy(header, raw[0])

	t := &Table{
		Sheet:  name,
		Header: header,
		Rows:   make([]Row, 0, len(raw)-1),
	}

	for i := 1; i < len(raw); i++ {
		row := make(Row, len(t.Header))
		for j, value := range raw[i] {
			if value == "" {
				continue
			}
			cell, err := cr.cell(j, i, value)
			if err != nil {
				return nil, err
			}
			row[j] = cell
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

var isoLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// cellReader recovers typed cell values from one sheet.
type cellReader struct {
	f          *excelize.File
	sheet      string
	date1904   bool
	dateStyles map[int]bool // style ID -> has a date or time number format
}

// cell recovers the scalar type of a non-empty raw cell value. Numbers
// formatted as dates or times come back as time.Time.
func (r *cellReader) cell(col, row int, value string) (Cell, error) {
	ref, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid cell coordinates: %w", ErrUnreadable, err)
	}
	cellType, err := r.f.GetCellType(r.sheet, ref)
	if err != nil {
		return nil, fmt.Errorf("%w: could not read cell %s: %w", ErrUnreadable, ref, err)
	}

	switch cellType {
	case excelize.CellTypeBool:
		return value == "1" || strings.EqualFold(value, "TRUE"), nil
	case excelize.CellTypeDate:
		// ISO 8601 cells (t="d")
		for _, layout := range isoLayouts {
			if t, err := time.Parse(layout, value); err == nil {
				return t.UTC(), nil
			}
		}
		return value, nil
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		// Numbers are usually stored without an explicit type attribute.
		n, err := strconv.ParseFloat(value, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return value, nil
		}
		isDate, err := r.isDate(ref)
		if err != nil {
			return nil, err
		}
		if isDate {
			if t, err := excelize.ExcelDateToTime(n, r.date1904); err == nil {
				return t.UTC(), nil
			}
		}
		return n, nil
	default:
		return value, nil
	}
}

func (r *cellReader) isDate(ref string) (bool, error) {
	id, err := r.f.GetCellStyle(r.sheet, ref)
	if err != nil {
		return false, fmt.Errorf("%w: could not read style of cell %s: %w", ErrUnreadable, ref, err)
	}
	if id == 0 {
		return false, nil
	}
	if known, ok := r.dateStyles[id]; ok {
		return known, nil
	}
	style, err := r.f.GetStyle(id)
	if err != nil {
		return false, fmt.Errorf("%w: could not read style %d: %w", ErrUnreadable, id, err)
	}
	var isDate bool
	if style.CustomNumFmt != nil {
		isDate = isDateFormat(*style.CustomNumFmt)
	} else {
		isDate = isBuiltInDateFormat(style.NumFmt)
	}
	r.dateStyles[id] = isDate
	return isDate, nil
}

// isBuiltInDateFormat reports whether a built-in number format ID displays a
// date or time of day. Elapsed-time formats such as [h]:mm:ss are excluded.
func isBuiltInDateFormat(id int) bool {
	switch {
	case id >= 14 && id <= 22, id == 45, id == 47:
		return true
	case id >= 27 && id <= 36, id >= 50 && id <= 58:
		// East Asian locale date formats
		return true
	}
	return false
}

// isDateFormat reports whether a custom number format code displays a date
// or time of day. Quoted literals, escaped characters and bracketed sections
// are ignored; formats with an elapsed-time section like [h] are not dates.
func isDateFormat(code string) bool {
	// Only the first section applies to positive numbers.
	var b strings.Builder
	inQuote := false
	for i := 0; i < len(code); i++ {
		c := code[i]
		switch {
		case inQuote:
			if c == '"' {
				inQuote = false
			}
		case c == '"':
			inQuote = true
		case c == '\\' || c == '_' || c == '*':
			i++
		case c == '[':
			end := strings.IndexByte(code[i:], ']')
			if end < 0 {
				return false
			}
			switch strings.ToLower(code[i+1 : i+end]) {
			case "h", "hh", "m", "mm", "s", "ss":
				return false
			}
			i += end
		case c == ';':
			i = len(code)
		default:
			b.WriteByte(c)
		}
	}
	return strings.ContainsAny(strings.ToLower(b.String()), "ymdhs")
}

// timeStyle is the number format written for date cells: 14 is the locale
// short date, 22 adds the time of day.
func timeStyle(t time.Time) int {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return 14
	}
	return 22
}
