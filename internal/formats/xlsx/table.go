// Package xlsx provides reading and writing of single-sheet tables in .xlsx (Excel) files.
package xlsx

import (
	"fmt"
	"strconv"
	"time"
)

// Cell is a single scalar cell value. It holds nil (absent), string, float64,
// bool or time.Time for numbers formatted as dates.
type Cell = any

// Row is an ordered list of cells, one per header column.
type Row []Cell

// Table is the in-memory form of one worksheet: a header row followed by data rows.
// Every row has exactly len(Header) cells.
type Table struct {
	Sheet  string   `json:"sheet"`
	Header []string `json:"header"`
	Rows   []Row    `json:"rows"`
}

// Width returns the number of columns.
func (t *Table) Width() int {
	return len(t.Header)
}

// Text renders a cell the way it is shown in a spreadsheet: strings as-is,
// numbers in shortest decimal form, booleans as TRUE/FALSE, dates as
// YYYY-MM-DD (with the time of day when it is not midnight), absent as "".
func Text(c Cell) string {
	switch v := c.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		if v {
			return "TRUE"
		}
		return "FALSE"
	case time.Time:
		if timeStyle(v) == 14 {
			return v.Format(time.DateOnly)
		}
		return v.Format(time.DateTime)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return fmt.Sprint(v)
	}
}
