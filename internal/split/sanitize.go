package split

import (
	"fmt"
	"strings"

	"github.com/klytics/sheetsplit/internal/formats/xlsx"
)

const (
	// MaxSheetNameLength is the longest sheet title a workbook accepts.
	MaxSheetNameLength = 31
	// DefaultSheetName replaces keys that sanitize to nothing.
	DefaultSheetName = "Sheet"
	// BlankKey is the sentinel key for rows whose grouping cell is absent.
	BlankKey = "Blank"
)

var invalidSheetChars = strings.NewReplacer(
	"/", "_", `\`, "_", "*", "_", "?", "_", ":", "_", "[", "_", "]", "_",
)

// CleanSheetName turns a group key into a legal sheet title. The key's text is
// truncated to MaxSheetNameLength characters, the characters / \ * ? : [ ] are
// replaced with underscores, and a blank result becomes DefaultSheetName.
func CleanSheetName(key any) string {
	name := keyText(key)
	if r := []rune(name); len(r) > MaxSheetNameLength {
		name = string(r[:MaxSheetNameLength])
	}
	name = invalidSheetChars.Replace(name)
	if strings.TrimSpace(name) == "" {
		return DefaultSheetName
	}
	return name
}

func keyText(key any) string {
	if key == nil {
		return BlankKey
	}
	return xlsx.Text(key)
}

// nameAllocator hands out sheet names that are unique within one run.
type nameAllocator map[string]bool

// take reserves base, or the first free "base (n)" variant when base is
// already taken. Suffixed names are trimmed to stay within MaxSheetNameLength.
func (a nameAllocator) take(base string) string {
	if !a[base] {
		a[base] = true
		return base
	}
	for n := 2; ; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		stem := []rune(base)
		if limit := MaxSheetNameLength - len(suffix); len(stem) > limit {
			stem = stem[:limit]
		}
		candidate := string(stem) + suffix
		if !a[candidate] {
			a[candidate] = true
			return candidate
		}
	}
}
