package watch

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArchivePath(t *testing.T) {
	dir := filepath.Join("data", "incoming")
	cases := []struct {
		input, archiveName, want string
	}{
		{filepath.Join(dir, "orders.xlsx"), "", filepath.Join(dir, "orders_Separated_Data_Archive.zip")},
		{filepath.Join(dir, "returns.XLSX"), "", filepath.Join(dir, "returns_Separated_Data_Archive.zip")},
		{filepath.Join(dir, "q4.report.xlsx"), "regions.zip", filepath.Join(dir, "q4.report_regions.zip")},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ArchivePath(tc.input, tc.archiveName), tc.input)
	}
}

func TestArchivePathDistinctPerInput(t *testing.T) {
	a := ArchivePath(filepath.Join("in", "a.xlsx"), "out.zip")
	b := ArchivePath(filepath.Join("in", "b.xlsx"), "out.zip")
	assert.NotEqual(t, a, b)
	assert.Equal(t, filepath.Dir(a), filepath.Dir(b))
}
