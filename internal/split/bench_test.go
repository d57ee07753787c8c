package split

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/klytics/sheetsplit/internal/formats/xlsx"
)

func benchTable(rows, keys int) *xlsx.Table {
	t := &xlsx.Table{Header: []string{"ID", "Region", "Amount", "Note"}}
	for i := 0; i < rows; i++ {
		t.Rows = append(t.Rows, xlsx.Row{
			fmt.Sprintf("R-%05d", i),
			fmt.Sprintf("Region/%d", i%keys),
			float64(i) * 1.5,
			"Lorem ipsum dolor sit amet",
		})
	}
	return t
}

func BenchmarkPartition(b *testing.B) {
	table := benchTable(10000, 50)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		groups, err := Partition(table, 1)
		if err != nil {
			b.Fatal(err)
		}
		NameGroups(groups, false)
	}
}

func BenchmarkCleanSheetName(b *testing.B) {
	for i := 0; i < b.N; i++ {
		CleanSheetName("South/East [priority]: accounts receivable overdue")
	}
}

func BenchmarkRun(b *testing.B) {
	input := filepath.Join(b.TempDir(), "bench.xlsx")
	if err := xlsx.WriteFile(benchTable(2000, 20), "Data", input); err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Run(Options{InputPath: input, GroupColumn: 1}); err != nil {
			b.Fatal(err)
		}
	}
}
