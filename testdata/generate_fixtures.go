//go:build ignore

// This program generates test fixture files for sheetsplit.
package main

import (
	"fmt"
	"os"

	"github.com/klytics/sheetsplit/internal/formats/xlsx"
)

func main() {
	if err := generateRegions(); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating regions.xlsx: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Test fixtures generated successfully.")
}

// generateRegions writes a small order list grouped by region in column B,
// with one blank region, one region containing a slash and two keys that
// sanitize to the same sheet name.
func generateRegions() error {
	table := &xlsx.Table{
		Header: []string{"Order", "Region", "Customer", "Amount", "Paid"},
		Rows: []xlsx.Row{
			{"SO-1001", "North", "Acme Ltd", 1250.0, true},
			{"SO-1002", nil, "Globex", 310.5, false},
			{"SO-1003", "North", "Initech", 980.0, true},
			{"SO-1004", "South/East", "Umbrella", 45.25, true},
			{"SO-1005", "West", "Hooli", 2200.0, false},
			{"SO-1006", "South_East", "Vandelay", 610.0, true},
			{"SO-1007", "West", "Stark", 75.0, true},
			{"SO-1008", 3.0, "Wayne", 120.0, false},
		},
	}
	return xlsx.WriteFile(table, "Orders", "testdata/regions.xlsx")
}
