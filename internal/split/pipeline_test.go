package split

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/klytics/sheetsplit/internal/formats/xlsx"
)

// writeInput saves table as an .xlsx file in a fresh directory and returns its path.
func writeInput(t *testing.T, table *xlsx.Table) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.xlsx")
	require.NoError(t, xlsx.WriteFile(table, "Data", path))
	return path
}

// readArchive returns the tables stored in the archive keyed by entry name,
// along with the entry names in archive order.
func readArchive(t *testing.T, path string) (map[string]*xlsx.Table, []string) {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	tables := make(map[string]*xlsx.Table)
	var names []string
	for _, f := range zr.File {
		assert.Equal(t, zip.Deflate, f.Method, "entry %s", f.Name)
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)

		extracted := filepath.Join(t.TempDir(), filepath.Base(f.Name))
		require.NoError(t, os.WriteFile(extracted, data, 0644))
		table, err := xlsx.ReadTable(extracted, "")
		require.NoError(t, err, "entry %s", f.Name)
		tables[f.Name] = table
		names = append(names, f.Name)
	}
	return tables, names
}

func TestRunScenario(t *testing.T) {
	input := writeInput(t, regionTable())

	res, err := Run(Options{InputPath: input, GroupColumn: 1, Logger: zap.NewNop()})
	require.NoError(t, err)

	archive := filepath.Join(filepath.Dir(input), ArchiveName)
	assert.Equal(t, archive, res.Archive)
	assert.Equal(t, 4, res.Rows)
	assert.Equal(t, 3, res.Entries)
	assert.Empty(t, res.Collisions)
	assert.NoDirExists(t, StagingDir(input))

	tables, names := readArchive(t, archive)
	assert.Equal(t, []string{
		"SEPERATED_DATA/North.xlsx",
		"SEPERATED_DATA/Blank.xlsx",
		"SEPERATED_DATA/South_East.xlsx",
	}, names)

	north := tables["SEPERATED_DATA/North.xlsx"]
	assert.Equal(t, "North", north.Sheet)
	assert.Equal(t, []string{"Order", "Region", "Amount"}, north.Header)
	assert.Equal(t, []xlsx.Row{{"A-1", "North", 10.0}, {"A-3", "North", 30.0}}, north.Rows)

	blank := tables["SEPERATED_DATA/Blank.xlsx"]
	assert.Equal(t, "Blank", blank.Sheet)
	assert.Equal(t, []xlsx.Row{{"A-2", "Blank", 20.0}}, blank.Rows)

	southEast := tables["SEPERATED_DATA/South_East.xlsx"]
	assert.Equal(t, "South_East", southEast.Sheet)
	assert.Equal(t, []xlsx.Row{{"A-4", "South/East", 40.0}}, southEast.Rows)
}

func TestRunKeepsDates(t *testing.T) {
	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 14, 8, 15, 0, 0, time.UTC)
	input := writeInput(t, &xlsx.Table{
		Header: []string{"Order", "Region", "Shipped"},
		Rows: []xlsx.Row{
			{"A-1", "North", jan},
			{"A-2", "South", feb},
			{"A-3", "North", feb},
		},
	})

	res, err := Run(Options{InputPath: input, GroupColumn: 1})
	require.NoError(t, err)

	tables, _ := readArchive(t, res.Archive)
	want := []xlsx.Row{{"A-1", "North", jan}, {"A-3", "North", feb}}
	if diff := cmp.Diff(want, tables["SEPERATED_DATA/North.xlsx"].Rows); diff != "" {
		t.Errorf("North rows mismatch (-want +got):\n%s", diff)
	}
}

func TestRunGroupsByDate(t *testing.T) {
	day := time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC)
	input := writeInput(t, &xlsx.Table{
		Header: []string{"Order", "Day"},
		Rows:   []xlsx.Row{{"A-1", day}, {"A-2", day}},
	})

	res, err := Run(Options{InputPath: input, GroupColumn: 1})
	require.NoError(t, err)
	require.Len(t, res.Groups, 1)
	assert.Equal(t, "2024-05-31", res.Groups[0].Name)
	assert.Equal(t, 2, res.Groups[0].Rows)
}

func TestRunReportsProgress(t *testing.T) {
	input := writeInput(t, regionTable())

	var seen []string
	_, err := Run(Options{
		InputPath:   input,
		GroupColumn: 1,
		Progress: func(done, total int, name string) {
			assert.Equal(t, 3, total)
			assert.Equal(t, len(seen)+1, done)
			seen = append(seen, name)
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"North", "Blank", "South_East"}, seen)
}

func TestRunInvalidColumnWritesNothing(t *testing.T) {
	input := writeInput(t, regionTable())

	_, err := Run(Options{InputPath: input, GroupColumn: 5})
	require.ErrorIs(t, err, ErrInvalidColumnIndex)

	assert.NoDirExists(t, StagingDir(input))
	assert.NoFileExists(t, filepath.Join(filepath.Dir(input), ArchiveName))
}

func TestRunGroupWriteFailureCleansUp(t *testing.T) {
	table := &xlsx.Table{
		Header: []string{"ID", "Code"},
		Rows: []xlsx.Row{
			{"1", "A"},
			{"2", "B"},
			// Sheet names may not begin or end with an apostrophe.
			{"3", "'C'"},
			{"4", "D"},
			{"5", "E"},
		},
	}
	input := writeInput(t, table)

	_, err := Run(Options{InputPath: input, GroupColumn: 1})
	var target *GroupWriteError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, "'C'", target.Key)
	assert.ErrorIs(t, err, ErrGroupWrite)

	assert.NoDirExists(t, StagingDir(input))
	assert.NoFileExists(t, filepath.Join(filepath.Dir(input), ArchiveName))
}

func TestRunInputNotFound(t *testing.T) {
	input := filepath.Join(t.TempDir(), "missing.xlsx")

	_, err := Run(Options{InputPath: input, GroupColumn: 1})
	var target *InputNotFoundError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, input, target.Path)
	assert.Contains(t, err.Error(), "file not found")
	assert.NoDirExists(t, StagingDir(input))
}

func TestRunUnreadableInput(t *testing.T) {
	input := filepath.Join(t.TempDir(), "notes.xlsx")
	require.NoError(t, os.WriteFile(input, []byte("plain text, not a workbook"), 0644))

	_, err := Run(Options{InputPath: input, GroupColumn: 1})
	require.ErrorIs(t, err, ErrUnreadableFormat)
	assert.NoDirExists(t, StagingDir(input))
}

func TestRunCollisionLastWins(t *testing.T) {
	table := &xlsx.Table{
		Header: []string{"ID", "Path"},
		Rows: []xlsx.Row{
			{"1", "a/b"},
			{"2", "a_b"},
			{"3", "a/b"},
		},
	}
	input := writeInput(t, table)

	res, err := Run(Options{InputPath: input, GroupColumn: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Entries)
	require.Len(t, res.Collisions, 1)
	assert.Equal(t, "a_b", res.Collisions[0].Name)

	tables, names := readArchive(t, res.Archive)
	assert.Equal(t, []string{"SEPERATED_DATA/a_b.xlsx"}, names)
	assert.Equal(t, []xlsx.Row{{"2", "a_b"}}, tables[names[0]].Rows)
}

func TestRunDisambiguate(t *testing.T) {
	table := &xlsx.Table{
		Header: []string{"ID", "Path"},
		Rows:   []xlsx.Row{{"1", "a/b"}, {"2", "a_b"}},
	}
	input := writeInput(t, table)

	res, err := Run(Options{InputPath: input, GroupColumn: 1, Disambiguate: true})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Entries)

	_, names := readArchive(t, res.Archive)
	assert.Equal(t, []string{"SEPERATED_DATA/a_b.xlsx", "SEPERATED_DATA/a_b (2).xlsx"}, names)
}

func TestRunOutputOverrideAndLevel(t *testing.T) {
	input := writeInput(t, regionTable())
	out := filepath.Join(t.TempDir(), "custom.zip")

	res, err := Run(Options{InputPath: input, GroupColumn: 1, OutputPath: out, CompressionLevel: 9})
	require.NoError(t, err)
	assert.Equal(t, out, res.Archive)
	assert.FileExists(t, out)
	assert.NoFileExists(t, filepath.Join(filepath.Dir(input), ArchiveName))
}

func TestRunReplacesExistingArchive(t *testing.T) {
	input := writeInput(t, regionTable())
	archive := filepath.Join(filepath.Dir(input), ArchiveName)
	require.NoError(t, os.WriteFile(archive, []byte("stale"), 0644))

	_, err := Run(Options{InputPath: input, GroupColumn: 1})
	require.NoError(t, err)

	_, names := readArchive(t, archive)
	assert.Len(t, names, 3)
}

func TestRunRemovesPreexistingStaging(t *testing.T) {
	input := writeInput(t, regionTable())
	staging := StagingDir(input)
	require.NoError(t, os.MkdirAll(staging, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(staging, "leftover.txt"), []byte("x"), 0644))

	_, err := Run(Options{InputPath: input, GroupColumn: 1})
	require.NoError(t, err)
	assert.NoDirExists(t, staging)
}

func TestRunKeepsFileAtStagingPath(t *testing.T) {
	input := writeInput(t, regionTable())
	staging := StagingDir(input)
	require.NoError(t, os.WriteFile(staging, []byte("notes"), 0644))

	_, err := Run(Options{InputPath: input, GroupColumn: 1})
	require.ErrorIs(t, err, ErrStagingDir)

	data, err := os.ReadFile(staging)
	require.NoError(t, err)
	assert.Equal(t, "notes", string(data))
	assert.NoFileExists(t, filepath.Join(filepath.Dir(input), ArchiveName))
}

func TestRunArchiveWriteFailure(t *testing.T) {
	input := writeInput(t, regionTable())
	out := filepath.Join(t.TempDir(), "no-such-dir", "out.zip")

	_, err := Run(Options{InputPath: input, GroupColumn: 1, OutputPath: out})
	var target *ArchiveWriteError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, out, target.Path)
	assert.NoDirExists(t, StagingDir(input))
	assert.NoFileExists(t, out)
}

func TestRunRejectsOutputInsideStaging(t *testing.T) {
	input := writeInput(t, regionTable())
	out := filepath.Join(StagingDir(input), "out.zip")

	_, err := Run(Options{InputPath: input, GroupColumn: 1, OutputPath: out})
	require.ErrorIs(t, err, ErrArchiveWrite)
	assert.NoDirExists(t, StagingDir(input))
}

func TestRunEmptyTable(t *testing.T) {
	input := writeInput(t, &xlsx.Table{Header: []string{"ID", "Region"}})

	res, err := Run(Options{InputPath: input, GroupColumn: 1})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Entries)

	_, names := readArchive(t, res.Archive)
	assert.Empty(t, names)
}

func TestWithin(t *testing.T) {
	dir := filepath.Join("data", "SEPERATED_DATA")
	assert.True(t, within(dir, dir))
	assert.True(t, within(dir, filepath.Join(dir, "x.zip")))
	assert.False(t, within(dir, filepath.Join("data", "x.zip")))
	assert.False(t, within(dir, filepath.Join("data", "SEPERATED_DATA2", "x.zip")))
}
