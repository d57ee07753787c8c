// Package split partitions the rows of a workbook by one column, writes each
// group to its own workbook and packs the workbooks into a zip archive.
//
// A run is strictly sequential: load, partition, materialize every group into
// a staging directory next to the input, archive, clean up. Cleanup of the
// staging directory runs on every exit path once materialization has started.
package split

import (
	"errors"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/klytics/sheetsplit/internal/formats/xlsx"
)

// DefaultGroupColumn is the zero-based grouping column used when none is given (column B).
const DefaultGroupColumn = 1

// Options configures one run.
type Options struct {
	InputPath   string
	GroupColumn int
	// Sheet selects the input worksheet; empty means the first sheet.
	Sheet string
	// OutputPath overrides the archive location; empty means ArchiveName next to the input.
	OutputPath string
	// Disambiguate gives colliding sheet names a " (n)" suffix instead of
	// letting the later group replace the earlier one in the archive.
	Disambiguate     bool
	CompressionLevel int
	Logger           *zap.Logger
	Progress         ProgressFunc
}

// GroupInfo describes one group of a run.
type GroupInfo struct {
	Key   any    `json:"key"`
	Name  string `json:"name"`
	Entry string `json:"entry"`
	Rows  int    `json:"rows"`
}

// Result describes a completed run.
type Result struct {
	Input      string      `json:"input"`
	Sheet      string      `json:"sheet"`
	Archive    string      `json:"archive"`
	Rows       int         `json:"rows"`
	Groups     []GroupInfo `json:"groups"`
	Entries    int         `json:"entries"`
	Collisions []Collision `json:"collisions,omitempty"`
}

// Load reads the input table, classifying failures as InputNotFoundError or
// UnreadableFormatError.
func Load(path, sheet string) (*xlsx.Table, error) {
	t, err := xlsx.ReadTable(path, sheet)
	switch {
	case err == nil:
		return t, nil
	case errors.Is(err, xlsx.ErrNotFound):
		return nil, &InputNotFoundError{Path: path, Err: err}
	default:
		return nil, &UnreadableFormatError{Path: path, Err: err}
	}
}

// StagingDir returns the staging directory used for an input file.
func StagingDir(inputPath string) string {
	return filepath.Join(filepath.Dir(inputPath), ArchiveFolder)
}

// ArchivePath returns the archive location for the given options.
func ArchivePath(opts Options) string {
	if opts.OutputPath != "" {
		return opts.OutputPath
	}
	return filepath.Join(filepath.Dir(opts.InputPath), ArchiveName)
}

// Run executes the whole pipeline. Load and partition errors return before
// anything is written. Once the staging directory is in play, every
// materialized file and the staging directory are removed before Run returns,
// whether it succeeds, fails or panics.
func Run(opts Options) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	table, err := Load(opts.InputPath, opts.Sheet)
	if err != nil {
		return nil, err
	}

	groups, err := Partition(table, opts.GroupColumn)
	if err != nil {
		return nil, err
	}
	NameGroups(groups, opts.Disambiguate)

	staging := StagingDir(opts.InputPath)
	dest := ArchivePath(opts)
	if within(staging, dest) {
		return nil, &ArchiveWriteError{Path: dest, Err: errors.New("output path is inside the staging directory")}
	}

	log.Debug("partitioned input",
		zap.String("input", opts.InputPath),
		zap.String("sheet", table.Sheet),
		zap.Int("rows", len(table.Rows)),
		zap.Int("groups", len(groups)))

	var files []MaterializedFile
	defer func() {
		Cleanup(files, staging, log)
	}()

	m := &Materializer{Dir: staging, Logger: log, Progress: opts.Progress}
	files, err = m.Materialize(table.Header, groups)
	if err != nil {
		return nil, err
	}

	a := &Archiver{Level: opts.CompressionLevel, Logger: log}
	entries, err := a.Archive(files, dest)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Input:      opts.InputPath,
		Sheet:      table.Sheet,
		Archive:    dest,
		Rows:       len(table.Rows),
		Entries:    entries,
		Collisions: Collisions(groups),
	}
	for _, g := range groups {
		res.Groups = append(res.Groups, GroupInfo{
			Key:   g.Key,
			Name:  g.Name,
			Entry: EntryName(g.Name),
			Rows:  len(g.Rows),
		})
	}
	return res, nil
}

// within reports whether path lies inside dir.
func within(dir, path string) bool {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
