package split

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/klytics/sheetsplit/internal/config"
	"github.com/klytics/sheetsplit/internal/output"
	splitpkg "github.com/klytics/sheetsplit/internal/split"
)

// Flags are the command-line overrides shared by every command that runs or
// previews a split. Unset flags fall back to the loaded configuration.
type Flags struct {
	Column       int
	Sheet        string
	Output       string
	Disambiguate bool
	Level        int
}

// Register adds the grouping flags to cmd.
func (f *Flags) Register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.Column, "column", "c", splitpkg.DefaultGroupColumn, "Zero-based index of the column to group by (default from config)")
	cmd.Flags().StringVar(&f.Sheet, "sheet", "", "Read the named sheet instead of the first one")
	cmd.Flags().BoolVar(&f.Disambiguate, "disambiguate", false, `Give colliding sheet names a " (n)" suffix instead of keeping only the last group`)
}

// RegisterLevel adds the compression level flag to cmd.
func (f *Flags) RegisterLevel(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.Level, "level", -1, "Deflate compression level, -2 (Huffman only) to 9; 0 and -1 select the default (default from config)")
}

// RegisterOutput adds the archive path flag to cmd.
func (f *Flags) RegisterOutput(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.Output, "output", "o", "", "Archive path (default: next to the input file)")
}

// Options merges configuration and flags into pipeline options for input.
func (f *Flags) Options(cmd *cobra.Command, cfg *config.Config, input string) (splitpkg.Options, error) {
	opts := splitpkg.Options{
		InputPath:        input,
		GroupColumn:      cfg.Split.Column,
		Sheet:            cfg.Split.Sheet,
		Disambiguate:     cfg.Split.Disambiguate,
		CompressionLevel: cfg.Split.CompressionLevel,
	}

	flags := cmd.Flags()
	if flags.Changed("column") {
		opts.GroupColumn = f.Column
	}
	if flags.Changed("sheet") {
		opts.Sheet = f.Sheet
	}
	if flags.Changed("disambiguate") {
		opts.Disambiguate = f.Disambiguate
	}
	if flags.Changed("level") {
		opts.CompressionLevel = f.Level
	}
	if opts.CompressionLevel < -2 || opts.CompressionLevel > 9 {
		return opts, fmt.Errorf("compression level %d is out of range — use -2 to 9", opts.CompressionLevel)
	}

	switch {
	case flags.Changed("output"):
		opts.OutputPath = f.Output
	case cfg.Split.ArchiveName != "" && cfg.Split.ArchiveName != splitpkg.ArchiveName:
		opts.OutputPath = filepath.Join(filepath.Dir(input), cfg.Split.ArchiveName)
	}

	return opts, nil
}

// ExitCode classifies a pipeline error: problems with the input or its
// parameters are user errors, failures while writing are system errors.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return output.ExitOK
	case errors.Is(err, splitpkg.ErrStagingDir),
		errors.Is(err, splitpkg.ErrGroupWrite),
		errors.Is(err, splitpkg.ErrArchiveWrite):
		return output.ExitSystemError
	default:
		return output.ExitUserError
	}
}
