// Package split provides the "sheetsplit split" command.
package split

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/klytics/sheetsplit/internal/audit"
	"github.com/klytics/sheetsplit/internal/config"
	"github.com/klytics/sheetsplit/internal/formats/xlsx"
	"github.com/klytics/sheetsplit/internal/output"
	"github.com/klytics/sheetsplit/internal/progress"
	splitpkg "github.com/klytics/sheetsplit/internal/split"
)

// NewCommand returns the split command.
func NewCommand() *cobra.Command {
	var flags Flags

	cmd := &cobra.Command{
		Use:   "split <file.xlsx>",
		Short: "Split a workbook into one workbook per value of a column",
		Long: `Groups the rows of a workbook by one column, writes every group to its own
workbook (header included) and packs them into a zip archive under the
SEPERATED_DATA folder. The archive is written next to the input file.

Example:
  sheetsplit split orders.xlsx
  sheetsplit split orders.xlsx --column 3 --sheet Q4
  sheetsplit split orders.xlsx -o regions.zip --disambiguate`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, _ := cmd.Flags().GetBool("json")
			input := args[0]

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("could not load config: %w", err)
			}
			opts, err := flags.Options(cmd, cfg, input)
			if err != nil {
				return err
			}

			spinner := progress.NewSpinner("Reading " + filepath.Base(input))
			bar := progress.New("Writing groups", 0)
			var loaded sync.Once
			stopSpinner := func() { loaded.Do(func() { spinner.Stop("") }) }
			report := bar.Func()
			opts.Progress = func(done, total int, name string) {
				stopSpinner()
				report(done, total, name)
			}

			spinner.Start()
			res, err := Run(cmd.Context(), opts, cfg, "split", os.Args[1:])
			stopSpinner()

			out := cmd.OutOrStdout()
			if err != nil {
				if jsonFlag {
					_ = output.PrintJSONError(out, "split", err, ExitCode(err))
				}
				return err
			}
			bar.Finish(fmt.Sprintf("%d groups written", len(res.Groups)))

			if jsonFlag {
				return output.PrintJSON(out, "split", res)
			}
			printResult(out, res)
			return nil
		},
	}

	flags.Register(cmd)
	flags.RegisterLevel(cmd)
	flags.RegisterOutput(cmd)
	return cmd
}

// Run executes the pipeline with the process logger and records the run in
// the audit log when enabled.
func Run(ctx context.Context, opts splitpkg.Options, cfg *config.Config, command string, args []string) (*splitpkg.Result, error) {
	if opts.Logger == nil {
		opts.Logger = zap.L()
	}

	entry := audit.NewEntry(command, args)
	entry.InputFile = opts.InputPath
	entry.OutputFile = splitpkg.ArchivePath(opts)

	res, err := splitpkg.Run(opts)
	if res != nil {
		entry.Groups = len(res.Groups)
		entry.Rows = res.Rows
	}
	entry.Finish(ExitCode(err), err)

	logger := audit.NewLogger(cfg.AuditLogPath(), cfg.Audit.Enabled)
	_ = logger.Log(ctx, entry)

	return res, err
}

func printResult(w io.Writer, res *splitpkg.Result) {
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	dim := color.New(color.FgHiBlack)

	green.Fprintf(w, "Created zip archive: %s\n", res.Archive)

	size := "unknown"
	if info, err := os.Stat(res.Archive); err == nil {
		size = humanize.Bytes(uint64(info.Size()))
	}
	dim.Fprintf(w, "  Sheet:    %s\n", res.Sheet)
	dim.Fprintf(w, "  Rows:     %s\n", humanize.Comma(int64(res.Rows)))
	dim.Fprintf(w, "  Groups:   %d\n", len(res.Groups))
	dim.Fprintf(w, "  Entries:  %d\n", res.Entries)
	dim.Fprintf(w, "  Size:     %s\n", size)

	for _, c := range res.Collisions {
		keys := make([]string, len(c.Keys))
		for i, k := range c.Keys {
			keys[i] = fmt.Sprintf("%q", xlsx.Text(k))
		}
		yellow.Fprintf(w, "  Warning: keys %s share the sheet name %q — only the last group was kept (use --disambiguate)\n",
			strings.Join(keys, ", "), c.Name)
	}
}
