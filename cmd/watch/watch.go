// Package watch provides the "sheetsplit watch" CLI commands for splitting
// workbooks as they appear in watched directories.
package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cmdsplit "github.com/klytics/sheetsplit/cmd/split"
	"github.com/klytics/sheetsplit/internal/config"
	splitpkg "github.com/klytics/sheetsplit/internal/split"
	w "github.com/klytics/sheetsplit/internal/watch"
)

// NewCommand creates the "watch" command with subcommands.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Split workbooks automatically as they are dropped into directories",
		Long: `Watch directories for new or modified .xlsx files and split each one
with the configured options. Files are processed one at a time; Office lock
files (~$...) and files inside SEPERATED_DATA folders are ignored.

Each workbook gets its own archive next to it, named after the workbook:
orders.xlsx is packed into orders_Separated_Data_Archive.zip (the suffix
follows split.archive_name).

Example:
  sheetsplit watch start ./incoming --column 2
  sheetsplit watch status
  sheetsplit watch stop`,
	}

	cmd.AddCommand(newStartCmd())
	cmd.AddCommand(newStopCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

func newStartCmd() *cobra.Command {
	var (
		flags     cmdsplit.Flags
		recursive bool
		pattern   string
		debounce  int
	)

	cmd := &cobra.Command{
		Use:   "start <directory> [directory...]",
		Short: "Start watching directories for workbooks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("could not load config: %w", err)
			}
			// Validates the merged settings once before any file arrives.
			base, err := flags.Options(cmd, cfg, "")
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("debounce") {
				debounce = cfg.Watch.DebounceMS
			}

			wcfg := w.WatchConfig{
				Directories:  args,
				Recursive:    recursive,
				Pattern:      pattern,
				Debounce:     debounce,
				Column:       base.GroupColumn,
				Sheet:        base.Sheet,
				Disambiguate: base.Disambiguate,
				StartedAt:    time.Now().Format(time.RFC3339),
			}

			watcher, err := w.New(wcfg)
			if err != nil {
				return err
			}
			watcher.Logger = zap.L().Named("watch")

			out := cmd.OutOrStdout()
			green := color.New(color.FgGreen)
			red := color.New(color.FgRed)
			watcher.Handler = func(ctx context.Context, path string) error {
				opts, err := flags.Options(cmd, cfg, path)
				if err != nil {
					return err
				}
				opts.OutputPath = ArchivePath(path, cfg.Split.ArchiveName)
				res, err := cmdsplit.Run(ctx, opts, cfg, "watch split", []string{path})
				if err != nil {
					red.Fprintf(out, "✗ %s: %v\n", path, err)
					return err
				}
				green.Fprintf(out, "✓ %s → %s (%d groups)\n", path, res.Archive, len(res.Groups))
				return nil
			}

			configDir := w.DefaultConfigDir()
			if err := w.WritePIDFile(configDir); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not write PID file: %v\n", err)
			}
			defer w.RemovePIDFile(configDir)

			// Save config for status command
			if err := w.SaveConfig(configDir, wcfg); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not save watch config: %v\n", err)
			}

			fmt.Fprintf(out, "Watching %d directory(ies) for .xlsx files (column %d)\n", len(args), base.GroupColumn)
			fmt.Fprintln(out, "Press Ctrl+C to stop")

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			err = watcher.Start(ctx)
			status := watcher.GetStatus()
			fmt.Fprintf(out, "\nStopped watcher: %d processed, %d failed\n", status.Processed, status.Failed)
			for _, e := range watcher.GetEvents() {
				if e.Status == "error" {
					red.Fprintf(out, "  %s  %s: %s\n", e.Time.Format("15:04:05"), e.Path, e.Error)
				}
			}
			return err
		},
	}

	flags.Register(cmd)
	flags.RegisterLevel(cmd)
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Watch directories recursively")
	cmd.Flags().StringVar(&pattern, "pattern", "", "Only split files whose name matches this glob (e.g. 'orders_*.xlsx')")
	cmd.Flags().IntVar(&debounce, "debounce", w.DefaultDebounce, "Debounce interval in milliseconds (default from config)")

	return cmd
}

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running watcher",
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir := w.DefaultConfigDir()
			pid, err := w.ReadPIDFile(configDir)
			if err != nil {
				return fmt.Errorf("no watcher running (PID file not found)")
			}

			process, err := os.FindProcess(pid)
			if err != nil {
				return fmt.Errorf("could not find process %d: %w", pid, err)
			}

			if err := process.Signal(syscall.SIGTERM); err != nil {
				w.RemovePIDFile(configDir)
				return fmt.Errorf("could not stop watcher (PID %d): %w", pid, err)
			}

			w.RemovePIDFile(configDir)

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"stopped": true,
					"pid":     pid,
				})
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Stopped watcher (PID %d)\n", pid)
			return nil
		},
	}
}

// ArchivePath returns the archive written for one watched workbook. Every
// input gets its own archive so that workbooks dropped into the same
// directory do not replace each other's output.
func ArchivePath(input, archiveName string) string {
	if archiveName == "" {
		archiveName = splitpkg.ArchiveName
	}
	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(filepath.Dir(input), stem+"_"+archiveName)
}

// running reports whether the PID file names a live process, removing a stale file.
func running(configDir string) (int, bool) {
	pid, err := w.ReadPIDFile(configDir)
	if err != nil {
		return 0, false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return 0, false
	}
	// Signal 0 checks that the process exists.
	if err := process.Signal(syscall.Signal(0)); err != nil {
		w.RemovePIDFile(configDir)
		return 0, false
	}
	return pid, true
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current watcher status",
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir := w.DefaultConfigDir()
			out := cmd.OutOrStdout()
			jsonOut, _ := cmd.Flags().GetBool("json")

			pid, ok := running(configDir)
			if !ok {
				if jsonOut {
					return json.NewEncoder(out).Encode(map[string]any{"running": false})
				}
				fmt.Fprintln(out, "Watcher is not running")
				return nil
			}

			wcfg, _ := w.LoadConfig(configDir)

			status := map[string]any{
				"running": true,
				"pid":     pid,
			}
			if wcfg != nil {
				status["directories"] = wcfg.Directories
				status["recursive"] = wcfg.Recursive
				status["column"] = wcfg.Column
				status["startedAt"] = wcfg.StartedAt
			}

			if jsonOut {
				return json.NewEncoder(out).Encode(status)
			}

			fmt.Fprintf(out, "Watcher is running (PID %d)\n", pid)
			if wcfg != nil {
				fmt.Fprintf(out, "  Directories: %s\n", strings.Join(wcfg.Directories, ", "))
				fmt.Fprintf(out, "  Column:      %d\n", wcfg.Column)
				fmt.Fprintf(out, "  Recursive:   %v\n", wcfg.Recursive)
				fmt.Fprintf(out, "  Started:     %s\n", wcfg.StartedAt)
			}
			return nil
		},
	}
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the last watcher configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			wcfg, err := w.LoadConfig(w.DefaultConfigDir())
			if err != nil {
				return fmt.Errorf("no watcher configuration found (run 'sheetsplit watch start' first)")
			}

			out := cmd.OutOrStdout()
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return json.NewEncoder(out).Encode(wcfg)
			}

			sheet := wcfg.Sheet
			if sheet == "" {
				sheet = "(first sheet)"
			}
			fmt.Fprintf(out, "Directories:  %s\n", strings.Join(wcfg.Directories, ", "))
			fmt.Fprintf(out, "Recursive:    %v\n", wcfg.Recursive)
			if wcfg.Pattern != "" {
				fmt.Fprintf(out, "Pattern:      %s\n", wcfg.Pattern)
			}
			fmt.Fprintf(out, "Debounce:     %dms\n", wcfg.Debounce)
			fmt.Fprintf(out, "Column:       %d\n", wcfg.Column)
			fmt.Fprintf(out, "Sheet:        %s\n", sheet)
			fmt.Fprintf(out, "Disambiguate: %v\n", wcfg.Disambiguate)
			return nil
		},
	}
}
