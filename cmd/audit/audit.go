// Package audit provides the "sheetsplit audit" CLI commands for viewing the run log.
package audit

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	auditpkg "github.com/klytics/sheetsplit/internal/audit"
	"github.com/klytics/sheetsplit/internal/config"
)

// NewCommand creates the "audit" command with all subcommands.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "View and manage the split run log",
		Long:  "Every split run, from the CLI or the watcher, is recorded as one JSON line in the audit log.",
	}

	cmd.AddCommand(newLogCmd())
	cmd.AddCommand(newClearCmd())
	cmd.AddCommand(newStatusCmd())

	return cmd
}

func auditLogPath() (string, error) {
	cfg, err := config.Load()
	if err != nil {
		return "", fmt.Errorf("could not load config: %w", err)
	}
	return cfg.AuditLogPath(), nil
}

func newLogCmd() *cobra.Command {
	var (
		last    int
		command string
		since   string
	)

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show recent audit log entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := auditLogPath()
			if err != nil {
				return err
			}
			entries, err := auditpkg.ReadEntries(path)
			if err != nil {
				return err
			}

			var sinceTime time.Time
			if since != "" {
				t, err := time.Parse("2006-01-02", since)
				if err != nil {
					return fmt.Errorf("invalid --since date: %w (use YYYY-MM-DD)", err)
				}
				sinceTime = t
			}

			filtered := auditpkg.Last(auditpkg.FilterEntries(entries, sinceTime, time.Time{}, command), last)

			out := cmd.OutOrStdout()
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(filtered)
			}

			if len(filtered) == 0 {
				fmt.Fprintln(out, "No audit log entries found.")
				return nil
			}

			fmt.Fprintf(out, "Audit Log — %d Entries\n", len(filtered))
			fmt.Fprintf(out, "File: %s\n\n", path)

			red := color.New(color.FgRed)
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "TIMESTAMP\tCOMMAND\tINPUT\tGROUPS\tDURATION\tEXIT\n")
			for _, e := range filtered {
				ts := e.Timestamp.Local().Format("2006-01-02 15:04:05")
				dur := fmt.Sprintf("%dms", e.DurationMs)
				if e.DurationMs >= 1000 {
					dur = fmt.Sprintf("%.1fs", float64(e.DurationMs)/1000)
				}
				exit := fmt.Sprint(e.ExitCode)
				if e.ExitCode != 0 {
					exit = red.Sprint(exit)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n", ts, e.Command, e.InputFile, e.Groups, dur, exit)
			}
			tw.Flush()
			return nil
		},
	}

	cmd.Flags().IntVar(&last, "last", 20, "Show last N entries (0 for all)")
	cmd.Flags().StringVar(&command, "command", "", "Filter by command name")
	cmd.Flags().StringVar(&since, "since", "", "Filter entries since date (YYYY-MM-DD)")
	return cmd
}

func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the audit log",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := auditLogPath()
			if err != nil {
				return err
			}
			if err := auditpkg.Clear(path); err != nil {
				return err
			}
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{"cleared": path})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Audit log cleared: %s\n", path)
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show audit log path and size",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := auditLogPath()
			if err != nil {
				return err
			}
			size := auditpkg.LogSize(path)
			entries, _ := auditpkg.ReadEntries(path)

			out := cmd.OutOrStdout()
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return json.NewEncoder(out).Encode(map[string]any{
					"path":    path,
					"size":    size,
					"entries": len(entries),
				})
			}

			fmt.Fprintf(out, "Audit log: %s\n", path)
			if size == 0 {
				fmt.Fprintln(out, "Size:      empty (no entries)")
			} else {
				fmt.Fprintf(out, "Size:      %s\n", humanize.Bytes(uint64(size)))
			}
			fmt.Fprintf(out, "Entries:   %d\n", len(entries))
			return nil
		},
	}
}
