// Package groups provides the "sheetsplit groups" preview command.
package groups

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	cmdsplit "github.com/klytics/sheetsplit/cmd/split"
	"github.com/klytics/sheetsplit/internal/config"
	"github.com/klytics/sheetsplit/internal/formats/xlsx"
	"github.com/klytics/sheetsplit/internal/output"
	"github.com/klytics/sheetsplit/internal/split"
)

// NewCommand returns the groups command.
func NewCommand() *cobra.Command {
	var flags cmdsplit.Flags

	cmd := &cobra.Command{
		Use:   "groups <file.xlsx>",
		Short: "Preview the groups a split would produce",
		Long: `Loads and partitions a workbook without writing anything. Prints every
group's key, sheet name and row count, flags keys whose sheet names collide
and summarizes the group sizes.`,
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

			p, err := split.Inspect(opts)
			out := cmd.OutOrStdout()
			if err != nil {
				if jsonFlag {
					_ = output.PrintJSONError(out, "groups", err, cmdsplit.ExitCode(err))
				}
				return err
			}

			if jsonFlag {
				return output.PrintJSON(out, "groups", p)
			}
			printPreview(out, p)
			return nil
		},
	}

	flags.Register(cmd)
	return cmd
}

func printPreview(w io.Writer, p *split.Preview) {
	headerStyle := color.New(color.Bold, color.FgCyan)
	dim := color.New(color.FgHiBlack)
	yellow := color.New(color.FgYellow)

	headerStyle.Fprintf(w, "Sheet: %s — grouped by %q\n", p.Sheet, p.Column)
	if len(p.Groups) == 0 {
		dim.Fprintln(w, "  (no data rows)")
		return
	}

	collides := make(map[string]bool, len(p.Collisions))
	for _, c := range p.Collisions {
		collides[c.Name] = true
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "  KEY\tSHEET\tROWS\t\n")
	for _, g := range p.Groups {
		mark := ""
		if collides[g.Name] {
			mark = "collision"
		}
		fmt.Fprintf(tw, "  %s\t%s\t%d\t%s\n", keyLabel(g.Key), g.Name, g.Rows, mark)
	}
	tw.Flush()

	s := p.Sizes
	dim.Fprintf(w, "\n  %d rows in %d groups (min %.0f, max %.0f, mean %.1f, median %.1f)\n",
		p.Rows, s.Groups, s.Min, s.Max, s.Mean, s.Median)

	for _, c := range p.Collisions {
		yellow.Fprintf(w, "  Warning: %d keys share the sheet name %q — a split keeps only the last group (use --disambiguate)\n",
			len(c.Keys), c.Name)
	}
}

func keyLabel(key any) string {
	return xlsx.Text(key)
}
