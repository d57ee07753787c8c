// Package cmd contains all CLI commands for the sheetsplit binary.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	cmdaudit "github.com/klytics/sheetsplit/cmd/audit"
	"github.com/klytics/sheetsplit/cmd/completion"
	cmdconfig "github.com/klytics/sheetsplit/cmd/config"
	"github.com/klytics/sheetsplit/cmd/groups"
	cmdsplit "github.com/klytics/sheetsplit/cmd/split"
	"github.com/klytics/sheetsplit/cmd/version"
	cmdwatch "github.com/klytics/sheetsplit/cmd/watch"
	"github.com/klytics/sheetsplit/internal/config"
)

var (
	jsonOutput bool
	verbose    bool
	noColor    bool
)

// NewRootCommand creates and returns the root cobra command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sheetsplit",
		Short: "Split a workbook into one workbook per group and zip them",
		Long: `sheetsplit — one workbook in, one workbook per group out.

Groups the rows of an .xlsx file by the values of one column, writes each
group to its own workbook and bundles them into Separated_Data_Archive.zip.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.Load(); err != nil {
				return fmt.Errorf("could not load config: %w", err)
			}
			if noColor || !viper.GetBool("output.color") {
				color.NoColor = true
			}
			// output.format only applies when --json was not given.
			if !cmd.Flags().Changed("json") && strings.EqualFold(viper.GetString("output.format"), "json") {
				jsonOutput = true
			}
			if jsonOutput {
				os.Setenv("SHEETSPLIT_JSON", "true")
			}

			logger, err := newLogger(verbose)
			if err != nil {
				return fmt.Errorf("could not initialize logging: %w", err)
			}
			zap.ReplaceGlobals(logger)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = zap.L().Sync()
		},
	}

	// Global persistent flags
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as machine-readable JSON")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable ANSI color output")

	// Register subcommands
	rootCmd.AddCommand(cmdsplit.NewCommand())
	rootCmd.AddCommand(groups.NewCommand())
	rootCmd.AddCommand(cmdwatch.NewCommand())
	rootCmd.AddCommand(cmdconfig.NewCommand())
	rootCmd.AddCommand(cmdaudit.NewCommand())
	rootCmd.AddCommand(completion.NewCommand(rootCmd))
	rootCmd.AddCommand(version.NewCommand())

	return rootCmd
}

// Execute runs the root command and handles any returned errors.
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// newLogger builds the process logger: JSON lines on stderr at warn level,
// or debug level with --verbose.
func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	cfg.DisableStacktrace = true
	return cfg.Build()
}
