// Package cli implements the exitctl admin command.
package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"exitviz/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Backend          string
	DatabaseURL      string
	SQLitePath       string
	CacheDir         string
	AnchorOffsetDays int
	MaxDaysBack      int
	Format           string // "text" | "json"
	Verbose          bool

	now func() time.Time
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for exitctl. Flag defaults come
// from the same environment variables as the server.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{now: time.Now})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cfg := config.Load()

	cmd := &cobra.Command{
		Use:   "exitctl",
		Short: "Exit destination chart admin",
		Long:  "Render charts, inspect the plot cache and manage the exit record source.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if opts.Verbose {
				slog.SetLogLoggerLevel(slog.LevelDebug)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.Backend, "backend", cfg.DataBackend, "record source backend (postgres|sqlite)")
	cmd.PersistentFlags().StringVar(&opts.DatabaseURL, "database-url", cfg.DatabaseURL, "Postgres connection string")
	cmd.PersistentFlags().StringVar(&opts.SQLitePath, "sqlite-path", cfg.SQLiteDBPath, "SQLite database file")
	cmd.PersistentFlags().StringVar(&opts.CacheDir, "cache-dir", cfg.PlotCacheDir, "plot cache directory")
	cmd.PersistentFlags().IntVar(&opts.AnchorOffsetDays, "anchor-offset", cfg.AnchorOffsetDays, "days between today and the chart reference date")
	cmd.PersistentFlags().IntVar(&opts.MaxDaysBack, "max-days-back", cfg.MaxDaysBack, "largest accepted days_back (0 = unbounded)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	cmd.AddCommand(NewRenderCommand(opts))
	cmd.AddCommand(NewBreakdownCommand(opts))
	cmd.AddCommand(NewCacheCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func (o *RootOptions) today() time.Time {
	if o.now == nil {
		return time.Now()
	}
	return o.now()
}
