package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"exitviz/internal/models"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations to the record source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Opening a source applies pending migrations.
			source, closeSource, err := openSource(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer closeSource()

			if err := source.Ping(cmd.Context()); err != nil {
				return fmt.Errorf("failed to ping %s: %w", rootOpts.Backend, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s schema is up to date\n", rootOpts.Backend)
			return nil
		},
	}
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert generated exits for development",
		Long: `Insert generated exits for the days ending at the reference date.

Does nothing if the members table already has rows.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			source, closeSource, err := openSource(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer closeSource()

			reference := models.Day(rootOpts.today()).AddDate(0, 0, -rootOpts.AnchorOffsetDays)
			inserted, err := source.SeedDevExits(cmd.Context(), reference, days)
			if err != nil {
				return err
			}

			if inserted == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "members table is not empty, nothing seeded")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d exits over %d days\n", inserted, days)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 730, "number of days to generate exits for")
	return cmd
}
