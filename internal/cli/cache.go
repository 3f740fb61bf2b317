package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"exitviz/internal/models"
	"exitviz/internal/plotcache"
)

// NewCacheCommand creates the cache command and its subcommands.
func NewCacheCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the plot cache directory",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List cached chart files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := plotcache.New(rootOpts.CacheDir).Status()
			if err != nil {
				return err
			}
			if rootOpts.Format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(status)
			}
			return printCacheStatus(cmd, status, models.DayOfYear(rootOpts.today()))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every cached file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := plotcache.New(rootOpts.CacheDir).Clear(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared %s\n", rootOpts.CacheDir)
			return nil
		},
	})

	var day int
	sweep := &cobra.Command{
		Use:   "sweep",
		Short: "Remove cached files from other days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if day == 0 {
				day = models.DayOfYear(rootOpts.today())
			}
			removed, err := plotcache.New(rootOpts.CacheDir).Sweep(day)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d file(s) not from day %d\n", removed, day)
			return nil
		},
	}
	sweep.Flags().IntVar(&day, "day", 0, "day-of-year to keep (default today)")
	cmd.AddCommand(sweep)

	return cmd
}

func printCacheStatus(cmd *cobra.Command, status plotcache.Status, today int) error {
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d file(s), %d bytes\n", status.Dir, status.Files, status.Bytes)
	if status.Files == 0 {
		return nil
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.Header([]string{"File", "Chart", "Day", "Fresh", "Bytes"})

	var data [][]string
	for _, e := range status.Entries {
		chart, doy, fresh := "-", "-", "no"
		if e.Valid {
			chart = string(e.Key.Chart)
			doy = strconv.Itoa(e.Key.DayOfYear)
			if e.Key.DayOfYear == today {
				fresh = "yes"
			}
		}
		data = append(data, []string{e.Name, chart, doy, fresh, strconv.FormatInt(e.Size, 10)})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
