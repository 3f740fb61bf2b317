package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"exitviz/internal/aggregate"
	"exitviz/internal/models"
)

// BreakdownRow is one category in the breakdown output.
type BreakdownRow struct {
	Category   models.Category `json:"category"`
	Count      int             `json:"count"`
	Proportion float64         `json:"proportion"`
}

// BreakdownResult is the JSON form of the breakdown command.
type BreakdownResult struct {
	M     int            `json:"m"`
	Start string         `json:"start"`
	End   string         `json:"end"`
	Total int            `json:"total"`
	Rows  []BreakdownRow `json:"rows"`
}

// NewBreakdownCommand creates the breakdown command.
func NewBreakdownCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "breakdown <m>",
		Short: "Print exit destination counts for the window ending at the reference date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := parseIntArg("m", args[0])
			if err != nil {
				return err
			}

			source, closeSource, err := openSource(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer closeSource()

			bucket, err := newService(rootOpts, source, nil).Breakdown(cmd.Context(), m)
			if err != nil {
				return err
			}

			result := breakdownResult(m, bucket)
			if rootOpts.Format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			return printBreakdownTable(cmd, result)
		},
	}
}

func breakdownResult(m int, b aggregate.Bucket) BreakdownResult {
	result := BreakdownResult{
		M:     m,
		Start: b.Start.Format(models.DateLayout),
		End:   b.End.Format(models.DateLayout),
		Total: b.Total,
	}
	for _, c := range models.Categories {
		result.Rows = append(result.Rows, BreakdownRow{
			Category:   c,
			Count:      b.Count(c),
			Proportion: b.Proportion(c),
		})
	}
	return result
}

func printBreakdownTable(cmd *cobra.Command, result BreakdownResult) error {
	fmt.Fprintf(cmd.OutOrStdout(), "%d-day window (%s, %s]\n", result.M, result.Start, result.End)

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.Header([]string{"Destination", "Count", "Proportion"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, r := range result.Rows {
		data = append(data, []string{
			string(r.Category),
			strconv.Itoa(r.Count),
			strconv.FormatFloat(r.Proportion, 'f', 3, 64),
		})
	}
	data = append(data, []string{"Total", strconv.Itoa(result.Total), ""})

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
