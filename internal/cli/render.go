package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"exitviz/internal/charts"
	"exitviz/internal/plotcache"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	Output  string
	NoCache bool
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a chart document",
		Long: `Render a chart document exactly as the server would serve it.

By default the plot cache is read and written, so running render warms the
cache for today.`,
	}

	cmd.PersistentFlags().StringVarP(&opts.Output, "output", "o", "", "write the document to a file instead of stdout")
	cmd.PersistentFlags().BoolVar(&opts.NoCache, "no-cache", false, "bypass the plot cache")

	cmd.AddCommand(&cobra.Command{
		Use:   "ma <m> <days_back>",
		Short: "Render the moving-average line chart",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := parseIntArg("m", args[0])
			if err != nil {
				return err
			}
			daysBack, err := parseIntArg("days_back", args[1])
			if err != nil {
				return err
			}
			return runRender(cmd, rootOpts, opts, func(svc *charts.Service) ([]byte, error) {
				return svc.MovingAverage(cmd.Context(), m, daysBack)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "pie <m>",
		Short: "Render the exit destination pie chart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := parseIntArg("m", args[0])
			if err != nil {
				return err
			}
			return runRender(cmd, rootOpts, opts, func(svc *charts.Service) ([]byte, error) {
				return svc.ExitPie(cmd.Context(), m)
			})
		},
	})

	return cmd
}

func runRender(cmd *cobra.Command, rootOpts *RootOptions, opts *RenderOptions, render func(*charts.Service) ([]byte, error)) error {
	source, closeSource, err := openSource(cmd.Context(), rootOpts)
	if err != nil {
		return err
	}
	defer closeSource()

	var store *plotcache.Store
	if !opts.NoCache {
		store = plotcache.New(rootOpts.CacheDir)
	}
	svc := newService(rootOpts, source, store)

	payload, err := render(svc)
	// Let the cache write finish before the process exits.
	svc.Wait()
	if err != nil {
		return err
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, payload, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", opts.Output, err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d bytes to %s\n", len(payload), opts.Output)
		return nil
	}

	if _, err := cmd.OutOrStdout().Write(payload); err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout())
	return err
}

func parseIntArg(name, raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", name, raw)
	}
	return n, nil
}
