package cli

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xen0bit/dashchart/pkg/chart"
	"github.com/xen0bit/dashchart/pkg/dashboard"
	"github.com/xen0bit/dashchart/pkg/endpoint"
	"github.com/xen0bit/dashchart/pkg/export"
	"github.com/xen0bit/dashchart/pkg/render"
)

func (c *cli) newDashboardsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboards",
		Short: "List the configured dashboards and their charts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			columns := []string{"dashboard", "chart", "library", "db", "title"}
			res := &chart.QueryResult{Columns: columns}
			for _, slug := range cfg.Slugs() {
				d := cfg.Dashboards[slug]
				for _, ch := range d.Charts {
					res.Rows = append(res.Rows, chart.NewRow(columns, []any{
						slug, ch.Slug, string(ch.Library), ch.Database, ch.Title,
					}))
				}
			}
			return export.WriteTable(c.outStream, res)
		},
	}
}

// filterArgs turns repeated k=v flags into request arguments.
func filterArgs(filters []string) (url.Values, error) {
	args := make(url.Values)
	for _, f := range filters {
		k, v, ok := strings.Cut(f, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid filter %q: expected name=value", f)
		}
		args.Add(k, v)
	}
	return args, nil
}

func (c *cli) newURLCmd() *cobra.Command {
	var filters []string
	var format string

	cmd := &cobra.Command{
		Use:   "url <dashboard> <chart>",
		Short: "Print the data URL a chart fetches",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireBaseURL(); err != nil {
				return err
			}
			d, err := c.loadDashboard(args[0])
			if err != nil {
				return err
			}
			if _, ok := d.Chart(args[1]); !ok {
				return fmt.Errorf("chart does not exist: %s", args[1])
			}
			fargs, err := filterArgs(filters)
			if err != nil {
				return err
			}

			resolved, err := dashboard.Resolve(cmd.Context(), nil, c.flags.BaseURL, d, fargs)
			if err != nil {
				return err
			}
			ch, _ := resolved.Dashboard.Chart(args[1])
			r, ok := render.DefaultRegistry().Lookup(ch.Library)
			if !ok {
				return fmt.Errorf("chart %s: library %q has no renderer", ch.Slug, ch.Library)
			}

			rc := resolved.RenderContext(ch.Slug, false)
			rc.Format = chart.Format(format)
			fmt.Fprintln(c.outStream, endpoint.ChartURL(ch.Descriptor(), rc, r.Shape()))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&filters, "filter", nil, "dashboard filter as name=value (repeatable)")
	cmd.Flags().StringVar(&format, "format", string(chart.FormatJSON), "response format (json, csv)")
	return cmd
}
