package dashboard

import (
	"context"
	"fmt"

	"github.com/xen0bit/dashchart/pkg/chart"
	"github.com/xen0bit/dashchart/pkg/endpoint"
)

// FillDynamicFilters replaces the options of every dynamic select filter of d
// with the first column of its query. d is modified in place; callers work on
// a Clone.
func FillDynamicFilters(ctx context.Context, fetcher endpoint.Fetcher, base string, d *Dashboard) error {
	for _, name := range d.FilterNames() {
		f := d.Filters[name]
		if !f.Dynamic() {
			continue
		}
		if f.Database == "" || f.Query == "" {
			return fmt.Errorf("filter %q: dynamic options need both db and query", name)
		}

		u := endpoint.BuildURL(base, f.Database, f.Query, "", chart.ShapeObjects, chart.FormatJSON)
		res, err := fetcher.Fetch(ctx, u, chart.FormatJSON)
		if err != nil {
			return fmt.Errorf("filter %q: %w", name, err)
		}

		options := make([]any, 0, len(res.Rows))
		for _, row := range res.Rows {
			vals := row.Values()
			if len(vals) == 0 {
				continue
			}
			options = append(options, vals[0])
		}
		f.Options = options
	}
	return nil
}
