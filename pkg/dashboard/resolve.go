package dashboard

import (
	"context"
	"net/url"

	"github.com/xen0bit/dashchart/pkg/chart"
	"github.com/xen0bit/dashchart/pkg/endpoint"
)

// Resolved is a dashboard with its filters applied for one request.
type Resolved struct {
	Dashboard   *Dashboard        `json:"dashboard"`
	BaseURL     string            `json:"absolute_url"`
	QueryString string            `json:"query_string"`
	Parameters  map[string]string `json:"query_parameters"`
}

// Resolve applies args to a copy of d. When fetcher is non-nil, dynamic
// select filters get their options loaded first.
func Resolve(ctx context.Context, fetcher endpoint.Fetcher, base string, d *Dashboard, args url.Values) (*Resolved, error) {
	out := d.Clone()
	if fetcher != nil {
		if err := FillDynamicFilters(ctx, fetcher, base, out); err != nil {
			return nil, err
		}
	}

	keys := FilterKeys(out, args)
	params := Parameters(args, keys)
	for i := range out.Charts {
		out.Charts[i].Query = FillQueryOptions(out.Charts[i].Query, params)
	}

	return &Resolved{
		Dashboard:   out,
		BaseURL:     base,
		QueryString: QueryString(args, keys),
		Parameters:  params,
	}, nil
}

// RenderContext returns the render parameters for the chart with slug.
func (r *Resolved) RenderContext(slug string, fullHeight bool) chart.RenderContext {
	return chart.RenderContext{
		Slug:        slug,
		BaseURL:     r.BaseURL,
		QueryString: r.QueryString,
		FullHeight:  fullHeight,
	}
}
