package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"

	"github.com/xen0bit/dashchart/pkg/chart"
	"github.com/xen0bit/dashchart/pkg/dashboard"
	"github.com/xen0bit/dashchart/pkg/endpoint"
	"github.com/xen0bit/dashchart/pkg/export"
	"github.com/xen0bit/dashchart/pkg/render"
)

type renderFlags struct {
	filters    []string
	fullHeight bool
	rawMarkup  bool
	format     string
	output     string
	jq         string
	xlsx       string
}

// renderedChart is the outcome of one chart in the render output.
type renderedChart struct {
	Slug      string          `json:"slug"`
	Title     string          `json:"title,omitempty"`
	Library   chart.Library   `json:"library"`
	URL       string          `json:"url,omitempty"`
	Rows      int             `json:"rows"`
	Truncated bool            `json:"truncated"`
	Skipped   bool            `json:"skipped,omitempty"`
	Artifact  *chart.Artifact `json:"artifact,omitempty"`
	Error     string          `json:"error,omitempty"`

	result *chart.QueryResult
}

type renderOutput struct {
	Dashboard   string           `json:"dashboard"`
	QueryString string           `json:"query_string"`
	Charts      []*renderedChart `json:"charts"`
}

func (c *cli) newRenderCmd() *cobra.Command {
	f := new(renderFlags)

	cmd := &cobra.Command{
		Use:   "render <dashboard> [chart...]",
		Short: "Fetch chart data and assemble the chart artifacts",
		Long: "Fetch the data of every chart (or the named ones) concurrently and print\n" +
			"the assembled artifacts. Charts with an unknown library are skipped.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.render(cmd.Context(), f, args[0], args[1:])
		},
	}

	cmd.Flags().StringArrayVar(&f.filters, "filter", nil, "dashboard filter as name=value (repeatable)")
	cmd.Flags().BoolVar(&f.fullHeight, "full-height", false, "size grammar charts to the container height too")
	cmd.Flags().BoolVar(&f.rawMarkup, "raw-markup", false, "do not escape backend values in markup")
	cmd.Flags().StringVar(&f.format, "format", string(chart.FormatJSON), "response format requested from the endpoint (json, csv)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "json", "output format (json, text)")
	cmd.Flags().StringVar(&f.jq, "jq", "", "jq filter applied to the json output")
	cmd.Flags().StringVar(&f.xlsx, "xlsx", "", "also write the fetched rows to this workbook, one sheet per chart")
	return cmd
}

func (c *cli) render(ctx context.Context, f *renderFlags, slug string, only []string) error {
	switch f.output {
	case "json", "text":
	default:
		return fmt.Errorf("invalid output format: %s", f.output)
	}
	switch chart.Format(f.format) {
	case chart.FormatJSON, chart.FormatCSV:
	default:
		return fmt.Errorf("invalid response format: %s", f.format)
	}
	if err := c.requireBaseURL(); err != nil {
		return err
	}

	d, err := c.loadDashboard(slug)
	if err != nil {
		return err
	}
	for _, name := range only {
		if _, ok := d.Chart(name); !ok {
			return fmt.Errorf("chart does not exist: %s", name)
		}
	}
	fargs, err := filterArgs(f.filters)
	if err != nil {
		return err
	}

	var filter func(v any, w io.Writer, indent bool) error
	if f.jq != "" {
		code, err := compileJQ(f.jq)
		if err != nil {
			return err
		}
		filter = func(v any, w io.Writer, indent bool) error {
			return runJQ(ctx, code, v, w, indent)
		}
	}

	fetcher := endpoint.NewClient(endpoint.WithLogger(c.logger))
	resolved, err := dashboard.Resolve(ctx, fetcher, c.flags.BaseURL, d, fargs)
	if err != nil {
		return err
	}

	charts := c.renderCharts(ctx, f, resolved, fetcher, only)
	out := &renderOutput{
		Dashboard:   d.Slug,
		QueryString: resolved.QueryString,
		Charts:      charts,
	}

	if f.xlsx != "" {
		if err := writeWorkbook(f.xlsx, charts); err != nil {
			return err
		}
		c.logger.Info("workbook written", "path", f.xlsx)
	}

	indent := isTerminal(c.outStream)
	switch {
	case filter != nil:
		err = filter(out, c.outStream, indent)
	case f.output == "text":
		err = writeRenderText(c.outStream, out)
	default:
		err = writeJSON(c.outStream, out, indent)
	}
	if err != nil {
		return err
	}

	failed := 0
	for _, rc := range charts {
		if rc.Error != "" {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d charts failed", failed, len(charts))
	}
	return nil
}

// renderCharts prepares the selected charts concurrently, one render per slug.
func (c *cli) renderCharts(ctx context.Context, f *renderFlags, resolved *dashboard.Resolved, fetcher endpoint.Fetcher, only []string) []*renderedChart {
	// Prepare never touches the page, so the dispatcher runs headless.
	dispatcher := render.NewDispatcher(nil, nil, render.WithFetcher(fetcher), render.WithLogger(c.logger))
	scheduler := render.NewScheduler()

	selected := resolved.Dashboard.Charts
	if len(only) > 0 {
		selected = make(dashboard.Charts, 0, len(only))
		for _, name := range only {
			ch, _ := resolved.Dashboard.Chart(name)
			selected = append(selected, ch)
		}
	}

	var mu sync.Mutex
	results := make([]*renderedChart, len(selected))
	for i, ch := range selected {
		item := &renderedChart{Slug: ch.Slug, Title: ch.Title, Library: ch.Library}
		results[i] = item

		if ch.IsMarkdown() {
			html, err := ch.RenderMarkdown()
			if err != nil {
				item.Error = err.Error()
				continue
			}
			item.Artifact = &chart.Artifact{Library: ch.Library, Kind: chart.KindMarkup, Markup: html}
			continue
		}

		rc := resolved.RenderContext(ch.Slug, f.fullHeight)
		rc.Format = chart.Format(f.format)
		rc.RawMarkup = f.rawMarkup
		desc := ch.Descriptor()

		scheduler.Go(ctx, ch.Slug, func(ctx context.Context) error {
			p, ok, err := dispatcher.Prepare(ctx, desc, rc)

			mu.Lock()
			defer mu.Unlock()
			if !ok {
				item.Skipped = true
				return nil
			}
			item.URL = p.URL
			if p.Result != nil {
				item.result = p.Result
				item.Rows = len(p.Result.Rows)
				item.Truncated = p.Result.Truncated
			}
			item.Artifact = p.Artifact
			return err
		})
	}

	for slug, err := range scheduler.Wait() {
		c.logger.Error("chart render failed", "slug", slug, "error", err)
		for _, item := range results {
			if item.Slug == slug {
				item.Error = err.Error()
			}
		}
	}
	for _, item := range results {
		if item.Skipped {
			c.logger.Debug("no renderer for library", "slug", item.Slug, "library", item.Library)
		}
	}
	return results
}

func writeWorkbook(path string, charts []*renderedChart) error {
	var sheets []export.Sheet
	for _, rc := range charts {
		if rc.result == nil {
			continue
		}
		sheets = append(sheets, export.Sheet{Name: rc.Slug, Result: rc.result})
	}
	if len(sheets) == 0 {
		return errors.New("no chart data to write to the workbook")
	}
	return export.WriteXLSX(path, sheets)
}

func writeRenderText(w io.Writer, out *renderOutput) error {
	for i, rc := range out.Charts {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "== %s (%s) ==\n", rc.Slug, rc.Library)
		if rc.URL != "" {
			fmt.Fprintf(w, "url: %s\n", rc.URL)
		}
		switch {
		case rc.Skipped:
			fmt.Fprintln(w, "skipped: no renderer for this library")
			continue
		case rc.Error != "":
			fmt.Fprintf(w, "error: %s\n", rc.Error)
			continue
		}
		if rc.Artifact != nil {
			fmt.Fprintln(w, export.Summary(rc.Artifact))
		}
		if rc.Truncated {
			fmt.Fprintln(w, "results truncated")
		}
		if rc.result != nil {
			if err := export.WriteTable(w, rc.result); err != nil {
				return err
			}
		}
	}
	return nil
}
