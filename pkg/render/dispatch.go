package render

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xen0bit/dashchart/pkg/chart"
	"github.com/xen0bit/dashchart/pkg/endpoint"
	"github.com/xen0bit/dashchart/pkg/mount"
)

// Dispatcher renders charts into the slots of a page.
type Dispatcher struct {
	registry *Registry
	fetcher  endpoint.Fetcher
	page     mount.Page
	painter  *mount.Painter
	logger   *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithRegistry replaces the default registry.
func WithRegistry(r *Registry) Option {
	return func(d *Dispatcher) {
		d.registry = r
	}
}

// WithFetcher replaces the default HTTP client.
func WithFetcher(f endpoint.Fetcher) Option {
	return func(d *Dispatcher) {
		d.fetcher = f
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// NewDispatcher creates a dispatcher painting into page.
func NewDispatcher(page mount.Page, painter *mount.Painter, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		page:    page,
		painter: painter,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.registry == nil {
		d.registry = DefaultRegistry()
	}
	if d.fetcher == nil {
		d.fetcher = endpoint.NewClient(endpoint.WithLogger(d.logger))
	}
	return d
}

// Prepared is a fetched and assembled chart, not yet painted.
type Prepared struct {
	URL      string
	Result   *chart.QueryResult
	Artifact *chart.Artifact
}

// Prepare fetches the chart data and assembles the artifact. ok is false when
// no renderer handles the library.
func (d *Dispatcher) Prepare(ctx context.Context, desc chart.Descriptor, rc chart.RenderContext) (p *Prepared, ok bool, err error) {
	r, ok := d.registry.Lookup(desc.Library)
	if !ok {
		return nil, false, nil
	}

	p = &Prepared{URL: endpoint.ChartURL(desc, rc, r.Shape())}
	d.logger.Debug("fetching chart data", "slug", rc.Slug, "library", desc.Library, "url", p.URL)

	p.Result, err = d.fetcher.Fetch(ctx, p.URL, rc.ResponseFormat())
	if err != nil {
		return p, true, err
	}
	p.Artifact, err = r.Assemble(desc, rc, p.Result)
	if err != nil {
		return p, true, err
	}
	return p, true, nil
}

// Render draws one chart into the slot named by rc.Slug. An unknown library
// leaves the page untouched and returns nil, as does a slot that disappeared
// while the data was being fetched. A cancelled render returns the context
// error without touching the slot. Any other failure is shown in the slot
// and returned.
func (d *Dispatcher) Render(ctx context.Context, desc chart.Descriptor, rc chart.RenderContext) error {
	p, ok, err := d.Prepare(ctx, desc, rc)
	if !ok {
		d.logger.Debug("no renderer for library", "slug", rc.Slug, "library", desc.Library)
		return nil
	}

	var out error
	if !Exclusive(ctx, func() { out = d.paint(ctx, desc, rc, p, err) }) {
		if cerr := d.cancelled(ctx, rc.Slug); cerr != nil {
			return cerr
		}
		return context.Canceled
	}
	return out
}

// paint mounts a prepared chart. The caller holds the slot.
func (d *Dispatcher) paint(ctx context.Context, desc chart.Descriptor, rc chart.RenderContext, p *Prepared, err error) error {
	slot, found := d.page.Lookup(rc.Slug)
	if !found {
		d.logger.Warn("chart container is gone, skipping paint", "slug", rc.Slug)
		return nil
	}

	if err != nil {
		return d.fail(slot, rc.Slug, err)
	}
	if err := d.painter.Paint(ctx, slot, p.Artifact); err != nil {
		if cerr := d.cancelled(ctx, rc.Slug); cerr != nil {
			return cerr
		}
		return d.fail(slot, rc.Slug, fmt.Errorf("failed to paint chart: %w", err))
	}
	if cerr := d.cancelled(ctx, rc.Slug); cerr != nil {
		return cerr
	}
	if p.Result.Truncated {
		slot.ShowTruncationNotice()
	}

	d.logger.Debug("chart rendered", "slug", rc.Slug, "library", desc.Library, "rows", len(p.Result.Rows), "truncated", p.Result.Truncated)
	return nil
}

// cancelled returns the context error once the render was torn down or
// superseded. The slot then belongs to a newer render, or to nobody.
func (d *Dispatcher) cancelled(ctx context.Context, slug string) error {
	if err := ctx.Err(); err != nil {
		d.logger.Debug("chart render cancelled", "slug", slug, "error", err)
		return err
	}
	return nil
}

func (d *Dispatcher) fail(slot mount.Slot, slug string, err error) error {
	d.logger.Error("chart render failed", "slug", slug, "error", err)
	slot.ShowError(err)
	return fmt.Errorf("chart %s: %w", slug, err)
}
