package render

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/xen0bit/dashchart/pkg/chart"
	"github.com/xen0bit/dashchart/pkg/mount"
	"github.com/xen0bit/dashchart/pkg/mount/memdoc"
)

type fixture struct {
	server *httptest.Server
	page   *memdoc.Page
	specs  *memdoc.SpecRecorder
	maps   *memdoc.MapRecorder
	disp   *Dispatcher

	mu       sync.Mutex
	requests int
}

func newFixture(t *testing.T, handler http.HandlerFunc, slugs ...string) *fixture {
	t.Helper()
	f := &fixture{
		page:  memdoc.NewPage(slugs...),
		specs: memdoc.NewSpecRecorder(),
		maps:  memdoc.NewMapRecorder(),
	}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests++
		f.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(f.server.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.disp = NewDispatcher(f.page, mount.NewPainter(f.specs, f.maps), WithLogger(logger))
	return f
}

func (f *fixture) rc(slug string) chart.RenderContext {
	return chart.RenderContext{Slug: slug, BaseURL: f.server.URL + "/"}
}

func body(s string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, s)
	}
}

func TestRenderMetric(t *testing.T) {
	f := newFixture(t, body(`{"rows":[{"total":42}],"truncated":false}`), "kpi")
	desc := chart.Descriptor{
		Library:  chart.LibraryMetric,
		Database: "shop",
		Query:    "select 42 as total",
		Display:  map[string]any{"field": "total", "prefix": "$", "suffix": "k"},
	}

	if err := f.disp.Render(context.Background(), desc, f.rc("kpi")); err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	slot, _ := f.page.Slot("kpi")
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(slot.HTML()))
	if err != nil {
		t.Fatal(err)
	}
	if got := doc.Find("p").Text(); got != "$42k" {
		t.Errorf("metric text = %q, want $42k", got)
	}
	if slot.Truncated() {
		t.Error("truncation notice should stay hidden")
	}
}

func TestRenderVegaLiteTruncated(t *testing.T) {
	var gotPath, gotShape string
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotShape = r.URL.Query().Get("_shape")
		io.WriteString(w, `{"rows":[{"x":1}],"truncated":true}`)
	}, "trend")

	desc := chart.Descriptor{Library: chart.LibraryVegaLite, Database: "db", Query: "select 1 as x"}
	if err := f.disp.Render(context.Background(), desc, f.rc("trend")); err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	if gotPath != "/db.json" || gotShape != "objects" {
		t.Errorf("request path=%q shape=%q", gotPath, gotShape)
	}
	if _, ok := f.specs.Spec("trend"); !ok {
		t.Error("spec not embedded")
	}
	slot, _ := f.page.Slot("trend")
	if !slot.Truncated() {
		t.Error("truncation notice should be visible")
	}
}

func TestRenderMap(t *testing.T) {
	f := newFixture(t, body(`{"rows":[{"latitude":1,"longitude":2,"name":"a"}]}`), "where")
	desc := chart.Descriptor{Library: chart.LibraryMap, Database: "geo", Query: "select 1"}

	if err := f.disp.Render(context.Background(), desc, f.rc("where")); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	m, ok := f.maps.Map("where")
	if !ok {
		t.Fatal("map not created")
	}
	if len(m.Markers) != 1 || m.Bounds == nil {
		t.Errorf("unexpected map state: %+v", m)
	}
}

func TestRenderUnknownLibraryIsNoop(t *testing.T) {
	f := newFixture(t, body(`{"rows":[]}`), "x")
	desc := chart.Descriptor{Library: "pie", Database: "db", Query: "select 1"}

	if err := f.disp.Render(context.Background(), desc, f.rc("x")); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if f.requests != 0 {
		t.Errorf("unknown library issued %d requests", f.requests)
	}
	slot, _ := f.page.Slot("x")
	if slot.Children() != 0 || slot.Err() != nil {
		t.Error("unknown library must not touch the page")
	}
}

func TestRenderFailuresAreIsolated(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Query().Get("sql"), "broken") {
			http.Error(w, "no such table", http.StatusBadRequest)
			return
		}
		io.WriteString(w, `{"rows":[{"n":1}]}`)
	}, "bad", "good", "nofield")

	tests := []struct {
		slug    string
		desc    chart.Descriptor
		wantErr func(error) bool
	}{
		{
			slug: "bad",
			desc: chart.Descriptor{Library: chart.LibraryTable, Database: "db", Query: "select broken"},
			wantErr: func(err error) bool {
				var ne *chart.NetworkError
				return errors.As(err, &ne) && ne.Status == http.StatusBadRequest
			},
		},
		{
			slug: "nofield",
			desc: chart.Descriptor{Library: chart.LibraryMetric, Database: "db", Query: "select 1", Display: map[string]any{"field": "missing"}},
			wantErr: func(err error) bool {
				var mfe *chart.MissingFieldError
				return errors.As(err, &mfe)
			},
		},
		{
			slug:    "good",
			desc:    chart.Descriptor{Library: chart.LibraryTable, Database: "db", Query: "select 1"},
			wantErr: func(err error) bool { return err == nil },
		},
	}

	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			err := f.disp.Render(context.Background(), tt.desc, f.rc(tt.slug))
			if !tt.wantErr(err) {
				t.Fatalf("unexpected error: %v", err)
			}
			slot, _ := f.page.Slot(tt.slug)
			if (err != nil) != (slot.Err() != nil) {
				t.Errorf("error indicator shown=%v, render error=%v", slot.Err() != nil, err)
			}
		})
	}

	good, _ := f.page.Slot("good")
	if good.Children() != 1 {
		t.Error("sibling chart should still render")
	}
}

func TestRenderVanishedSlotIsNoop(t *testing.T) {
	var page *memdoc.Page
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		page.Remove("gone")
		io.WriteString(w, `{"rows":[{"n":1}]}`)
	}, "gone")
	page = f.page

	desc := chart.Descriptor{Library: chart.LibraryTable, Database: "db", Query: "select 1"}
	if err := f.disp.Render(context.Background(), desc, f.rc("gone")); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if _, ok := f.page.Slot("gone"); ok {
		t.Error("slot should have been removed")
	}
}

func TestRenderCancelledLeavesSlotClean(t *testing.T) {
	started := make(chan struct{}, 2)
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("sql") == "slow" {
			started <- struct{}{}
			select {
			case <-r.Context().Done():
			case <-time.After(5 * time.Second):
			}
			return
		}
		io.WriteString(w, `{"rows":[{"n":1}]}`)
	}, "c", "torn")

	slow := chart.Descriptor{Library: chart.LibraryTable, Database: "db", Query: "slow"}
	fast := chart.Descriptor{Library: chart.LibraryTable, Database: "db", Query: "fast"}
	render := func(desc chart.Descriptor, slug string) func(context.Context) error {
		return func(ctx context.Context) error {
			return f.disp.Render(ctx, desc, f.rc(slug))
		}
	}

	s := NewScheduler()
	s.Go(context.Background(), "c", render(slow, "c"))
	<-started
	s.Go(context.Background(), "c", render(fast, "c"))

	s.Go(context.Background(), "torn", render(slow, "torn"))
	<-started
	s.Cancel("torn")

	if errs := s.Wait(); len(errs) != 0 {
		t.Errorf("Wait() = %v, want no errors", errs)
	}

	tests := []struct {
		slug     string
		children int
	}{
		{"c", 1},
		{"torn", 0},
	}
	for _, tt := range tests {
		slot, _ := f.page.Slot(tt.slug)
		if err := slot.Err(); err != nil {
			t.Errorf("%s: cancelled render showed an error: %v", tt.slug, err)
		}
		if got := slot.Children(); got != tt.children {
			t.Errorf("%s: children = %d, want %d", tt.slug, got, tt.children)
		}
	}
}

func TestRenderCancelledReturnsContextError(t *testing.T) {
	f := newFixture(t, body(`{"rows":[{"n":1}]}`), "late")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	desc := chart.Descriptor{Library: chart.LibraryTable, Database: "db", Query: "select 1"}
	if err := f.disp.Render(ctx, desc, f.rc("late")); !errors.Is(err, context.Canceled) {
		t.Fatalf("Render() error = %v, want context.Canceled", err)
	}
	slot, _ := f.page.Slot("late")
	if slot.Err() != nil || slot.Children() != 0 {
		t.Error("cancelled render must not touch the slot")
	}
}

func TestPrepare(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("_shape") != "" {
			t.Errorf("csv request must not carry _shape, got %q", r.URL.RawQuery)
		}
		io.WriteString(w, "n\n1\n")
	})

	desc := chart.Descriptor{Library: chart.LibraryVega, Database: "db", Query: "select 1 as n"}
	rc := f.rc("p")
	rc.Format = chart.FormatCSV
	rc.QueryString = "city=Paris"

	p, ok, err := f.disp.Prepare(context.Background(), desc, rc)
	if err != nil || !ok {
		t.Fatalf("Prepare() = %v, %v", ok, err)
	}
	if !strings.HasSuffix(p.URL, "/db.csv?sql=select%201%20as%20n&city=Paris") {
		t.Errorf("URL = %q", p.URL)
	}
	if p.Result.Raw != "n\n1\n" {
		t.Errorf("Raw = %q", p.Result.Raw)
	}
	if p.Artifact.Kind != chart.KindSpec {
		t.Errorf("Kind = %q", p.Artifact.Kind)
	}
}

// stubFetcher answers every fetch after calling before, ignoring ctx.
type stubFetcher struct {
	before func()
	result *chart.QueryResult
}

func (f stubFetcher) Fetch(ctx context.Context, url string, format chart.Format) (*chart.QueryResult, error) {
	f.before()
	return f.result, nil
}

func TestRenderSupersededAfterFetchDoesNotPaint(t *testing.T) {
	page := memdoc.NewPage("c")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := NewScheduler()

	var rows chart.QueryResult
	if err := json.Unmarshal([]byte(`{"rows":[{"n":1}],"truncated":true}`), &rows); err != nil {
		t.Fatal(err)
	}
	stale := NewDispatcher(page, mount.NewPainter(nil, nil), WithLogger(logger), WithFetcher(stubFetcher{
		before: func() {
			s.Go(context.Background(), "c", func(ctx context.Context) error { return nil })
		},
		result: &rows,
	}))

	desc := chart.Descriptor{Library: chart.LibraryTable, Database: "db", Query: "select 1"}
	done := make(chan error, 1)
	s.Go(context.Background(), "c", func(ctx context.Context) error {
		err := stale.Render(ctx, desc, chart.RenderContext{Slug: "c", BaseURL: "http://unused/"})
		done <- err
		return err
	})

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Render() error = %v, want context.Canceled", err)
	}
	s.Wait()
	slot, _ := page.Slot("c")
	if slot.Children() != 0 || slot.Truncated() || slot.Err() != nil {
		t.Error("superseded render must leave the slot untouched")
	}
}
