package metric

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/xen0bit/dashchart/pkg/chart"
)

func result(t *testing.T, body string) *chart.QueryResult {
	t.Helper()
	var rs []chart.Row
	if err := json.Unmarshal([]byte(body), &rs); err != nil {
		t.Fatalf("failed to decode rows: %v", err)
	}
	return &chart.QueryResult{Rows: rs}
}

func TestAssemble(t *testing.T) {
	tests := []struct {
		name     string
		display  map[string]any
		rows     string
		rc       chart.RenderContext
		wantText string
		wantHTML string
	}{
		{
			name:     "prefix and suffix",
			display:  map[string]any{"field": "total", "prefix": "$", "suffix": "k"},
			rows:     `[{"total":42}]`,
			wantText: "$42k",
			wantHTML: "$42k",
		},
		{
			name:     "plain value",
			display:  map[string]any{"field": "n"},
			rows:     `[{"n":7},{"n":8}]`,
			wantText: "7",
			wantHTML: "7",
		},
		{
			name:     "null value",
			display:  map[string]any{"field": "n"},
			rows:     `[{"n":null}]`,
			wantText: "",
			wantHTML: "",
		},
		{
			name:     "escaped markup",
			display:  map[string]any{"field": "label"},
			rows:     `[{"label":"<b>bold</b>"}]`,
			wantText: "<b>bold</b>",
			wantHTML: "&lt;b&gt;bold&lt;/b&gt;",
		},
		{
			name:     "raw markup",
			display:  map[string]any{"field": "label"},
			rows:     `[{"label":"<b>bold</b>"}]`,
			rc:       chart.RenderContext{RawMarkup: true},
			wantText: "<b>bold</b>",
			wantHTML: "<b>bold</b>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc := chart.Descriptor{Library: chart.LibraryMetric, Display: tt.display}
			art, err := New().Assemble(desc, tt.rc, result(t, tt.rows))
			if err != nil {
				t.Fatalf("Assemble() error: %v", err)
			}
			if art.Kind != chart.KindMarkup {
				t.Errorf("Kind = %q, want markup", art.Kind)
			}
			if art.Text != tt.wantText {
				t.Errorf("Text = %q, want %q", art.Text, tt.wantText)
			}

			doc, err := goquery.NewDocumentFromReader(strings.NewReader(art.Markup))
			if err != nil {
				t.Fatalf("failed to parse markup: %v", err)
			}
			p := doc.Find("div > p")
			if p.Length() != 1 {
				t.Fatalf("expected one <p> in the wrapper, got %d", p.Length())
			}
			inner, _ := p.Html()
			if inner != tt.wantHTML {
				t.Errorf("inner HTML = %q, want %q", inner, tt.wantHTML)
			}
		})
	}
}

func TestAssembleStyles(t *testing.T) {
	desc := chart.Descriptor{Display: map[string]any{"field": "n"}}
	art, err := New().Assemble(desc, chart.RenderContext{}, result(t, `[{"n":1}]`))
	if err != nil {
		t.Fatalf("Assemble() error: %v", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(art.Markup))
	if err != nil {
		t.Fatalf("failed to parse markup: %v", err)
	}

	wrapper, _ := doc.Find("div").Attr("style")
	for _, want := range []string{"display:flex", "justify-content:center", "overflow:hidden", "text-overflow:ellipsis"} {
		if !strings.Contains(wrapper, want) {
			t.Errorf("wrapper style %q lacks %q", wrapper, want)
		}
	}
	p, _ := doc.Find("p").Attr("style")
	if p != "font-size:2.2rem;font-weight:900" {
		t.Errorf("value style = %q", p)
	}
}

func TestAssembleMissingField(t *testing.T) {
	tests := []struct {
		name    string
		display map[string]any
		rows    string
	}{
		{"no display field", nil, `[{"n":1}]`},
		{"empty rows", map[string]any{"field": "n"}, `[]`},
		{"absent column", map[string]any{"field": "total"}, `[{"n":1}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc := chart.Descriptor{Display: tt.display}
			_, err := New().Assemble(desc, chart.RenderContext{}, result(t, tt.rows))
			var mfe *chart.MissingFieldError
			if !errors.As(err, &mfe) {
				t.Fatalf("expected MissingFieldError, got %v", err)
			}
			if mfe.Library != chart.LibraryMetric {
				t.Errorf("Library = %q, want metric", mfe.Library)
			}
		})
	}
}
