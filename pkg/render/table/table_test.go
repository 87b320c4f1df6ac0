package table

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"

	"github.com/xen0bit/dashchart/pkg/chart"
)

func render(t *testing.T, rc chart.RenderContext, res *chart.QueryResult) *goquery.Document {
	t.Helper()
	art, err := New().Assemble(chart.Descriptor{Library: chart.LibraryTable}, rc, res)
	if err != nil {
		t.Fatalf("Assemble() error: %v", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(art.Markup))
	if err != nil {
		t.Fatalf("failed to parse markup: %v", err)
	}
	return doc
}

func decode(t *testing.T, body string) *chart.QueryResult {
	t.Helper()
	var res chart.QueryResult
	if err := json.Unmarshal([]byte(body), &res); err != nil {
		t.Fatalf("failed to decode result: %v", err)
	}
	res.BindColumns()
	return &res
}

func texts(sel *goquery.Selection) []string {
	var out []string
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, s.Text())
	})
	return out
}

func TestAssemble(t *testing.T) {
	res := decode(t, `{"rows":[{"name":"a","n":1},{"name":"b","n":null}],"columns":["name","n"]}`)
	doc := render(t, chart.RenderContext{}, res)

	if diff := cmp.Diff([]string{"name", "n"}, texts(doc.Find("thead th"))); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
	if got := doc.Find("tbody tr").Length(); got != 2 {
		t.Fatalf("expected 2 body rows, got %d", got)
	}
	if diff := cmp.Diff([]string{"b", ""}, texts(doc.Find("tbody tr").Eq(1).Find("td"))); diff != "" {
		t.Errorf("second row mismatch (-want +got):\n%s", diff)
	}

	style, _ := doc.Find("body > div").Attr("style")
	if style != "width:100%;height:100%;overflow:auto" {
		t.Errorf("wrapper style = %q", style)
	}
}

func TestAssembleUsesColumnOrder(t *testing.T) {
	res := decode(t, `{"rows":[{"b":2,"a":1}],"columns":["a","b"]}`)
	doc := render(t, chart.RenderContext{}, res)

	if diff := cmp.Diff([]string{"1", "2"}, texts(doc.Find("tbody td"))); diff != "" {
		t.Errorf("cells mismatch (-want +got):\n%s", diff)
	}
}

func TestAssembleFallsBackToRowKeys(t *testing.T) {
	res := decode(t, `{"rows":[{"z":1,"y":2}]}`)
	doc := render(t, chart.RenderContext{}, res)

	if diff := cmp.Diff([]string{"z", "y"}, texts(doc.Find("th"))); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
}

func TestAssembleEmpty(t *testing.T) {
	doc := render(t, chart.RenderContext{}, &chart.QueryResult{})
	if doc.Find("table").Length() != 1 {
		t.Error("expected an empty table")
	}
	if doc.Find("td").Length() != 0 {
		t.Error("expected no cells")
	}
}

func TestAssembleEscaping(t *testing.T) {
	res := decode(t, `{"rows":[{"v":"<img src=x>"}],"columns":["v"]}`)

	doc := render(t, chart.RenderContext{}, res)
	if doc.Find("td img").Length() != 0 {
		t.Error("value must be escaped by default")
	}
	if got := doc.Find("td").Text(); got != "<img src=x>" {
		t.Errorf("cell text = %q", got)
	}

	doc = render(t, chart.RenderContext{RawMarkup: true}, res)
	if doc.Find("td img").Length() != 1 {
		t.Error("raw markup should keep the element")
	}
}
