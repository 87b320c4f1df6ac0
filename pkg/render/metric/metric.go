// Package metric renders a single headline value.
package metric

import (
	"strings"

	"github.com/xen0bit/dashchart/pkg/chart"
	"github.com/xen0bit/dashchart/pkg/render/common"
)

var wrapperStyle = common.WithStyle(common.FillWrapperStyle,
	"display", "flex",
	"flex-direction", "column",
	"justify-content", "center",
	"align-items", "center",
	"overflow", "hidden",
	"white-space", "nowrap",
	"text-overflow", "ellipsis",
)

var valueStyle = []string{"font-size", "2.2rem", "font-weight", "900"}

// Renderer draws metric charts.
type Renderer struct{}

// New returns the metric renderer.
func New() *Renderer {
	return &Renderer{}
}

func (r *Renderer) Library() chart.Library {
	return chart.LibraryMetric
}

func (r *Renderer) Shape() chart.Shape {
	return chart.ShapeObjects
}

// Assemble reads display.field from the first row and wraps it with the
// optional prefix and suffix.
func (r *Renderer) Assemble(desc chart.Descriptor, rc chart.RenderContext, result *chart.QueryResult) (*chart.Artifact, error) {
	field, ok := desc.DisplayString("field")
	if !ok {
		return nil, chart.NewMissingFieldError(chart.LibraryMetric, "field", "display has no field")
	}
	if len(result.Rows) == 0 {
		return nil, chart.NewMissingFieldError(chart.LibraryMetric, field, "result has no rows")
	}
	value, ok := result.Rows[0].Get(field)
	if !ok {
		return nil, chart.NewMissingFieldError(chart.LibraryMetric, field, "first row has no such column")
	}

	prefix, _ := desc.DisplayString("prefix")
	suffix, _ := desc.DisplayString("suffix")
	text := prefix + common.FormatValue(value) + suffix

	var p, b strings.Builder
	common.Element(&p, "p", common.Style(valueStyle...), common.Text(text, rc.RawMarkup))
	common.Element(&b, "div", common.Style(wrapperStyle...), p.String())

	return &chart.Artifact{
		Library: chart.LibraryMetric,
		Kind:    chart.KindMarkup,
		Markup:  b.String(),
		Text:    text,
	}, nil
}
