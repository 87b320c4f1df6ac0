// Package table renders query results as an HTML table.
package table

import (
	"strings"

	"github.com/xen0bit/dashchart/pkg/chart"
	"github.com/xen0bit/dashchart/pkg/render/common"
)

var wrapperStyle = common.WithStyle(common.FillWrapperStyle, "overflow", "auto")

// Renderer draws table charts.
type Renderer struct{}

// New returns the table renderer.
func New() *Renderer {
	return &Renderer{}
}

func (r *Renderer) Library() chart.Library {
	return chart.LibraryTable
}

func (r *Renderer) Shape() chart.Shape {
	return chart.ShapeObjects
}

func (r *Renderer) Assemble(desc chart.Descriptor, rc chart.RenderContext, result *chart.QueryResult) (*chart.Artifact, error) {
	columns := result.ColumnNames()

	var head strings.Builder
	for _, col := range columns {
		common.Element(&head, "th", "", common.Text(col, rc.RawMarkup))
	}

	var body strings.Builder
	for _, row := range result.Rows {
		var cells strings.Builder
		for _, col := range columns {
			v, _ := row.Get(col)
			common.Element(&cells, "td", "", common.Text(common.FormatValue(v), rc.RawMarkup))
		}
		common.Element(&body, "tr", "", cells.String())
	}

	var headRow, thead, tbody, tbl, b strings.Builder
	common.Element(&headRow, "tr", "", head.String())
	common.Element(&thead, "thead", "", headRow.String())
	common.Element(&tbody, "tbody", "", body.String())
	common.Element(&tbl, "table", "", thead.String()+tbody.String())
	common.Element(&b, "div", common.Style(wrapperStyle...), tbl.String())

	return &chart.Artifact{
		Library: chart.LibraryTable,
		Kind:    chart.KindMarkup,
		Markup:  b.String(),
	}, nil
}
