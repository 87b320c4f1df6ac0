// Package vegalite assembles Vega-Lite specifications.
package vegalite

import (
	"fmt"

	"github.com/xen0bit/dashchart/pkg/chart"
	"github.com/xen0bit/dashchart/pkg/render/common"
)

// Schema is the Vega-Lite schema reference put in every spec.
const Schema = "https://vega.github.io/schema/vega-lite/v5.json"

// Renderer draws vega-lite charts.
type Renderer struct{}

// New returns the vega-lite renderer.
func New() *Renderer {
	return &Renderer{}
}

func (r *Renderer) Library() chart.Library {
	return chart.LibraryVegaLite
}

func (r *Renderer) Shape() chart.Shape {
	return chart.ShapeObjects
}

// Assemble builds the spec with container width, and container height when
// FullHeight is set.
func (r *Renderer) Assemble(desc chart.Descriptor, rc chart.RenderContext, result *chart.QueryResult) (*chart.Artifact, error) {
	values, format := common.DataSource(rc, result)

	defaults := map[string]any{
		"$schema":     Schema,
		"description": desc.Title,
		"width":       "container",
		"view":        map[string]any{"stroke": nil},
		"config": map[string]any{
			"background": "#00000000",
			"arc":        map[string]any{"innerRadius": 50},
			"line":       map[string]any{"point": true},
		},
		"data": map[string]any{
			"values": values,
			"format": format,
		},
	}
	if rc.FullHeight {
		defaults["height"] = "container"
	}

	spec := common.Merge(defaults, desc.Display)
	if d, overridden := desc.Display["data"]; overridden {
		switch entry := d.(type) {
		case map[string]any:
			spec["data"] = common.BindData(entry, values, format)
		case nil:
			spec["data"] = defaults["data"]
		default:
			return nil, fmt.Errorf("vega-lite chart: display data must be an object, got %T", d)
		}
	}

	return &chart.Artifact{
		Library: chart.LibraryVegaLite,
		Kind:    chart.KindSpec,
		Spec:    chart.Spec(spec),
	}, nil
}
