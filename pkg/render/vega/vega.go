// Package vega assembles raw Vega grammar specifications.
package vega

import (
	"fmt"

	"github.com/xen0bit/dashchart/pkg/chart"
	"github.com/xen0bit/dashchart/pkg/render/common"
)

// Schema is the Vega schema reference put in every spec.
const Schema = "https://vega.github.io/schema/vega/v5.json"

// DefaultSize is used when the container reports no finite size.
const DefaultSize = 200

// Renderer draws vega charts.
type Renderer struct{}

// New returns the vega renderer.
func New() *Renderer {
	return &Renderer{}
}

func (r *Renderer) Library() chart.Library {
	return chart.LibraryVega
}

func (r *Renderer) Shape() chart.Shape {
	return chart.ShapeObjects
}

// Assemble builds the spec. display is merged last and may replace any top
// level key; the "table" dataset keeps the fetched rows either way.
func (r *Renderer) Assemble(desc chart.Descriptor, rc chart.RenderContext, result *chart.QueryResult) (*chart.Artifact, error) {
	values, format := common.DataSource(rc, result)

	defaults := map[string]any{
		"$schema":     Schema,
		"description": desc.Title,
		"autosize":    map[string]any{"type": "fit", "resize": true},
		"data": []any{
			map[string]any{
				"name":   common.TableDataset,
				"values": values,
				"format": format,
			},
		},
		"signals": Signals(rc.FullHeight),
	}

	spec := common.Merge(defaults, desc.Display)
	if _, overridden := desc.Display["data"]; overridden {
		data, err := rewire(spec["data"], values, format)
		if err != nil {
			return nil, err
		}
		spec["data"] = data
	}

	return &chart.Artifact{
		Library: chart.LibraryVega,
		Kind:    chart.KindSpec,
		Spec:    chart.Spec(spec),
	}, nil
}

// Signals returns the width signal, plus the height signal when fullHeight is
// set. Both track the container size on window resize.
func Signals(fullHeight bool) []any {
	signals := []any{sizeSignal("width", 0)}
	if fullHeight {
		signals = append(signals, sizeSignal("height", 1))
	}
	return signals
}

func sizeSignal(name string, axis int) map[string]any {
	expr := fmt.Sprintf("isFinite(containerSize()[%d]) ? containerSize()[%d] : %d", axis, axis, DefaultSize)
	return map[string]any{
		"name": name,
		"init": expr,
		"on": []any{
			map[string]any{
				"update": expr,
				"events": "window:resize",
			},
		},
	}
}

// rewire makes sure the display-supplied data list still carries the fetched
// rows in the "table" dataset.
func rewire(data any, values any, format map[string]any) ([]any, error) {
	var entries []any
	switch d := data.(type) {
	case []any:
		entries = d
	case map[string]any:
		entries = []any{d}
	case nil:
	default:
		return nil, fmt.Errorf("vega chart: display data must be a list of datasets, got %T", data)
	}

	out := make([]any, 0, len(entries)+1)
	bound := false
	for _, e := range entries {
		entry, ok := e.(map[string]any)
		if ok && entry["name"] == common.TableDataset && !bound {
			out = append(out, common.BindData(entry, values, format))
			bound = true
			continue
		}
		out = append(out, e)
	}
	if !bound {
		table := common.BindData(map[string]any{"name": common.TableDataset}, values, format)
		out = append([]any{table}, out...)
	}
	return out, nil
}
