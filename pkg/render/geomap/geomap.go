// Package geomap plots result rows as markers on a tiled map.
package geomap

import (
	"fmt"
	"strings"

	"github.com/xen0bit/dashchart/pkg/chart"
	"github.com/xen0bit/dashchart/pkg/render/common"
)

const (
	TileURL     = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"
	MaxZoom     = 19
	DefaultZoom = 12
	Attribution = `&copy; <a href="https://openstreetmap.org/copyright">OpenStreetMap contributors</a>`

	DefaultLatitudeColumn  = "latitude"
	DefaultLongitudeColumn = "longitude"
)

var wrapperStyle = common.WithStyle(common.FillWrapperStyle, "min-height", "200px")

// Renderer draws map charts.
type Renderer struct{}

// New returns the map renderer.
func New() *Renderer {
	return &Renderer{}
}

func (r *Renderer) Library() chart.Library {
	return chart.LibraryMap
}

func (r *Renderer) Shape() chart.Shape {
	return chart.ShapeObjects
}

// Assemble places one marker per row. Coordinates are read from
// display.latitude_column and display.longitude_column.
func (r *Renderer) Assemble(desc chart.Descriptor, rc chart.RenderContext, result *chart.QueryResult) (*chart.Artifact, error) {
	latCol, ok := desc.DisplayString("latitude_column")
	if !ok {
		latCol = DefaultLatitudeColumn
	}
	lngCol, ok := desc.DisplayString("longitude_column")
	if !ok {
		lngCol = DefaultLongitudeColumn
	}
	showLatLng := desc.DisplayBool("show_latlng_popup")

	plan := &chart.MapPlan{
		Zoom: DefaultZoom,
		Tiles: chart.TileLayer{
			URL:          TileURL,
			MaxZoom:      MaxZoom,
			DetectRetina: true,
			Attribution:  Attribution,
		},
		Markers: make([]chart.Marker, 0, len(result.Rows)),
	}

	for i, row := range result.Rows {
		lat, err := coordinate(row, latCol, i)
		if err != nil {
			return nil, err
		}
		lng, err := coordinate(row, lngCol, i)
		if err != nil {
			return nil, err
		}
		pos := chart.LatLng{Lat: lat, Lng: lng}

		if plan.Bounds == nil {
			plan.Bounds = &chart.Bounds{SouthWest: pos, NorthEast: pos}
		} else {
			plan.Bounds.Extend(pos)
		}

		plan.Markers = append(plan.Markers, chart.Marker{
			Position: pos,
			Popup:    popup(row, latCol, lngCol, showLatLng, rc.RawMarkup),
		})
	}

	var b strings.Builder
	common.Element(&b, "div", common.Style(wrapperStyle...), "")

	return &chart.Artifact{
		Library: chart.LibraryMap,
		Kind:    chart.KindMap,
		Markup:  b.String(),
		Map:     plan,
	}, nil
}

func coordinate(row chart.Row, col string, index int) (float64, error) {
	v, ok := row.Get(col)
	if !ok {
		return 0, chart.NewMissingFieldError(chart.LibraryMap, col, fmt.Sprintf("row %d has no such column", index))
	}
	f, ok := common.ToFloat(v)
	if !ok {
		return 0, chart.NewMissingFieldError(chart.LibraryMap, col, fmt.Sprintf("row %d value %q is not a number", index, common.FormatValue(v)))
	}
	return f, nil
}

func popup(row chart.Row, latCol, lngCol string, showLatLng, raw bool) string {
	var b strings.Builder
	keys := row.Keys()
	vals := row.Values()
	for i, k := range keys {
		if (k == latCol || k == lngCol) && !showLatLng {
			continue
		}
		b.WriteString(`<span style="font-weight:bold;">`)
		b.WriteString(common.Text(k, raw))
		b.WriteString(":</span> ")
		b.WriteString(common.Text(common.FormatValue(vals[i]), raw))
		b.WriteString("<br>")
	}
	return b.String()
}
