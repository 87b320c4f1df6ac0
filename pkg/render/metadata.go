package render

import "github.com/xen0bit/dashchart/pkg/chart"

// DisplayKey documents one display option of a renderer.
type DisplayKey struct {
	Name        string
	Description string
}

// RendererMetadata holds information about a renderer
type RendererMetadata struct {
	Library     chart.Library
	Description string
	Output      chart.Kind
	Display     []DisplayKey
	Examples    []string
}

// Metadata returns metadata for all built-in renderers
func Metadata() []RendererMetadata {
	return []RendererMetadata{
		{
			chart.LibraryVega, "Raw Vega grammar chart, rows exposed as the \"table\" dataset", chart.KindSpec,
			[]DisplayKey{{"*", "any top-level Vega key, replaces the default"}},
			[]string{`{"marks": [{"type": "rect", "from": {"data": "table"}}]}`},
		},
		{
			chart.LibraryVegaLite, "Vega-Lite chart sized to its container", chart.KindSpec,
			[]DisplayKey{{"*", "any top-level Vega-Lite key, replaces the default"}},
			[]string{`{"mark": "bar", "encoding": {"x": {"field": "day"}, "y": {"field": "n", "type": "quantitative"}}}`},
		},
		{
			chart.LibraryMetric, "Single headline value read from the first row", chart.KindMarkup,
			[]DisplayKey{
				{"field", "column holding the value (required)"},
				{"prefix", "text shown before the value"},
				{"suffix", "text shown after the value"},
			},
			[]string{`{"field": "total", "prefix": "$", "suffix": "k"}`},
		},
		{
			chart.LibraryTable, "HTML table of all rows in column order", chart.KindMarkup,
			nil,
			nil,
		},
		{
			chart.LibraryMap, "OpenStreetMap markers, one per row", chart.KindMap,
			[]DisplayKey{
				{"latitude_column", "latitude column, default latitude"},
				{"longitude_column", "longitude column, default longitude"},
				{"show_latlng_popup", "include coordinates in marker popups"},
			},
			[]string{`{"latitude_column": "lat", "longitude_column": "lon"}`},
		},
	}
}
