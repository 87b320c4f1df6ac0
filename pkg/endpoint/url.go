// Package endpoint builds data endpoint URLs and fetches query results from them.
package endpoint

import (
	"net/url"
	"strings"

	"github.com/xen0bit/dashchart/pkg/chart"
)

// componentUnescaper undoes the QueryEscape escapes that encodeURIComponent
// leaves alone, and turns '+' spaces into %20.
var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EncodeComponent percent-encodes s as a single opaque query value, the way
// encodeURIComponent does.
func EncodeComponent(s string) string {
	return componentUnescaper.Replace(url.QueryEscape(s))
}

// BuildURL returns <base><database>.<ext>?sql=<query>&<ambient>&_shape=<shape>.
// The ambient parameters are assumed to be encoded already and are copied
// verbatim. The shape is omitted for csv.
func BuildURL(base, database, query, ambient string, shape chart.Shape, format chart.Format) string {
	if format == "" {
		format = chart.FormatJSON
	}

	var b strings.Builder
	b.WriteString(base)
	b.WriteString(database)
	b.WriteByte('.')
	b.WriteString(string(format))
	b.WriteString("?sql=")
	b.WriteString(EncodeComponent(query))

	if ambient = strings.TrimPrefix(ambient, "?"); ambient != "" {
		b.WriteByte('&')
		b.WriteString(ambient)
	}

	if format != chart.FormatCSV && shape != "" {
		b.WriteString("&_shape=")
		b.WriteString(string(shape))
	}

	return b.String()
}

// ChartURL builds the data URL for a descriptor rendered in rc.
func ChartURL(desc chart.Descriptor, rc chart.RenderContext, shape chart.Shape) string {
	return BuildURL(rc.BaseURL, desc.Database, desc.Query, rc.QueryString, shape, rc.ResponseFormat())
}
