// Package chart holds the types shared by the fetcher, the renderers and the mount layer.
package chart

import "strings"

// Library identifies which renderer draws a chart.
type Library string

const (
	LibraryVega     Library = "vega"
	LibraryVegaLite Library = "vega-lite"
	LibraryMetric   Library = "metric"
	LibraryTable    Library = "table"
	LibraryMap      Library = "map"
)

// Libraries lists the libraries that have a built-in renderer.
func Libraries() []Library {
	return []Library{LibraryVega, LibraryVegaLite, LibraryMetric, LibraryTable, LibraryMap}
}

// ParseLibrary normalizes a library name. Unknown names are returned as-is so
// that dispatch can treat them as a no-op.
func ParseLibrary(s string) Library {
	return Library(strings.ToLower(strings.TrimSpace(s)))
}

// Descriptor is the declarative record for one chart on a page.
type Descriptor struct {
	// Library selects the renderer.
	Library Library `json:"library"`
	// Database is the data endpoint database name.
	Database string `json:"db"`
	// Query is the SQL text sent to the endpoint.
	Query string `json:"query"`
	// Title is used as the grammar spec description.
	Title string `json:"title,omitempty"`
	// Display holds renderer specific overrides.
	Display map[string]any `json:"display,omitempty"`
}

// DisplayString returns display[key] when it is a non-empty string.
func (d Descriptor) DisplayString(key string) (string, bool) {
	v, ok := d.Display[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// DisplayBool returns display[key] as a bool, false when absent.
func (d Descriptor) DisplayBool(key string) bool {
	b, _ := d.Display[key].(bool)
	return b
}

// Format is the response format requested from the data endpoint.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// RenderContext carries the per-invocation parameters of a render call.
type RenderContext struct {
	// Slug identifies the chart container on the page.
	Slug string
	// BaseURL is the absolute URL of the data endpoint instance, with trailing slash.
	BaseURL string
	// QueryString holds ambient, already encoded parameters such as dashboard filters.
	QueryString string
	// FullHeight makes grammar charts track the container height too.
	FullHeight bool
	// Format selects json (default) or csv responses.
	Format Format
	// RawMarkup disables HTML escaping of backend values. Only for byte-compatible legacy output.
	RawMarkup bool
}

// ResponseFormat returns the effective format.
func (rc RenderContext) ResponseFormat() Format {
	if rc.Format == "" {
		return FormatJSON
	}
	return rc.Format
}
