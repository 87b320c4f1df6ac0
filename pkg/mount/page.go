// Package mount attaches rendered artifacts to chart containers on a page.
package mount

import (
	"context"
	"errors"

	"github.com/xen0bit/dashchart/pkg/chart"
)

// ErrNoEmbedder is returned when a spec artifact is painted without a spec embedder.
var ErrNoEmbedder = errors.New("no spec embedder configured")

// ErrNoMapProvider is returned when a map artifact is painted without a map provider.
var ErrNoMapProvider = errors.New("no map provider configured")

// Page resolves chart containers by slug.
type Page interface {
	// Lookup returns the container of slug. ok is false when the container
	// does not exist, for example because it was torn down.
	Lookup(slug string) (slot Slot, ok bool)
}

// Slot is the container of one chart.
type Slot interface {
	Slug() string
	// AppendHTML parses markup and appends it as the last child of the slot.
	AppendHTML(markup string) (Node, error)
	// ShowTruncationNotice reveals the slot's "results truncated" indicator.
	ShowTruncationNotice()
	// ShowError replaces the chart with an error indicator.
	ShowError(err error)
}

// Node is an element appended to a slot, handed to the map provider.
type Node interface{}

// SpecEmbedder draws a grammar spec into a slot (vega-embed in a browser).
type SpecEmbedder interface {
	Embed(ctx context.Context, slot Slot, spec chart.Spec) error
}

// MapProvider creates interactive maps (Leaflet in a browser).
type MapProvider interface {
	NewMap(node Node, zoom int) (Map, error)
}

// Map is one interactive map instance.
type Map interface {
	AddTileLayer(tiles chart.TileLayer) error
	AddMarker(marker chart.Marker) error
	FitBounds(bounds chart.Bounds) error
}
