package chart

// Kind tells the painter how to mount an artifact.
type Kind string

const (
	// KindSpec is a grammar specification handed to the spec embedder.
	KindSpec Kind = "spec"
	// KindMarkup is an HTML fragment appended to the container.
	KindMarkup Kind = "markup"
	// KindMap is a wrapper fragment plus a plan for the map provider.
	KindMap Kind = "map"
)

// Spec is a grammar specification object.
type Spec map[string]any

// LatLng is a geographic point.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Bounds is the bounding box of a set of points.
type Bounds struct {
	SouthWest LatLng `json:"south_west"`
	NorthEast LatLng `json:"north_east"`
}

// Contains reports whether p lies inside the bounds.
func (b Bounds) Contains(p LatLng) bool {
	return p.Lat >= b.SouthWest.Lat && p.Lat <= b.NorthEast.Lat &&
		p.Lng >= b.SouthWest.Lng && p.Lng <= b.NorthEast.Lng
}

// Extend grows the bounds to include p.
func (b *Bounds) Extend(p LatLng) {
	b.SouthWest.Lat = min(b.SouthWest.Lat, p.Lat)
	b.SouthWest.Lng = min(b.SouthWest.Lng, p.Lng)
	b.NorthEast.Lat = max(b.NorthEast.Lat, p.Lat)
	b.NorthEast.Lng = max(b.NorthEast.Lng, p.Lng)
}

// TileLayer describes the basemap tiles.
type TileLayer struct {
	URL          string `json:"url"`
	MaxZoom      int    `json:"max_zoom"`
	DetectRetina bool   `json:"detect_retina"`
	Attribution  string `json:"attribution"`
}

// Marker is one plotted point with its popup markup.
type Marker struct {
	Position LatLng `json:"position"`
	Popup    string `json:"popup"`
}

// MapPlan lists the calls the map provider has to make.
type MapPlan struct {
	Zoom    int       `json:"zoom"`
	Tiles   TileLayer `json:"tiles"`
	Markers []Marker  `json:"markers"`
	// Bounds is nil when there is nothing to fit.
	Bounds *Bounds `json:"bounds,omitempty"`
}

// Artifact is what a renderer produces and the painter mounts.
type Artifact struct {
	Library Library  `json:"library"`
	Kind    Kind     `json:"kind"`
	Spec    Spec     `json:"spec,omitempty"`
	Markup  string   `json:"markup,omitempty"`
	Text    string   `json:"text,omitempty"`
	Map     *MapPlan `json:"map,omitempty"`
}

// Renderer turns a descriptor and its fetched result into an artifact.
type Renderer interface {
	Library() Library
	// Shape is the JSON response shape the renderer reads.
	Shape() Shape
	Assemble(desc Descriptor, rc RenderContext, result *QueryResult) (*Artifact, error)
}
