// Package memdoc is an in-memory page used when there is no browser: tests,
// the CLI and server-side previews.
package memdoc

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/xen0bit/dashchart/pkg/chart"
	"github.com/xen0bit/dashchart/pkg/mount"
)

// ErrDetached is returned when appending to a slot that was removed from its page.
var ErrDetached = errors.New("slot is detached")

// Page holds slots by slug. It is safe for concurrent use.
type Page struct {
	mu    sync.RWMutex
	slots map[string]*Slot
}

// NewPage returns a page with a slot for each slug.
func NewPage(slugs ...string) *Page {
	p := &Page{slots: make(map[string]*Slot)}
	for _, slug := range slugs {
		p.Add(slug)
	}
	return p
}

// Add creates the slot for slug, replacing any previous one.
func (p *Page) Add(slug string) *Slot {
	p.mu.Lock()
	defer p.mu.Unlock()
	if old, ok := p.slots[slug]; ok {
		old.detach()
	}
	s := &Slot{slug: slug}
	p.slots[slug] = s
	return s
}

// Remove tears down the slot for slug.
func (p *Page) Remove(slug string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.slots[slug]; ok {
		s.detach()
		delete(p.slots, slug)
	}
}

// Lookup implements mount.Page.
func (p *Page) Lookup(slug string) (mount.Slot, bool) {
	s, ok := p.Slot(slug)
	if !ok {
		return nil, false
	}
	return s, true
}

// Slot returns the concrete slot for slug.
func (p *Page) Slot(slug string) (*Slot, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.slots[slug]
	return s, ok
}

// Slugs returns the slugs of all slots, sorted.
func (p *Page) Slugs() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, 0, len(p.slots))
	for slug := range p.slots {
		out = append(out, slug)
	}
	sort.Strings(out)
	return out
}

// Slot is one chart container.
type Slot struct {
	slug string

	mu        sync.Mutex
	children  []*Element
	truncated bool
	err       error
	detached  bool
}

// Element is a fragment appended to a slot.
type Element struct {
	Slot   *Slot
	Markup string
}

func (s *Slot) Slug() string {
	return s.slug
}

func (s *Slot) AppendHTML(markup string) (mount.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.detached {
		return nil, ErrDetached
	}
	el := &Element{Slot: s, Markup: markup}
	s.children = append(s.children, el)
	return el, nil
}

func (s *Slot) ShowTruncationNotice() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.truncated = true
}

func (s *Slot) ShowError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// HTML returns the markup of every child in append order.
func (s *Slot) HTML() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var b strings.Builder
	for _, el := range s.children {
		b.WriteString(el.Markup)
	}
	return b.String()
}

// Children returns the number of appended elements.
func (s *Slot) Children() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.children)
}

// Truncated reports whether the truncation notice is visible.
func (s *Slot) Truncated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.truncated
}

// Err returns the error shown in the slot, if any.
func (s *Slot) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Slot) detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detached = true
}

// SpecRecorder is a mount.SpecEmbedder that keeps the last spec embedded per slug.
type SpecRecorder struct {
	mu    sync.Mutex
	specs map[string]chart.Spec
}

// NewSpecRecorder creates an empty recorder.
func NewSpecRecorder() *SpecRecorder {
	return &SpecRecorder{specs: make(map[string]chart.Spec)}
}

func (r *SpecRecorder) Embed(ctx context.Context, slot mount.Slot, spec chart.Spec) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.specs[slot.Slug()] = spec
	return nil
}

// Spec returns the spec embedded into slug.
func (r *SpecRecorder) Spec(slug string) (chart.Spec, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.specs[slug]
	return s, ok
}

// MapRecorder is a mount.MapProvider that records every call made on its maps.
type MapRecorder struct {
	mu   sync.Mutex
	maps map[string]*Map
}

// NewMapRecorder creates an empty recorder.
func NewMapRecorder() *MapRecorder {
	return &MapRecorder{maps: make(map[string]*Map)}
}

func (r *MapRecorder) NewMap(node mount.Node, zoom int) (mount.Map, error) {
	el, ok := node.(*Element)
	if !ok {
		return nil, errors.New("map node is not a memdoc element")
	}
	m := &Map{Zoom: zoom}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.maps[el.Slot.Slug()] = m
	return m, nil
}

// Map returns the map created in slug.
func (r *MapRecorder) Map(slug string) (*Map, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.maps[slug]
	return m, ok
}

// Map records the calls made by the painter.
type Map struct {
	Zoom    int
	Tiles   []chart.TileLayer
	Markers []chart.Marker
	Bounds  *chart.Bounds
}

func (m *Map) AddTileLayer(tiles chart.TileLayer) error {
	m.Tiles = append(m.Tiles, tiles)
	return nil
}

func (m *Map) AddMarker(marker chart.Marker) error {
	m.Markers = append(m.Markers, marker)
	return nil
}

func (m *Map) FitBounds(bounds chart.Bounds) error {
	m.Bounds = &bounds
	return nil
}
