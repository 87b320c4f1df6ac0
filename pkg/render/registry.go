// Package render maps chart libraries to renderers and drives a render from
// fetch to paint.
package render

import (
	"fmt"
	"sort"
	"sync"

	"github.com/xen0bit/dashchart/pkg/chart"
	"github.com/xen0bit/dashchart/pkg/render/geomap"
	"github.com/xen0bit/dashchart/pkg/render/metric"
	"github.com/xen0bit/dashchart/pkg/render/table"
	"github.com/xen0bit/dashchart/pkg/render/vega"
	"github.com/xen0bit/dashchart/pkg/render/vegalite"
)

// Registry holds one renderer per library. It is read-only once built.
type Registry struct {
	renderers map[chart.Library]chart.Renderer
}

// NewRegistry builds a registry from renderers. Two renderers for the same
// library is an error.
func NewRegistry(renderers ...chart.Renderer) (*Registry, error) {
	r := &Registry{renderers: make(map[chart.Library]chart.Renderer, len(renderers))}
	for _, rr := range renderers {
		lib := rr.Library()
		if _, dup := r.renderers[lib]; dup {
			return nil, fmt.Errorf("renderer for library %q registered twice", lib)
		}
		r.renderers[lib] = rr
	}
	return r, nil
}

// Lookup returns the renderer for lib.
func (r *Registry) Lookup(lib chart.Library) (chart.Renderer, bool) {
	rr, ok := r.renderers[lib]
	return rr, ok
}

// Libraries returns the registered libraries, sorted.
func (r *Registry) Libraries() []chart.Library {
	out := make([]chart.Library, 0, len(r.renderers))
	for lib := range r.renderers {
		out = append(out, lib)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// DefaultRegistry returns the registry with all built-in renderers.
func DefaultRegistry() *Registry {
	defaultOnce.Do(func() {
		reg, err := NewRegistry(
			vega.New(),
			vegalite.New(),
			metric.New(),
			table.New(),
			geomap.New(),
		)
		if err != nil {
			panic(err)
		}
		defaultRegistry = reg
	})
	return defaultRegistry
}
