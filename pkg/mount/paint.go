package mount

import (
	"context"
	"fmt"

	"github.com/xen0bit/dashchart/pkg/chart"
)

// Painter mounts artifacts using the configured collaborators.
type Painter struct {
	specs SpecEmbedder
	maps  MapProvider
}

// NewPainter creates a painter. Either collaborator may be nil when the page
// never shows that kind of chart.
func NewPainter(specs SpecEmbedder, maps MapProvider) *Painter {
	return &Painter{specs: specs, maps: maps}
}

// Paint mounts art into slot.
func (p *Painter) Paint(ctx context.Context, slot Slot, art *chart.Artifact) error {
	switch art.Kind {
	case chart.KindSpec:
		if p.specs == nil {
			return ErrNoEmbedder
		}
		if err := p.specs.Embed(ctx, slot, art.Spec); err != nil {
			return fmt.Errorf("failed to embed %s spec: %w", art.Library, err)
		}
		return nil
	case chart.KindMarkup:
		if _, err := slot.AppendHTML(art.Markup); err != nil {
			return fmt.Errorf("failed to append %s markup: %w", art.Library, err)
		}
		return nil
	case chart.KindMap:
		return p.paintMap(slot, art)
	default:
		return fmt.Errorf("unknown artifact kind %q", art.Kind)
	}
}

func (p *Painter) paintMap(slot Slot, art *chart.Artifact) error {
	if p.maps == nil {
		return ErrNoMapProvider
	}
	if art.Map == nil {
		return fmt.Errorf("%s artifact has no map plan", art.Library)
	}

	node, err := slot.AppendHTML(art.Markup)
	if err != nil {
		return fmt.Errorf("failed to append map wrapper: %w", err)
	}
	m, err := p.maps.NewMap(node, art.Map.Zoom)
	if err != nil {
		return fmt.Errorf("failed to create map: %w", err)
	}
	if err := m.AddTileLayer(art.Map.Tiles); err != nil {
		return fmt.Errorf("failed to add tile layer: %w", err)
	}
	for _, marker := range art.Map.Markers {
		if err := m.AddMarker(marker); err != nil {
			return fmt.Errorf("failed to add marker: %w", err)
		}
	}
	if art.Map.Bounds != nil {
		if err := m.FitBounds(*art.Map.Bounds); err != nil {
			return fmt.Errorf("failed to fit bounds: %w", err)
		}
	}
	return nil
}
