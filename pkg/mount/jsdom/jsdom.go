//go:build js && wasm

// Package jsdom mounts charts into the browser document through syscall/js.
// Spec charts go through the vegaEmbed global and maps through Leaflet's L.
package jsdom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"syscall/js"

	"github.com/xen0bit/dashchart/pkg/chart"
	"github.com/xen0bit/dashchart/pkg/mount"
)

// ContainerID returns the element id of the container for slug.
func ContainerID(slug string) string {
	return "chart-" + slug
}

// NoticeID returns the element id of the truncation notice for slug.
func NoticeID(slug string) string {
	return "chart-tooltip-" + slug
}

func present(v js.Value) bool {
	return !v.IsNull() && !v.IsUndefined()
}

// Document is the browser page.
type Document struct {
	doc js.Value
}

// NewDocument wraps the global document.
func NewDocument() *Document {
	return &Document{doc: js.Global().Get("document")}
}

func (d *Document) Lookup(slug string) (mount.Slot, bool) {
	el := d.doc.Call("getElementById", ContainerID(slug))
	if !present(el) {
		return nil, false
	}
	return &Slot{doc: d.doc, slug: slug, el: el}, true
}

// Slot is a chart container element.
type Slot struct {
	doc  js.Value
	slug string
	el   js.Value
}

func (s *Slot) Slug() string {
	return s.slug
}

func (s *Slot) AppendHTML(markup string) (mount.Node, error) {
	tmpl := s.doc.Call("createElement", "template")
	tmpl.Set("innerHTML", markup)
	child := tmpl.Get("content").Get("firstElementChild")
	if !present(child) {
		return nil, errors.New("markup has no element")
	}
	s.el.Call("appendChild", child)
	return child, nil
}

func (s *Slot) ShowTruncationNotice() {
	tip := s.doc.Call("getElementById", NoticeID(s.slug))
	if present(tip) {
		tip.Get("style").Set("visibility", "visible")
	}
}

func (s *Slot) ShowError(err error) {
	p := s.doc.Call("createElement", "p")
	p.Set("className", "chart-error")
	p.Set("textContent", err.Error())
	s.el.Set("innerHTML", "")
	s.el.Call("appendChild", p)
}

// toJS converts a Go value to a plain JS object through its JSON form.
func toJS(v any) (js.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return js.Undefined(), err
	}
	return js.Global().Get("JSON").Call("parse", string(b)), nil
}

// VegaEmbed draws specs with the vegaEmbed global.
type VegaEmbed struct{}

// Embed calls vegaEmbed and waits for its promise to settle or ctx to end.
func (VegaEmbed) Embed(ctx context.Context, slot mount.Slot, spec chart.Spec) error {
	s, ok := slot.(*Slot)
	if !ok {
		return fmt.Errorf("slot %q is not a DOM slot", slot.Slug())
	}
	embed := js.Global().Get("vegaEmbed")
	if embed.Type() != js.TypeFunction {
		return errors.New("vegaEmbed is not loaded")
	}
	value, err := toJS(spec)
	if err != nil {
		return fmt.Errorf("failed to convert spec: %w", err)
	}

	done := make(chan error, 1)
	onOK := js.FuncOf(func(this js.Value, args []js.Value) any {
		done <- nil
		return nil
	})
	onErr := js.FuncOf(func(this js.Value, args []js.Value) any {
		msg := "vegaEmbed failed"
		if len(args) > 0 && present(args[0]) {
			msg = args[0].Call("toString").String()
		}
		done <- errors.New(msg)
		return nil
	})
	defer onOK.Release()
	defer onErr.Release()

	embed.Invoke(s.el, value).Call("then", onOK, onErr)

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Leaflet creates maps with the L global.
type Leaflet struct{}

func (Leaflet) NewMap(node mount.Node, zoom int) (mount.Map, error) {
	el, ok := node.(js.Value)
	if !ok {
		return nil, errors.New("map node is not a DOM element")
	}
	l := js.Global().Get("L")
	if !present(l) {
		return nil, errors.New("leaflet is not loaded")
	}
	m := l.Call("map", el, map[string]any{"zoom": zoom})
	return &leafletMap{l: l, m: m}, nil
}

type leafletMap struct {
	l js.Value
	m js.Value
}

func (lm *leafletMap) AddTileLayer(tiles chart.TileLayer) error {
	layer := lm.l.Call("tileLayer", tiles.URL, map[string]any{
		"maxZoom":      tiles.MaxZoom,
		"detectRetina": tiles.DetectRetina,
		"attribution":  tiles.Attribution,
	})
	lm.m.Call("addLayer", layer)
	return nil
}

func (lm *leafletMap) AddMarker(marker chart.Marker) error {
	mk := lm.l.Call("marker", []any{marker.Position.Lat, marker.Position.Lng})
	mk.Call("bindPopup", marker.Popup)
	lm.m.Call("addLayer", mk)
	return nil
}

func (lm *leafletMap) FitBounds(b chart.Bounds) error {
	lm.m.Call("fitBounds", []any{
		[]any{b.SouthWest.Lat, b.SouthWest.Lng},
		[]any{b.NorthEast.Lat, b.NorthEast.Lng},
	})
	return nil
}
