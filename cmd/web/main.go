//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"syscall/js"

	"github.com/xen0bit/dashchart/pkg/chart"
	"github.com/xen0bit/dashchart/pkg/mount"
	"github.com/xen0bit/dashchart/pkg/mount/jsdom"
	"github.com/xen0bit/dashchart/pkg/render"
)

var (
	dispatcher *render.Dispatcher
	scheduler  *render.Scheduler
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	painter := mount.NewPainter(jsdom.VegaEmbed{}, jsdom.Leaflet{})
	dispatcher = render.NewDispatcher(jsdom.NewDocument(), painter, render.WithLogger(logger))
	scheduler = render.NewScheduler()

	// Expose functions to JavaScript
	js.Global().Set("validateChart", js.FuncOf(validateChart))
	js.Global().Set("renderChart", js.FuncOf(renderChart))
	js.Global().Set("teardownChart", js.FuncOf(teardownChart))

	// Keep the program running
	select {}
}

// decodeDescriptor accepts a chart as a JSON string or a plain JS object.
func decodeDescriptor(v js.Value) (chart.Descriptor, error) {
	var desc chart.Descriptor
	raw := v.String()
	if v.Type() != js.TypeString {
		raw = js.Global().Get("JSON").Call("stringify", v).String()
	}
	if err := json.Unmarshal([]byte(raw), &desc); err != nil {
		return desc, fmt.Errorf("invalid chart: %w", err)
	}
	return desc, nil
}

func result(err error) map[string]any {
	if err != nil {
		return map[string]any{"ok": false, "err": err.Error()}
	}
	return map[string]any{"ok": true, "err": ""}
}

// validateChart checks that a chart decodes and has a renderer
// Returns: {ok: boolean, err: string}
func validateChart(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return result(fmt.Errorf("validateChart requires 1 argument: chart"))
	}
	desc, err := decodeDescriptor(args[0])
	if err != nil {
		return result(err)
	}
	if _, ok := render.DefaultRegistry().Lookup(desc.Library); !ok {
		return result(fmt.Errorf("no renderer for library %q", desc.Library))
	}
	return result(nil)
}

// renderChart(slug, chart, queryString, absoluteURL, fullHeight) draws a chart
// into #chart-<slug>. Rendering the same slug again replaces the pending render.
// Returns: Promise<{ok: boolean, err: string}>
func renderChart(this js.Value, args []js.Value) any {
	if len(args) < 4 {
		return result(fmt.Errorf("renderChart requires at least 4 arguments: slug, chart, query string, absolute url"))
	}
	desc, err := decodeDescriptor(args[1])
	if err != nil {
		return result(err)
	}
	rc := chart.RenderContext{
		Slug:        args[0].String(),
		QueryString: args[2].String(),
		BaseURL:     args[3].String(),
	}
	if len(args) > 4 && args[4].Type() == js.TypeBoolean {
		rc.FullHeight = args[4].Bool()
	}

	var executor js.Func
	executor = js.FuncOf(func(this js.Value, pargs []js.Value) any {
		resolve := pargs[0]
		scheduler.Go(context.Background(), rc.Slug, func(ctx context.Context) error {
			defer executor.Release()
			err := dispatcher.Render(ctx, desc, rc)
			resolve.Invoke(result(err))
			return err
		})
		return nil
	})
	return js.Global().Get("Promise").New(executor)
}

// teardownChart(slug) cancels the render in flight for slug.
// Returns: boolean, whether a render was running
func teardownChart(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return false
	}
	return scheduler.Cancel(args[0].String())
}
