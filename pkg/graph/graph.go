// Package graph draws the structure of a dashboard as a D2 diagram: the
// dashboard, its charts, the databases they query and the filters feeding them.
package graph

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"oss.terrastruct.com/d2/d2format"
	"oss.terrastruct.com/d2/d2graph"
	"oss.terrastruct.com/d2/d2layouts/d2dagrelayout"
	"oss.terrastruct.com/d2/d2lib"
	"oss.terrastruct.com/d2/d2oracle"
	"oss.terrastruct.com/d2/d2renderers/d2svg"
	"oss.terrastruct.com/d2/lib/textmeasure"

	"github.com/xen0bit/dashchart/pkg/dashboard"
)

// builder threads the graph through successive oracle edits.
type builder struct {
	graph     *d2graph.Graph
	boardPath []string
}

func (b *builder) node(id, shape, label string) error {
	var err error
	b.graph, _, err = d2oracle.Create(b.graph, b.boardPath, id)
	if err != nil {
		return fmt.Errorf("failed to create node %s: %w", id, err)
	}
	if err := b.set(id+".shape", shape); err != nil {
		return err
	}
	return b.set(id+".label", formatLabel(label))
}

func (b *builder) edge(from, to, label string) error {
	var (
		key string
		err error
	)
	b.graph, key, err = d2oracle.Create(b.graph, b.boardPath, fmt.Sprintf("%s -> %s", from, to))
	if err != nil {
		return fmt.Errorf("failed to create edge %s -> %s: %w", from, to, err)
	}
	if label == "" {
		return nil
	}
	return b.set(key+".label", formatLabel(label))
}

func (b *builder) set(key, value string) error {
	var err error
	b.graph, err = d2oracle.Set(b.graph, b.boardPath, key, nil, &value)
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Build returns the D2 graph of d.
func Build(ctx context.Context, d *dashboard.Dashboard) (*d2graph.Graph, error) {
	// start from an empty graph and edit it through the oracle
	_, graph, err := d2lib.Compile(ctx, "", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize graph: %w", err)
	}
	b := &builder{graph: graph, boardPath: []string{}}

	title := d.Title
	if title == "" {
		title = d.Slug
	}
	if err := b.node("dashboard", "page", title); err != nil {
		return nil, err
	}

	dbIDs := make(map[string]string)
	for i, db := range d.Databases() {
		id := fmt.Sprintf("db_%d", i)
		dbIDs[db] = id
		if err := b.node(id, "cylinder", db); err != nil {
			return nil, err
		}
	}

	filterIDs := make(map[string]string)
	for i, name := range d.FilterNames() {
		id := fmt.Sprintf("filter_%d", i)
		filterIDs[name] = id
		f := d.Filters[name]
		label := name
		if f.Type != "" {
			label = fmt.Sprintf("%s (%s)", name, f.Type)
		}
		if err := b.node(id, "diamond", label); err != nil {
			return nil, err
		}
		if f.Dynamic() && f.Database != "" {
			if dbID, ok := dbIDs[f.Database]; ok {
				if err := b.edge(dbID, id, "options"); err != nil {
					return nil, err
				}
			}
		}
	}

	for i, c := range d.Charts {
		id := fmt.Sprintf("chart_%d", i)
		shape := "rectangle"
		if c.IsMarkdown() {
			shape = "document"
		}
		if err := b.node(id, shape, chartLabel(c)); err != nil {
			return nil, err
		}
		if err := b.edge("dashboard", id, ""); err != nil {
			return nil, err
		}
		if dbID, ok := dbIDs[c.Database]; ok {
			if err := b.edge(id, dbID, "sql"); err != nil {
				return nil, err
			}
		}
		for _, v := range dashboard.QueryVariables(c.Query) {
			if fID, ok := filterIDs[v]; ok {
				if err := b.edge(fID, id, v); err != nil {
					return nil, err
				}
			}
		}
	}

	return b.graph, nil
}

// Script returns the D2 source of d.
func Script(ctx context.Context, d *dashboard.Dashboard) (string, error) {
	graph, err := Build(ctx, d)
	if err != nil {
		return "", err
	}
	return d2format.Format(graph.AST), nil
}

// RenderSVG lays out a D2 script with dagre and renders it.
func RenderSVG(ctx context.Context, script string) ([]byte, error) {
	ruler, err := textmeasure.NewRuler()
	if err != nil {
		return nil, fmt.Errorf("failed to create text ruler: %w", err)
	}

	layout := "dagre"
	compileOpts := &d2lib.CompileOptions{
		Layout: &layout,
		Ruler:  ruler,
		LayoutResolver: func(engine string) (d2graph.LayoutGraph, error) {
			if engine == "dagre" {
				return d2dagrelayout.DefaultLayout, nil
			}
			return nil, fmt.Errorf("unknown layout engine: %s", engine)
		},
	}
	diagram, _, err := d2lib.Compile(ctx, script, compileOpts, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to compile D2 diagram: %w", err)
	}

	pad := int64(d2svg.DEFAULT_PADDING)
	svg, err := d2svg.Render(diagram, &d2svg.RenderOpts{Pad: &pad})
	if err != nil {
		return nil, fmt.Errorf("failed to render D2 diagram to SVG: %w", err)
	}
	return svg, nil
}

// Write saves the diagram of d to outputPath as .d2 source or .svg.
func Write(ctx context.Context, d *dashboard.Dashboard, outputPath string) error {
	outputPath, err := filepath.Abs(outputPath)
	if err != nil {
		return fmt.Errorf("failed to resolve output path: %w", err)
	}

	script, err := Script(ctx, d)
	if err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(outputPath))
	switch ext {
	case ".d2":
		return os.WriteFile(outputPath, []byte(script), 0644)
	case ".svg":
		svg, err := RenderSVG(ctx, script)
		if err != nil {
			// keep the script around for debugging
			d2Path := strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + ".d2"
			os.WriteFile(d2Path, []byte(script), 0644)
			return fmt.Errorf("%w\nD2 script saved to: %s", err, d2Path)
		}
		return os.WriteFile(outputPath, svg, 0644)
	default:
		return fmt.Errorf("unsupported output format: %s (supported formats: .d2, .svg)", ext)
	}
}

func chartLabel(c dashboard.Chart) string {
	name := c.Title
	if name == "" {
		name = c.Slug
	}
	return fmt.Sprintf("%s (%s)", name, c.Library)
}

// formatLabel keeps labels out of D2 substitution and quoting syntax.
func formatLabel(label string) string {
	label = strings.ReplaceAll(label, "$", "_VAR_")
	label = strings.ReplaceAll(label, "\n", " ")
	return strings.Trim(label, "\"")
}
