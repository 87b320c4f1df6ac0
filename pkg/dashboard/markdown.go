package dashboard

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// LibraryMarkdown marks a chart that is a static note rather than a query.
// Notes are rendered on the server, not by a chart renderer.
const LibraryMarkdown = "markdown"

var markdownExtensions = map[string]goldmark.Extender{
	"tables":        extension.Table,
	"strikethrough": extension.Strikethrough,
	"linkify":       extension.Linkify,
	"tasklist":      extension.TaskList,
}

var defaultMarkdownExtensions = []string{"tables"}

// IsMarkdown reports whether the chart is a markdown note.
func (c Chart) IsMarkdown() bool {
	return string(c.Library) == LibraryMarkdown
}

// RenderMarkdown converts the note text to HTML. Raw HTML in the note is not
// passed through. settings.extensions picks the syntax extensions, tables by
// default. Heading attributes, written {#id .class key=value} or
// {: key=value}, are dropped unless settings.extra_attrs allows them per tag.
func (c Chart) RenderMarkdown() (string, error) {
	text, ok := c.Display.(string)
	if !ok {
		return "", fmt.Errorf("markdown chart %q: display must be a string", c.Slug)
	}

	names := defaultMarkdownExtensions
	if raw, ok := c.Settings["extensions"].([]any); ok {
		names = names[:0:0]
		for _, r := range raw {
			if s, ok := r.(string); ok {
				names = append(names, s)
			}
		}
	}

	var exts []goldmark.Extender
	for _, name := range names {
		if ext, ok := markdownExtensions[name]; ok {
			exts = append(exts, ext)
		}
	}

	md := goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(
			parser.WithAttribute(),
			parser.WithASTTransformers(util.Prioritized(&headingAttributes{allowed: extraAttrs(c.Settings)}, 100)),
		),
		goldmark.WithRendererOptions(
			renderer.WithNodeRenderers(util.Prioritized(headingRenderer{}, 100)),
		),
	)

	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("markdown chart %q: %w", c.Slug, err)
	}
	return buf.String(), nil
}

// extraAttrs reads settings.extra_attrs, a tag to attribute name (or list of
// names) mapping.
func extraAttrs(settings map[string]any) map[string]map[string]bool {
	raw, ok := settings["extra_attrs"].(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]map[string]bool, len(raw))
	for tag, v := range raw {
		names := make(map[string]bool)
		switch val := v.(type) {
		case string:
			names[val] = true
		case []any:
			for _, n := range val {
				if s, ok := n.(string); ok {
					names[s] = true
				}
			}
		}
		out[tag] = names
	}
	return out
}

// headingAttributes picks up a trailing {: ...} attribute list, which the
// goldmark parser leaves in the heading text, then strips every attribute the
// tag is not allowed to carry.
type headingAttributes struct {
	allowed map[string]map[string]bool
}

func (t *headingAttributes) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		h, ok := n.(*ast.Heading)
		if !ok || !entering {
			return ast.WalkContinue, nil
		}
		colonAttributes(h, source)
		t.filter(h, fmt.Sprintf("h%d", h.Level))
		return ast.WalkSkipChildren, nil
	})
}

func colonAttributes(h *ast.Heading, source []byte) {
	last, ok := h.LastChild().(*ast.Text)
	if !ok {
		return
	}
	value := last.Segment.Value(source)
	i := bytes.LastIndex(value, []byte("{:"))
	if i < 0 {
		return
	}

	list := append([]byte("{"), value[i+2:]...)
	r := text.NewReader(list)
	attrs, ok := parser.ParseAttributes(r)
	if !ok {
		return
	}
	if rest, _ := r.PeekLine(); !util.IsBlank(rest) {
		return
	}
	for _, attr := range attrs {
		h.SetAttribute(attr.Name, attr.Value)
	}

	last.Segment = last.Segment.WithStop(last.Segment.Start + i)
	last.Segment = last.Segment.TrimRightSpace(source)
	if last.Segment.IsEmpty() {
		h.RemoveChild(h, last)
	}
}

func (t *headingAttributes) filter(n ast.Node, tag string) {
	attrs := n.Attributes()
	if len(attrs) == 0 {
		return
	}
	n.RemoveAttributes()
	for _, attr := range attrs {
		if t.allowed[tag][string(attr.Name)] {
			n.SetAttribute(attr.Name, attr.Value)
		}
	}
}

// headingRenderer writes every attribute left on a heading. The stock
// renderer only knows the global HTML attributes and would drop names such
// as name.
type headingRenderer struct{}

func (r headingRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindHeading, r.renderHeading)
}

func (r headingRenderer) renderHeading(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*ast.Heading)
	if entering {
		fmt.Fprintf(w, "<h%d", n.Level)
		html.RenderAttributes(w, n, nil)
		_ = w.WriteByte('>')
	} else {
		fmt.Fprintf(w, "</h%d>\n", n.Level)
	}
	return ast.WalkContinue, nil
}
