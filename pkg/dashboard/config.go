// Package dashboard loads dashboard definitions and resolves filters into
// per-chart queries.
package dashboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/itchyny/go-yaml"

	"github.com/xen0bit/dashchart/pkg/chart"
)

// PluginName is the metadata plugin key dashboards may be nested under.
const PluginName = "datasette-dashboards"

// Filter is one dashboard filter.
type Filter struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Default any    `json:"default,omitempty"`
	Options []any  `json:"options,omitempty"`
	// Database and Query make a select filter load its options from the endpoint.
	Database string `json:"db,omitempty"`
	Query    string `json:"query,omitempty"`
	Min      any    `json:"min,omitempty"`
	Max      any    `json:"max,omitempty"`
	Step     any    `json:"step,omitempty"`
}

// DefaultValue returns the default as a string, empty when unset.
func (f *Filter) DefaultValue() string {
	if f.Default == nil {
		return ""
	}
	if s, ok := f.Default.(string); ok {
		return s
	}
	return fmt.Sprint(f.Default)
}

// Dynamic reports whether the filter options come from a query.
func (f *Filter) Dynamic() bool {
	return f.Type == "select" && (f.Database != "" || f.Query != "")
}

// Chart is one chart of a dashboard.
type Chart struct {
	Slug    string        `json:"alias"`
	Title   string        `json:"title,omitempty"`
	Library chart.Library `json:"library"`
	// Database is empty for charts that need no data, such as markdown notes.
	Database string `json:"db,omitempty"`
	Query    string `json:"query,omitempty"`
	// Display is usually an object. Markdown notes carry a string.
	Display any `json:"display,omitempty"`
	// Settings tunes markdown notes.
	Settings map[string]any `json:"settings,omitempty"`
}

// Descriptor returns the render descriptor of the chart. A non-object
// display is dropped.
func (c Chart) Descriptor() chart.Descriptor {
	display, _ := c.Display.(map[string]any)
	return chart.Descriptor{
		Library:  c.Library,
		Database: c.Database,
		Query:    c.Query,
		Title:    c.Title,
		Display:  display,
	}
}

// Charts keeps dashboard charts in display order. It decodes from a list of
// charts carrying an alias, or from an object keyed by slug, in document order.
type Charts []Chart

func (cs *Charts) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*cs = nil
		return nil
	}

	switch data[0] {
	case '[':
		var list []Chart
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		for i := range list {
			if list[i].Slug == "" {
				return fmt.Errorf("chart %d has no alias", i)
			}
		}
		*cs = list
		return nil
	case '{':
		dec := json.NewDecoder(bytes.NewReader(data))
		if _, err := dec.Token(); err != nil {
			return err
		}
		out := Charts{}
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return err
			}
			slug, ok := tok.(string)
			if !ok {
				return fmt.Errorf("unexpected chart key %v", tok)
			}
			var c Chart
			if err := dec.Decode(&c); err != nil {
				return fmt.Errorf("chart %q: %w", slug, err)
			}
			c.Slug = slug
			out = append(out, c)
		}
		*cs = out
		return nil
	default:
		return errors.New("charts must be a list or an object")
	}
}

// Dashboard is one dashboard definition.
type Dashboard struct {
	Slug        string             `json:"slug"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	Settings    map[string]any     `json:"settings,omitempty"`
	Layout      [][]string         `json:"layout,omitempty"`
	Filters     map[string]*Filter `json:"filters,omitempty"`
	Charts      Charts             `json:"charts"`
}

// Chart returns the chart with slug.
func (d *Dashboard) Chart(slug string) (Chart, bool) {
	for _, c := range d.Charts {
		if c.Slug == slug {
			return c, true
		}
	}
	return Chart{}, false
}

// Databases lists the distinct databases used by charts, sorted.
func (d *Dashboard) Databases() []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range d.Charts {
		if c.Database != "" && !seen[c.Database] {
			seen[c.Database] = true
			out = append(out, c.Database)
		}
	}
	sort.Strings(out)
	return out
}

// FilterNames returns the filter names, sorted.
func (d *Dashboard) FilterNames() []string {
	out := make([]string, 0, len(d.Filters))
	for name := range d.Filters {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Clone copies the dashboard so that filters and chart queries can be
// filled in without touching the loaded configuration.
func (d *Dashboard) Clone() *Dashboard {
	out := *d
	out.Charts = append(Charts(nil), d.Charts...)
	if d.Filters != nil {
		out.Filters = make(map[string]*Filter, len(d.Filters))
		for k, f := range d.Filters {
			fc := *f
			fc.Options = append([]any(nil), f.Options...)
			out.Filters[k] = &fc
		}
	}
	return &out
}

// Config is a set of dashboards by slug.
type Config struct {
	Dashboards map[string]*Dashboard
}

// Load reads a YAML or JSON configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dashboard config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes dashboards from YAML or JSON. The document is either a map of
// dashboards by slug or instance metadata holding them under
// plugins.datasette-dashboards.
func Parse(data []byte) (*Config, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid dashboard config: %w", err)
	}
	root := resolveAlias(&doc)
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = resolveAlias(root.Content[0])
	}
	if root.Kind == 0 || root.Kind == yaml.DocumentNode || isNull(root) {
		return &Config{Dashboards: map[string]*Dashboard{}}, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("invalid dashboard config: expected a mapping, got %s", root.ShortTag())
	}
	if plugins := lookup(root, "plugins"); plugins != nil && plugins.Kind == yaml.MappingNode {
		root = lookup(plugins, PluginName)
		if root == nil || root.Kind != yaml.MappingNode {
			return &Config{Dashboards: map[string]*Dashboard{}}, nil
		}
	}

	// round trip through JSON so the struct tags drive decoding
	var raw bytes.Buffer
	if err := orderedJSON(&raw, root); err != nil {
		return nil, fmt.Errorf("invalid dashboard config: %w", err)
	}
	var dashboards map[string]*Dashboard
	if err := json.Unmarshal(raw.Bytes(), &dashboards); err != nil {
		return nil, fmt.Errorf("invalid dashboard config: %w", err)
	}
	if dashboards == nil {
		dashboards = map[string]*Dashboard{}
	}

	for slug, d := range dashboards {
		if d == nil {
			return nil, fmt.Errorf("dashboard %q is empty", slug)
		}
		d.Slug = slug
		for name, f := range d.Filters {
			if f == nil {
				return nil, fmt.Errorf("dashboard %q: filter %q is empty", slug, name)
			}
			if f.Name == "" {
				f.Name = name
			}
		}
	}
	return &Config{Dashboards: dashboards}, nil
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null"
}

// lookup returns the value stored under key in mapping node m.
func lookup(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if resolveAlias(m.Content[i]).Value == key {
			return resolveAlias(m.Content[i+1])
		}
	}
	return nil
}

// mappingPairs lists the key and value nodes of a mapping in document order,
// with << merge keys expanded in place.
func mappingPairs(m *yaml.Node) [][2]*yaml.Node {
	var out [][2]*yaml.Node
	for i := 0; i+1 < len(m.Content); i += 2 {
		k, v := resolveAlias(m.Content[i]), resolveAlias(m.Content[i+1])
		if k.ShortTag() != "!!merge" {
			out = append(out, [2]*yaml.Node{k, v})
			continue
		}
		merged := []*yaml.Node{v}
		if v.Kind == yaml.SequenceNode {
			merged = v.Content
		}
		for _, mm := range merged {
			if mm = resolveAlias(mm); mm.Kind == yaml.MappingNode {
				out = append(out, mappingPairs(mm)...)
			}
		}
	}
	return out
}

// orderedJSON writes the YAML node n as JSON with mapping keys in document
// order, so that charts keep the order they were declared in.
func orderedJSON(buf *bytes.Buffer, n *yaml.Node) error {
	n = resolveAlias(n)
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			buf.WriteString("null")
			return nil
		}
		return orderedJSON(buf, n.Content[0])
	case yaml.MappingNode:
		buf.WriteByte('{')
		for i, pair := range mappingPairs(n) {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(pair[0].Value)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := orderedJSON(buf, pair[1]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case yaml.SequenceNode:
		buf.WriteByte('[')
		for i, item := range n.Content {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := orderedJSON(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return fmt.Errorf("line %d: %w", n.Line, err)
		}
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("line %d: %w", n.Line, err)
		}
		buf.Write(b)
	default:
		return fmt.Errorf("line %d: unexpected yaml node", n.Line)
	}
	return nil
}

// Slugs returns the dashboard slugs, sorted.
func (c *Config) Slugs() []string {
	out := make([]string, 0, len(c.Dashboards))
	for slug := range c.Dashboards {
		out = append(out, slug)
	}
	sort.Strings(out)
	return out
}

// Dashboard returns the dashboard with slug.
func (c *Config) Dashboard(slug string) (*Dashboard, bool) {
	d, ok := c.Dashboards[slug]
	return d, ok
}
