// Package jqfunc provides the dashboard helpers available to jq filters.
package jqfunc

import (
	"sort"

	"github.com/itchyny/gojq"
)

// Function describes one helper for listings.
type Function struct {
	Name        string
	Description string
	Example     string
}

// Registry holds the helpers and their compiler options.
type Registry struct {
	functions []Function
	options   []gojq.CompilerOption
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a helper.
func (r *Registry) Register(fn Function, option gojq.CompilerOption) {
	r.functions = append(r.functions, fn)
	r.options = append(r.options, option)
}

// Options returns the compiler options of every registered helper.
func (r *Registry) Options() []gojq.CompilerOption {
	return r.options
}

// Functions returns the registered helpers sorted by name.
func (r *Registry) Functions() []Function {
	out := make([]Function, len(r.functions))
	copy(out, r.functions)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

// DefaultRegistry returns a registry with all built-in helpers.
func DefaultRegistry() *Registry {
	reg := NewRegistry()

	reg.Register(Function{
		Name:        "encode_component",
		Description: "Percent-encode a string as one query value",
		Example:     `.charts[0].title | encode_component`,
	}, RegisterEncodeComponent())
	reg.Register(Function{
		Name:        "html_escape",
		Description: "Escape <, >, &, ' and \" for HTML",
		Example:     `.charts[].artifact.text | html_escape`,
	}, RegisterHTMLEscape())
	reg.Register(Function{
		Name:        "format_value",
		Description: "Format a result value the way markup renderers print it",
		Example:     `.rows[0].n | format_value`,
	}, RegisterFormatValue())
	reg.Register(Function{
		Name:        "fill_query",
		Description: "Resolve the optional [[ ]] segments of a query with filter values",
		Example:     `"SELECT * FROM t [[WHERE a = :a]]" | fill_query({a: "1"})`,
	}, RegisterFillQuery())
	reg.Register(Function{
		Name:        "query_vars",
		Description: "List the :variables a query uses",
		Example:     `"SELECT :a, :b" | query_vars`,
	}, RegisterQueryVars())

	return reg
}
