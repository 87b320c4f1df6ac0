package jqfunc

import (
	"fmt"
	"html"

	"github.com/itchyny/gojq"

	"github.com/xen0bit/dashchart/pkg/dashboard"
	"github.com/xen0bit/dashchart/pkg/endpoint"
	"github.com/xen0bit/dashchart/pkg/render/common"
)

func stringInput(name string, v any) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case []byte:
		return string(val), nil
	default:
		if str, ok := val.(fmt.Stringer); ok {
			return str.String(), nil
		}
		return "", fmt.Errorf("%s: input must be a string, got %T", name, v)
	}
}

// RegisterEncodeComponent registers the encode_component function with gojq
func RegisterEncodeComponent() gojq.CompilerOption {
	return gojq.WithFunction("encode_component", 0, 0, func(v any, _ []any) any {
		s, err := stringInput("encode_component", v)
		if err != nil {
			return err
		}
		return endpoint.EncodeComponent(s)
	})
}

// RegisterHTMLEscape registers the html_escape function with gojq
func RegisterHTMLEscape() gojq.CompilerOption {
	return gojq.WithFunction("html_escape", 0, 0, func(v any, _ []any) any {
		s, err := stringInput("html_escape", v)
		if err != nil {
			return err
		}
		return html.EscapeString(s)
	})
}

// RegisterFormatValue registers the format_value function with gojq
func RegisterFormatValue() gojq.CompilerOption {
	return gojq.WithFunction("format_value", 0, 0, func(v any, _ []any) any {
		return common.FormatValue(v)
	})
}

// RegisterFillQuery registers the fill_query function with gojq
func RegisterFillQuery() gojq.CompilerOption {
	return gojq.WithFunction("fill_query", 1, 1, func(v any, args []any) any {
		query, err := stringInput("fill_query", v)
		if err != nil {
			return err
		}
		values, ok := args[0].(map[string]any)
		if !ok {
			return fmt.Errorf("fill_query: parameters must be an object, got %T", args[0])
		}
		params := make(map[string]string, len(values))
		for k, val := range values {
			params[k] = common.FormatValue(val)
		}
		return dashboard.FillQueryOptions(query, params)
	})
}

// RegisterQueryVars registers the query_vars function with gojq
func RegisterQueryVars() gojq.CompilerOption {
	return gojq.WithFunction("query_vars", 0, 0, func(v any, _ []any) any {
		query, err := stringInput("query_vars", v)
		if err != nil {
			return err
		}
		names := dashboard.QueryVariables(query)
		out := make([]any, len(names))
		for i, n := range names {
			out[i] = n
		}
		return out
	})
}
