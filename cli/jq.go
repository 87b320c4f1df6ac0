package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/itchyny/gojq"
	"github.com/mattn/go-isatty"

	"github.com/xen0bit/dashchart/pkg/jqfunc"
)

// compileJQ parses and compiles a jq filter for the render output, with the
// dashboard helpers available.
func compileJQ(expr string) (*gojq.Code, error) {
	query, err := gojq.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse jq filter: %w", err)
	}
	code, err := gojq.Compile(query, jqfunc.DefaultRegistry().Options()...)
	if err != nil {
		return nil, fmt.Errorf("failed to compile jq filter: %w", err)
	}
	return code, nil
}

// toJQValue converts v to the plain maps, slices and float64 values gojq works on.
func toJQValue(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// runJQ writes every value code emits for v, one JSON document each.
func runJQ(ctx context.Context, code *gojq.Code, v any, w io.Writer, indent bool) error {
	input, err := toJQValue(v)
	if err != nil {
		return fmt.Errorf("failed to prepare jq input: %w", err)
	}

	iter := code.RunWithContext(ctx, input)
	for {
		out, ok := iter.Next()
		if !ok {
			return nil
		}
		if err, ok := out.(error); ok {
			if err, ok := err.(*gojq.HaltError); ok && err.Value() == nil {
				return nil
			}
			return err
		}
		if err := writeJSON(w, out, indent); err != nil {
			return err
		}
	}
}

func writeJSON(w io.Writer, v any, indent bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
