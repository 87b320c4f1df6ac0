package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xen0bit/dashchart/pkg/chart"
	"github.com/xen0bit/dashchart/pkg/jqfunc"
	"github.com/xen0bit/dashchart/pkg/render"
)

func (c *cli) newRenderersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "renderers",
		Short: "List the chart renderers and their display options",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.printRendererList()
			return nil
		},
	}
}

var outputTitles = map[chart.Kind]string{
	chart.KindSpec:   "Grammar specs",
	chart.KindMarkup: "Markup",
	chart.KindMap:    "Maps",
}

func (c *cli) printRendererList() {
	metadata := render.Metadata()

	// Group by output kind
	groups := make(map[chart.Kind][]render.RendererMetadata)
	for _, meta := range metadata {
		groups[meta.Output] = append(groups[meta.Output], meta)
	}
	order := []chart.Kind{chart.KindSpec, chart.KindMarkup, chart.KindMap}

	fmt.Fprintf(c.outStream, "Available chart renderers\n\n")
	fmt.Fprintf(c.outStream, "Total: %d renderers\n\n", len(metadata))

	for _, kind := range order {
		metas, ok := groups[kind]
		if !ok {
			continue
		}
		sort.Slice(metas, func(i, j int) bool {
			return metas[i].Library < metas[j].Library
		})

		title := outputTitles[kind]
		fmt.Fprintf(c.outStream, "%s:\n", title)
		fmt.Fprintf(c.outStream, "%s\n", strings.Repeat("-", len(title)+1))

		for _, meta := range metas {
			fmt.Fprintf(c.outStream, "  %-12s %s\n", meta.Library, meta.Description)
			for _, key := range meta.Display {
				fmt.Fprintf(c.outStream, "    %-20s %s\n", key.Name, key.Description)
			}
			for _, example := range meta.Examples {
				fmt.Fprintf(c.outStream, "    Example: %s\n", example)
			}
		}
		fmt.Fprintf(c.outStream, "\n")
	}

	c.printJQFunctions()

	fmt.Fprintf(c.outStream, "Note: charts with any other library are skipped without error.\n")
}

func (c *cli) printJQFunctions() {
	fmt.Fprintf(c.outStream, "jq helpers (render --jq):\n")
	fmt.Fprintf(c.outStream, "%s\n", strings.Repeat("-", 25))
	for _, fn := range jqfunc.DefaultRegistry().Functions() {
		fmt.Fprintf(c.outStream, "  %-18s %s\n", fn.Name, fn.Description)
		fmt.Fprintf(c.outStream, "    Example: %s\n", fn.Example)
	}
	fmt.Fprintf(c.outStream, "\n")
}
