package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xen0bit/dashchart/pkg/graph"
)

func (c *cli) newGraphCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "graph <dashboard>",
		Short: "Draw how a dashboard's filters, charts and databases connect",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := c.loadDashboard(args[0])
			if err != nil {
				return err
			}
			if output == "" {
				script, err := graph.Script(cmd.Context(), d)
				if err != nil {
					return err
				}
				fmt.Fprint(c.outStream, script)
				return nil
			}
			if err := graph.Write(cmd.Context(), d, output); err != nil {
				return err
			}
			c.logger.Info("graph written", "dashboard", d.Slug, "path", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a .d2 or .svg file instead of printing the D2 source")
	return cmd
}
