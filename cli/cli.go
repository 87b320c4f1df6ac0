// Package cli implements the dashchart command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

const name = "dashchart"

const (
	exitCodeOK = iota
	exitCodeErr
)

type cli struct {
	outStream io.Writer
	errStream io.Writer
	flags     *rootFlags
	logger    *slog.Logger
}

// Run executes the command line with os.Args and returns the exit code.
func Run() int {
	return run(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, outStream, errStream io.Writer) int {
	c := &cli{
		outStream: outStream,
		errStream: errStream,
		flags:     new(rootFlags),
	}

	cmd := c.newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(outStream)
	cmd.SetErr(errStream)

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(errStream, "%s: %s\n", name, err)
		return exitCodeErr
	}
	return exitCodeOK
}

func (c *cli) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           name,
		Short:         "Render dashboard charts from SQL query results",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.flags.load(cmd); err != nil {
				return err
			}
			logger, err := newLogger(c.errStream, c.flags.LogsFormat, c.flags.Debug)
			if err != nil {
				return err
			}
			c.logger = logger
			slog.SetDefault(logger)
			c.logger.Debug("configuration loaded", "config", c.flags.ConfigPath, "base_url", c.flags.BaseURL)
			return nil
		},
	}

	c.flags.register(root)

	root.AddCommand(
		c.newRenderersCmd(),
		c.newDashboardsCmd(),
		c.newURLCmd(),
		c.newRenderCmd(),
		c.newGraphCmd(),
		c.newServeCmd(),
	)
	return root
}

func newLogger(w io.Writer, format string, debug bool) (*slog.Logger, error) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		return nil, fmt.Errorf("invalid logs format: %s", format)
	}
	return slog.New(handler), nil
}
