package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/xen0bit/dashchart/pkg/dashboard"
	"github.com/xen0bit/dashchart/pkg/endpoint"
)

const shutdownTimeout = 5 * time.Second

func (c *cli) newServeCmd() *cobra.Command {
	var dir, addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard API and, optionally, the page assets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = ":" + c.flags.port()
			}
			handler, err := c.newServeMux(cfg, dir)
			if err != nil {
				return err
			}
			return c.serve(cmd.Context(), addr, handler)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "directory of page assets (html, wasm bundle) served at /")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address. defaults to :$DASHCHART_PORT or :8080")
	return cmd
}

func (c *cli) newServeMux(cfg *dashboard.Config, dir string) (*http.ServeMux, error) {
	mux := http.NewServeMux()
	dashboard.NewHandler(mux, dashboard.HandlerDeps{
		Config:  cfg,
		Fetcher: endpoint.NewClient(endpoint.WithLogger(c.logger)),
		BaseURL: c.flags.BaseURL,
		Logger:  c.logger,
	})

	if dir != "" {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("asset directory: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("asset directory: %s is not a directory", dir)
		}
		mux.Handle("/", http.FileServer(http.Dir(dir)))
	}
	return mux, nil
}

func (c *cli) serve(ctx context.Context, addr string, handler http.Handler) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	fmt.Fprintf(c.outStream, "Serving dashboards on %s\n", addr)
	fmt.Fprintf(c.outStream, "Press Ctrl+C to stop\n")

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	c.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
