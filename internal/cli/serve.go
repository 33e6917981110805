package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/flowkit/flowkit/internal/server"
)

// serveCommand creates the serve command for running the layout API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		redisAddr string
		mongoURI  string
		noCache   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the layout HTTP API",
		Long: `Run the layout HTTP API.

The server exposes POST /api/v1/layout for computing layouts and
GET /api/v1/layouts/{id} for retrieving stored results. Without --mongo,
results are kept in memory and lost on restart. Without --redis, the
layout cache lives on disk under the user's cache directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr, redisAddr, mongoURI, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&redisAddr, "redis", "", "redis address for the layout cache")
	cmd.Flags().StringVar(&mongoURI, "mongo", "", "mongodb uri for persistent layout storage")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the layout cache")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr, redisAddr, mongoURI string, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache, redisAddr)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	store, err := newStore(ctx, mongoURI)
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = store.Close(shutdownCtx)
	}()

	srv := server.New(runner, store, c.Logger)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.Logger.Info("server listening", "addr", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		c.Logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func newStore(ctx context.Context, mongoURI string) (server.Store, error) {
	if mongoURI == "" {
		return server.NewMemoryStore(), nil
	}
	return server.NewMongoStore(ctx, mongoURI)
}
