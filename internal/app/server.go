package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/winref/internal/api"
	"github.com/sha1n/winref/internal/config"
)

const shutdownTimeout = 10 * time.Second

// NewMCPHandler exposes s over the SSE transport.
func NewMCPHandler(s *mcp.Server) http.Handler {
	// Factory function returns the server instance for each request
	return mcp.NewSSEHandler(func(r *http.Request) *mcp.Server {
		return s
	}, nil)
}

// NewHTTPServer creates the HTTP server of the lookup service. mcpHandler is
// optional.
func NewHTTPServer(settings *config.Settings, lookup api.Lookup, stats api.Stats, mcpHandler http.Handler, logger *slog.Logger) *http.Server {
	router := api.NewRouter(api.Deps{
		Lookup: lookup,
		Stats:  stats,
		MCP:    mcpHandler,
		Logger: logger,
	})

	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", settings.Host, settings.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// ServeHTTP runs srv until ctx is done, then shuts it down gracefully.
func ServeHTTP(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening (HTTP)", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		<-errCh
		return nil
	}
}
