package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/pixieDoug/resend-mcp-http-server/internal/config"
	"github.com/pixieDoug/resend-mcp-http-server/internal/mcp"
	"github.com/pixieDoug/resend-mcp-http-server/internal/resend"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	Config config.Config
	MCP    *mcp.Server
	Logger *slog.Logger
}

func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client := resend.NewClient(cfg.Resend.APIKey, cfg.Resend.BaseURL, cfg.Resend.Timeout)
	return NewWithProvider(cfg, client, logger)
}

// NewWithProvider wires the app around an arbitrary provider, e.g. a fake in tests.
func NewWithProvider(cfg config.Config, provider mcp.Provider, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	srv, err := mcp.NewServer(cfg, provider, logger)
	if err != nil {
		return nil, err
	}
	return &App{Config: cfg, MCP: srv, Logger: logger}, nil
}

func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/mcp", a.MCP.HandleHTTP)
	return cors(a.Config.MCP.AllowOrigins, mux)
}

func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Config.HTTP.Addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.Logger.Error("http shutdown failed", "error", err)
		}
	}()

	a.Logger.Info("serving mcp", "addr", a.Config.HTTP.Addr, "endpoint", "/mcp")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
