// Command resend-mcp exposes Resend email tools over the Model Context Protocol.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/pixieDoug/resend-mcp-http-server/internal/app"
	"github.com/pixieDoug/resend-mcp-http-server/internal/config"
	"github.com/pixieDoug/resend-mcp-http-server/internal/mcp"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand(os.Stdin, os.Stdout, os.Stderr).ParseAndRun(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "resend-mcp: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand(stdin io.Reader, stdout io.Writer, stderr io.Writer) *ffcli.Command {
	rootFlags := flag.NewFlagSet("resend-mcp", flag.ContinueOnError)
	rootFlags.SetOutput(stderr)
	configPath := rootFlags.String("config", "", "path to a YAML config file")
	envFile := rootFlags.String("env-file", "", "path to a .env file (default: ./.env if present)")

	setup := func() (*app.App, error) {
		cfg, err := loadConfig(*configPath, *envFile)
		if err != nil {
			return nil, fmt.Errorf("config error: %w", err)
		}
		a, err := app.New(cfg, newLogger(cfg, stderr))
		if err != nil {
			return nil, fmt.Errorf("app init error: %w", err)
		}
		return a, nil
	}

	serve := &ffcli.Command{
		Name:       "serve",
		ShortUsage: "resend-mcp [flags] serve",
		ShortHelp:  "Serve MCP JSON-RPC over HTTP POST /mcp",
		Exec: func(ctx context.Context, _ []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			return a.Serve(ctx)
		},
	}

	stdio := &ffcli.Command{
		Name:       "stdio",
		ShortUsage: "resend-mcp [flags] stdio",
		ShortHelp:  "Serve MCP JSON-RPC over stdin/stdout",
		Exec: func(ctx context.Context, _ []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			a.Logger.Info("serving mcp on stdio")
			return mcp.RunStdio(ctx, a.MCP, stdin, stdout)
		},
	}

	return &ffcli.Command{
		Name:        "resend-mcp",
		ShortUsage:  "resend-mcp [flags] <serve|stdio>",
		FlagSet:     rootFlags,
		Options:     []ff.Option{ff.WithEnvVarPrefix("RESEND_MCP")},
		Subcommands: []*ffcli.Command{serve, stdio},
		Exec: func(context.Context, []string) error {
			return flag.ErrHelp
		},
	}
}

func loadConfig(configPath string, envFile string) (config.Config, error) {
	required := envFile != ""
	if envFile == "" {
		envFile = ".env"
	}
	if err := config.LoadEnvFile(envFile, required); err != nil {
		return config.Config{}, err
	}
	return config.Load(configPath)
}

// newLogger always writes to w (stderr in main) so stdout stays free for stdio JSON-RPC.
func newLogger(cfg config.Config, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(cfg.Log.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}
