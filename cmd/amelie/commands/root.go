package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/florianilch/amelie-proxy/internal/app"
	"github.com/florianilch/amelie-proxy/internal/observability"
)

// Execute runs the root command with the given context and arguments.
func Execute(ctx context.Context, args []string, version, commit string) error {
	// A .env file is optional; absence is not an error.
	_ = godotenv.Load()

	cmd := &cli.Command{
		Name:    "amelie",
		Usage:   "Anthropic Messages facade for OpenAI-compatible APIs",
		Version: fmt.Sprintf("%s (commit %s)", version, commit),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to a TOML config file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug|info|warn|error)",
				Value: slog.LevelInfo.String(),
			},
		},
		Commands: []*cli.Command{
			proxyStartCommand(),
			authCommand(),
		},
	}

	return cmd.Run(ctx, args)
}

func proxyStartCommand() *cli.Command {
	return &cli.Command{
		Name:  "start",
		Usage: "Starts the proxy",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log format (text|json|otlp-http|otlp-grpc|otlp-stdout)",
				Value: "text",
			},
			&cli.StringFlag{
				Name:  "listen",
				Usage: "host:port to bind",
			},
			&cli.StringFlag{
				Name:  "upstream-base-url",
				Usage: "OpenAI-compatible API root",
			},
		},
		Action: proxyStartAction,
	}
}

func proxyStartAction(ctx context.Context, cmd *cli.Command) error {
	var level slog.Level
	err := level.UnmarshalText([]byte(cmd.String("log-level")))
	if err != nil {
		return err
	}

	// Set up observability before creating app
	shutdownLogs, err := observability.Instrument(ctx, level, cmd.String("log-format"))
	if err != nil {
		return fmt.Errorf("failed to set up observability layer: %w", err)
	}
	defer func() {
		if err := shutdownLogs(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "failed to shut down log pipeline: %v\n", err)
		}
	}()

	cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create app: %w", err)
	}

	slog.InfoContext(ctx, "starting")

	if err := application.Start(ctx); err != nil {
		return fmt.Errorf("app failed to start: %w", err)
	}

	slog.InfoContext(ctx, "stopped gracefully")
	return nil
}
