package commands

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/urfave/cli/v3"

	"github.com/florianilch/amelie-proxy/internal/app"
)

// envPrefix namespaces configuration environment variables, e.g.
// AMELIE_UPSTREAM__BASE_URL maps to upstream.base_url.
const envPrefix = "AMELIE_"

// loadConfig merges configuration from built-in defaults, an optional TOML
// file, AMELIE_-prefixed environment variables and CLI flags, in that order
// with later sources winning.
func loadConfig(path string, cmd *cli.Command, environ func() []string) (app.Config, error) {
	k := koanf.New(".")

	defaults := app.Default()
	if err := k.Load(confmap.Provider(map[string]any{
		"listen":            defaults.Listen,
		"upstream.base_url": defaults.Upstream.BaseURL,
		"auth.storage":      string(defaults.Auth.Storage),
		"max_request_bytes": defaults.MaxRequestBytes,
	}, "."), nil); err != nil {
		return app.Config{}, fmt.Errorf("loading defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return app.Config{}, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:      envPrefix,
		EnvironFunc: environ,
		TransformFunc: func(key, value string) (string, any) {
			// AMELIE_UPSTREAM__BASE_URL -> upstream.base_url
			key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
			return strings.ReplaceAll(key, "__", "."), value
		},
	}), nil); err != nil {
		return app.Config{}, fmt.Errorf("loading environment: %w", err)
	}

	for flag, key := range map[string]string{
		"listen":            "listen",
		"upstream-base-url": "upstream.base_url",
	} {
		if value := cmd.String(flag); value != "" {
			if err := k.Set(key, value); err != nil {
				return app.Config{}, fmt.Errorf("applying flag %s: %w", flag, err)
			}
		}
	}

	var cfg app.Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return app.Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return app.Config{}, err
	}
	return cfg, nil
}
