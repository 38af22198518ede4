package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"

	"github.com/florianilch/amelie-proxy/internal/tokensource"
)

// Keyring coordinates under which the upstream API key is stored.
const (
	KeyringService = "amelie-proxy"
	KeyringUser    = "upstream-api-key"
)

const defaultEnvVar = "OPENAI_API_KEY"

// TokenStorageType selects where the upstream API key lives.
type TokenStorageType string

const (
	TokenStorageTypeEnv     TokenStorageType = "env"
	TokenStorageTypeFile    TokenStorageType = "file"
	TokenStorageTypeKeyring TokenStorageType = "keyring"
)

// Config is the application configuration, merged from defaults, an optional
// config file, environment variables and CLI flags.
type Config struct {
	// Listen is the host:port the proxy binds to.
	Listen string `koanf:"listen" validate:"required,hostname_port"`

	Upstream UpstreamConfig `koanf:"upstream"`
	Auth     AuthConfig     `koanf:"auth"`

	// MaxRequestBytes caps incoming request bodies.
	MaxRequestBytes int64 `koanf:"max_request_bytes" validate:"min=1"`
}

// UpstreamConfig describes the OpenAI-compatible backend.
type UpstreamConfig struct {
	BaseURL string `koanf:"base_url" validate:"required,url"`
}

// AuthConfig describes where the upstream API key is stored.
type AuthConfig struct {
	Storage TokenStorageType `koanf:"storage" validate:"required,oneof=env file keyring"`

	// EnvVar names the variable for env storage. Empty means OPENAI_API_KEY.
	EnvVar string `koanf:"env_var"`

	// File is the key file path for file storage. Empty means a path under
	// the user config directory.
	File string `koanf:"file"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Listen: "127.0.0.1:4001",
		Upstream: UpstreamConfig{
			BaseURL: "https://api.openai.com/v1",
		},
		Auth: AuthConfig{
			Storage: TokenStorageTypeEnv,
		},
		MaxRequestBytes: 10 << 20,
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration for structural errors.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// NewTokenStore builds the TokenStore for the configured storage backend.
func (c AuthConfig) NewTokenStore() (tokensource.TokenStore, error) {
	switch c.Storage {
	case TokenStorageTypeEnv:
		name := c.EnvVar
		if name == "" {
			name = defaultEnvVar
		}
		return &tokensource.EnvStore{Name: name}, nil
	case TokenStorageTypeFile:
		path := c.File
		if path == "" {
			configDir, err := os.UserConfigDir()
			if err != nil {
				return nil, fmt.Errorf("resolving user config directory: %w", err)
			}
			path = filepath.Join(configDir, "amelie", "api-key")
		}
		return &tokensource.FileStore{Path: path}, nil
	case TokenStorageTypeKeyring:
		return &tokensource.KeyringStore{Service: KeyringService, User: KeyringUser}, nil
	default:
		return nil, fmt.Errorf("unknown token storage type %q", c.Storage)
	}
}
