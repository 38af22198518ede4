package tokensource

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zalando/go-keyring"
)

// ErrNoToken is returned by Read when the backend holds no key.
var ErrNoToken = errors.New("no API key stored")

// TokenStore persists the upstream API key.
type TokenStore interface {
	// Read returns the stored key or ErrNoToken.
	Read(ctx context.Context) (string, error)
	// Write stores the key. Writing an empty key removes it.
	Write(ctx context.Context, token string) error
}

// EnvStore reads the key from a process environment variable. It is
// read-only: the environment belongs to whoever launched the process.
type EnvStore struct {
	// Name of the environment variable.
	Name string
}

var _ TokenStore = (*EnvStore)(nil)

func (s *EnvStore) Read(ctx context.Context) (string, error) {
	token := strings.TrimSpace(os.Getenv(s.Name))
	if token == "" {
		return "", fmt.Errorf("environment variable %s: %w", s.Name, ErrNoToken)
	}
	return token, nil
}

func (s *EnvStore) Write(ctx context.Context, token string) error {
	return fmt.Errorf("environment variable storage is read-only, set %s instead", s.Name)
}

// FileStore keeps the key in a file readable only by the owner.
type FileStore struct {
	Path string
}

var _ TokenStore = (*FileStore)(nil)

func (s *FileStore) Read(ctx context.Context) (string, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%s: %w", s.Path, ErrNoToken)
		}
		return "", fmt.Errorf("reading key file: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("%s: %w", s.Path, ErrNoToken)
	}
	return token, nil
}

func (s *FileStore) Write(ctx context.Context, token string) error {
	if token == "" {
		if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("removing key file: %w", err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return fmt.Errorf("creating key directory: %w", err)
	}
	if err := os.WriteFile(s.Path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("writing key file: %w", err)
	}
	return nil
}

// KeyringStore keeps the key in the OS keyring.
type KeyringStore struct {
	Service string
	User    string
}

var _ TokenStore = (*KeyringStore)(nil)

func (s *KeyringStore) Read(ctx context.Context) (string, error) {
	token, err := keyring.Get(s.Service, s.User)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", fmt.Errorf("keyring %s/%s: %w", s.Service, s.User, ErrNoToken)
		}
		return "", fmt.Errorf("reading keyring: %w", err)
	}
	if token == "" {
		return "", fmt.Errorf("keyring %s/%s: %w", s.Service, s.User, ErrNoToken)
	}
	return token, nil
}

func (s *KeyringStore) Write(ctx context.Context, token string) error {
	if token == "" {
		if err := keyring.Delete(s.Service, s.User); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("removing keyring entry: %w", err)
		}
		return nil
	}
	if err := keyring.Set(s.Service, s.User, token); err != nil {
		return fmt.Errorf("writing keyring: %w", err)
	}
	return nil
}
