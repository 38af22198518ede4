package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/florianilch/amelie-proxy/internal/app"
)

// authCommand returns the 'auth' subcommand for managing upstream credentials.
func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage upstream API credentials",
		Commands: []*cli.Command{
			authLoginCommand(),
			authLogoutCommand(),
		},
	}
}

func authLoginCommand() *cli.Command {
	return &cli.Command{
		Name:   "login",
		Usage:  "Save the upstream API key to the configured storage",
		Action: authLoginAction,
	}
}

func authLogoutCommand() *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Clear the stored upstream API key",
		Action: authLogoutAction,
	}
}

func authLoginAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.Auth.Storage == app.TokenStorageTypeEnv {
		return fmt.Errorf("cannot login with env storage (read-only). Configure file or keyring storage")
	}

	store, err := cfg.Auth.NewTokenStore()
	if err != nil {
		return fmt.Errorf("failed to create token store: %w", err)
	}

	key, err := readSecureInput(ctx, "Enter upstream API key: ")
	if err != nil {
		return err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("API key cannot be empty")
	}

	if err := store.Write(ctx, key); err != nil {
		return fmt.Errorf("failed to write API key: %w", err)
	}

	fmt.Println()
	fmt.Println("=== Login Successful ===")
	fmt.Println("API key saved to configured storage")

	return nil
}

func authLogoutAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.Auth.Storage == app.TokenStorageTypeEnv {
		return fmt.Errorf("cannot logout with env storage (read-only). Configure file or keyring storage")
	}

	store, err := cfg.Auth.NewTokenStore()
	if err != nil {
		return fmt.Errorf("failed to create token store: %w", err)
	}

	// Clear the key via empty string write to maintain storage abstraction
	if err := store.Write(ctx, ""); err != nil {
		return fmt.Errorf("failed to clear API key: %w", err)
	}

	fmt.Println()
	fmt.Println("=== Logout Successful ===")
	fmt.Println("Credentials cleared from configured storage")

	return nil
}

// readSecureInput reads user input with hidden display and context cancellation support.
// Goroutine+select pattern required because term.ReadPassword has no native context support.
func readSecureInput(ctx context.Context, prompt string) (string, error) {
	fmt.Print(prompt)
	defer fmt.Println()

	type result struct {
		value string
		err   error
	}
	resultCh := make(chan result, 1)

	go func() {
		inputBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		resultCh <- result{value: string(inputBytes), err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-resultCh:
		if res.err != nil {
			return "", fmt.Errorf("failed to read input: %w", res.err)
		}
		return res.value, nil
	}
}
