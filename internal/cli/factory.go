// Package cli parses the command line, builds the task store and dispatches
// to commands.
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"tasklist/internal/backend/googletasks"
	"tasklist/internal/backend/rest"
	"tasklist/internal/config"
	"tasklist/internal/service"
)

// DefaultServiceFactory builds the backend selected by cfg.Settings.Backend.
func DefaultServiceFactory(ctx context.Context, cfg *config.Config) (service.Service, error) {
	s := cfg.Settings
	switch s.Backend {
	case config.BackendGoogleTasks:
		if !cfg.HasOAuthClient() {
			return nil, fmt.Errorf("%s not found in %s", config.OAuthClientFile, cfg.Dir)
		}
		if !cfg.HasToken() {
			return nil, fmt.Errorf("%s not found in %s", config.TokenFile, cfg.Dir)
		}
		return googletasks.New(ctx, cfg.OAuthClientPath(), cfg.TokenPath(),
			googletasks.WithTimeout(s.API.Timeout),
			googletasks.WithLogger(slog.Default()))
	case config.BackendREST, "":
		return rest.New(s.API.URL,
			rest.WithTimeout(s.API.Timeout),
			rest.WithLogger(slog.Default()))
	default:
		return nil, fmt.Errorf("unknown backend: %s", s.Backend)
	}
}
