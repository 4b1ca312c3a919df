// internal/runtime/auth.go
package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	gc "github.com/joshsymonds/labelfwd/internal/gmail"
)

// Scopes are requested once during authorization. Modify covers reading and
// clearing the unread flag; send covers the forwarded copies.
var Scopes = []string{
	gmail.GmailModifyScope,
	gmail.GmailSendScope,
}

// OAuthConfig loads an installed-app client from a Google Cloud
// credentials.json file.
func OAuthConfig(credentialsPath string) (*oauth2.Config, error) {
	data, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	cfg, err := google.ConfigFromJSON(data, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	return cfg, nil
}

// NewGmailClient builds a gc.Client from stored credentials. Refreshed tokens
// are written back to the store.
func NewGmailClient(ctx context.Context, credentialsPath string, store TokenStore, logger *slog.Logger) (gc.Client, error) {
	cfg, err := OAuthConfig(credentialsPath)
	if err != nil {
		return nil, err
	}
	tok, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load token (run `labelfwd auth` first): %w", err)
	}
	ts := &persistingTokenSource{
		base:   cfg.TokenSource(ctx, tok),
		store:  store,
		last:   tok,
		logger: logger,
	}
	svc, err := gmail.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return NewGoogleAPIClient(svc), nil
}

// DefaultLogger returns the text logger used when no flags say otherwise.
func DefaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

// NewLogger builds a logger writing to w. format is "text" or "json".
func NewLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}
