package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/joshsymonds/labelfwd/internal/config"
	"github.com/joshsymonds/labelfwd/internal/forward"
	"github.com/joshsymonds/labelfwd/internal/gmail"
	"github.com/joshsymonds/labelfwd/internal/runtime"
)

// version is set via ldflags at build time.
var version = "dev"

// newClient builds the Gmail client; tests swap it for a fake.
var newClient = func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (gmail.Client, error) {
	store, err := runtime.NewTokenStore(cfg.Auth.TokenStore, cfg.Auth.TokenPath, cfg.Auth.KeyringAccount)
	if err != nil {
		return nil, err
	}
	return runtime.NewGmailClient(ctx, cfg.Auth.CredentialsPath, store, logger)
}

type globalOptions struct {
	configPath  string
	destination string
	label       string
	purpose     string
	logLevel    string
	logFormat   string
	credentials string
	tokenStore  string
	tokenPath   string
}

// NewRootCmd assembles the labelfwd command tree.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:           "labelfwd",
		Short:         "Forward unread Gmail messages under a label to a fixed address",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", config.DefaultPath(), "config file (TOML)")
	pf.StringVar(&opts.destination, "to", "", "destination address (overrides config)")
	pf.StringVar(&opts.label, "label", "", "Gmail label to forward from (overrides config)")
	pf.StringVar(&opts.purpose, "purpose", "", "routing annotation added to forwarded mail")
	pf.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")
	pf.StringVar(&opts.logFormat, "log-format", "", "text or json")
	pf.StringVar(&opts.credentials, "credentials", "", "Google OAuth client credentials.json")
	pf.StringVar(&opts.tokenStore, "token-store", "", "where the OAuth token lives: file or keyring")
	pf.StringVar(&opts.tokenPath, "token", "", "token file when --token-store=file")

	root.AddCommand(
		newForwardCmd(opts),
		newCheckCmd(opts),
		newAuthCmd(opts),
	)
	return root
}

// load reads configuration once and applies flag overrides on top of the
// file and environment.
func (o *globalOptions) load(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	override(&cfg.Forward.Destination, o.destination)
	override(&cfg.Forward.Label, o.label)
	override(&cfg.Forward.Purpose, o.purpose)
	override(&cfg.Log.Level, o.logLevel)
	override(&cfg.Log.Format, o.logFormat)
	override(&cfg.Auth.CredentialsPath, o.credentials)
	override(&cfg.Auth.TokenStore, o.tokenStore)
	override(&cfg.Auth.TokenPath, o.tokenPath)

	logger, err := runtime.NewLogger(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func targetFrom(cfg *config.Config) forward.Target {
	return forward.Target{
		Destination: cfg.Forward.Destination,
		Label:       cfg.Forward.Label,
		Purpose:     cfg.Forward.Purpose,
	}
}
