package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshsymonds/labelfwd/internal/runtime"
)

func newAuthCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authorize labelfwd against a Gmail account and store the token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.load(cmd)
			if err != nil {
				return err
			}
			oauthCfg, err := runtime.OAuthConfig(cfg.Auth.CredentialsPath)
			if err != nil {
				return err
			}
			store, err := runtime.NewTokenStore(cfg.Auth.TokenStore, cfg.Auth.TokenPath, cfg.Auth.KeyringAccount)
			if err != nil {
				return err
			}
			tok, err := runtime.Authorize(cmd.Context(), oauthCfg, cmd.OutOrStdout())
			if err != nil {
				return fmt.Errorf("authorize: %w", err)
			}
			if err := store.Save(tok); err != nil {
				return fmt.Errorf("save token: %w", err)
			}
			logger.Info("token stored", "store", cfg.Auth.TokenStore)
			return nil
		},
	}
}
