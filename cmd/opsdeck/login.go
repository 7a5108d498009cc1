package main

import (
	"context"
	"fmt"

	"github.com/opsdeck/opsdeck/cmd/opsdeck/runtime"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and persist the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := runtime.BuildAuthManager(cfg)
		if err != nil {
			return err
		}

		identity, err := manager.SignIn(context.Background(), cfg.Auth.Scopes)
		if err != nil {
			return fmt.Errorf("sign-in failed: %w", err)
		}

		fmt.Printf("Signed in as %s.\n", identity.DisplayName)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
}
