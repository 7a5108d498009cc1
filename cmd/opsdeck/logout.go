package main

import (
	"context"
	"fmt"

	"github.com/opsdeck/opsdeck/cmd/opsdeck/runtime"

	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and purge the cached session",
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := runtime.BuildAuthManager(cfg)
		if err != nil {
			return err
		}

		manager.SignOut(context.Background())
		fmt.Println("Signed out.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
