package main

import (
	"fmt"
	"os"

	"github.com/opsdeck/opsdeck/internal/config"
	"github.com/opsdeck/opsdeck/internal/logger"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "opsdeck",
	Short: "OpsDeck Operations Console",
	Long:  `OpsDeck is an interactive console for day-to-day cloud operations: live feeds, briefings, and a conversational assistant over the operations backend.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cmd)
		if err != nil {
			return err
		}

		logger.Setup(cfg.Console.LogLevel)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.opsdeck/config.yaml)")
	rootCmd.PersistentFlags().String("console.log_level", config.DefaultConsoleLogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("console.no_color", false, "disable colored output")
	rootCmd.PersistentFlags().String("backend.base_url", config.DefaultBackendBaseURL, "conversational backend base URL")
	rootCmd.PersistentFlags().String("backend.api_base_url", config.DefaultBackendAPIBaseURL, "dashboard/report API base URL")
}
