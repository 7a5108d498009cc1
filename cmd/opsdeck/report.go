package main

import (
	"fmt"

	"github.com/opsdeck/opsdeck/cmd/opsdeck/runtime"

	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the daily report and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeWithRuntime(cmd, func(r *runtime.RuntimeComponents) error {
			fmt.Println(r.Reports.Render(r.Ctx))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
}
