package main

import (
	"github.com/aretw0/tendril/internal/cli"
	"github.com/spf13/cobra"
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Check that the endpoint accepts a connection",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.RunConnect(cmd.Context(), options(cmd))
	},
}

func init() {
	rootCmd.AddCommand(connectCmd)
	connectCmd.Flags().Bool("json", false, "Print the result as JSON")
}
