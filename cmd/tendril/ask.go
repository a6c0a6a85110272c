package main

import (
	"strings"

	"github.com/aretw0/tendril/internal/cli"
	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <request>",
	Short: "Process a single request and print the trace and final response",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.RunAsk(cmd.Context(), options(cmd), strings.Join(args, " "))
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().Bool("json", false, "Print the result as a JSON event")
}
