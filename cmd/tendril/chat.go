package main

import (
	"github.com/aretw0/tendril/internal/cli"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive session",
	Long: `Reads one request per line and prints the execution trace and final response for each.
Ctrl+C cancels the running request; at the prompt it ends the session. Type /exit to quit.

With --json, input lines are JSON strings or {"request": "..."} objects and every output
line is a JSON event, for hosts driving tendril over pipes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.RunChat(cmd.Context(), options(cmd))
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().Bool("json", false, "Run in JSON mode (NDJSON input/output)")
}
