package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/tendril/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tendril",
	Short: "Tendril runs multi-step requests against a remote model endpoint",
	Long: `Tendril connects to a model server over a WebSocket or plain HTTP and answers each
request by analyzing it, planning steps, executing them and synthesizing a final response.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// The failed result was already shown.
		if !errors.Is(err, cli.ErrRequestFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Path to the config file (default ./tendril.yaml if present)")
	flags.Bool("debug", false, "Enable debug logging on stderr")
	flags.String("url", "", "Model endpoint (ws:// or wss:// for the socket transport)")
	flags.String("api-key", "", "Credential sent to the endpoint")
	flags.String("model", "", "Model identifier")
}

// options collects the persistent flags.
func options(cmd *cobra.Command) cli.Options {
	flags := cmd.Flags()
	var opts cli.Options
	opts.ConfigPath, _ = flags.GetString("config")
	opts.Debug, _ = flags.GetBool("debug")
	opts.Server.URL, _ = flags.GetString("url")
	opts.Server.APIKey, _ = flags.GetString("api-key")
	opts.Server.Model, _ = flags.GetString("model")
	if flags.Lookup("json") != nil {
		opts.JSON, _ = flags.GetBool("json")
	}
	return opts
}
