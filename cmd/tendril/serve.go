package main

import (
	"github.com/aretw0/tendril/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Exposes connect, process and run lookup over HTTP, with the OpenAPI document at
/openapi.yaml and Prometheus metrics at /metrics. Runs are kept in Redis when redis.addr
(or TENDRIL_REDIS_ADDR) is set, in memory otherwise.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.Serve(cmd.Context(), options(cmd))
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
