package main

import (
	"bytes"
	"testing"

	"github.com/aretw0/tendril"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() { rootCmd.SetArgs(nil); rootCmd.SetOut(nil) })

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "tendril version "+tendril.Version+"\n", out.String())
}

func TestOptions_ReadsFlags(t *testing.T) {
	require.NoError(t, askCmd.ParseFlags([]string{"--url", "ws://x", "--model", "m", "--json", "--debug"}))

	opts := options(askCmd)
	assert.Equal(t, "ws://x", opts.Server.URL)
	assert.Equal(t, "m", opts.Server.Model)
	assert.True(t, opts.JSON)
	assert.True(t, opts.Debug)
}

func TestCommandsRegistered(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"ask", "chat", "connect", "mcp", "serve", "version"})
}
