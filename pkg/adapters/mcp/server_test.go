package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/tendril"
	"github.com/aretw0/tendril/internal/testutils"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, opts ...Option) *client.Client {
	t.Helper()
	agent := tendril.New()
	t.Cleanup(func() { _ = agent.Close() })

	s := NewServer(agent, opts...)
	c, err := client.NewInProcessClient(s.MCPServer())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	ctx := context.Background()
	require.NoError(t, c.Start(ctx))
	_, err = c.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			ClientInfo:      mcp.Implementation{Name: "tendril-test", Version: "0.0.0"},
		},
	})
	require.NoError(t, err)
	return c
}

func callTool(t *testing.T, c *client.Client, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	res, err := c.CallTool(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	})
	require.NoError(t, err)
	return res
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	switch c := res.Content[0].(type) {
	case mcp.TextContent:
		return c.Text
	case *mcp.TextContent:
		return c.Text
	}
	t.Fatalf("unexpected content type %T", res.Content[0])
	return ""
}

func TestTools_Listed(t *testing.T) {
	c := newTestClient(t)

	res, err := c.ListTools(context.Background(), mcp.ListToolsRequest{})
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"connect_server", "process_request"}, names)
}

func TestConnectServer(t *testing.T) {
	srv := testutils.NewModelServer(t)
	c := newTestClient(t)

	res := callTool(t, c, "connect_server", map[string]any{"url": srv.URL})
	require.False(t, res.IsError, textOf(t, res))

	var out domain.ConnectionResult
	require.NoError(t, json.Unmarshal([]byte(textOf(t, res)), &out))
	assert.True(t, out.Success, out.Error)
}

func TestConnectServer_NoEndpoint(t *testing.T) {
	c := newTestClient(t)

	res := callTool(t, c, "connect_server", map[string]any{})

	assert.True(t, res.IsError)
	assert.Contains(t, textOf(t, res), "url is required")
}

func TestProcessRequest_UsesDefaultConfig(t *testing.T) {
	srv := testutils.NewModelServer(t, testutils.SummarizeScript()...)
	c := newTestClient(t, WithDefaultConfig(domain.ServerConfig{URL: srv.URL, Model: "m"}))

	res := callTool(t, c, "process_request", map[string]any{"request": "Summarize this paragraph"})
	require.False(t, res.IsError, textOf(t, res))

	var out ProcessResponse
	require.NoError(t, json.Unmarshal([]byte(textOf(t, res)), &out))
	assert.True(t, out.Success, out.Error)
	assert.Equal(t, "Summary: X", out.FinalResponse)
	assert.Len(t, out.Steps, 4)
	assert.NotEmpty(t, out.RunID)
	assert.Len(t, srv.Prompts(), 4)
}

func TestProcessRequest_FailureIsStructured(t *testing.T) {
	srv := testutils.NewModelServer(t)
	c := newTestClient(t)

	res := callTool(t, c, "process_request", map[string]any{"request": "hello", "url": srv.URL})
	require.False(t, res.IsError, textOf(t, res))

	var out ProcessResponse
	require.NoError(t, json.Unmarshal([]byte(textOf(t, res)), &out))
	assert.False(t, out.Success)
	assert.Contains(t, out.Error, "no scripted reply left")
	assert.Empty(t, out.Steps)
}

func TestLastRunResource(t *testing.T) {
	srv := testutils.NewModelServer(t, testutils.SummarizeScript()...)
	c := newTestClient(t, WithDefaultConfig(domain.ServerConfig{URL: srv.URL}))
	ctx := context.Background()

	_, err := c.ReadResource(ctx, mcp.ReadResourceRequest{Params: mcp.ReadResourceParams{URI: LastRunURI}})
	require.Error(t, err, "no run recorded yet")

	res := callTool(t, c, "process_request", map[string]any{"request": "Summarize this paragraph"})
	require.False(t, res.IsError, textOf(t, res))

	read, err := c.ReadResource(ctx, mcp.ReadResourceRequest{Params: mcp.ReadResourceParams{URI: LastRunURI}})
	require.NoError(t, err)
	require.Len(t, read.Contents, 1)

	var text string
	switch rc := read.Contents[0].(type) {
	case mcp.TextResourceContents:
		text = rc.Text
	case *mcp.TextResourceContents:
		text = rc.Text
	default:
		t.Fatalf("unexpected resource contents %T", rc)
	}

	var rec domain.RunRecord
	require.NoError(t, json.Unmarshal([]byte(text), &rec))
	assert.Equal(t, "Summarize this paragraph", rec.Request)
	assert.Equal(t, "Summary: X", rec.Result.FinalResponse)
}
