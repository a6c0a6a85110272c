/*
Package transport implements the client side of the MCP server connection.

A Client owns exactly one logical connection to a configured endpoint. The endpoint scheme
selects the wire protocol:

  - ws:// and wss:// use a persistent WebSocket. Replies arrive asynchronously and are matched
    to their callers by request ID through an explicit correlator table.
  - anything else uses stateless HTTP calls (a /test probe and /v1/completions).

The Client never retries. Every call either succeeds or returns an error classified by the
sentinels in pkg/domain (ErrConnection, ErrNotConnected, ErrProtocol, ErrRemote, ErrTimeout).

# Usage

	client := transport.New(transport.WithLogger(logger))
	defer client.Close()

	if _, err := client.Connect(ctx, domain.ServerConfig{URL: "wss://models.example.com", APIKey: key}); err != nil {
		return err
	}
	text, err := client.SendPrompt(ctx, "Hello")
*/
package transport
