/*
Package tendril relays free-text requests to a remote language model and returns a
multi-step execution trace.

An Agent owns one connection to a model server (the "MCP server"). The endpoint URL picks
the wire protocol: ws:// and wss:// use a persistent WebSocket with asynchronous,
ID-correlated replies; anything else uses plain HTTP calls. Every request goes through
four phases: the model analyzes the request, plans a list of steps, executes each step
with the results of the previous ones, and writes the final answer.

# Usage

	agent := tendril.New(tendril.WithLogger(logger))
	defer agent.Close()

	cfg := domain.ServerConfig{URL: "wss://models.example.com", APIKey: key, Model: "gpt-x"}
	if res := agent.Connect(ctx, cfg); !res.Success {
		log.Fatal(res.Error)
	}

	result := agent.ProcessRequest(ctx, "Summarize this paragraph: ...", cfg)
	for _, step := range result.Steps {
		fmt.Printf("%d. %s: %s\n", step.StepNumber, step.Title, step.Content)
	}
	fmt.Println(result.FinalResponse)

The same Agent backs the CLI (cmd/tendril), the HTTP API (pkg/adapters/http) and the MCP
tool server (pkg/adapters/mcp).
*/
package tendril
