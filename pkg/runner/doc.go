/*
Package runner implements the interactive chat loop on top of an Agent.

The loop reads one request at a time through an IOHandler, runs it, and prints the step
trace and the final answer. Handlers decouple the interaction mode:

  - TextHandler: interactive terminal use, with optional markdown rendering.
  - JSONHandler: JSON-lines for headless hosts and scripts.

Ctrl+C while a request is running cancels that request; at the prompt it ends the loop.

# Usage

	r := runner.New(
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
		runner.WithLogger(logger),
	)
	if err := r.Run(ctx, agent, cfg); err != nil {
		log.Fatal(err)
	}
*/
package runner
