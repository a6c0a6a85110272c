/*
Package domain contains the core types shared by the tendril transport client and orchestrator.

It is kept free of I/O so that adapters (CLI, HTTP, MCP) and tests can depend on it without
pulling in transport or storage code.

# Key Entities

  - ServerConfig: where the model endpoint lives and how to authenticate against it.
  - ConnectionState: the lifecycle of the single connection owned by a transport client.
  - TaskStep / StepPlan: the ordered sub-tasks the orchestrator derives from a user request.
  - TraceEntry: one line of the human-readable execution trace.
  - ProcessResult / ConnectionResult: the caller-facing result envelopes.
*/
package domain
