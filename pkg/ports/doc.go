/*
Package ports defines the driven ports (interfaces) of tendril.

These interfaces decouple the orchestrator and the service surfaces from concrete
implementations, so transports, run stores and lockers can be swapped in tests.

# Key Interfaces

  - PromptTransport: what the orchestrator needs from a transport client.
  - RunStore: keeps finished run records for lookup (memory or Redis).
  - DistributedLocker: serializes runs across replicas sharing one agent identity.
*/
package ports
