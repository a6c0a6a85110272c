/*
Package observability turns lifecycle hooks into metrics and log lines.

Metrics registers Prometheus collectors and exposes them as domain.LifecycleHooks, so the
transport client and the orchestrator report through the same callbacks they already
emit. LogHooks does the same for structured logs.
*/
package observability
