/*
Package session serializes orchestration runs and records their outcome.

A Manager holds one lock per agent key. Runs for the same key never overlap: inside one
process the local lock queues them, and with a DistributedLocker the same holds across
replicas sharing a key. Every finished run is saved to a RunStore as a RunRecord so the
service surfaces can return it by ID. Records are ephemeral and never used to resume work.
*/
package session
