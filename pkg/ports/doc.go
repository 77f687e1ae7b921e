/*
Package ports defines the driven ports (interfaces) for the wayfarer planner.

These interfaces decouple the planning graph from external services, so the
same flow runs against real LLM and search providers, test doubles, or no
providers at all (every call site has a deterministic fallback).

# Key Interfaces

  - ReasoningGateway: free-text completion used for parsing, ranking and writing.
  - SearchGateway: category searches returning title/content/url hits.
  - SessionStore: holds the per-session State snapshots.
  - DistributedLocker: serializes a session across planner replicas.
*/
package ports
