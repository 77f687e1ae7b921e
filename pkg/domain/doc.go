/*
Package domain contains the core domain models for the wayfarer trip planner.

It defines the conversation state that flows through every node of the
planning graph, the search and allocation records produced along the way,
and the read-only graph export used by diagram renderers. This package is
kept pure and free of external dependencies like I/O or persistence,
following Hexagonal Architecture principles.

# Key Entities

  - State: the single record owned by the engine for one session.
  - SearchResult: an immutable hit returned by the search gateway.
  - BudgetAllocation: a five-way split of the total budget.
  - Plan: the structured output of the terminal node.
  - GraphExport: node ids and edges for visualization.
*/
package domain
