// Package runtime executes the conversation graph.
//
// A Graph is a table of nodes and a table of edges fixed at construction.
// The Engine drives one step per user message: it runs the active node
// against a private copy of the session state, resolves the next node
// (explicit override first, then the edge table), and primes that node so
// the caller gets the next question or action text.
package runtime
