/*
Package observability turns the planner's lifecycle events into structured
logs and Prometheus metrics.

Hooks are plain domain.LifecycleHooks values, so several of them can be
combined with Chain and handed to the planner in one option.
*/
package observability
