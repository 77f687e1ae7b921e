/*
Package runner drives a planning session from a terminal.

It acts as the bridge between the Planner and a line-based user
interface: input is sanitized before it reaches the state machine, replies
are optionally rendered as markdown, and a reply announcing a search is
followed automatically with "continue" so the user sees the result without
typing it.

# Usage

	chat := runner.NewChat(planner, wayfarer.NewSessionID(),
		runner.WithGreeting(planner.Greeting()),
		runner.WithRenderer(tui.NewRenderer()),
	)

	if err := chat.Run(ctx); err != nil {
		log.Fatal(err)
	}
*/
package runner
