package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/wayfarer"
	"github.com/aretw0/wayfarer/internal/presentation/tui"
	"github.com/aretw0/wayfarer/pkg/runner"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Plan a trip interactively in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd.Context())
		defer stop()
		cmd.SetContext(ctx)

		a, err := assemble(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		sessionID, _ := cmd.Flags().GetString("session")
		if sessionID == "" {
			sessionID = wayfarer.NewSessionID()
		}

		opts := []runner.ChatOption{runner.WithLogger(a.Logger)}
		plain, _ := cmd.Flags().GetBool("plain")
		if !plain && tui.IsTerminal(os.Stdout) {
			tui.PrintBanner(os.Stdout)
			opts = append(opts, runner.WithRenderer(tui.NewRenderer()))
		}

		// A resumed session continues where it stopped; a new one is greeted.
		if _, err := a.Planner.Snapshot(ctx, sessionID); err != nil {
			opts = append(opts, runner.WithGreeting(a.Planner.Greeting()))
		}

		a.Logger.Debug("Chat started", "session_id", sessionID)
		err = runner.NewChat(a.Planner, sessionID, opts...).Run(ctx)
		if ctx.Err() != nil {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringP("session", "s", "", "Session to resume (requires a shared store such as redis)")
	chatCmd.Flags().Bool("plain", false, "Disable markdown rendering and the banner")
}
