package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/wayfarer/pkg/domain"
)

var calendarCmd = &cobra.Command{
	Use:   "calendar SESSION",
	Short: "Export a finished trip as an iCalendar file",
	Long: `Writes the itinerary of a stored session as iCalendar. Sessions live in
the configured store, so this is useful with redis.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		// Reading a stored plan needs neither gateway.
		cfg.LLM.Provider = "none"
		cfg.Search.Transport = "none"

		a, err := assembleFrom(cmd, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		ics, err := a.Planner.Calendar(cmd.Context(), args[0])
		switch {
		case errors.Is(err, domain.ErrSessionNotFound):
			return fmt.Errorf("session %s not found", args[0])
		case errors.Is(err, domain.ErrNoItinerary):
			return fmt.Errorf("session %s has no itinerary yet", args[0])
		case err != nil:
			return err
		}

		out, _ := cmd.Flags().GetString("output")
		if out == "" || out == "-" {
			_, err = fmt.Fprint(cmd.OutOrStdout(), ics)
			return err
		}
		return os.WriteFile(out, []byte(ics), 0o644)
	},
}

func init() {
	rootCmd.AddCommand(calendarCmd)
	calendarCmd.Flags().StringP("output", "o", "", "Destination file (default stdout)")
}
