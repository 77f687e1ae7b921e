package main

import (
	"fmt"

	"github.com/spf13/cobra"

	mcpAdapter "github.com/aretw0/wayfarer/pkg/adapters/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Expose the planner as an MCP server",
	Long: `Starts a Model Context Protocol server with the plan_trip, reset_trip,
trip_calendar and trip_graph tools. Logs go to stderr so stdio stays clean.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd.Context())
		defer stop()
		cmd.SetContext(ctx)

		a, err := assemble(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		srv := mcpAdapter.NewServer(a.Planner, mcpAdapter.WithLogger(a.Logger))

		transport, _ := cmd.Flags().GetString("transport")
		switch transport {
		case "stdio":
			return srv.ServeStdio()
		case "sse":
			addr, _ := cmd.Flags().GetString("addr")
			baseURL, _ := cmd.Flags().GetString("base-url")
			if baseURL == "" {
				baseURL = "http://localhost" + addr
			}
			return srv.ServeSSE(ctx, addr, baseURL)
		}
		return fmt.Errorf("unknown transport %q (want stdio or sse)", transport)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringP("transport", "t", "stdio", "stdio or sse")
	mcpCmd.Flags().String("addr", ":8081", "Listen address for the sse transport")
	mcpCmd.Flags().String("base-url", "", "Public base URL for the sse transport")
}
