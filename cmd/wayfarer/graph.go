package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/wayfarer"
	"github.com/aretw0/wayfarer/internal/presentation/graph"
	"github.com/aretw0/wayfarer/pkg/domain"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the planning graph",
	Long:  `Outputs the conversation graph as a Mermaid diagram (graph TD), JSON or YAML.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")

		p, err := wayfarer.New()
		if err != nil {
			return err
		}
		return writeGraph(cmd.OutOrStdout(), p.Graph(), format)
	},
}

func writeGraph(w io.Writer, g domain.GraphExport, format string) error {
	switch format {
	case "mermaid", "mmd":
		_, err := io.WriteString(w, graph.GenerateMermaid(g, nil))
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(g)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(g); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown format %q (want mermaid, json or yaml)", format)
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("format", "f", "mermaid", "mermaid, json or yaml")
}
