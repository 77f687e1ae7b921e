// Package graph renders the planning graph as a Mermaid flowchart.
package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/wayfarer/pkg/domain"
)

// Overlay highlights a session's position on the graph.
type Overlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// GenerateMermaid produces Mermaid flowchart syntax for g.
// Shapes follow the node kind:
//   - start and end sentinels: ((circle))
//   - questions: [/parallelogram/]
//   - actions: [[subroutine]]
//   - terminal: ([stadium])
func GenerateMermaid(g domain.GraphExport, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	fmt.Fprintf(&sb, "    %s((\"start\"))\n", sanitizeMermaidID(domain.NodeStart))
	for _, node := range g.Nodes {
		opener, closer := "[", "]"
		switch node.Kind {
		case domain.NodeKindAsk:
			opener, closer = "[/", "/]"
		case domain.NodeKindAction:
			opener, closer = "[[", "]]"
		case domain.NodeKindTerminal:
			opener, closer = "([", "])"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", sanitizeMermaidID(node.ID), opener, node.ID, closer)
	}
	fmt.Fprintf(&sb, "    %s((\"end\"))\n", sanitizeMermaidID(domain.NodeEnd))

	if g.Entry != "" {
		fmt.Fprintf(&sb, "    %s --> %s\n", sanitizeMermaidID(domain.NodeStart), sanitizeMermaidID(g.Entry))
	}
	for _, e := range g.Edges {
		from := sanitizeMermaidID(e.Source)
		for _, to := range e.Targets {
			arrow := "-->"
			if e.Conditional {
				arrow = "-.->"
				if e.Label != "" {
					arrow = fmt.Sprintf("-. \"%s\" .->", strings.ReplaceAll(e.Label, "\"", "'"))
				}
			}
			fmt.Fprintf(&sb, "    %s %s %s\n", from, arrow, sanitizeMermaidID(to))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Session\n")
		// Black text keeps the highlight readable on light and dark themes.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(id)
			if safeID != "" && !seen[safeID] {
				seen[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}
		if overlay.CurrentNode != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
		}
	}

	return sb.String()
}

// OverlayFor derives a session's overlay from its state. Nodes declared
// before the current one count as visited.
func OverlayFor(g domain.GraphExport, s domain.State) *Overlay {
	o := &Overlay{CurrentNode: s.CurrentNode}
	idx := -1
	for i, node := range g.Nodes {
		if node.ID == s.CurrentNode {
			idx = i
			break
		}
	}
	if s.CurrentNode == domain.NodeEnd {
		idx = len(g.Nodes)
	}
	for _, node := range g.Nodes[:max(idx, 0)] {
		o.VisitedNodes = append(o.VisitedNodes, node.ID)
	}
	return o
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
