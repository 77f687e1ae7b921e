package domain

// Node identifiers of the planning graph.
const (
	NodeStart = "__start__"
	NodeEnd   = "__end__"

	NodeAskOrigin       = "ask_origin"
	NodeAskDestination  = "ask_destination"
	NodeAskStartDate    = "ask_start_date"
	NodeAskEndDate      = "ask_end_date"
	NodeAskTravelers    = "ask_travelers"
	NodeAskBudget       = "ask_budget"
	NodeAskPurpose      = "ask_purpose"
	NodeAskPlanningType = "ask_planning_type"

	NodeSearch           = "search"
	NodeHandleValidation = "handle_validation_issues"
	NodeGeneratePlan     = "generate_plan"
)

// NodeKind controls how the engine treats a node's output.
type NodeKind string

const (
	// NodeKindAsk halts waiting for input; its question is personalized.
	NodeKindAsk NodeKind = "ask"
	// NodeKindAction performs work and reports it verbatim.
	NodeKindAction NodeKind = "action"
	// NodeKindTerminal produces the closing text.
	NodeKindTerminal NodeKind = "terminal"
)

// NodeInfo describes a node for export.
type NodeInfo struct {
	ID   string   `json:"id" yaml:"id"`
	Kind NodeKind `json:"kind" yaml:"kind"`
}

// EdgeInfo describes an edge for export. Fixed edges have one target;
// conditional edges list every statically known target.
type EdgeInfo struct {
	Source      string   `json:"source" yaml:"source"`
	Targets     []string `json:"targets" yaml:"targets"`
	Conditional bool     `json:"conditional" yaml:"conditional"`
	Label       string   `json:"label,omitempty" yaml:"label,omitempty"`
}

// GraphExport is the read-only topology of the planning graph.
type GraphExport struct {
	Entry string     `json:"entry" yaml:"entry"`
	Nodes []NodeInfo `json:"nodes" yaml:"nodes"`
	Edges []EdgeInfo `json:"edges" yaml:"edges"`
}
