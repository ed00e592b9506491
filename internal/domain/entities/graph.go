package entities

// NodeType is the kind of entity a graph node stands for.
type NodeType string

const (
	NodeCompany  NodeType = "COMPANY"
	NodeDirector NodeType = "DIRECTOR"
	NodeOfficial NodeType = "OFFICIAL"
	NodeTender   NodeType = "TENDER"
)

// EdgeType is the relationship a graph edge represents.
type EdgeType string

const (
	EdgeDirectorOf    EdgeType = "DIRECTOR_OF"
	EdgeBidOn         EdgeType = "BID_ON"
	EdgeWon           EdgeType = "WON"
	EdgeAwardedBy     EdgeType = "AWARDED_BY"
	EdgeRelatedTo     EdgeType = "RELATED_TO"
	EdgeSharesAddress EdgeType = "SHARES_ADDRESS"
	EdgeSharesPhone   EdgeType = "SHARES_PHONE"
)

// Suspicious reports whether edges of this type are inherently suspicious.
func (t EdgeType) Suspicious() bool {
	switch t {
	case EdgeRelatedTo, EdgeSharesAddress, EdgeSharesPhone:
		return true
	}
	return false
}

// IsSharedContact reports whether the edge type links companies sharing contact details.
func (t EdgeType) IsSharedContact() bool {
	return t == EdgeSharesAddress || t == EdgeSharesPhone
}

// GraphNode is a node of an exported graph view.
type GraphNode struct {
	ID        string         `json:"id"`
	Type      NodeType       `json:"type"`
	Label     string         `json:"label"`
	RiskLevel RiskCategory   `json:"risk_level,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// GraphEdge is an edge of an exported graph view.
type GraphEdge struct {
	ID           string   `json:"id"`
	Source       string   `json:"source"`
	Target       string   `json:"target"`
	Relationship EdgeType `json:"relationship"`
	Suspicious   bool     `json:"suspicious"`
	Label        string   `json:"label,omitempty"`
}

// GraphData is a read-only projection of the relationship graph.
type GraphData struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}
