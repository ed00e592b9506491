package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sentinel-oversight/sentinel/internal/domain/entities"
	"github.com/sentinel-oversight/sentinel/internal/domain/graph"
)

// Export depth bounds for tender neighborhoods.
const (
	DefaultExportDepth = 2
	MinExportDepth     = 1
	MaxExportDepth     = 5
)

const maxTenderLabel = 50

// ExportGraph projects the published graph for visualization. An empty tenderID
// exports the whole graph; otherwise the tender's neighborhood within depth hops is
// exported. A depth of zero selects DefaultExportDepth.
//
// Every tender node carries its risk category. An edge is suspicious when its type is
// inherently suspicious or when it lies on the evidence of a fired factor: consecutive
// hops of a conflict of interest path, or a cartel member's link to the scored tender
// or to another member.
func (s *RiskService) ExportGraph(ctx context.Context, tenderID string, depth int) (*entities.GraphData, error) {
	st, err := s.loaded()
	if err != nil {
		return nil, err
	}

	var (
		nodes []*graph.Node
		edges []*graph.Edge
	)
	if tenderID == "" {
		nodes, edges = st.graph.Nodes(), st.graph.Edges()
	} else {
		if depth == 0 {
			depth = DefaultExportDepth
		}
		if depth < MinExportDepth || depth > MaxExportDepth {
			return nil, &entities.ValidationError{
				Entity:  "export",
				Field:   "depth",
				Message: fmt.Sprintf("must be between %d and %d, got %d", MinExportDepth, MaxExportDepth, depth),
			}
		}
		if _, ok := st.snapshot.Tender(tenderID); !ok {
			return nil, &entities.NotFoundError{Entity: "tender", ID: tenderID}
		}
		nodes, edges = st.graph.Neighborhood(tenderID, depth)
	}

	var tenders []*entities.Tender
	for _, n := range nodes {
		if n.Tender != nil {
			tenders = append(tenders, n.Tender)
		}
	}
	scores, err := s.scoreAll(ctx, st, tenders)
	if err != nil {
		return nil, err
	}
	risk := make(map[string]entities.RiskCategory, len(scores))
	evidence := make(evidencePairs)
	for _, sc := range scores {
		risk[sc.TenderID] = sc.Category
		evidence.collect(sc)
	}

	data := &entities.GraphData{
		Nodes: make([]entities.GraphNode, 0, len(nodes)),
		Edges: make([]entities.GraphEdge, 0, len(edges)),
	}
	for _, n := range nodes {
		data.Nodes = append(data.Nodes, exportNode(n, risk[n.ID]))
	}
	for _, e := range edges {
		data.Edges = append(data.Edges, entities.GraphEdge{
			ID:           e.ID,
			Source:       e.Source,
			Target:       e.Target,
			Relationship: e.Type,
			Suspicious:   e.Type.Suspicious() || evidence.has(e.Source, e.Target),
			Label:        e.Label,
		})
	}
	return data, nil
}

// evidencePairs holds unordered node pairs that lie on fired factor evidence.
type evidencePairs map[[2]string]bool

func pairKey(a, b string) [2]string {
	if b < a {
		a, b = b, a
	}
	return [2]string{a, b}
}

func (p evidencePairs) collect(sc *entities.RiskScore) {
	for _, f := range sc.Factors {
		switch f.Type {
		case entities.FactorConflictOfInterest:
			for i := 0; i+1 < len(f.RelatedEntityIDs); i++ {
				p[pairKey(f.RelatedEntityIDs[i], f.RelatedEntityIDs[i+1])] = true
			}
		case entities.FactorCartelPattern:
			members := f.RelatedEntityIDs
			for i, a := range members {
				p[pairKey(a, sc.TenderID)] = true
				for _, b := range members[i+1:] {
					p[pairKey(a, b)] = true
				}
			}
		}
	}
}

func (p evidencePairs) has(a, b string) bool {
	return p[pairKey(a, b)]
}

func exportNode(n *graph.Node, risk entities.RiskCategory) entities.GraphNode {
	out := entities.GraphNode{ID: n.ID, Type: n.Type, Label: n.Label}
	switch {
	case n.Company != nil:
		out.Metadata = map[string]any{
			"address":           n.Company.Address,
			"phone":             n.Company.Phone,
			"registration_date": formatDate(n.Company.RegistrationDate),
		}
	case n.Official != nil:
		out.Metadata = map[string]any{
			"department": n.Official.Department,
			"position":   n.Official.Position,
		}
	case n.Tender != nil:
		out.Label = truncateLabel(n.Tender.Title, maxTenderLabel)
		out.RiskLevel = risk
		out.Metadata = map[string]any{
			"full_title":       n.Tender.Title,
			"procuring_entity": n.Tender.ProcuringEntity,
			"value":            n.Tender.EstimatedValue.String(),
			"status":           string(n.Tender.Status),
		}
	}
	return out
}

func truncateLabel(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
