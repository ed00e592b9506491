package rules

import (
	"fmt"
	"slices"
	"strings"

	"github.com/sentinel-oversight/sentinel/internal/domain/entities"
	"github.com/sentinel-oversight/sentinel/internal/domain/graph"
)

// ConflictOfInterest fires when the awarding official reaches one of the winning
// company's directors within maxHops, over a path that includes at least one declared
// RELATED_TO relationship. The shortest such path wins; ties go to the lowest director id.
func ConflictOfInterest(maxHops int) Evaluator {
	return func(t *entities.Tender, g *graph.Graph, snap *entities.Snapshot) (*entities.RiskFactor, error) {
		if !t.IsAwarded() || t.AwardingOfficialID == "" {
			return nil, nil
		}
		official, ok := snap.Official(t.AwardingOfficialID)
		if !ok {
			return nil, degraded(entities.FactorConflictOfInterest, t.ID, "awarding official record missing")
		}
		winner, ok := snap.Company(t.AwardedTo)
		if !ok {
			return nil, degraded(entities.FactorConflictOfInterest, t.ID, "winning company record missing")
		}

		var (
			best      []string
			relations []*graph.Edge
		)
		directorIDs := slices.Clone(winner.DirectorIDs)
		slices.Sort(directorIDs)
		for _, directorID := range directorIDs {
			candidate, found := g.PathWithinHops(official.ID, directorID, maxHops)
			if !found || (best != nil && len(candidate) >= len(best)) {
				continue
			}
			if rels := relationsAlong(g, candidate); len(rels) > 0 {
				best, relations = candidate, rels
			}
		}
		if best == nil {
			return nil, nil
		}
		path := throughWinner(best, winner.ID)

		labels := make([]string, len(path))
		for i, id := range path {
			labels[i] = nodeLabel(g, id)
		}

		evidence := []string{
			fmt.Sprintf("Official: %s (%s, %s)", official.Name, official.Position, official.Department),
			"Connection path: " + strings.Join(labels, " → "),
		}
		for _, rel := range relations {
			evidence = append(evidence, fmt.Sprintf("Declared relationship: %s is %s of %s",
				nodeLabel(g, rel.Source), rel.Label, nodeLabel(g, rel.Target)))
		}
		evidence = append(evidence, fmt.Sprintf("Path length: %d hops", len(path)-1))

		description := fmt.Sprintf("Awarding official %s is connected to winning company %s through a declared %s relationship",
			official.Name, winner.Name, relations[0].Label)

		return entities.NewRiskFactor(entities.FactorConflictOfInterest, description, evidence, path), nil
	}
}

// throughWinner ends a director path at the winning company: cut at the company when
// the path already passes through it, otherwise append the directorship hop.
func throughWinner(path []string, companyID string) []string {
	if i := slices.Index(path, companyID); i >= 0 {
		return slices.Clone(path[:i+1])
	}
	return append(slices.Clone(path), companyID)
}

func relationsAlong(g *graph.Graph, path []string) []*graph.Edge {
	var out []*graph.Edge
	for i := 0; i+1 < len(path); i++ {
		for _, e := range g.EdgesBetween(path[i], path[i+1]) {
			if e.Type == entities.EdgeRelatedTo {
				out = append(out, e)
			}
		}
	}
	return out
}

func nodeLabel(g *graph.Graph, id string) string {
	if n, ok := g.Node(id); ok && n.Label != "" {
		return n.Label
	}
	return id
}
