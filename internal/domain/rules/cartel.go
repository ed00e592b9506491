package rules

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sentinel-oversight/sentinel/internal/domain/entities"
	"github.com/sentinel-oversight/sentinel/internal/domain/graph"
)

// CartelPattern fires when the winning company belongs to a co-bidding group whose
// members share an address or phone, and the group has rotated wins: at least
// minRotationWins tenders won by at least two different members.
func CartelPattern(minShared, minGroupSize, minRotationWins int) Evaluator {
	return func(t *entities.Tender, g *graph.Graph, snap *entities.Snapshot) (*entities.RiskFactor, error) {
		if !t.IsAwarded() {
			return nil, nil
		}
		group := g.GroupContaining(t.AwardedTo, minShared, minGroupSize)
		if group == nil {
			return nil, nil
		}

		contacts := sharedContacts(g, group)
		if len(contacts) == 0 {
			return nil, nil
		}

		wins := 0
		winners := make(map[string]bool)
		for _, cid := range group {
			won := snap.TendersWonBy(cid)
			if len(won) > 0 {
				winners[cid] = true
				wins += len(won)
			}
		}
		if wins < minRotationWins || len(winners) < 2 {
			return nil, nil
		}

		names := make([]string, len(group))
		for i, id := range group {
			names[i] = nodeLabel(g, id)
		}

		evidence := []string{"Cluster members: " + strings.Join(names, ", ")}
		for _, c := range contacts {
			evidence = append(evidence, c.String(g))
		}
		evidence = append(evidence,
			fmt.Sprintf("Bid rotation: %d tenders won by %d different cluster members", wins, len(winners)))

		description := fmt.Sprintf("Winning company belongs to a bidding cluster of %d companies that share contact details and rotate wins",
			len(group))

		return entities.NewRiskFactor(entities.FactorCartelPattern, description, evidence, group), nil
	}
}

type sharedContact struct {
	typ     entities.EdgeType
	value   string
	members []string
}

func (c sharedContact) String(g *graph.Graph) string {
	kind := "address"
	if c.typ == entities.EdgeSharesPhone {
		kind = "phone"
	}
	names := make([]string, len(c.members))
	for i, id := range c.members {
		names[i] = nodeLabel(g, id)
	}
	return fmt.Sprintf("Shared %s: %s (%s)", kind, c.value, strings.Join(names, ", "))
}

// sharedContacts groups the SHARES_ADDRESS and SHARES_PHONE edges internal to the
// group by type and value.
func sharedContacts(g *graph.Graph, group []string) []sharedContact {
	inGroup := make(map[string]bool, len(group))
	for _, id := range group {
		inGroup[id] = true
	}

	type key struct {
		typ   entities.EdgeType
		value string
	}
	members := make(map[key]map[string]bool)
	var order []key
	for _, id := range group {
		for _, e := range g.Outgoing(id) {
			if !e.Type.IsSharedContact() || !inGroup[e.Target] {
				continue
			}
			k := key{typ: e.Type, value: e.Label}
			if members[k] == nil {
				members[k] = make(map[string]bool)
				order = append(order, k)
			}
			members[k][e.Source] = true
			members[k][e.Target] = true
		}
	}

	out := make([]sharedContact, 0, len(order))
	for _, k := range order {
		ids := make([]string, 0, len(members[k]))
		for id := range members[k] {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		out = append(out, sharedContact{typ: k.typ, value: k.value, members: ids})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].typ != out[j].typ {
			return out[i].typ == entities.EdgeSharesAddress
		}
		return out[i].value < out[j].value
	})
	return out
}
