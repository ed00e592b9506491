package graph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/sentinel-oversight/sentinel/internal/domain/entities"
)

// Build derives the relationship graph of a snapshot.
// Entities are visited in ascending id order so edge ids are stable across builds
// of the same data. Any edge whose endpoint is missing rejects the whole build.
func Build(snap *entities.Snapshot) (*Graph, error) {
	b := &builder{
		g: &Graph{
			version:  snap.Version,
			nodes:    make(map[string]*Node),
			outgoing: make(map[string][]*Edge),
			incoming: make(map[string][]*Edge),
		},
	}

	b.addNodes(snap)
	b.addMembershipEdges(snap)
	b.addRelationEdges(snap)
	b.addAwardEdges(snap)
	b.addBidEdges(snap)
	b.addSharedContactEdges(snap.Companies(), entities.EdgeSharesAddress,
		func(c *entities.Company) string { return c.Address }, entities.NormalizeAddress)
	b.addSharedContactEdges(snap.Companies(), entities.EdgeSharesPhone,
		func(c *entities.Company) string { return c.Phone }, entities.NormalizePhone)

	if len(b.errs) > 0 {
		return nil, fmt.Errorf("building graph: %w", errors.Join(b.errs...))
	}
	sort.Strings(b.g.nodeIDs)
	return b.g, nil
}

type builder struct {
	g    *Graph
	errs []error
}

func (b *builder) addNode(n *Node) {
	b.g.nodes[n.ID] = n
	b.g.nodeIDs = append(b.g.nodeIDs, n.ID)
}

func (b *builder) addNodes(snap *entities.Snapshot) {
	for _, c := range snap.Companies() {
		b.addNode(&Node{ID: c.ID, Type: entities.NodeCompany, Label: c.Name, Company: c})
	}
	for _, d := range snap.Directors() {
		b.addNode(&Node{ID: d.ID, Type: entities.NodeDirector, Label: d.Name, Director: d})
	}
	for _, o := range snap.Officials() {
		b.addNode(&Node{ID: o.ID, Type: entities.NodeOfficial, Label: o.Name, Official: o})
	}
	for _, t := range snap.Tenders() {
		b.addNode(&Node{ID: t.ID, Type: entities.NodeTender, Label: t.Title, Tender: t})
	}
}

func (b *builder) addEdge(source, target string, typ entities.EdgeType, label string) {
	for _, id := range []string{source, target} {
		if _, ok := b.g.nodes[id]; !ok {
			b.errs = append(b.errs, &entities.ValidationError{
				Entity:  "edge",
				Field:   string(typ),
				Message: fmt.Sprintf("endpoint %s of %s -> %s does not exist", id, source, target),
			})
			return
		}
	}

	seq := len(b.g.edges) + 1
	e := &Edge{
		ID:     fmt.Sprintf("edge-%d", seq),
		Source: source,
		Target: target,
		Type:   typ,
		Label:  label,
		seq:    seq,
	}
	b.g.edges = append(b.g.edges, e)
	b.g.outgoing[source] = append(b.g.outgoing[source], e)
	b.g.incoming[target] = append(b.g.incoming[target], e)
}

func (b *builder) addMembershipEdges(snap *entities.Snapshot) {
	for _, d := range snap.Directors() {
		ids := append([]string(nil), d.CompanyIDs...)
		sort.Strings(ids)
		for _, cid := range ids {
			b.addEdge(d.ID, cid, entities.EdgeDirectorOf, "")
		}
	}
}

func (b *builder) addRelationEdges(snap *entities.Snapshot) {
	for _, o := range snap.Officials() {
		rels := append([]entities.OfficialRelation(nil), o.Relations...)
		sort.SliceStable(rels, func(i, j int) bool { return rels[i].TargetID < rels[j].TargetID })
		for _, rel := range rels {
			b.addEdge(o.ID, rel.TargetID, entities.EdgeRelatedTo, string(rel.Kind))
		}
	}
}

func (b *builder) addAwardEdges(snap *entities.Snapshot) {
	for _, t := range snap.Tenders() {
		if t.AwardingOfficialID != "" {
			b.addEdge(t.ID, t.AwardingOfficialID, entities.EdgeAwardedBy, "")
		}
	}
}

func (b *builder) addBidEdges(snap *entities.Snapshot) {
	won := make(map[[2]string]bool)
	for _, bid := range snap.Bids() {
		b.addEdge(bid.CompanyID, bid.TenderID, entities.EdgeBidOn, "")

		t, ok := snap.Tender(bid.TenderID)
		if !ok || t.AwardedTo != bid.CompanyID {
			continue
		}
		key := [2]string{bid.CompanyID, bid.TenderID}
		if won[key] {
			continue
		}
		won[key] = true
		b.addEdge(bid.CompanyID, bid.TenderID, entities.EdgeWon, "")
	}
}

// addSharedContactEdges links every pair of companies whose normalized attribute
// values are equal. Companies are bucketed by normalized value; empty values never match.
// The edge label is the raw value of the bucket's first company.
func (b *builder) addSharedContactEdges(
	companies []*entities.Company,
	typ entities.EdgeType,
	attr func(*entities.Company) string,
	normalize func(string) string,
) {
	buckets := make(map[string][]*entities.Company)
	var keys []string
	for _, c := range companies {
		key := normalize(attr(c))
		if key == "" {
			continue
		}
		if _, ok := buckets[key]; !ok {
			keys = append(keys, key)
		}
		buckets[key] = append(buckets[key], c)
	}
	sort.Strings(keys)

	for _, key := range keys {
		members := buckets[key]
		if len(members) < 2 {
			continue
		}
		label := attr(members[0])
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				b.addEdge(members[i].ID, members[j].ID, typ, label)
			}
		}
	}
}
