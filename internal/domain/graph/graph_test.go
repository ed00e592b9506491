package graph_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinel-oversight/sentinel/internal/domain/entities"
	"github.com/sentinel-oversight/sentinel/internal/domain/graph"
	"github.com/sentinel-oversight/sentinel/internal/domain/mocks"
)

// conflictDataset links off-001 to comp-003 through its director's sibling.
func conflictDataset() *mocks.DatasetBuilder {
	return mocks.NewDataset().
		Company("comp-001", "Alpha Ltd", "Plot 45, Industrial Area", "0722 111 222", "2018-01-01").
		Company("comp-002", "Beta Ltd", "plot 45,  industrial area", "0700 000 000", "2018-01-01").
		Company("comp-003", "Gamma Ltd", "Kenyatta Ave", "0722-111-222", "2018-01-01").
		Company("comp-004", "Delta Ltd", "", "", "2018-01-01").
		Director("dir-001", "Mary Wanjiru", "comp-003").
		Official("off-001", "Peter Kamau").
		Relation("off-001", "dir-001", entities.RelationSibling).
		Tender("tender-001", "Construction", 1000000, "2026-01-01", "2026-01-20").
		Bid("bid-001", "tender-001", "comp-003", 900000, "2026-01-10").
		Bid("bid-002", "tender-001", "comp-001", 950000, "2026-01-10").
		Award("tender-001", "comp-003", "off-001", 900000)
}

func build(t *testing.T, b *mocks.DatasetBuilder) *graph.Graph {
	t.Helper()
	g, err := graph.Build(b.Snapshot())
	require.NoError(t, err)
	return g
}

func edgesOfType(g *graph.Graph, typ entities.EdgeType) []*graph.Edge {
	var out []*graph.Edge
	for _, e := range g.Edges() {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

func TestBuild_NodesAndEdges(t *testing.T) {
	g := build(t, conflictDataset())

	assert.Equal(t, 7, g.NodeCount())
	n, ok := g.Node("tender-001")
	require.True(t, ok)
	assert.Equal(t, entities.NodeTender, n.Type)
	assert.NotNil(t, n.Tender)

	tests := []struct {
		typ  entities.EdgeType
		want [][2]string
	}{
		{entities.EdgeDirectorOf, [][2]string{{"dir-001", "comp-003"}}},
		{entities.EdgeRelatedTo, [][2]string{{"off-001", "dir-001"}}},
		{entities.EdgeAwardedBy, [][2]string{{"tender-001", "off-001"}}},
		{entities.EdgeBidOn, [][2]string{{"comp-003", "tender-001"}, {"comp-001", "tender-001"}}},
		{entities.EdgeWon, [][2]string{{"comp-003", "tender-001"}}},
		{entities.EdgeSharesAddress, [][2]string{{"comp-001", "comp-002"}}},
		{entities.EdgeSharesPhone, [][2]string{{"comp-001", "comp-003"}}},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			var got [][2]string
			for _, e := range edgesOfType(g, tt.typ) {
				got = append(got, [2]string{e.Source, e.Target})
			}
			assert.Equal(t, tt.want, got)
		})
	}

	rel := edgesOfType(g, entities.EdgeRelatedTo)
	assert.Equal(t, "SIBLING", rel[0].Label)
	assert.Equal(t, "Plot 45, Industrial Area", edgesOfType(g, entities.EdgeSharesAddress)[0].Label)
}

func TestBuild_EdgeIDsAreSequentialAndStable(t *testing.T) {
	g1 := build(t, conflictDataset())
	g2 := build(t, conflictDataset())

	e1, e2 := g1.Edges(), g2.Edges()
	require.Equal(t, len(e1), len(e2))
	for i := range e1 {
		assert.Equal(t, fmt.Sprintf("edge-%d", i+1), e1[i].ID)
		assert.Equal(t, e1[i].ID, e2[i].ID)
		assert.Equal(t, e1[i].Source, e2[i].Source)
		assert.Equal(t, e1[i].Target, e2[i].Target)
		assert.Equal(t, e1[i].Type, e2[i].Type)
	}
}

func TestBuild_WonOncePerPair(t *testing.T) {
	g := build(t, conflictDataset().Bid("bid-003", "tender-001", "comp-003", 880000, "2026-01-11"))

	assert.Len(t, edgesOfType(g, entities.EdgeBidOn), 3)
	assert.Len(t, edgesOfType(g, entities.EdgeWon), 1)
}

func TestBuild_EveryEdgeEndpointExists(t *testing.T) {
	g := build(t, conflictDataset())
	for _, e := range g.Edges() {
		_, ok := g.Node(e.Source)
		assert.True(t, ok, e.ID)
		_, ok = g.Node(e.Target)
		assert.True(t, ok, e.ID)
	}
}

func TestNeighbors(t *testing.T) {
	g := build(t, conflictDataset())

	assert.Equal(t, []string{"comp-001", "comp-003", "off-001"}, g.Neighbors("tender-001"))
	assert.Equal(t, []string{"off-001"}, g.Neighbors("tender-001", entities.EdgeAwardedBy))
	assert.Empty(t, g.Neighbors("comp-004"))
}

func TestEdgesBetween(t *testing.T) {
	g := build(t, conflictDataset())

	between := g.EdgesBetween("tender-001", "comp-003")
	require.Len(t, between, 2)
	assert.Equal(t, entities.EdgeBidOn, between[0].Type)
	assert.Equal(t, entities.EdgeWon, between[1].Type)
}

func TestPathWithinHops(t *testing.T) {
	g := build(t, conflictDataset())

	tests := []struct {
		name    string
		from    string
		to      string
		maxHops int
		want    []string
		found   bool
	}{
		{"two hops through sibling director", "off-001", "comp-003", 2, []string{"off-001", "dir-001", "comp-003"}, true},
		{"bound too small", "off-001", "comp-003", 1, nil, false},
		{"reverse direction", "comp-003", "off-001", 2, []string{"comp-003", "dir-001", "off-001"}, true},
		{"bid edges not traversed", "comp-001", "tender-001", 3, nil, false},
		{"same node", "off-001", "off-001", 2, []string{"off-001"}, true},
		{"unknown node", "off-999", "comp-003", 2, nil, false},
		{"tender to director via official", "tender-001", "dir-001", 2, []string{"tender-001", "off-001", "dir-001"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, found := g.PathWithinHops(tt.from, tt.to, tt.maxHops)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.want, path)
		})
	}
}

func TestPathWithinHops_DeterministicTieBreak(t *testing.T) {
	// Two directors of the same company are both siblings of the official.
	b := mocks.NewDataset().
		Company("comp-001", "Alpha Ltd", "", "", "2018-01-01").
		Director("dir-002", "B", "comp-001").
		Director("dir-001", "A", "comp-001").
		Official("off-001", "O").
		Relation("off-001", "dir-002", entities.RelationSibling).
		Relation("off-001", "dir-001", entities.RelationSpouse)
	g := build(t, b)

	for i := 0; i < 5; i++ {
		path, ok := g.PathWithinHops("off-001", "comp-001", 2)
		require.True(t, ok)
		assert.Equal(t, []string{"off-001", "dir-001", "comp-001"}, path)
	}
}

func rotationDataset() *mocks.DatasetBuilder {
	b := mocks.NewDataset()
	for i := 1; i <= 5; i++ {
		b.Company(fmt.Sprintf("comp-%03d", i), fmt.Sprintf("Co %d", i), "", "", "2018-01-01")
	}
	for i := 1; i <= 3; i++ {
		b.Tender(fmt.Sprintf("tender-%03d", i), "Works", 1000, "2026-01-01", "2026-01-20")
	}
	// comp-001..004 bid together on three tenders; comp-005 joins only one.
	n := 0
	for tn := 1; tn <= 3; tn++ {
		for cn := 1; cn <= 4; cn++ {
			n++
			b.Bid(fmt.Sprintf("bid-%03d", n), fmt.Sprintf("tender-%03d", tn), fmt.Sprintf("comp-%03d", cn), 1000, "2026-01-05")
		}
	}
	b.Bid("bid-100", "tender-001", "comp-005", 1000, "2026-01-05")
	return b
}

func TestCoBiddingGroups(t *testing.T) {
	g := build(t, rotationDataset())

	groups := g.CoBiddingGroups(2, 3)
	assert.Equal(t, [][]string{{"comp-001", "comp-002", "comp-003", "comp-004"}}, groups)

	// One shared tender is enough to pull comp-005 in.
	assert.Equal(t, [][]string{{"comp-001", "comp-002", "comp-003", "comp-004", "comp-005"}}, g.CoBiddingGroups(1, 3))

	assert.Empty(t, g.CoBiddingGroups(2, 5))
	assert.Empty(t, g.CoBiddingGroups(4, 2))
}

func TestCoBiddingGroups_MemoizedResultIsNotShared(t *testing.T) {
	g := build(t, rotationDataset())

	first := g.CoBiddingGroups(2, 3)
	first[0][0] = "mutated"

	assert.Equal(t, "comp-001", g.CoBiddingGroups(2, 3)[0][0])
	assert.Equal(t, []string{"comp-001", "comp-002", "comp-003", "comp-004"}, g.GroupContaining("comp-003", 2, 3))
	assert.Nil(t, g.GroupContaining("comp-005", 2, 3))
}

func TestNeighborhood(t *testing.T) {
	g := build(t, conflictDataset())

	nodes, edges := g.Neighborhood("tender-001", 1)
	var ids []string
	for _, n := range nodes {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"comp-001", "comp-003", "off-001", "tender-001"}, ids)
	for _, e := range edges {
		assert.Contains(t, ids, e.Source)
		assert.Contains(t, ids, e.Target)
	}
	// The induced SHARES_PHONE edge between the two bidders is included.
	assert.Len(t, edges, 5)

	nodes2, _ := g.Neighborhood("tender-001", 2)
	assert.Greater(t, len(nodes2), len(nodes))

	none, noEdges := g.Neighborhood("missing", 2)
	assert.Nil(t, none)
	assert.Nil(t, noEdges)
}
