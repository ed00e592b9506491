// Package graph builds and queries the relationship graph derived from a snapshot.
//
// A Graph is immutable once Build returns and may be shared by any number of
// goroutines without locking. Memoized query results are stored with sync.Map.
package graph

import (
	"sort"
	"sync"

	"github.com/sentinel-oversight/sentinel/internal/domain/entities"
)

// Node is a graph vertex. Exactly one of the entity pointers is set, matching Type.
type Node struct {
	ID    string
	Type  entities.NodeType
	Label string

	Company  *entities.Company
	Director *entities.Director
	Official *entities.Official
	Tender   *entities.Tender
}

// Edge is a directed, typed relationship between two nodes.
type Edge struct {
	ID     string
	Source string
	Target string
	Type   entities.EdgeType
	Label  string

	seq int
}

// Other returns the endpoint of e that is not id.
func (e *Edge) Other(id string) string {
	if e.Source == id {
		return e.Target
	}
	return e.Source
}

// Graph is the typed, directed relationship graph of one snapshot.
type Graph struct {
	version string

	nodes    map[string]*Node
	nodeIDs  []string
	edges    []*Edge
	outgoing map[string][]*Edge
	incoming map[string][]*Edge

	clusters sync.Map
}

// Version returns the version id of the snapshot the graph was built from.
func (g *Graph) Version() string {
	return g.version
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes in ascending id order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.nodeIDs))
	for i, id := range g.nodeIDs {
		out[i] = g.nodes[id]
	}
	return out
}

// Edges returns all edges in build order.
func (g *Graph) Edges() []*Edge {
	out := make([]*Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.nodeIDs)
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// Outgoing returns the edges leaving id in build order.
func (g *Graph) Outgoing(id string) []*Edge {
	return g.outgoing[id]
}

// Incoming returns the edges entering id in build order.
func (g *Graph) Incoming(id string) []*Edge {
	return g.incoming[id]
}

// Neighbors returns the ids adjacent to id in either direction, restricted to the
// given edge types when any are passed. The result is sorted and free of duplicates.
func (g *Graph) Neighbors(id string, types ...entities.EdgeType) []string {
	allowed := edgeTypeSet(types)
	seen := make(map[string]struct{})
	var out []string

	visit := func(edges []*Edge) {
		for _, e := range edges {
			if allowed != nil && !allowed[e.Type] {
				continue
			}
			other := e.Other(id)
			if _, dup := seen[other]; dup {
				continue
			}
			seen[other] = struct{}{}
			out = append(out, other)
		}
	}
	visit(g.outgoing[id])
	visit(g.incoming[id])

	sort.Strings(out)
	return out
}

// EdgesBetween returns the edges joining a and b in either direction, in build order.
func (g *Graph) EdgesBetween(a, b string) []*Edge {
	var out []*Edge
	for _, e := range g.outgoing[a] {
		if e.Target == b {
			out = append(out, e)
		}
	}
	for _, e := range g.incoming[a] {
		if e.Source == b && a != b {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

func edgeTypeSet(types []entities.EdgeType) map[entities.EdgeType]bool {
	if len(types) == 0 {
		return nil
	}
	set := make(map[entities.EdgeType]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	return set
}
