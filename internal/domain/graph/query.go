package graph

import (
	"slices"
	"sort"

	"github.com/sentinel-oversight/sentinel/internal/domain/entities"
)

// PathEdgeTypes are the edge types PathWithinHops may traverse.
var PathEdgeTypes = []entities.EdgeType{
	entities.EdgeRelatedTo,
	entities.EdgeDirectorOf,
	entities.EdgeAwardedBy,
}

// PathWithinHops returns the shortest path from one node to another using at most
// maxHops RELATED_TO, DIRECTOR_OF or AWARDED_BY edges, followed in either direction.
// The path lists node ids from start to end. Frontier nodes and their neighbors are
// expanded in ascending id order, so among equally short paths the first found wins.
func (g *Graph) PathWithinHops(fromID, toID string, maxHops int) ([]string, bool) {
	if _, ok := g.nodes[fromID]; !ok {
		return nil, false
	}
	if _, ok := g.nodes[toID]; !ok {
		return nil, false
	}
	if fromID == toID {
		return []string{fromID}, true
	}

	parent := map[string]string{}
	visited := map[string]bool{fromID: true}
	frontier := []string{fromID}

	for hop := 0; hop < maxHops && len(frontier) > 0; hop++ {
		sort.Strings(frontier)
		var next []string
		for _, id := range frontier {
			for _, nb := range g.Neighbors(id, PathEdgeTypes...) {
				if visited[nb] {
					continue
				}
				visited[nb] = true
				parent[nb] = id
				if nb == toID {
					return tracePath(parent, fromID, toID), true
				}
				next = append(next, nb)
			}
		}
		frontier = next
	}
	return nil, false
}

func tracePath(parent map[string]string, fromID, toID string) []string {
	path := []string{toID}
	for cur := toID; cur != fromID; {
		cur = parent[cur]
		path = append(path, cur)
	}
	slices.Reverse(path)
	return path
}

type clusterKey struct {
	minShared int
	minSize   int
}

// CoBiddingGroups returns the connected components of the co-bid graph with at least
// minGroupSize members. Two companies are joined when they bid on at least
// minSharedTenders common tenders. Members are sorted and groups are ordered by their
// first member. Results are memoized per parameter pair.
func (g *Graph) CoBiddingGroups(minSharedTenders, minGroupSize int) [][]string {
	key := clusterKey{minShared: minSharedTenders, minSize: minGroupSize}
	if cached, ok := g.clusters.Load(key); ok {
		return cloneGroups(cached.([][]string))
	}

	groups := g.computeCoBiddingGroups(minSharedTenders, minGroupSize)
	actual, _ := g.clusters.LoadOrStore(key, groups)
	return cloneGroups(actual.([][]string))
}

func (g *Graph) computeCoBiddingGroups(minShared, minSize int) [][]string {
	shared := make(map[[2]string]int)
	for _, id := range g.nodeIDs {
		if g.nodes[id].Type != entities.NodeTender {
			continue
		}
		var bidders []string
		seen := make(map[string]bool)
		for _, e := range g.Incoming(id) {
			if e.Type == entities.EdgeBidOn && !seen[e.Source] {
				seen[e.Source] = true
				bidders = append(bidders, e.Source)
			}
		}
		sort.Strings(bidders)
		for i := 0; i < len(bidders); i++ {
			for j := i + 1; j < len(bidders); j++ {
				shared[[2]string{bidders[i], bidders[j]}]++
			}
		}
	}

	adj := make(map[string][]string)
	for pair, n := range shared {
		if n < minShared {
			continue
		}
		adj[pair[0]] = append(adj[pair[0]], pair[1])
		adj[pair[1]] = append(adj[pair[1]], pair[0])
	}

	starts := make([]string, 0, len(adj))
	for id := range adj {
		starts = append(starts, id)
	}
	sort.Strings(starts)

	visited := make(map[string]bool)
	var groups [][]string
	for _, start := range starts {
		if visited[start] {
			continue
		}
		visited[start] = true
		component := []string{start}
		queue := []string{start}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, nb := range adj[cur] {
				if !visited[nb] {
					visited[nb] = true
					component = append(component, nb)
					queue = append(queue, nb)
				}
			}
		}
		if len(component) >= minSize {
			sort.Strings(component)
			groups = append(groups, component)
		}
	}
	return groups
}

func cloneGroups(groups [][]string) [][]string {
	out := make([][]string, len(groups))
	for i, grp := range groups {
		out[i] = slices.Clone(grp)
	}
	return out
}

// GroupContaining returns the co-bidding group holding companyID, or nil.
func (g *Graph) GroupContaining(companyID string, minSharedTenders, minGroupSize int) []string {
	for _, grp := range g.CoBiddingGroups(minSharedTenders, minGroupSize) {
		if slices.Contains(grp, companyID) {
			return grp
		}
	}
	return nil
}

// Neighborhood returns every node reachable from id within depth hops over any edge
// type in either direction, and every edge whose endpoints are both in that set.
// Nodes are sorted by id and edges are in build order.
func (g *Graph) Neighborhood(id string, depth int) ([]*Node, []*Edge) {
	if _, ok := g.nodes[id]; !ok {
		return nil, nil
	}

	visited := map[string]bool{id: true}
	frontier := []string{id}
	for hop := 0; hop < depth && len(frontier) > 0; hop++ {
		var next []string
		for _, cur := range frontier {
			for _, nb := range g.Neighbors(cur) {
				if !visited[nb] {
					visited[nb] = true
					next = append(next, nb)
				}
			}
		}
		frontier = next
	}

	var nodes []*Node
	for _, nid := range g.nodeIDs {
		if visited[nid] {
			nodes = append(nodes, g.nodes[nid])
		}
	}
	var edges []*Edge
	for _, e := range g.edges {
		if visited[e.Source] && visited[e.Target] {
			edges = append(edges, e)
		}
	}
	return nodes, edges
}
