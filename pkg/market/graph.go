package market

import (
	"sort"

	"solarb/pkg"
)

// Edge is one directed traversal option through a pool. Parallel pools
// between the same token pair produce parallel edges.
type Edge struct {
	Pool     pkg.Pool
	TokenIn  string
	TokenOut string
}

// Graph is a read-only token adjacency built from one pool snapshot set.
// Rebuilding on refresh replaces the whole graph; a built graph is never
// mutated.
type Graph struct {
	edges map[string][]Edge
	pools map[string]pkg.Pool
}

// Build constructs a graph from a pool snapshot collection. Every pool with
// two nonzero reserves becomes one directed edge per ordered token pair.
// Building is pure: no network, no clock. An empty pool set yields an empty
// graph.
func Build(pools []pkg.Pool) *Graph {
	g := &Graph{
		edges: make(map[string][]Edge),
		pools: make(map[string]pkg.Pool),
	}

	for _, p := range pools {
		tokenA, tokenB := p.GetTokens()
		if p.Reserve(tokenA).IsZero() || p.Reserve(tokenB).IsZero() {
			continue
		}

		g.pools[p.GetID()] = p
		g.edges[tokenA] = append(g.edges[tokenA], Edge{Pool: p, TokenIn: tokenA, TokenOut: tokenB})
		g.edges[tokenB] = append(g.edges[tokenB], Edge{Pool: p, TokenIn: tokenB, TokenOut: tokenA})
	}

	// Stable edge order so repeated builds over identical input enumerate
	// identically.
	for token := range g.edges {
		es := g.edges[token]
		sort.Slice(es, func(i, j int) bool {
			if es[i].TokenOut != es[j].TokenOut {
				return es[i].TokenOut < es[j].TokenOut
			}
			if es[i].Pool.ProtocolName() != es[j].Pool.ProtocolName() {
				return es[i].Pool.ProtocolName() < es[j].Pool.ProtocolName()
			}
			return es[i].Pool.GetID() < es[j].Pool.GetID()
		})
	}

	return g
}

// EdgesFrom returns the outgoing edges of a token in stable order.
func (g *Graph) EdgesFrom(token string) []Edge {
	return g.edges[token]
}

// EdgesBetween returns the edges from one token to another in stable order.
func (g *Graph) EdgesBetween(from, to string) []Edge {
	var out []Edge
	for _, e := range g.edges[from] {
		if e.TokenOut == to {
			out = append(out, e)
		}
	}
	return out
}

// Pool resolves a pool by ID.
func (g *Graph) Pool(id string) (pkg.Pool, bool) {
	p, ok := g.pools[id]
	return p, ok
}

// Pools returns all pools in the graph in stable order.
func (g *Graph) Pools() []pkg.Pool {
	ids := make([]string, 0, len(g.pools))
	for id := range g.pools {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]pkg.Pool, 0, len(ids))
	for _, id := range ids {
		out = append(out, g.pools[id])
	}
	return out
}

// Tokens returns all token addresses present in the graph, sorted.
func (g *Graph) Tokens() []string {
	tokens := make([]string, 0, len(g.edges))
	for t := range g.edges {
		tokens = append(tokens, t)
	}
	sort.Strings(tokens)
	return tokens
}

// PoolCount returns the number of pools retained in the graph.
func (g *Graph) PoolCount() int {
	return len(g.pools)
}
