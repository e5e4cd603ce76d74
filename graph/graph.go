// Package graph holds the version graph: the known schema versions and the
// directed converter edges between them.
//
// The graph answers one question, "what is the shortest chain of edges from
// version A to version B?", using breadth-first search. Edges carry an opaque
// payload of type T; the graph stores it and hands it back inside a [Path]
// but never calls it.
//
//	g := graph.New[string]()
//	g.AddEdge(graph.Num(1), graph.Num(2), "1->2")
//	g.AddEdge(graph.Num(2), graph.Num(3), "2->3")
//	g.AddEdge(graph.Num(1), graph.Num(3), "shortcut")
//	path, _ := g.ShortestPath(graph.Num(1), graph.Num(3))
//	fmt.Println(path) // 1 -> 3
//
// Among several shortest paths the one found first wins, where adjacency is
// explored in the order edges were registered. The result is therefore
// reproducible for a given registration sequence.
package graph

import (
	"strings"
	"sync"

	"github.com/TechnologyAdvice/Vers/verserrors"
)

// Edge is a directed edge between two versions.
type Edge[T any] struct {
	From    Version
	To      Version
	Payload T
}

// Path is an ordered chain of edges. Each edge's From equals the previous
// edge's To. A zero-length path means no transformation is needed.
type Path[T any] []Edge[T]

// Len returns the number of edges in the path.
func (p Path[T]) Len() int {
	return len(p)
}

// Versions returns every version visited by the path, source first.
// A zero-length path returns nil.
func (p Path[T]) Versions() []Version {
	if len(p) == 0 {
		return nil
	}
	out := make([]Version, 0, len(p)+1)
	out = append(out, p[0].From)
	for _, e := range p {
		out = append(out, e.To)
	}
	return out
}

// String renders the path as "1 -> 2 -> 3". A zero-length path renders as "".
func (p Path[T]) String() string {
	versions := p.Versions()
	parts := make([]string, len(versions))
	for i, v := range versions {
		parts[i] = v.String()
	}
	return strings.Join(parts, " -> ")
}

type edgeKey struct {
	from, to Version
}

// Graph is a directed graph of versions. The zero value is not usable; call New.
//
// Graph is safe for concurrent readers. Registering edges while conversions
// are searching it is supported by the lock but is not expected: register
// everything at startup.
type Graph[T any] struct {
	mu       sync.RWMutex
	vertices []Version
	seen     map[Version]struct{}
	adj      map[Version][]*Edge[T]
	edges    map[edgeKey]*Edge[T]
	order    []*Edge[T]
}

// New creates an empty graph.
func New[T any]() *Graph[T] {
	return &Graph[T]{
		seen:  make(map[Version]struct{}),
		adj:   make(map[Version][]*Edge[T]),
		edges: make(map[edgeKey]*Edge[T]),
	}
}

// AddEdge registers the directed edge from -> to carrying payload.
//
// Registering the same pair again replaces the payload. The edge keeps the
// search position it got when first registered.
func (g *Graph[T]) AddEdge(from, to Version, payload T) {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := edgeKey{from: from, to: to}
	if e, ok := g.edges[key]; ok {
		e.Payload = payload
		return
	}

	g.addVertex(from)
	g.addVertex(to)

	e := &Edge[T]{From: from, To: to, Payload: payload}
	g.edges[key] = e
	g.adj[from] = append(g.adj[from], e)
	g.order = append(g.order, e)
}

func (g *Graph[T]) addVertex(v Version) {
	if _, ok := g.seen[v]; ok {
		return
	}
	g.seen[v] = struct{}{}
	g.vertices = append(g.vertices, v)
}

// ShortestPath returns the path with the fewest edges from -> to.
//
// When from == to the zero-length path is returned, whether or not the
// version is known. A *verserrors.PathNotFoundError is returned when to is
// not reachable from from over directed edges.
func (g *Graph[T]) ShortestPath(from, to Version) (Path[T], error) {
	if from == to {
		return Path[T]{}, nil
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, ok := g.seen[from]; !ok {
		return nil, &verserrors.PathNotFoundError{From: from, To: to, Message: "unknown source version"}
	}
	if _, ok := g.seen[to]; !ok {
		return nil, &verserrors.PathNotFoundError{From: from, To: to, Message: "unknown target version"}
	}

	// parent records the edge that first discovered each version
	parent := map[Version]*Edge[T]{}
	visited := map[Version]bool{from: true}
	queue := []Version{from}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, e := range g.adj[current] {
			if visited[e.To] {
				continue
			}
			visited[e.To] = true
			parent[e.To] = e
			if e.To == to {
				return buildPath(parent, from, to), nil
			}
			queue = append(queue, e.To)
		}
	}

	return nil, &verserrors.PathNotFoundError{From: from, To: to}
}

// buildPath walks parent links back from to and returns the edges in order.
func buildPath[T any](parent map[Version]*Edge[T], from, to Version) Path[T] {
	var reversed []Edge[T]
	for v := to; v != from; {
		e := parent[v]
		reversed = append(reversed, *e)
		v = e.From
	}
	path := make(Path[T], len(reversed))
	for i, e := range reversed {
		path[len(reversed)-1-i] = e
	}
	return path
}

// AllVersions returns every version with at least one incident edge,
// in the order versions were first registered.
func (g *Graph[T]) AllVersions() []Version {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Version, len(g.vertices))
	copy(out, g.vertices)
	return out
}

// HasVersion reports whether v has at least one incident edge.
func (g *Graph[T]) HasVersion(v Version) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.seen[v]
	return ok
}

// Edges returns every directed edge in registration order.
func (g *Graph[T]) Edges() []Edge[T] {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Edge[T], len(g.order))
	for i, e := range g.order {
		out[i] = *e
	}
	return out
}

// Len returns the number of directed edges.
func (g *Graph[T]) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.order)
}

// MaxNumeric returns the numerically largest version in the graph.
//
// It returns a *verserrors.ConfigError when the graph is empty or holds any
// string version, since a largest version cannot be inferred then.
func (g *Graph[T]) MaxNumeric() (Version, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if len(g.vertices) == 0 {
		return Version{}, &verserrors.ConfigError{
			Option:  "latest",
			Message: "no versions registered to infer latest from",
		}
	}

	var best Version
	for _, v := range g.vertices {
		n, ok := v.Number()
		if !ok {
			return Version{}, &verserrors.ConfigError{
				Option:  "latest",
				Value:   v,
				Message: "cannot infer latest from a non-numeric version; set it explicitly",
			}
		}
		if cur, _ := best.Number(); best.IsZero() || n > cur {
			best = v
		}
	}
	return best, nil
}
