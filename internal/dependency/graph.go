package dependency

import (
	"fmt"
	"strings"
)

// NodeID is the unique identifier for a node inside a dependency graph.
// For catalog graphs it is the application ID.
type NodeID string

// NodeKind categorises nodes.
type NodeKind int

const (
	KindUnknown NodeKind = iota
	KindApplication
	KindContainer // Application shipped as a container image
)

// Node represents a catalog application together with its dependency list.
type Node struct {
	ID           NodeID
	FriendlyName string
	Kind         NodeKind
	DependsOn    []NodeID
}

// MissingError reports a dependency edge that points outside the graph.
type MissingError struct {
	Node    NodeID
	Missing NodeID
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("%s depends on %s, which is not in the graph", e.Node, e.Missing)
}

// CycleError reports a dependency cycle. Path starts and ends with the same node.
type CycleError struct {
	Path []NodeID
}

func (e *CycleError) Error() string {
	parts := make([]string, len(e.Path))
	for i, id := range e.Path {
		parts[i] = string(id)
	}
	return "dependency cycle: " + strings.Join(parts, " -> ")
}

// Graph is a very small helper to answer dependency queries.  It is *not*
// thread-safe by itself; callers must synchronise if they write concurrently.
type Graph struct {
	nodes map[NodeID]*Node
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{nodes: make(map[NodeID]*Node)}
}

// AddNode adds (or replaces) a node in the graph.
func (g *Graph) AddNode(n Node) {
	if g.nodes == nil {
		g.nodes = make(map[NodeID]*Node)
	}
	// Copy to avoid external mutations
	copied := n
	copied.DependsOn = append([]NodeID(nil), n.DependsOn...)
	g.nodes[n.ID] = &copied
}

// Get returns a pointer to the stored node or nil if it does not exist.
func (g *Graph) Get(id NodeID) *Node {
	return g.nodes[id]
}

// Dependencies returns a slice of immediate dependency IDs for the given node.
func (g *Graph) Dependencies(id NodeID) []NodeID {
	if n, ok := g.nodes[id]; ok {
		depsCopy := make([]NodeID, len(n.DependsOn))
		copy(depsCopy, n.DependsOn)
		return depsCopy
	}
	return nil
}

// Dependents returns all node IDs that have a direct dependency on the given
// node.  This is an O(n) walk; catalog graphs are small.
func (g *Graph) Dependents(id NodeID) []NodeID {
	var res []NodeID
	for _, n := range g.nodes {
		for _, dep := range n.DependsOn {
			if dep == id {
				res = append(res, n.ID)
				break
			}
		}
	}
	return res
}

// Closure returns roots plus every node they transitively depend on, with
// dependencies ordered before their dependents. Roots keep their relative
// order; each node appears once.
//
// A root that is not in the graph, or an edge to a missing node, yields a
// *MissingError (Node is empty for a missing root). A cycle yields a
// *CycleError.
func (g *Graph) Closure(roots []NodeID) ([]NodeID, error) {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[NodeID]int)
	var order []NodeID
	var stack []NodeID

	var visit func(parent, id NodeID) error
	visit = func(parent, id NodeID) error {
		n, ok := g.nodes[id]
		if !ok {
			return &MissingError{Node: parent, Missing: id}
		}
		switch state[id] {
		case done:
			return nil
		case visiting:
			start := 0
			for i, s := range stack {
				if s == id {
					start = i
					break
				}
			}
			path := append(append([]NodeID(nil), stack[start:]...), id)
			return &CycleError{Path: path}
		}

		state[id] = visiting
		stack = append(stack, id)
		for _, dep := range n.DependsOn {
			if err := visit(id, dep); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		state[id] = done
		order = append(order, id)
		return nil
	}

	for _, root := range roots {
		if err := visit("", root); err != nil {
			return nil, err
		}
	}
	return order, nil
}
