// Package dependency provides a small directed graph of catalog applications
// and their dependencies.
//
// The fixture resolver builds one graph per catalog and asks it for the
// transitive closure of the requested applications. The closure lists every
// dependency before the applications that need it, which is the order the
// resolver reports them in.
//
// # Usage Example
//
//	graph := dependency.New()
//	graph.AddNode(dependency.Node{ID: "postgres", Kind: dependency.KindApplication})
//	graph.AddNode(dependency.Node{
//	    ID:        "wiki",
//	    Kind:      dependency.KindApplication,
//	    DependsOn: []dependency.NodeID{"postgres"},
//	})
//
//	order, err := graph.Closure([]dependency.NodeID{"wiki"})
//	// order: ["postgres", "wiki"]
//
// # Error Handling
//
// Closure reports edges to unknown nodes with *MissingError and dependency
// cycles with *CycleError, whose Path names every node on the cycle.
//
// # Thread Safety
//
// The Graph type is not safe for concurrent writes. Catalog graphs are built
// once and then only read.
package dependency
