package wdag

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/simple"
)

// dotNode adapts an arena index to a gonum graph node with a label.
type dotNode struct {
	id    int64
	label string
}

func (n dotNode) ID() int64 { return n.id }

func (n dotNode) Attributes() []encoding.Attribute {
	return []encoding.Attribute{{Key: "label", Value: fmt.Sprintf("%q", n.label)}}
}

type dotEdge struct {
	from, to graph.Node
	label    string
}

func (e dotEdge) From() graph.Node { return e.from }
func (e dotEdge) To() graph.Node   { return e.to }
func (e dotEdge) ReversedEdge() graph.Edge {
	return dotEdge{from: e.to, to: e.from, label: e.label}
}

func (e dotEdge) Attributes() []encoding.Attribute {
	return []encoding.Attribute{{Key: "label", Value: fmt.Sprintf("%q", e.label)}}
}

// DOT renders the graph, or a subset of it, in graphviz DOT format.
// nodeLabel maps a node index to its display label; a nil nodeLabel
// uses the index. include filters nodes; a nil include renders the
// whole graph. Edges with weight LogZero are not drawn.
func (g *WDAG) DOT(name string, nodeLabel func(id int) string, include func(id int) bool) ([]byte, error) {

	if nodeLabel == nil {
		nodeLabel = func(id int) string { return fmt.Sprintf("%d", id) }
	}
	if include == nil {
		include = func(int) bool { return true }
	}

	dg := simple.NewDirectedGraph()
	nodes := make(map[int]dotNode, len(g.nodes))
	for i := range g.nodes {
		if !include(i) {
			continue
		}
		n := dotNode{id: int64(i), label: nodeLabel(i)}
		nodes[i] = n
		dg.AddNode(n)
	}

	for i := range g.nodes {
		child, ok := nodes[i]
		if !ok {
			continue
		}
		for _, e := range g.nodes[i].in {
			parent, ok := nodes[e.parent]
			if !ok {
				continue
			}
			if math.IsInf(e.weight, -1) {
				continue
			}
			label := fmt.Sprintf("%v %.5f", e.tag, math.Exp(e.weight))
			dg.SetEdge(dotEdge{from: parent, to: child, label: label})
		}
	}

	return dot.Marshal(dg, name, "", "  ")
}
