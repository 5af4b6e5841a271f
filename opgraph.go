package pactl

import (
	"fmt"

	"github.com/arloliu/pactl/fixpoint"
	"github.com/arloliu/pactl/formula"
)

// opKind selects how a node of the operator graph is evaluated.
type opKind int8

const (
	// opLocal nodes are computed by every partition without communication.
	opLocal opKind = iota

	// opFixPoint nodes run one of the fixpoint operators.
	opFixPoint

	// opBroadcast nodes (AtState) spread the value of one state to all states.
	opBroadcast

	// opHybrid nodes (Bind, Exists, Forall) are expanded into one closed
	// formula per state.
	opHybrid
)

type opNode struct {
	f        formula.Formula
	key      string
	kind     opKind
	spec     fixpoint.Spec
	children []int
}

// opGraph is the dependency graph of the distinct sub-formulas of a closed,
// normalized formula. Nodes are stored in evaluation order: children precede
// their parents and the root is last.
//
// Bodies of binders are not part of the graph; they contain a free variable
// until the binder substitutes it.
type opGraph struct {
	nodes []opNode
	index map[string]int
}

func newOpGraph(f formula.Formula) (*opGraph, error) {
	g := &opGraph{index: make(map[string]int)}
	if _, err := g.add(f); err != nil {
		return nil, err
	}

	return g, nil
}

func (g *opGraph) root() opNode {
	return g.nodes[len(g.nodes)-1]
}

func (g *opGraph) add(f formula.Formula) (int, error) {
	key := formula.Key(f)
	if i, ok := g.index[key]; ok {
		return i, nil
	}

	node := opNode{f: f, key: key}
	switch n := f.(type) {
	case formula.True, formula.False, formula.Proposition, formula.Location:
		node.kind = opLocal
	case formula.Not, formula.And, formula.Or:
		node.kind = opLocal
	case formula.Next, formula.Future, formula.Globally, formula.Until:
		node.kind = opFixPoint
		node.spec = operatorSpec(n)
	case formula.AtState:
		node.kind = opBroadcast
	case formula.Bind, formula.Exists, formula.Forall:
		node.kind = opHybrid
	case formula.Reference:
		return 0, fmt.Errorf("%w: $%s", ErrUnboundVariable, n.Name)
	case formula.At:
		return 0, fmt.Errorf("%w: at $%s", ErrUnboundVariable, n.Name)
	default:
		return 0, fmt.Errorf("%w: %s is not normalized", ErrUnsupportedFormula, f)
	}

	if node.kind != opHybrid {
		for _, child := range formula.Children(f) {
			i, err := g.add(child)
			if err != nil {
				return 0, err
			}
			node.children = append(node.children, i)
		}
	}

	g.index[key] = len(g.nodes)
	g.nodes = append(g.nodes, node)

	return len(g.nodes) - 1, nil
}

// operatorSpec maps a temporal node to its fixpoint operator.
func operatorSpec(f formula.Formula) fixpoint.Spec {
	switch n := f.(type) {
	case formula.Next:
		return fixpoint.Spec{Op: pick(n.Quantifier, fixpoint.OpEX, fixpoint.OpAX), Flow: n.Flow, Direction: n.Direction}
	case formula.Future:
		return fixpoint.Spec{Op: pick(n.Quantifier, fixpoint.OpEF, fixpoint.OpAF), Flow: n.Flow, Direction: n.Direction}
	case formula.Globally:
		return fixpoint.Spec{Op: pick(n.Quantifier, fixpoint.OpEG, fixpoint.OpAG), Flow: n.Flow, Direction: n.Direction}
	case formula.Until:
		return fixpoint.Spec{Op: pick(n.Quantifier, fixpoint.OpEU, fixpoint.OpAU), Flow: n.Flow, Direction: n.Direction}
	}

	panic(fmt.Sprintf("operatorSpec: %T is not temporal", f))
}

func pick(q formula.Quantifier, exists, all fixpoint.Op) fixpoint.Op {
	if q == formula.Universal {
		return all
	}

	return exists
}
