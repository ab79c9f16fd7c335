// Package testutil provides tree fixtures and invariant assertions for tests.
// All generators produce deterministic output for reproducible tests.
package testutil

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/vanderheijden86/treelist/pkg/tree"
)

// N builds a node labelled text with the given children attached in order.
// It panics on attach errors, which only happen when a fixture reuses a node.
func N(text string, children ...*tree.Node) *tree.Node {
	n := tree.New(tree.Label(text))
	if len(children) > 0 {
		if err := n.Children().AddRange(children); err != nil {
			panic(fmt.Sprintf("fixture %q: %v", text, err))
		}
	}
	return n
}

// Expanded expands n and returns it, for inline fixtures.
func Expanded(n *tree.Node) *tree.Node {
	if err := n.SetExpanded(true); err != nil {
		panic(fmt.Sprintf("fixture %q: %v", n.Text(), err))
	}
	return n
}

// ExpandAll expands every node below and including root.
func ExpandAll(root *tree.Node) {
	root.Walk(func(n *tree.Node) bool {
		_ = n.SetExpanded(true)
		return true
	})
}

// Find returns the first node in pre-order whose text equals text.
func Find(root *tree.Node, text string) *tree.Node {
	var found *tree.Node
	root.Walk(func(n *tree.Node) bool {
		if found != nil {
			return false
		}
		if n.Text() == text {
			found = n
			return false
		}
		return true
	})
	return found
}

// Texts returns the display texts of nodes.
func Texts(nodes []*tree.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Text()
	}
	return out
}

// GeneratorConfig controls tree generation.
type GeneratorConfig struct {
	Seed        int64   // Random seed for determinism (0 = use current time)
	Prefix      string  // Prefix for node labels (default: "n")
	MaxChildren int     // Upper bound of children per node in Random (default 4)
	ExpandRatio float64 // Probability that a generated inner node is expanded
	HideRatio   float64 // Probability that a generated node is hidden
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:        42,
		Prefix:      "n",
		MaxChildren: 4,
		ExpandRatio: 0.7,
		HideRatio:   0.1,
	}
}

// Generator creates trees with various shapes.
type Generator struct {
	cfg  GeneratorConfig
	rng  *rand.Rand
	next int
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "n"
	}
	if cfg.MaxChildren <= 0 {
		cfg.MaxChildren = 4
	}
	return &Generator{cfg: cfg, rng: rand.New(rand.NewSource(seed))}
}

// NewDefault creates a Generator with default config.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

func (g *Generator) node() *tree.Node {
	n := tree.New(tree.Label(fmt.Sprintf("%s%d", g.cfg.Prefix, g.next)))
	g.next++
	return n
}

// Chain creates a path of size nodes, every node expanded: the deepest
// possible tree for its size.
func (g *Generator) Chain(size int) *tree.Node {
	root := g.node()
	cur := root
	for i := 1; i < size; i++ {
		child := g.node()
		_ = cur.AddChild(child)
		_ = cur.SetExpanded(true)
		cur = child
	}
	return root
}

// Star creates an expanded root with spokes leaf children: the widest tree
// for its size.
func (g *Generator) Star(spokes int) *tree.Node {
	root := g.node()
	children := make([]*tree.Node, spokes)
	for i := range children {
		children[i] = g.node()
	}
	_ = root.Children().AddRange(children)
	_ = root.SetExpanded(true)
	return root
}

// Balanced creates a complete tree with the given fan-out and depth, every
// inner node expanded.
func (g *Generator) Balanced(fanout, depth int) *tree.Node {
	root := g.node()
	if depth > 0 {
		for i := 0; i < fanout; i++ {
			_ = root.AddChild(g.Balanced(fanout, depth-1))
		}
		_ = root.SetExpanded(true)
	}
	return root
}

// Random creates a tree of exactly size nodes with random shape, expansion
// and hidden flags drawn from the config ratios. The root is expanded.
func (g *Generator) Random(size int) *tree.Node {
	root := g.node()
	nodes := []*tree.Node{root}
	for len(nodes) < size {
		parent := nodes[g.rng.Intn(len(nodes))]
		if parent.Children().Len() >= g.cfg.MaxChildren {
			continue
		}
		child := g.node()
		if g.rng.Float64() < g.cfg.HideRatio {
			_ = child.SetHidden(true)
		}
		_ = parent.AddChild(child)
		nodes = append(nodes, child)
	}
	for _, n := range nodes[1:] {
		if g.rng.Float64() < g.cfg.ExpandRatio {
			_ = n.SetExpanded(true)
		}
	}
	_ = root.SetExpanded(true)
	return root
}
