package testutil

import (
	"slices"
	"testing"

	"github.com/vanderheijden86/treelist/pkg/tree"
)

func TestGeneratorShapes(t *testing.T) {
	tests := []struct {
		name      string
		build     func(g *Generator) *tree.Node
		wantNodes int
		wantDepth int
	}{
		{"chain", func(g *Generator) *tree.Node { return g.Chain(5) }, 5, 4},
		{"star", func(g *Generator) *tree.Node { return g.Star(6) }, 7, 1},
		{"balanced", func(g *Generator) *tree.Node { return g.Balanced(2, 3) }, 15, 3},
		{"random", func(g *Generator) *tree.Node { return g.Random(40) }, 40, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := tt.build(NewDefault())
			nodes := root.DescendantsAndSelf()
			if len(nodes) != tt.wantNodes {
				t.Errorf("got %d nodes, want %d", len(nodes), tt.wantNodes)
			}
			if tt.wantDepth >= 0 {
				depth := 0
				for _, n := range nodes {
					depth = max(depth, n.Level())
				}
				if depth != tt.wantDepth {
					t.Errorf("depth = %d, want %d", depth, tt.wantDepth)
				}
			}
			AssertVisibility(t, root)
		})
	}
}

func TestGeneratorDeterministic(t *testing.T) {
	a := Texts(New(DefaultConfig()).Random(60).DescendantsAndSelf())
	b := Texts(New(DefaultConfig()).Random(60).DescendantsAndSelf())
	if !slices.Equal(a, b) {
		t.Fatalf("same seed produced different trees:\n%v\n%v", a, b)
	}
}

func TestMirrorTracksFlattener(t *testing.T) {
	root := NewDefault().Random(50)
	f := tree.NewFlattener(root, false)
	m := NewMirror(f)

	ExpandAll(root)
	AssertMirrorMatches(t, m, f)
	AssertRoundTrip(t, f)
}

func TestMirrorRejectsBadIndices(t *testing.T) {
	m := &Mirror{}
	m.OnRemoved(0, []*tree.Node{N("x")})
	m.OnInserted(3, []*tree.Node{N("y")})
	if len(m.Errs) != 2 {
		t.Fatalf("got %d errors, want 2", len(m.Errs))
	}
}

func TestFind(t *testing.T) {
	root := N("r", N("a", N("b")), N("c"))
	if got := Find(root, "b"); got == nil || got.Parent().Text() != "a" {
		t.Fatalf("Find(b) = %v", got)
	}
	if Find(root, "zzz") != nil {
		t.Fatal("Find returned a node for a missing text")
	}
}
