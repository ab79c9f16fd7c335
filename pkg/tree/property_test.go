package tree_test

import (
	"errors"
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"github.com/vanderheijden86/treelist/pkg/testutil"
	"github.com/vanderheijden86/treelist/pkg/tree"
)

// randomTree draws a generated tree from rapid's seed.
func randomTree(t *rapid.T) *tree.Node {
	cfg := testutil.DefaultConfig()
	cfg.Seed = rapid.Int64Range(1, 1<<40).Draw(t, "seed")
	cfg.HideRatio = rapid.Float64Range(0, 0.5).Draw(t, "hide")
	cfg.ExpandRatio = rapid.Float64Range(0, 1).Draw(t, "expand")
	return testutil.New(cfg).Random(rapid.IntRange(1, 60).Draw(t, "size"))
}

// mutate applies one randomly drawn operation to a node of root.
func mutate(t *rapid.T, root *tree.Node, fresh *int) error {
	nodes := root.DescendantsAndSelf()
	n := rapid.SampledFrom(nodes).Draw(t, "node")
	switch op := rapid.IntRange(0, 5).Draw(t, "op"); op {
	case 0:
		return n.SetExpanded(!n.IsExpanded())
	case 1:
		if n == root {
			return nil
		}
		return n.SetHidden(!n.IsHidden())
	case 2:
		return n.Detach()
	case 3:
		*fresh++
		child := testutil.N(fmt.Sprintf("new%d", *fresh))
		if rapid.Bool().Draw(t, "withChild") {
			_ = child.AddChild(testutil.N(fmt.Sprintf("new%d/c", *fresh)))
			_ = child.SetExpanded(true)
		}
		at := rapid.IntRange(0, n.Children().Len()).Draw(t, "at")
		return n.InsertChild(at, child)
	case 4:
		// Move a subtree under a node outside of it.
		if n == root {
			return nil
		}
		target := rapid.SampledFrom(nodes).Draw(t, "target")
		if target == n || n.IsAncestorOf(target) {
			return nil
		}
		if err := n.Detach(); err != nil {
			return err
		}
		return target.AddChild(n)
	default:
		if n.Children().Len() == 0 {
			return nil
		}
		keep := rapid.IntRange(0, 2).Draw(t, "keep")
		i := 0
		return n.Children().RemoveAll(func(*tree.Node) bool {
			i++
			return i%3 != keep
		})
	}
}

func TestPropertyBatchesReproduceSequence(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		root := randomTree(t)
		f := tree.NewFlattener(root, rapid.Bool().Draw(t, "showRoot"))
		m := testutil.NewMirror(f)
		fresh := 0

		steps := rapid.IntRange(1, 30).Draw(t, "steps")
		for range steps {
			if err := mutate(t, root, &fresh); err != nil {
				t.Fatalf("mutation failed: %v", err)
			}
			if err := testutil.CheckMirror(m, f); err != nil {
				t.Fatal(err)
			}
			if err := testutil.CheckVisibility(root); err != nil {
				t.Fatal(err)
			}
			if err := testutil.CheckRoundTrip(f); err != nil {
				t.Fatal(err)
			}
		}
	})
}

func TestPropertySingleParent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		root := randomTree(t)
		other := testutil.N("other")
		nodes := root.Descendants()
		if len(nodes) == 0 {
			return
		}
		n := rapid.SampledFrom(nodes).Draw(t, "node")
		parent := n.Parent()
		if err := other.AddChild(n); !errors.Is(err, tree.ErrAlreadyParented) {
			t.Fatalf("attach to second parent: %v", err)
		}
		if n.Parent() != parent || other.HasChildren() {
			t.Fatal("failed attach changed ownership")
		}
		for _, d := range root.Descendants() {
			if !d.Parent().Children().Contains(d) {
				t.Fatalf("%q is not a child of its parent", d.Text())
			}
		}
	})
}

func TestPropertyLenMatchesBruteForce(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		root := randomTree(t)
		showRoot := rapid.Bool().Draw(t, "showRoot")
		f := tree.NewFlattener(root, showRoot)

		want := 0
		for _, n := range root.DescendantsAndSelf() {
			if n.IsVisible() && (showRoot || n != root) {
				want++
			}
		}
		if f.Len() != want {
			t.Fatalf("Len() = %d, brute force count = %d", f.Len(), want)
		}
	})
}
