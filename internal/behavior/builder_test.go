package behavior

import "testing"

func TestBuilderBuildsNestedComposites(t *testing.T) {
	a := &stubNode{result: Failure}
	b := &stubNode{result: Success}
	c := &stubNode{result: Success}

	tree := NewBuilder().
		Selector().
			Sequence().
				Child(a).
				Child(b).
				End().
			Child(c).
			End().
		Build()

	if got := tree.Execute(newCtx()); got != Success {
		t.Errorf("tree = %v, want success via the selector's second child", got)
	}
	// The failing sequence stops at a; the selector falls through to c.
	if a.runs != 1 || b.runs != 0 || c.runs != 1 {
		t.Errorf("runs = %d/%d/%d, want 1/0/1", a.runs, b.runs, c.runs)
	}
}

func TestBuilderInvertChild(t *testing.T) {
	fail := &stubNode{result: Failure}
	act := &stubNode{result: Success}

	tree := NewBuilder().
		Sequence().
			InvertChild(fail).
			Child(act).
			End().
		Build()

	if got := tree.Execute(newCtx()); got != Success {
		t.Errorf("tree = %v, want success", got)
	}
	if act.runs != 1 {
		t.Error("inverted failure must let the sequence continue")
	}
}

func TestBuilderCompositeDecorator(t *testing.T) {
	tree := NewBuilder().
		Sequence().
			Sequence(DecoratorSuccess).
				Child(&stubNode{result: Failure}).
				End().
			Child(&stubNode{result: Success}).
			End().
		Build()

	if got := tree.Execute(newCtx()); got != Success {
		t.Errorf("tree = %v; an optional sub-sequence must not abort the parent", got)
	}
}

func TestBuilderSingleLeaf(t *testing.T) {
	leaf := &stubNode{result: Success}
	tree := NewBuilder().Child(leaf).Build()
	if tree == nil || tree.Execute(newCtx()) != Success {
		t.Error("a bare leaf can be the root")
	}
}
