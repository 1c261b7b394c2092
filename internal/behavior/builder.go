package behavior

// Builder assembles a behavior tree fluently. Each Selector/Sequence/
// Parallel call opens a composite that becomes the current parent; Child
// appends a leaf; End closes the current composite.
//
//	tree := NewBuilder().
//		Selector().
//			Sequence().
//				InvertChild(NewShipQueryNode("request_ship")).
//				Child(NewShipRequestNode("request_ship")).
//				End().
//			Child(NewInputActionNode(game.InputForward)).
//			End().
//		Build()
type Builder struct {
	stack []childAppender
	root  Node
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) push(node Node, appender childAppender) *Builder {
	if len(b.stack) > 0 {
		b.stack[len(b.stack)-1].addChild(node)
	} else if b.root == nil {
		b.root = node
	}
	b.stack = append(b.stack, appender)
	return b
}

func decoratorOf(dec []CompositeDecorator) CompositeDecorator {
	if len(dec) > 0 {
		return dec[0]
	}
	return DecoratorNone
}

// Selector opens a selector composite.
func (b *Builder) Selector(dec ...CompositeDecorator) *Builder {
	n := &SelectorNode{}
	n.decorator = decoratorOf(dec)
	return b.push(n, n)
}

// Sequence opens a sequence composite.
func (b *Builder) Sequence(dec ...CompositeDecorator) *Builder {
	n := &SequenceNode{}
	n.decorator = decoratorOf(dec)
	return b.push(n, n)
}

// Parallel opens a parallel composite.
func (b *Builder) Parallel(dec ...CompositeDecorator) *Builder {
	n := &ParallelNode{}
	n.decorator = decoratorOf(dec)
	return b.push(n, n)
}

// Child appends a node to the current composite.
func (b *Builder) Child(n Node) *Builder {
	if len(b.stack) > 0 {
		b.stack[len(b.stack)-1].addChild(n)
	} else if b.root == nil {
		b.root = n
	}
	return b
}

// InvertChild appends a node wrapped in an inverter.
func (b *Builder) InvertChild(n Node) *Builder {
	return b.Child(NewInvert(n))
}

// End closes the current composite.
func (b *Builder) End() *Builder {
	if len(b.stack) > 0 {
		b.stack = b.stack[:len(b.stack)-1]
	}
	return b
}

// Build returns the tree root.
func (b *Builder) Build() Node {
	return b.root
}
