package behavior

import (
	"image/color"

	"github.com/fennwald/driftbot/internal/game"
	"github.com/fennwald/driftbot/internal/render"
)

// RenderPathNode draws the path stored under PathKey (or the GoTo node's
// active path when PathKey is empty).
type RenderPathNode struct {
	PathKey string
	Color   color.RGBA
}

// NewRenderPathNode draws the active travel path.
func NewRenderPathNode(col color.RGBA) *RenderPathNode {
	return &RenderPathNode{Color: col}
}

// NewRenderPathKeyNode draws a path stored under an explicit key.
func NewRenderPathKeyNode(pathKey string, col color.RGBA) *RenderPathNode {
	return &RenderPathNode{PathKey: pathKey, Color: col}
}

// Execute implements Node.
func (n *RenderPathNode) Execute(ctx *ExecuteContext) ExecuteResult {
	if ctx.Debug == nil {
		return Success
	}

	key := n.PathKey
	var prev game.Vec2
	if key == "" {
		key = gotoPathKey
		self := ctx.Self()
		if self == nil {
			return Failure
		}
		prev = self.Position
	}

	path, ok := Value[[]game.Vec2](ctx.Blackboard, key)
	if !ok {
		if n.PathKey != "" {
			return Failure
		}
		return Success
	}
	if len(path) == 0 {
		return Success
	}

	start := ValueOr[int](ctx.Blackboard, gotoIndexKey, 0)
	if n.PathKey != "" {
		// Explicit paths draw from their own first point.
		prev = path[0]
		start = 1
	}
	for i := start; i < len(path); i++ {
		ctx.Debug.PushLine(prev, path[i], n.Color)
		prev = path[i]
	}
	return Success
}

// TextRequest is the result of a RenderTextNode formatter.
type TextRequest struct {
	Text  string
	Color color.RGBA
	Align render.TextAlign
}

// RenderTextNode draws formatter output at a fixed position or a stored one.
// The formatter runs at execute time so it can read the blackboard.
type RenderTextNode struct {
	PosKey    string
	Pos       game.Vec2
	Formatter func(ctx *ExecuteContext) TextRequest
}

// NewRenderTextNode draws at a fixed world position.
func NewRenderTextNode(pos game.Vec2, formatter func(ctx *ExecuteContext) TextRequest) *RenderTextNode {
	return &RenderTextNode{Pos: pos, Formatter: formatter}
}

// NewRenderTextKeyNode draws at a position stored on the blackboard.
func NewRenderTextKeyNode(posKey string, formatter func(ctx *ExecuteContext) TextRequest) *RenderTextNode {
	return &RenderTextNode{PosKey: posKey, Formatter: formatter}
}

// Execute implements Node.
func (n *RenderTextNode) Execute(ctx *ExecuteContext) ExecuteResult {
	if ctx.Debug == nil {
		return Success
	}
	pos := n.Pos
	if n.PosKey != "" {
		var ok bool
		pos, ok = Value[game.Vec2](ctx.Blackboard, n.PosKey)
		if !ok {
			return Failure
		}
	}
	req := n.Formatter(ctx)
	ctx.Debug.PushText(req.Text, pos, req.Color, req.Align)
	return Success
}

// RenderRectNode draws the rectangle stored under RectKey.
type RenderRectNode struct {
	RectKey string
	Color   color.RGBA
}

// NewRenderRectNode creates the drawer.
func NewRenderRectNode(rectKey string, col color.RGBA) *RenderRectNode {
	return &RenderRectNode{RectKey: rectKey, Color: col}
}

// Execute implements Node.
func (n *RenderRectNode) Execute(ctx *ExecuteContext) ExecuteResult {
	if ctx.Debug == nil {
		return Success
	}
	rect, ok := Value[game.Rectangle](ctx.Blackboard, n.RectKey)
	if !ok {
		return Failure
	}
	ctx.Debug.PushRect(rect, n.Color)
	return Success
}

// RenderLineNode draws the line segment stored under LineKey.
type RenderLineNode struct {
	LineKey string
	Color   color.RGBA
}

// NewRenderLineNode creates the drawer.
func NewRenderLineNode(lineKey string, col color.RGBA) *RenderLineNode {
	return &RenderLineNode{LineKey: lineKey, Color: col}
}

// Execute implements Node.
func (n *RenderLineNode) Execute(ctx *ExecuteContext) ExecuteResult {
	if ctx.Debug == nil {
		return Success
	}
	line, ok := Value[game.LineSegment](ctx.Blackboard, n.LineKey)
	if !ok {
		return Failure
	}
	ctx.Debug.PushLine(line.A, line.B, n.Color)
	return Success
}

// RenderRayNode draws the ray stored under RayKey at a fixed length, or a
// length stored under LengthKey.
type RenderRayNode struct {
	RayKey    string
	Length    float32
	LengthKey string
	Color     color.RGBA
}

// NewRenderRayNode creates the drawer with a fixed length.
func NewRenderRayNode(rayKey string, length float32, col color.RGBA) *RenderRayNode {
	return &RenderRayNode{RayKey: rayKey, Length: length, Color: col}
}

// Execute implements Node.
func (n *RenderRayNode) Execute(ctx *ExecuteContext) ExecuteResult {
	if ctx.Debug == nil {
		return Success
	}
	ray, ok := Value[game.Ray](ctx.Blackboard, n.RayKey)
	if !ok {
		return Failure
	}
	length := n.Length
	if n.LengthKey != "" {
		length, ok = Value[float32](ctx.Blackboard, n.LengthKey)
		if !ok {
			return Failure
		}
	}
	ctx.Debug.PushLine(ray.Origin, ray.Origin.Add(ray.Direction.Scale(length)), n.Color)
	return Success
}

// RenderVectorNode draws the vector stored under VectorKey anchored at the
// stored origin, or at the local player when OriginKey is empty.
type RenderVectorNode struct {
	VectorKey string
	OriginKey string
	Color     color.RGBA
}

// NewRenderVectorNode anchors the vector at the local player.
func NewRenderVectorNode(vectorKey string, col color.RGBA) *RenderVectorNode {
	return &RenderVectorNode{VectorKey: vectorKey, Color: col}
}

// Execute implements Node.
func (n *RenderVectorNode) Execute(ctx *ExecuteContext) ExecuteResult {
	if ctx.Debug == nil {
		return Success
	}
	vec, ok := Value[game.Vec2](ctx.Blackboard, n.VectorKey)
	if !ok {
		return Failure
	}

	var origin game.Vec2
	if n.OriginKey != "" {
		origin, ok = Value[game.Vec2](ctx.Blackboard, n.OriginKey)
		if !ok {
			return Failure
		}
	} else {
		self := ctx.Self()
		if self == nil {
			return Failure
		}
		origin = self.Position
	}

	ctx.Debug.PushLine(origin, origin.Add(vec), n.Color)
	return Success
}

// RenderEnableTreeNode toggles the tree debugger's text output.
type RenderEnableTreeNode struct {
	Enabled bool
}

// NewRenderEnableTreeNode creates the toggle.
func NewRenderEnableTreeNode(enabled bool) *RenderEnableTreeNode {
	return &RenderEnableTreeNode{Enabled: enabled}
}

// Execute implements Node.
func (n *RenderEnableTreeNode) Execute(ctx *ExecuteContext) ExecuteResult {
	if ctx.TreeDebug != nil {
		ctx.TreeDebug.RenderText = n.Enabled
	}
	return Success
}
