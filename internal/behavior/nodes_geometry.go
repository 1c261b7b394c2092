package behavior

import "github.com/fennwald/driftbot/internal/game"

// RayNode builds a ray from two stored vectors and writes it to OutKey. The
// direction vector is normalized.
type RayNode struct {
	OriginKey    string
	DirectionKey string
	OutKey       string
}

// NewRayNode creates the constructor node.
func NewRayNode(originKey, directionKey, outKey string) *RayNode {
	return &RayNode{OriginKey: originKey, DirectionKey: directionKey, OutKey: outKey}
}

// Execute implements Node.
func (n *RayNode) Execute(ctx *ExecuteContext) ExecuteResult {
	origin, ok := Value[game.Vec2](ctx.Blackboard, n.OriginKey)
	if !ok {
		return Failure
	}
	direction, ok := Value[game.Vec2](ctx.Blackboard, n.DirectionKey)
	if !ok || direction.IsZero() {
		return Failure
	}
	ctx.Blackboard.Set(n.OutKey, game.Ray{Origin: origin, Direction: direction.Normalized()})
	return Success
}

// RectangleNode builds a rectangle centered on a stored position and writes
// it to OutKey.
type RectangleNode struct {
	PosKey      string
	HalfExtents game.Vec2
	OutKey      string
}

// NewRectangleNode creates the constructor node.
func NewRectangleNode(posKey string, halfExtents game.Vec2, outKey string) *RectangleNode {
	return &RectangleNode{PosKey: posKey, HalfExtents: halfExtents, OutKey: outKey}
}

// Execute implements Node.
func (n *RectangleNode) Execute(ctx *ExecuteContext) ExecuteResult {
	pos, ok := Value[game.Vec2](ctx.Blackboard, n.PosKey)
	if !ok {
		return Failure
	}
	ctx.Blackboard.Set(n.OutKey, game.NewRectangle(pos, n.HalfExtents))
	return Success
}

// MoveRectangleNode re-centers a stored rectangle on a stored position.
type MoveRectangleNode struct {
	RectKey string
	PosKey  string
	OutKey  string
}

// NewMoveRectangleNode creates the transform node.
func NewMoveRectangleNode(rectKey, posKey, outKey string) *MoveRectangleNode {
	return &MoveRectangleNode{RectKey: rectKey, PosKey: posKey, OutKey: outKey}
}

// Execute implements Node.
func (n *MoveRectangleNode) Execute(ctx *ExecuteContext) ExecuteResult {
	rect, ok := Value[game.Rectangle](ctx.Blackboard, n.RectKey)
	if !ok {
		return Failure
	}
	pos, ok := Value[game.Vec2](ctx.Blackboard, n.PosKey)
	if !ok {
		return Failure
	}
	ctx.Blackboard.Set(n.OutKey, rect.Translate(pos))
	return Success
}

// rayInterceptMaxLength bounds how far along a ray an intercept counts.
const rayInterceptMaxLength = 100.0

// RayRectangleInterceptNode succeeds when the stored ray enters the stored
// rectangle within the intercept range.
type RayRectangleInterceptNode struct {
	RayKey  string
	RectKey string
}

// NewRayRectangleInterceptNode creates the test node.
func NewRayRectangleInterceptNode(rayKey, rectKey string) *RayRectangleInterceptNode {
	return &RayRectangleInterceptNode{RayKey: rayKey, RectKey: rectKey}
}

// Execute implements Node.
func (n *RayRectangleInterceptNode) Execute(ctx *ExecuteContext) ExecuteResult {
	ray, ok := Value[game.Ray](ctx.Blackboard, n.RayKey)
	if !ok {
		return Failure
	}
	rect, ok := Value[game.Rectangle](ctx.Blackboard, n.RectKey)
	if !ok {
		return Failure
	}
	if _, hit := game.RayRectangleIntercept(ray, rect, rayInterceptMaxLength); hit {
		return Success
	}
	return Failure
}
