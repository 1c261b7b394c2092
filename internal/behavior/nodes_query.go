package behavior

import (
	"cmp"

	"github.com/fennwald/driftbot/internal/game"
)

// ScalarThresholdNode succeeds when the blackboard value under Key is at or
// above Threshold.
type ScalarThresholdNode[T cmp.Ordered] struct {
	Key       string
	Threshold T
}

// NewScalarThresholdNode creates the threshold query.
func NewScalarThresholdNode[T cmp.Ordered](key string, threshold T) *ScalarThresholdNode[T] {
	return &ScalarThresholdNode[T]{Key: key, Threshold: threshold}
}

// Execute implements Node.
func (n *ScalarThresholdNode[T]) Execute(ctx *ExecuteContext) ExecuteResult {
	v, ok := Value[T](ctx.Blackboard, n.Key)
	if !ok {
		return Failure
	}
	if v >= n.Threshold {
		return Success
	}
	return Failure
}

// InputQueryNode succeeds when the action bit is already set this frame.
type InputQueryNode struct {
	Action game.InputAction
}

// NewInputQueryNode creates the query.
func NewInputQueryNode(a game.InputAction) *InputQueryNode {
	return &InputQueryNode{Action: a}
}

// Execute implements Node.
func (n *InputQueryNode) Execute(ctx *ExecuteContext) ExecuteResult {
	if ctx.Input.IsDown(n.Action) {
		return Success
	}
	return Failure
}

// InputActionNode sets an action bit for this frame.
type InputActionNode struct {
	Action game.InputAction
}

// NewInputActionNode creates the actuator.
func NewInputActionNode(a game.InputAction) *InputActionNode {
	return &InputActionNode{Action: a}
}

// Execute implements Node.
func (n *InputActionNode) Execute(ctx *ExecuteContext) ExecuteResult {
	ctx.Input.SetAction(n.Action, true)
	return Success
}

// TileQueryNode succeeds when the local player stands on the given tile id.
type TileQueryNode struct {
	ID game.TileID
}

// NewTileQueryNode creates the query.
func NewTileQueryNode(id game.TileID) *TileQueryNode {
	return &TileQueryNode{ID: id}
}

// Execute implements Node.
func (n *TileQueryNode) Execute(ctx *ExecuteContext) ExecuteResult {
	self := ctx.Self()
	if self == nil {
		return Failure
	}
	if ctx.Map.GetTileID(self.Position) == n.ID {
		return Success
	}
	return Failure
}

// VisibilityQueryNode succeeds when the straight line from the local player
// to the stored position is clear of solid tiles.
type VisibilityQueryNode struct {
	PosKey string
}

// NewVisibilityQueryNode creates the query.
func NewVisibilityQueryNode(posKey string) *VisibilityQueryNode {
	return &VisibilityQueryNode{PosKey: posKey}
}

// Execute implements Node.
func (n *VisibilityQueryNode) Execute(ctx *ExecuteContext) ExecuteResult {
	self := ctx.Self()
	if self == nil {
		return Failure
	}
	pos, ok := Value[game.Vec2](ctx.Blackboard, n.PosKey)
	if !ok {
		return Failure
	}
	if game.LineOfSight(ctx.Map, self.Position, pos, self.Frequency) {
		return Success
	}
	return Failure
}

// RepelDistanceQueryNode writes the arena's repel radius in tiles.
type RepelDistanceQueryNode struct {
	OutKey string
}

// NewRepelDistanceQueryNode creates the query.
func NewRepelDistanceQueryNode(outKey string) *RepelDistanceQueryNode {
	return &RepelDistanceQueryNode{OutKey: outKey}
}

// Execute implements Node.
func (n *RepelDistanceQueryNode) Execute(ctx *ExecuteContext) ExecuteResult {
	ctx.Blackboard.Set(n.OutKey, float32(ctx.Conn.Settings.RepelDistance)/16.0)
	return Success
}

// PositionThreatQueryNode estimates how dangerous a stored position is and
// writes a 0..1 score. Threat accumulates from live enemies within Radius,
// weighted by proximity.
type PositionThreatQueryNode struct {
	PosKey string
	OutKey string
	Radius float32
	Weight float32 // one enemy at zero distance adds Weight/10
}

// NewPositionThreatQueryNode creates the query.
func NewPositionThreatQueryNode(posKey, outKey string, radius, weight float32) *PositionThreatQueryNode {
	return &PositionThreatQueryNode{PosKey: posKey, OutKey: outKey, Radius: radius, Weight: weight}
}

// Execute implements Node.
func (n *PositionThreatQueryNode) Execute(ctx *ExecuteContext) ExecuteResult {
	self := ctx.Self()
	if self == nil {
		return Failure
	}
	pos, ok := Value[game.Vec2](ctx.Blackboard, n.PosKey)
	if !ok {
		return Failure
	}

	threat := float32(0)
	for i := 0; i < ctx.Players.PlayerCount(); i++ {
		p := ctx.Players.PlayerAt(i)
		if p.ID == self.ID || p.Frequency == self.Frequency {
			continue
		}
		if p.Ship >= game.SpectatorShip || !p.IsSynchronized() || p.EnterDelay > 0 {
			continue
		}
		dist := p.Position.Distance(pos)
		if dist >= n.Radius {
			continue
		}
		threat += n.Weight * 0.1 * (1 - dist/n.Radius)
	}
	if threat > 1 {
		threat = 1
	}

	ctx.Blackboard.Set(n.OutKey, threat)
	return Success
}
