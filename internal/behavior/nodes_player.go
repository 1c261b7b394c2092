package behavior

import "github.com/fennwald/driftbot/internal/game"

// PlayerPositionQueryNode writes a player's position to the blackboard. With
// an empty PlayerKey it reads the local player; otherwise PlayerKey names a
// blackboard entry holding a PlayerID.
type PlayerPositionQueryNode struct {
	PlayerKey string
	OutKey    string
}

// NewSelfPositionQueryNode writes the local player's position to outKey.
func NewSelfPositionQueryNode(outKey string) *PlayerPositionQueryNode {
	return &PlayerPositionQueryNode{OutKey: outKey}
}

// NewPlayerPositionQueryNode writes the position of the player named by
// playerKey to outKey.
func NewPlayerPositionQueryNode(playerKey, outKey string) *PlayerPositionQueryNode {
	return &PlayerPositionQueryNode{PlayerKey: playerKey, OutKey: outKey}
}

// Execute implements Node.
func (n *PlayerPositionQueryNode) Execute(ctx *ExecuteContext) ExecuteResult {
	player := ctx.Self()
	if n.PlayerKey != "" {
		id, ok := Value[game.PlayerID](ctx.Blackboard, n.PlayerKey)
		if !ok {
			return Failure
		}
		player = ctx.Players.GetPlayerByID(id)
	}
	if player == nil {
		return Failure
	}
	ctx.Blackboard.Set(n.OutKey, player.Position)
	return Success
}

// NearestMemoryTargetNode selects the closest remembered enemy and stores
// its id.
type NearestMemoryTargetNode struct {
	OutKey string
}

// NewNearestMemoryTargetNode creates the selector.
func NewNearestMemoryTargetNode(outKey string) *NearestMemoryTargetNode {
	return &NearestMemoryTargetNode{OutKey: outKey}
}

// Execute implements Node.
func (n *NearestMemoryTargetNode) Execute(ctx *ExecuteContext) ExecuteResult {
	if ctx.Targets == nil {
		return Failure
	}
	id := ctx.Targets.NearestTarget(ctx)
	if id == game.InvalidPlayerID {
		return Failure
	}
	ctx.Blackboard.Set(n.OutKey, id)
	return Success
}

// PlayerEnergyPercentThresholdNode succeeds when the local player's energy
// is at or above the given fraction of the ship maximum.
type PlayerEnergyPercentThresholdNode struct {
	Percent float32
}

// NewPlayerEnergyPercentThresholdNode creates the threshold query.
func NewPlayerEnergyPercentThresholdNode(percent float32) *PlayerEnergyPercentThresholdNode {
	return &PlayerEnergyPercentThresholdNode{Percent: percent}
}

// Execute implements Node.
func (n *PlayerEnergyPercentThresholdNode) Execute(ctx *ExecuteContext) ExecuteResult {
	self := ctx.Self()
	if self == nil || ctx.Ships == nil {
		return Failure
	}
	max := float32(ctx.Ships.Ship.Energy)
	if max <= 0 {
		return Failure
	}
	if self.Energy/max >= n.Percent {
		return Success
	}
	return Failure
}

// DistanceThresholdNode succeeds when the distance from the local player (or
// FromKey's position) to PosKey's position is at least Threshold tiles.
type DistanceThresholdNode struct {
	PosKey    string
	FromKey   string
	Threshold float32
}

// NewDistanceThresholdNode measures from the local player.
func NewDistanceThresholdNode(posKey string, threshold float32) *DistanceThresholdNode {
	return &DistanceThresholdNode{PosKey: posKey, Threshold: threshold}
}

// Execute implements Node.
func (n *DistanceThresholdNode) Execute(ctx *ExecuteContext) ExecuteResult {
	to, ok := Value[game.Vec2](ctx.Blackboard, n.PosKey)
	if !ok {
		return Failure
	}

	var from game.Vec2
	if n.FromKey != "" {
		from, ok = Value[game.Vec2](ctx.Blackboard, n.FromKey)
		if !ok {
			return Failure
		}
	} else {
		self := ctx.Self()
		if self == nil {
			return Failure
		}
		from = self.Position
	}

	if from.Distance(to) >= n.Threshold {
		return Success
	}
	return Failure
}

// AttachQueryNode succeeds when the local player is attached to a parent.
type AttachQueryNode struct{}

// NewAttachQueryNode creates the query.
func NewAttachQueryNode() *AttachQueryNode {
	return &AttachQueryNode{}
}

// Execute implements Node.
func (n *AttachQueryNode) Execute(ctx *ExecuteContext) ExecuteResult {
	self := ctx.Self()
	if self == nil || self.AttachParent == game.InvalidPlayerID {
		return Failure
	}
	return Success
}

// AttachRequestNode attempts to attach onto the player named by PlayerKey,
// succeeding only when the full precondition ladder passes.
type AttachRequestNode struct {
	PlayerKey string
}

// NewAttachRequestNode creates the request node.
func NewAttachRequestNode(playerKey string) *AttachRequestNode {
	return &AttachRequestNode{PlayerKey: playerKey}
}

// Execute implements Node.
func (n *AttachRequestNode) Execute(ctx *ExecuteContext) ExecuteResult {
	id, ok := Value[game.PlayerID](ctx.Blackboard, n.PlayerKey)
	if !ok {
		return Failure
	}
	if ctx.Players.AttachSelf(ctx.Players.GetPlayerByID(id)) == game.AttachSuccess {
		return Success
	}
	return Failure
}
