package behavior

import "github.com/fennwald/driftbot/internal/game"

// Blackboard keys the GoTo node parks its path state under.
const (
	gotoPathKey  = "goto_path"
	gotoIndexKey = "goto_path_index"
	gotoGoalKey  = "goto_goal"
)

// gotoRepathDistance is how far the goal may drift before the path is
// recomputed.
const gotoRepathDistance = 3.0

// GoToNode paths to the stored position and steers along the route. Returns
// Running while traveling, Success on arrival, Failure when no route exists.
type GoToNode struct {
	PosKey string
}

// NewGoToNode creates the travel node.
func NewGoToNode(posKey string) *GoToNode {
	return &GoToNode{PosKey: posKey}
}

// Execute implements Node.
func (n *GoToNode) Execute(ctx *ExecuteContext) ExecuteResult {
	self := ctx.Self()
	if self == nil || ctx.Pathfinder == nil {
		return Failure
	}
	goal, ok := Value[game.Vec2](ctx.Blackboard, n.PosKey)
	if !ok {
		return Failure
	}

	if self.Position.Distance(goal) < 2 {
		ctx.Blackboard.Erase(gotoPathKey)
		return Success
	}

	path, havePath := Value[[]game.Vec2](ctx.Blackboard, gotoPathKey)
	index := ValueOr[int](ctx.Blackboard, gotoIndexKey, 0)
	prevGoal := ValueOr[game.Vec2](ctx.Blackboard, gotoGoalKey, game.Vec2{})

	if !havePath || index >= len(path) || prevGoal.Distance(goal) > gotoRepathDistance {
		path = ctx.Pathfinder.FindPath(self.Position, goal)
		if len(path) == 0 {
			ctx.Blackboard.Erase(gotoPathKey)
			return Failure
		}
		index = 0
		ctx.Blackboard.Set(gotoPathKey, path)
		ctx.Blackboard.Set(gotoGoalKey, goal)
	}

	// Advance past waypoints already reached.
	for index < len(path) && self.Position.Distance(path[index]) < 1.0 {
		index++
	}
	ctx.Blackboard.Set(gotoIndexKey, index)

	if index >= len(path) {
		ctx.Blackboard.Erase(gotoPathKey)
		return Success
	}

	ctx.Steering.Face(path[index])
	ctx.Steering.Arrive(ctx, path[index], 2)
	return Running
}

// SeekNode steers toward the stored position, honoring an optional leash
// distance stored under LeashKey.
type SeekNode struct {
	TargetKey string
	LeashKey  string
}

// NewSeekNode creates an unleashed seek.
func NewSeekNode(targetKey string) *SeekNode {
	return &SeekNode{TargetKey: targetKey}
}

// NewSeekWithLeashNode creates a seek that holds a blackboard-driven
// distance band around the target.
func NewSeekWithLeashNode(targetKey, leashKey string) *SeekNode {
	return &SeekNode{TargetKey: targetKey, LeashKey: leashKey}
}

// Execute implements Node.
func (n *SeekNode) Execute(ctx *ExecuteContext) ExecuteResult {
	target, ok := Value[game.Vec2](ctx.Blackboard, n.TargetKey)
	if !ok {
		return Failure
	}
	leash := float32(0)
	if n.LeashKey != "" {
		leash = ValueOr[float32](ctx.Blackboard, n.LeashKey, 0)
	}
	ctx.Steering.Seek(ctx, target, leash)
	return Success
}

// FaceNode turns toward the stored position without thrusting.
type FaceNode struct {
	TargetKey string
}

// NewFaceNode creates the facing node.
func NewFaceNode(targetKey string) *FaceNode {
	return &FaceNode{TargetKey: targetKey}
}

// Execute implements Node.
func (n *FaceNode) Execute(ctx *ExecuteContext) ExecuteResult {
	target, ok := Value[game.Vec2](ctx.Blackboard, n.TargetKey)
	if !ok {
		return Failure
	}
	ctx.Steering.Face(target)
	return Success
}

// ArriveNode steers toward the stored position, decelerating inside the
// slow radius.
type ArriveNode struct {
	TargetKey  string
	SlowRadius float32
}

// NewArriveNode creates the arrival node.
func NewArriveNode(targetKey string, slowRadius float32) *ArriveNode {
	return &ArriveNode{TargetKey: targetKey, SlowRadius: slowRadius}
}

// Execute implements Node.
func (n *ArriveNode) Execute(ctx *ExecuteContext) ExecuteResult {
	target, ok := Value[game.Vec2](ctx.Blackboard, n.TargetKey)
	if !ok {
		return Failure
	}
	ctx.Steering.Arrive(ctx, target, n.SlowRadius)
	return Success
}

// WaypointNode iterates a []game.Vec2 stored under ListKey, writing the
// current waypoint to OutKey and advancing when within Distance tiles.
type WaypointNode struct {
	ListKey  string
	IndexKey string
	OutKey   string
	Distance float32
}

// NewWaypointNode creates the patrol node.
func NewWaypointNode(listKey, indexKey, outKey string, distance float32) *WaypointNode {
	return &WaypointNode{ListKey: listKey, IndexKey: indexKey, OutKey: outKey, Distance: distance}
}

// Execute implements Node.
func (n *WaypointNode) Execute(ctx *ExecuteContext) ExecuteResult {
	self := ctx.Self()
	if self == nil {
		return Failure
	}
	waypoints, ok := Value[[]game.Vec2](ctx.Blackboard, n.ListKey)
	if !ok || len(waypoints) == 0 {
		return Failure
	}

	index := ValueOr[int](ctx.Blackboard, n.IndexKey, 0) % len(waypoints)
	if self.Position.Distance(waypoints[index]) <= n.Distance {
		index = (index + 1) % len(waypoints)
	}

	ctx.Blackboard.Set(n.IndexKey, index)
	ctx.Blackboard.Set(n.OutKey, waypoints[index])
	return Success
}
