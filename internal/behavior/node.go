// Package behavior implements the bot's decision engine: a composite
// behavior tree over a shared blackboard, executed once per tick. Nodes
// never block; anything that waits returns Running and is re-entered next
// tick with its state parked on the blackboard.
package behavior

import (
	"github.com/fennwald/driftbot/internal/game"
	"github.com/fennwald/driftbot/internal/render"
)

// ExecuteResult is the tri-state outcome of one node execution.
type ExecuteResult int

const (
	Success ExecuteResult = iota
	Failure
	Running
)

func (r ExecuteResult) String() string {
	switch r {
	case Success:
		return "success"
	case Failure:
		return "failure"
	case Running:
		return "running"
	default:
		return "unknown"
	}
}

// Node is one behavior tree node. Execution must complete within the tick.
type Node interface {
	Execute(ctx *ExecuteContext) ExecuteResult
}

// Pathfinder plans a traversable route between two world positions.
type Pathfinder interface {
	FindPath(from, to game.Vec2) []game.Vec2
}

// TreeDebugger is the per-session debug service render leaves toggle. It
// replaces the reference client's global printer with a handle carried on
// the context.
type TreeDebugger struct {
	RenderText bool
}

// ExecuteContext carries everything a node may touch. One context serves a
// bot for its whole lifetime; per-tick fields are refreshed by Bot.Tick.
type ExecuteContext struct {
	Blackboard *Blackboard
	Players    *game.PlayerManager
	Conn       *game.Connection
	Map        game.Map
	Input      *game.InputState
	Ships      *game.ShipController
	Pathfinder Pathfinder
	Targets    TargetMemory
	Steering   *Steering
	Debug      render.Debug
	TreeDebug  *TreeDebugger

	// Dt is the frame delta in seconds.
	Dt float32
}

// Self returns the local player, or nil before the session id arrives.
func (ctx *ExecuteContext) Self() *game.Player {
	return ctx.Players.GetSelf()
}
