package behavior

import (
	"fmt"
	"image/color"

	"github.com/fennwald/driftbot/internal/game"
	"github.com/fennwald/driftbot/internal/render"
)

// Behavior seeds a blackboard and builds the tree driving one bot.
type Behavior interface {
	OnInitialize(ctx *ExecuteContext)
	CreateTree(ctx *ExecuteContext) Node
}

// Bot runs one behavior tree over a session, once per tick.
type Bot struct {
	Ctx  *ExecuteContext
	Tree Node
}

// NewBot initializes the behavior and builds its tree.
func NewBot(ctx *ExecuteContext, b Behavior) *Bot {
	if ctx.Blackboard == nil {
		ctx.Blackboard = NewBlackboard()
	}
	if ctx.Steering == nil {
		ctx.Steering = NewSteering()
	}
	if ctx.Targets == nil {
		ctx.Targets = NewSightingMemory()
	}
	if ctx.TreeDebug == nil {
		ctx.TreeDebug = &TreeDebugger{}
	}
	b.OnInitialize(ctx)
	return &Bot{Ctx: ctx, Tree: b.CreateTree(ctx)}
}

// Tick refreshes per-frame state, executes the tree and actuates the
// resulting movement intent.
func (b *Bot) Tick(dt float32) ExecuteResult {
	ctx := b.Ctx
	ctx.Dt = dt
	ctx.Input.Clear()
	ctx.Steering.Reset()
	if ctx.Debug != nil {
		ctx.Debug.Reset()
	}
	ctx.Targets.Update(ctx)

	result := b.Tree.Execute(ctx)

	self := ctx.Self()
	ctx.Steering.Actuate(self, ctx.Input)
	if ctx.Ships != nil && self != nil {
		ctx.Ships.ApplyInput(self, ctx.Input, dt)
	}
	return result
}

// BrawlerBehavior is the stock combat behavior: take the requested ship,
// chase the nearest remembered enemy (pathing when out of sight, aiming and
// orbiting when visible), weapon sequences in parallel with movement, and a
// waypoint patrol when nothing is remembered.
type BrawlerBehavior struct {
	RequestShip int
	Waypoints   []game.Vec2
}

// OnInitialize seeds the blackboard for this behavior.
func (b *BrawlerBehavior) OnInitialize(ctx *ExecuteContext) {
	ctx.Blackboard.Set("request_ship", b.RequestShip)
	ctx.Blackboard.Set("leash_distance", float32(10.0))

	waypoints := b.Waypoints
	if len(waypoints) == 0 {
		waypoints = []game.Vec2{
			{X: 480, Y: 480}, {X: 544, Y: 480}, {X: 544, Y: 544}, {X: 480, Y: 544},
		}
	}
	ctx.Blackboard.Set("waypoints", waypoints)
}

// threatText builds a RenderTextNode formatter reading a threat score.
func threatText(label, key string) func(ctx *ExecuteContext) TextRequest {
	return func(ctx *ExecuteContext) TextRequest {
		return TextRequest{
			Text:  fmt.Sprintf("%s: %.2f", label, ValueOr[float32](ctx.Blackboard, key, 0)),
			Color: color.RGBA{R: 255, G: 255, B: 255, A: 255},
			Align: render.AlignCenter,
		}
	}
}

// CreateTree implements Behavior.
func (b *BrawlerBehavior) CreateTree(ctx *ExecuteContext) Node {
	pathColor := color.RGBA{R: 0, G: 255, B: 128, A: 255}
	patrolColor := color.RGBA{R: 0, G: 128, B: 255, A: 255}
	boundsColor := color.RGBA{R: 255, G: 0, B: 0, A: 255}
	rayColor := color.RGBA{R: 255, G: 255, B: 0, A: 255}
	territoryColor := color.RGBA{R: 0, G: 255, B: 0, A: 255}

	return NewBuilder().
		Selector().
			Sequence(). // Enter the requested ship if not already in it.
				InvertChild(NewShipQueryNode("request_ship")).
				Child(NewShipRequestNode("request_ship")).
				End().
			Sequence(). // Fight the nearest remembered enemy.
				Sequence().
					Child(NewSelfPositionQueryNode("self_position")).
					Child(NewNearestMemoryTargetNode("nearest_target")).
					Child(NewPlayerPositionQueryNode("nearest_target", "nearest_target_position")).
					End().
				Selector(DecoratorSuccess). // Toggle multifire by range when the ship has it.
					Sequence().
						Child(NewShipMultifireCapabilityNode()).
						Child(NewDistanceThresholdNode("nearest_target_position", 15.0)).
						InvertChild(NewShipMultifireQueryNode()).
						Child(NewInputActionNode(game.InputMultifire)).
						End().
					Sequence().
						Child(NewShipMultifireCapabilityNode()).
						InvertChild(NewDistanceThresholdNode("nearest_target_position", 15.0)).
						Child(NewShipMultifireQueryNode()).
						Child(NewInputActionNode(game.InputMultifire)).
						End().
					End().
				Selector().
					Sequence(). // Path to the target while it is out of sight.
						InvertChild(NewVisibilityQueryNode("nearest_target_position")).
						Child(NewGoToNode("nearest_target_position")).
						Child(NewRenderPathNode(pathColor)).
						End().
					Sequence(). // Aim and fight while the target is visible.
						Child(NewAimNode(game.WeaponBullet, "nearest_target", "aimshot")).
						Parallel().
							Selector(). // Hover a territory position, or press the target directly.
								Sequence().
									Child(NewFindTerritoryPositionNode("nearest_target", "leash_distance", "territory_position", false)).
									Sequence(DecoratorSuccess). // Score the ground and abandon hot territory.
										Child(NewPositionThreatQueryNode("self_position", "self_threat", 8.0, 3.0)).
										Child(NewRenderTextNode(game.Vec2{X: 512, Y: 600}, threatText("self threat", "self_threat"))).
										Child(NewPositionThreatQueryNode("territory_position", "territory_threat", 8.0, 3.0)).
										Child(NewRenderTextKeyNode("territory_position", threatText("threat", "territory_threat"))).
										Child(NewScalarThresholdNode("territory_threat", float32(0.2))).
										Child(NewFindTerritoryPositionNode("nearest_target", "leash_distance", "territory_position", true)).
										End().
									Sequence(DecoratorSuccess). // Track the shot while the ground is calm.
										InvertChild(NewScalarThresholdNode("self_threat", float32(0.2))).
										Child(NewFaceNode("aimshot")).
										End().
									Child(NewArriveNode("territory_position", 25.0)).
									Child(NewRectangleNode("territory_position", game.Vec2{X: 2, Y: 2}, "territory_rect")).
									Child(NewRenderRectNode("territory_rect", territoryColor)).
									End().
								Sequence().
									Child(NewFaceNode("aimshot")).
									Child(NewSeekWithLeashNode("aimshot", "leash_distance")).
									End().
								End().
							Parallel(DecoratorSuccess).
								Sequence(DecoratorSuccess). // Repel bombs that get close.
									Child(NewShipWeaponCapabilityQueryNode(game.WeaponRepel)).
									Child(NewRepelDistanceQueryNode("repel_distance")).
									InvertChild(NewDistanceThresholdNode("nearest_target_position", 3.0)).
									Child(NewInputActionNode(game.InputRepel)).
									End().
								Sequence(DecoratorSuccess). // Bomb at medium range with energy to spare.
									Child(NewPlayerEnergyPercentThresholdNode(0.65)).
									Child(NewShipWeaponCapabilityQueryNode(game.WeaponBomb)).
									InvertChild(NewShipWeaponCooldownQueryNode(game.WeaponBomb)).
									Child(NewDistanceThresholdNode("nearest_target_position", 10.0)).
									Child(NewShotVelocityQueryNode(game.WeaponBomb, "bomb_fire_velocity")).
									Child(NewRayNode("self_position", "bomb_fire_velocity", "bomb_fire_ray")).
									Child(NewDynamicPlayerBoundingBoxQueryNode("nearest_target", "target_bounds", 3.0)).
									Child(NewMoveRectangleNode("target_bounds", "aimshot", "target_bounds")).
									Child(NewRenderRectNode("target_bounds", boundsColor)).
									Child(NewRenderRayNode("bomb_fire_ray", 50, rayColor)).
									Child(NewRayRectangleInterceptNode("bomb_fire_ray", "target_bounds")).
									Child(NewInputActionNode(game.InputBomb)).
									End().
								Sequence(DecoratorSuccess). // Bullets when the trajectory crosses the target.
									Child(NewPlayerEnergyPercentThresholdNode(0.3)).
									InvertChild(NewShipWeaponCooldownQueryNode(game.WeaponBullet)).
									InvertChild(NewInputQueryNode(game.InputBomb)).
									InvertChild(NewTileQueryNode(game.TileIDSafe)).
									Child(NewShotVelocityQueryNode(game.WeaponBullet, "bullet_fire_velocity")).
									Child(NewRayNode("self_position", "bullet_fire_velocity", "bullet_fire_ray")).
									Child(NewDynamicPlayerBoundingBoxQueryNode("nearest_target", "target_bounds", 4.0)).
									Child(NewMoveRectangleNode("target_bounds", "aimshot", "target_bounds")).
									Child(NewRayRectangleInterceptNode("bullet_fire_ray", "target_bounds")).
									Child(NewInputActionNode(game.InputBullet)).
									End().
								End().
							End().
						End().
					End().
				End().
			Sequence(). // Patrol waypoints when nothing is remembered.
				Child(NewWaypointNode("waypoints", "waypoint_index", "waypoint_position", 15.0)).
				Selector().
					Sequence().
						InvertChild(NewVisibilityQueryNode("waypoint_position")).
						Child(NewGoToNode("waypoint_position")).
						Child(NewRenderPathNode(patrolColor)).
						End().
					Parallel().
						Child(NewFaceNode("waypoint_position")).
						Child(NewArriveNode("waypoint_position", 1.25)).
						End().
					End().
				End().
			End().
		Build()
}

// TurretBehavior rides a teammate: it finds the nearest synchronized
// teammate with turret slots and attaches, firing bullets while attached.
type TurretBehavior struct {
	RequestShip int
}

// OnInitialize implements Behavior.
func (b *TurretBehavior) OnInitialize(ctx *ExecuteContext) {
	ctx.Blackboard.Set("request_ship", b.RequestShip)
}

// CreateTree implements Behavior.
func (b *TurretBehavior) CreateTree(ctx *ExecuteContext) Node {
	return NewBuilder().
		Selector().
			Sequence().
				InvertChild(NewShipQueryNode("request_ship")).
				Child(NewShipRequestNode("request_ship")).
				End().
			Sequence(). // Already mounted: shoot at whatever we remember.
				Child(NewAttachQueryNode()).
				Sequence(DecoratorSuccess).
					Child(NewNearestMemoryTargetNode("nearest_target")).
					Child(NewAimNode(game.WeaponBullet, "nearest_target", "aimshot")).
					Child(NewFaceNode("aimshot")).
					InvertChild(NewShipWeaponCooldownQueryNode(game.WeaponBullet)).
					Child(NewInputActionNode(game.InputBullet)).
					End().
				End().
			Sequence(). // Find a carrier, close on it and request the mount.
				Child(NewNearestCarrierNode("carrier")).
				Child(NewPlayerPositionQueryNode("carrier", "carrier_position")).
				Sequence(DecoratorSuccess).
					Child(NewFaceNode("carrier_position")).
					Child(NewSeekNode("carrier_position")).
					End().
				Child(NewAttachRequestNode("carrier")).
				End().
			End().
		Build()
}

// NearestCarrierNode picks the closest live teammate with free turret slots
// and stores its id.
type NearestCarrierNode struct {
	OutKey string
}

// NewNearestCarrierNode creates the selector.
func NewNearestCarrierNode(outKey string) *NearestCarrierNode {
	return &NearestCarrierNode{OutKey: outKey}
}

// Execute implements Node.
func (n *NearestCarrierNode) Execute(ctx *ExecuteContext) ExecuteResult {
	self := ctx.Self()
	if self == nil {
		return Failure
	}

	best := game.InvalidPlayerID
	bestDist := float32(1 << 20)

	for i := 0; i < ctx.Players.PlayerCount(); i++ {
		p := ctx.Players.PlayerAt(i)
		if p.ID == self.ID || p.Frequency != self.Frequency {
			continue
		}
		if p.Ship >= game.SpectatorShip || !p.IsSynchronized() || p.EnterDelay > 0 {
			continue
		}
		settings := ctx.Conn.Settings.ShipSettings[p.Ship]
		if settings.TurretLimit == 0 {
			continue
		}
		if ctx.Players.GetTurretCount(p) >= int(settings.TurretLimit) {
			continue
		}
		if d := p.Position.Distance(self.Position); d < bestDist {
			bestDist = d
			best = p.ID
		}
	}

	if best == game.InvalidPlayerID {
		return Failure
	}
	ctx.Blackboard.Set(n.OutKey, best)
	return Success
}

// DescribeResult renders a one-line status for overlays and reports.
func DescribeResult(name string, r ExecuteResult) string {
	return fmt.Sprintf("%s: %s", name, r)
}
