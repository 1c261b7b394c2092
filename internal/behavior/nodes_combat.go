package behavior

import "github.com/fennwald/driftbot/internal/game"

// AimNode computes the lead point for shooting the player named by
// TargetKey with the given weapon, writing it to OutKey. Fails when the
// intercept has no solution (target outrunning the projectile).
type AimNode struct {
	Weapon    game.WeaponType
	TargetKey string
	OutKey    string
}

// NewAimNode creates the lead solver.
func NewAimNode(weapon game.WeaponType, targetKey, outKey string) *AimNode {
	return &AimNode{Weapon: weapon, TargetKey: targetKey, OutKey: outKey}
}

// Execute implements Node.
func (n *AimNode) Execute(ctx *ExecuteContext) ExecuteResult {
	self := ctx.Self()
	if self == nil {
		return Failure
	}
	id, ok := Value[game.PlayerID](ctx.Blackboard, n.TargetKey)
	if !ok {
		return Failure
	}
	target := ctx.Players.GetPlayerByID(id)
	if target == nil || !target.IsSynchronized() {
		return Failure
	}

	settings := ctx.Conn.Settings.ShipSettings[self.Ship&7]
	var speed float32
	switch n.Weapon {
	case game.WeaponBomb, game.WeaponProximityBomb, game.WeaponThor:
		speed = settings.GetBombSpeed()
	default:
		speed = settings.GetBulletSpeed()
	}
	if speed <= 0 {
		return Failure
	}

	aim, ok := solveLead(self.Position, self.Velocity, target.Position, target.Velocity, speed)
	if !ok {
		return Failure
	}
	ctx.Blackboard.Set(n.OutKey, aim)
	return Success
}

// solveLead finds where to shoot so a projectile of the given speed,
// launched from a moving shooter, meets a constant-velocity target. Works in
// the shooter's frame: projectiles inherit the shooter's velocity.
func solveLead(shooterPos, shooterVel, targetPos, targetVel game.Vec2, speed float32) (game.Vec2, bool) {
	toTarget := targetPos.Sub(shooterPos)
	relVel := targetVel.Sub(shooterVel)

	a := relVel.LengthSq() - speed*speed
	b := 2 * toTarget.Dot(relVel)
	c := toTarget.LengthSq()

	var t float32
	if absf32(a) < 1e-4 {
		// Relative speed matches projectile speed; degenerate to linear.
		if absf32(b) < 1e-6 {
			return game.Vec2{}, false
		}
		t = -c / b
	} else {
		disc := b*b - 4*a*c
		if disc < 0 {
			return game.Vec2{}, false
		}
		root := sqrtf32(disc)
		t0 := (-b - root) / (2 * a)
		t1 := (-b + root) / (2 * a)
		t = t0
		if t < 0 || (t1 > 0 && t1 < t) {
			t = t1
		}
	}
	if t < 0 {
		return game.Vec2{}, false
	}

	return targetPos.Add(relVel.Scale(t)).Add(shooterVel.Scale(t)), true
}

// DynamicPlayerBoundingBoxQueryNode writes a rectangle around the named
// player sized by the ship radius times Multiplier.
type DynamicPlayerBoundingBoxQueryNode struct {
	PlayerKey  string
	OutKey     string
	Multiplier float32
}

// NewDynamicPlayerBoundingBoxQueryNode creates the query.
func NewDynamicPlayerBoundingBoxQueryNode(playerKey, outKey string, multiplier float32) *DynamicPlayerBoundingBoxQueryNode {
	return &DynamicPlayerBoundingBoxQueryNode{PlayerKey: playerKey, OutKey: outKey, Multiplier: multiplier}
}

// Execute implements Node.
func (n *DynamicPlayerBoundingBoxQueryNode) Execute(ctx *ExecuteContext) ExecuteResult {
	id, ok := Value[game.PlayerID](ctx.Blackboard, n.PlayerKey)
	if !ok {
		return Failure
	}
	target := ctx.Players.GetPlayerByID(id)
	if target == nil || !target.IsSynchronized() {
		return Failure
	}

	radius := ctx.Conn.Settings.ShipSettings[target.Ship&7].GetRadius() * n.Multiplier
	ctx.Blackboard.Set(n.OutKey, game.NewRectangle(target.Position, game.Vec2{X: radius, Y: radius}))
	return Success
}

// territoryKeepFactor is how far (in leash multiples) a held territory
// position may drift from the target before it is repicked.
const territoryKeepFactor = 1.5

// FindTerritoryPositionNode picks a hover position one leash distance back
// from the target and stores it under OutKey. A held position is kept while
// it stays near the target; Invalidate forces a fresh pick to the side,
// used when the current territory has become too dangerous.
type FindTerritoryPositionNode struct {
	TargetKey  string
	LeashKey   string
	OutKey     string
	Invalidate bool
}

// NewFindTerritoryPositionNode creates the picker.
func NewFindTerritoryPositionNode(targetKey, leashKey, outKey string, invalidate bool) *FindTerritoryPositionNode {
	return &FindTerritoryPositionNode{TargetKey: targetKey, LeashKey: leashKey, OutKey: outKey, Invalidate: invalidate}
}

// Execute implements Node.
func (n *FindTerritoryPositionNode) Execute(ctx *ExecuteContext) ExecuteResult {
	self := ctx.Self()
	if self == nil {
		return Failure
	}
	id, ok := Value[game.PlayerID](ctx.Blackboard, n.TargetKey)
	if !ok {
		return Failure
	}
	target := ctx.Players.GetPlayerByID(id)
	if target == nil || !target.IsSynchronized() {
		return Failure
	}

	leash := ValueOr[float32](ctx.Blackboard, n.LeashKey, 10)

	if !n.Invalidate {
		if held, ok := Value[game.Vec2](ctx.Blackboard, n.OutKey); ok {
			if held.Distance(target.Position) <= leash*territoryKeepFactor {
				return Success
			}
		}
	}

	away := self.Position.Sub(target.Position).Normalized()
	if away.IsZero() {
		away = game.OrientationToHeading(uint8(self.Orientation * 40))
	}
	perp := game.Vec2{X: -away.Y, Y: away.X}

	candidates := []game.Vec2{away, perp, perp.Scale(-1), away.Scale(-1)}
	if n.Invalidate {
		// Step sideways out of the contested spot instead of re-taking it.
		candidates = []game.Vec2{perp, perp.Scale(-1), away.Scale(-1)}
	}

	radius := ctx.Conn.Settings.ShipSettings[self.Ship&7].GetRadius()
	for _, dir := range candidates {
		spot := target.Position.Add(dir.Scale(leash))
		if ctx.Map.CanFit(spot, radius, self.Frequency) {
			ctx.Blackboard.Set(n.OutKey, spot)
			return Success
		}
	}
	return Failure
}

// ShotVelocityQueryNode writes the world-space velocity a projectile of the
// weapon class would launch with right now.
type ShotVelocityQueryNode struct {
	Weapon game.WeaponType
	OutKey string
}

// NewShotVelocityQueryNode creates the query.
func NewShotVelocityQueryNode(weapon game.WeaponType, outKey string) *ShotVelocityQueryNode {
	return &ShotVelocityQueryNode{Weapon: weapon, OutKey: outKey}
}

// Execute implements Node.
func (n *ShotVelocityQueryNode) Execute(ctx *ExecuteContext) ExecuteResult {
	self := ctx.Self()
	if self == nil {
		return Failure
	}

	settings := ctx.Conn.Settings.ShipSettings[self.Ship&7]
	var speed float32
	switch n.Weapon {
	case game.WeaponBomb, game.WeaponProximityBomb, game.WeaponThor:
		speed = settings.GetBombSpeed()
	default:
		speed = settings.GetBulletSpeed()
	}
	if speed <= 0 {
		return Failure
	}

	heading := game.OrientationToHeading(uint8(self.Orientation * 40))
	ctx.Blackboard.Set(n.OutKey, self.Velocity.Add(heading.Scale(speed)))
	return Success
}
