package game

// simulateAxis integrates one axis of a player's motion and resolves tile
// collision for it. Returns true when the axis bounced.
func (pm *PlayerManager) simulateAxis(player *Player, dt float32, axis int, extrapolating bool) bool {
	bounceFactor := 16.0 / float32(pm.conn.Settings.BounceFactor)
	m := pm.conn.Map

	axisFlip := 1 - axis
	radius := pm.conn.Settings.ShipSettings[player.Ship&7].GetRadius()
	previous := *player.Position.axisPtr(axis)

	delta := player.Velocity.axisValue(axis) * dt
	*player.Position.axisPtr(axis) += delta

	if player.LerpTime > 0 {
		timestep := minf(dt, player.LerpTime)
		lerpDelta := player.LerpVelocity.axisValue(axis) * timestep
		*player.Position.axisPtr(axis) += lerpDelta
		delta += lerpDelta
	}

	// Only the leading edge's row or column can newly collide this step.
	check := int32(floorf(player.Position.axisValue(axis) + radius))
	if delta < 0 {
		check = int32(floorf(player.Position.axisValue(axis) - radius))
	}

	start := int32(floorf(player.Position.axisValue(axisFlip) - radius - 1))
	end := int32(floorf(player.Position.axisValue(axisFlip) + radius + 1))

	rounded := player.Position.PixelRounded()
	colliderMin := rounded.Sub(Vec2{radius, radius})
	colliderMax := rounded.Add(Vec2{radius, radius})

	collided := check < 0 || check > MapExtent-1
	for other := start; other < end && !collided; other++ {
		var tileX, tileY int32
		if axis == 0 {
			tileX, tileY = check, other
		} else {
			tileX, tileY = other, check
		}
		if tileX < 0 || tileY < 0 || tileX >= MapExtent || tileY >= MapExtent {
			continue
		}
		if !m.IsSolid(uint16(tileX), uint16(tileY), player.Frequency) {
			continue
		}
		tileMin := Vec2{float32(tileX), float32(tileY)}
		tileMax := tileMin.Add(Vec2{1, 1})
		if BoxBoxIntersect(colliderMin, colliderMax, tileMin, tileMax) {
			collided = true
		}
	}

	if !collided {
		return false
	}

	// Repeated bounces within a tick would grind the player against the wall;
	// skip the slowdown for the second hit.
	if !extrapolating && TickDiff(pm.conn.GetCurrentTick(), player.LastBounceTick) < 1 {
		bounceFactor = 1.0
	}

	*player.Position.axisPtr(axis) = previous

	*player.Velocity.axisPtr(axis) *= -bounceFactor
	*player.Velocity.axisPtr(axisFlip) *= bounceFactor

	*player.LerpVelocity.axisPtr(axis) *= -bounceFactor
	*player.LerpVelocity.axisPtr(axisFlip) *= bounceFactor

	return true
}

// SimulatePlayer advances a player dt seconds: per-axis integration with
// bounce, wormhole transit for the local player, and lerp decay.
// extrapolating marks the reconciler's forward-simulation path, which runs
// even for unsynchronized players and never records bounce ticks.
func (pm *PlayerManager) SimulatePlayer(player *Player, dt float32, extrapolating bool) {
	if !extrapolating && !player.IsSynchronized() {
		player.Velocity = Vec2{}
		player.LerpTime = 0
		return
	}

	xBounce := pm.simulateAxis(player, dt, 0, extrapolating)
	yBounce := pm.simulateAxis(player, dt, 1, extrapolating)

	if (xBounce || yBounce) && !extrapolating {
		player.LastBounceTick = pm.conn.GetCurrentTick()
	}

	if pm.conn.Map.GetTileID(player.Position) == TileIDWormhole && player.ID == pm.playerID {
		energyCost := player.Energy * 0.8

		if pm.conn.ReportDamage {
			pm.PushDamage(pm.playerID, NewWeaponData(WeaponWormhole), int(player.Energy), int(energyCost))
		}

		pm.Spawn(false)
		player.Velocity = Vec2{}

		if player.Energy > energyCost {
			player.Energy -= energyCost
		} else {
			player.Energy = 1
		}
	}

	player.LerpTime -= dt
}

// unstuckSelf walks the local player out of solid terrain after a forced
// position change, stepping diagonally up-left and clamping at the origin.
func (pm *PlayerManager) unstuckSelf(self *Player) {
	if self.Ship >= SpectatorShip {
		return
	}
	radius := pm.conn.Settings.ShipSettings[self.Ship].GetRadius()

	for pm.conn.Map.IsColliding(self.Position, radius, self.Frequency) {
		self.Position = Vec2{floorf(self.Position.X - 1), floorf(self.Position.Y - 1)}

		if self.Position.X < 0 {
			self.Position.X = 0
			break
		}
		if self.Position.Y < 0 {
			self.Position.Y = 0
			break
		}
	}
}
