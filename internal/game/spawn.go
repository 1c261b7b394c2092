package game

// VieRNG is the deterministic generator the original client uses for spawn
// placement, kept bit-compatible so candidate positions match across
// clients sharing a seed.
type VieRNG struct {
	Seed int32
}

// GetNext advances the generator and returns the new state.
func (r *VieRNG) GetNext() uint32 {
	seed := (int64(r.Seed)%0x1F31D)*0x41A7 - (int64(r.Seed)/0x1F31D)*0xB14 + 0x7B
	if seed > 0x7FFFFFFF || seed < 1 {
		seed += 0x7FFFFFFF
	}
	r.Seed = int32(seed)
	return uint32(seed)
}

// hashName is a Jenkins one-at-a-time hash of the player name, mixed into
// the spawn seed so bots started together don't pile onto one spot.
func hashName(name string) uint32 {
	var hash uint32
	for i := 0; i < len(name); i++ {
		hash += uint32(name[i])
		hash += hash << 10
		hash ^= hash >> 6
	}
	hash += hash << 3
	hash ^= hash >> 11
	hash += hash << 15
	return hash
}

// Spawn places the local player at a spawn position derived from the arena
// spawn settings, or from the radar-mode heuristics when none are set.
// reset additionally restores the ship loadout.
func (pm *PlayerManager) Spawn(reset bool) {
	self := pm.GetSelf()
	if self == nil {
		return
	}

	ship := self.Ship & 7
	spawnCount := 0
	for _, s := range pm.conn.Settings.SpawnSettings {
		if s.IsSet() {
			spawnCount++
		}
	}

	shipRadius := pm.conn.Settings.ShipSettings[ship].GetRadius()

	// Offset the shared seed by a name hash so bot fleets spread out.
	hash := hashName(self.Name)
	randSeed := uint32(pm.rng.Int31()) + hash

	if spawnCount == 0 {
		// Default to the center of the map if no position fits.
		self.Position = Vec2{512, 512}

		for i := 0; i < 100; i++ {
			var x, y uint16

			switch pm.conn.Settings.RadarMode {
			case 1, 3:
				rng := VieRNG{Seed: int32(randSeed)}
				rngX := uint8(rng.GetNext())
				rngY := uint8(rng.GetNext())

				x = (self.Frequency&1)*0x300 + uint16(rngX)
				y = uint16(rngY) + 0x100
			case 2, 4:
				rng := VieRNG{Seed: int32(randSeed)}
				rngX := uint8(rng.GetNext())
				rngY := uint8(rng.GetNext())

				x = (self.Frequency&1)*0x300 + uint16(rngX)
				y = ((self.Frequency/2)&1)*0x300 + uint16(rngY)
			default:
				spawnRadius := (uint32(len(pm.players))/8*0x2000 + 0x400) / 0x60 + 0x100

				if spawnRadius > uint32(pm.conn.Settings.WarpRadiusLimit) {
					spawnRadius = uint32(pm.conn.Settings.WarpRadiusLimit)
				}
				if spawnRadius < 3 {
					spawnRadius = 3
				}

				rng := VieRNG{Seed: int32(randSeed)}
				x = uint16(rng.GetNext()%(spawnRadius-2) - 9 + (0x400-spawnRadius)/2 + uint32(pm.rng.Intn(0x14)))
				y = uint16(rng.GetNext()%(spawnRadius-2) - 9 + (0x400-spawnRadius)/2 + uint32(pm.rng.Intn(0x14)))
			}

			spawn := Vec2{float32(x), float32(y)}
			if pm.conn.Map.CanFit(spawn, shipRadius, self.Frequency) {
				self.Position = spawn
				break
			}
		}
	} else {
		spawnIndex := int(self.Frequency) % spawnCount
		entry := pm.conn.Settings.SpawnSettings[spawnIndex]

		xCenter := float32(entry.X)
		yCenter := float32(entry.Y)
		radius := int(entry.Radius)

		if xCenter <= 0 {
			xCenter += 1024
		}
		if yCenter <= 0 {
			yCenter += 1024
		}

		// Default to the exact center when no random position fits.
		self.Position = Vec2{xCenter, yCenter}

		if radius > 0 {
			for i := 0; i < 100; i++ {
				xrand := uint32(pm.rng.Int31()) + hash
				yrand := uint32(pm.rng.Int31()) + hash

				xOffset := float32(int(xrand%uint32(radius*2)) - radius)
				yOffset := float32(int(yrand%uint32(radius*2)) - radius)

				spawn := Vec2{xCenter + xOffset, yCenter + yOffset}
				if pm.conn.Map.CanFit(spawn, shipRadius, self.Frequency) {
					self.Position = spawn
					break
				}
			}
		}
	}

	if reset && pm.shipController != nil {
		pm.shipController.ResetShip()
	}

	self.Togglables |= StatusFlash
	self.WarpAnimT = 0
	self.Velocity = Vec2{}

	pm.events.Dispatch(SpawnEvent{Self: self})
}
