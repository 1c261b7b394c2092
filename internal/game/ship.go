package game

// Ship is the local ship loadout state the core reads: maximum energy, item
// counts, weapon cooldowns and the fake-antiwarp window set after an attach
// request.
type Ship struct {
	Energy  uint32 // maximum energy for the current ship
	Bursts  uint8
	Repels  uint8
	Thors   uint8
	Bricks  uint8
	Decoys  uint8
	Rockets uint8
	Portals uint8

	Multifire bool

	NextBulletTick Tick
	NextBombTick   Tick

	// FakeAntiwarpEndTick suppresses warping locally while an attach request
	// settles, mirroring the server's antiwarp window.
	FakeAntiwarpEndTick Tick
}

// ShipController owns the local ship loadout. Weapon firing itself is an
// external collaborator; the core reads counts and cooldowns and resets the
// loadout on spawn.
type ShipController struct {
	Ship Ship

	conn *Connection
	ship uint8
}

// NewShipController creates a controller bound to the connection's settings.
func NewShipController(conn *Connection) *ShipController {
	sc := &ShipController{conn: conn}
	sc.UpdateSettings(0)
	return sc
}

// UpdateSettings switches the loadout to a new ship index.
func (sc *ShipController) UpdateSettings(ship uint8) {
	sc.ship = ship
	sc.ResetShip()
}

// ResetShip restores the loadout from the arena settings for the current
// ship, as happens on spawn.
func (sc *ShipController) ResetShip() {
	if sc.ship >= SpectatorShip {
		sc.Ship = Ship{}
		return
	}
	s := sc.conn.Settings.ShipSettings[sc.ship]
	sc.Ship = Ship{
		Energy: uint32(s.InitialEnergy),
		Bursts: s.InitialBurst,
		Repels: s.InitialRepel,
	}
}

// CooldownActive reports whether the given weapon class is still recharging.
func (sc *ShipController) CooldownActive(t WeaponType, now Tick) bool {
	switch t {
	case WeaponBullet, WeaponBouncingBullet:
		return TickGT(sc.Ship.NextBulletTick, now)
	case WeaponBomb, WeaponProximityBomb, WeaponThor:
		return TickGT(sc.Ship.NextBombTick, now)
	default:
		return false
	}
}

// HasWeapon reports whether the current ship can use the given weapon class.
func (sc *ShipController) HasWeapon(t WeaponType) bool {
	if sc.ship >= SpectatorShip {
		return false
	}
	s := sc.conn.Settings.ShipSettings[sc.ship]
	switch t {
	case WeaponBullet, WeaponBouncingBullet:
		return s.MaxGuns > 0
	case WeaponBomb, WeaponProximityBomb:
		return s.MaxBombs > 0
	case WeaponRepel:
		return sc.Ship.Repels > 0
	case WeaponBurst:
		return sc.Ship.Bursts > 0
	case WeaponDecoy:
		return sc.Ship.Decoys > 0
	case WeaponThor:
		return sc.Ship.Thors > 0
	default:
		return false
	}
}

// ApplyInput integrates rotation and thrust controls into the local
// player's orientation and velocity for one frame.
func (sc *ShipController) ApplyInput(self *Player, input *InputState, dt float32) {
	if self.Ship >= SpectatorShip || self.EnterDelay > 0 {
		return
	}
	s := sc.conn.Settings.ShipSettings[self.Ship]

	rotation := s.GetRotationRate() * dt
	if input.IsDown(InputLeft) {
		self.Orientation -= rotation
	}
	if input.IsDown(InputRight) {
		self.Orientation += rotation
	}
	for self.Orientation < 0 {
		self.Orientation += 1
	}
	for self.Orientation >= 1 {
		self.Orientation -= 1
	}

	thrust := s.GetThrust() * dt
	heading := OrientationToHeading(uint8(self.Orientation * 40))
	if input.IsDown(InputForward) {
		self.Velocity = self.Velocity.Add(heading.Scale(thrust))
	}
	if input.IsDown(InputBackward) {
		self.Velocity = self.Velocity.Sub(heading.Scale(thrust))
	}

	maxSpeed := s.GetMaxSpeed()
	if speed := self.Velocity.Length(); speed > maxSpeed && maxSpeed > 0 {
		self.Velocity = self.Velocity.Scale(maxSpeed / speed)
	}
}

// SupportsMultifire reports whether the current ship has a multifire mode.
func (sc *ShipController) SupportsMultifire() bool {
	if sc.ship >= SpectatorShip {
		return false
	}
	return sc.conn.Settings.ShipSettings[sc.ship].MultiFireEnergy > 0
}
