package game

// SpawnSettings describes one team spawn area. Coordinates at or below zero
// wrap by +1024; a zero entry means "unset".
type SpawnSettings struct {
	X      int16
	Y      int16
	Radius uint16
}

// IsSet reports whether this spawn entry is configured.
func (s SpawnSettings) IsSet() bool {
	return s.X != 0 || s.Y != 0 || s.Radius != 0
}

// ShipSettings carries the per-ship tuning the core reads. Speeds are in
// pixels per second times ten, radius in pixels, as delivered by the arena
// settings packet.
type ShipSettings struct {
	InitialEnergy        uint16
	InitialSpeed         uint16 // pixels per second times ten
	InitialThrust        uint16
	InitialRotation      uint16 // 1/400ths of a rotation per second
	BulletSpeed          uint16
	BombSpeed            uint16
	BulletFireDelay      uint16 // centiseconds between bullets
	BombFireDelay        uint16 // centiseconds between bombs
	Radius               uint16 // pixels; 0 means the VIE default of 14
	TurretLimit          uint16
	AttachBounty         uint16
	SoccerBallThrowTimer uint16
	InitialRepel         uint8
	InitialBurst         uint8
	MaxGuns              uint8 // 0 means the ship cannot fire bullets
	MaxBombs             uint8 // 0 means the ship cannot fire bombs
	MultiFireEnergy      uint16
}

// GetRadius returns the collision radius in tiles.
func (s ShipSettings) GetRadius() float32 {
	r := s.Radius
	if r == 0 {
		r = 14
	}
	return float32(r) / 16.0
}

// GetMaxSpeed returns the top thrust speed in tiles per second.
func (s ShipSettings) GetMaxSpeed() float32 {
	return float32(s.InitialSpeed) / 10.0 / 16.0
}

// GetThrust returns the thrust acceleration in tiles per second squared.
func (s ShipSettings) GetThrust() float32 {
	return float32(s.InitialThrust) * 10.0 / 16.0
}

// GetRotationRate returns full rotations per second.
func (s ShipSettings) GetRotationRate() float32 {
	return float32(s.InitialRotation) / 400.0
}

// GetBulletSpeed returns the bullet speed in tiles per second.
func (s ShipSettings) GetBulletSpeed() float32 {
	return float32(s.BulletSpeed) / 10.0 / 16.0
}

// GetBombSpeed returns the bomb speed in tiles per second.
func (s ShipSettings) GetBombSpeed() float32 {
	return float32(s.BombSpeed) / 10.0 / 16.0
}

// ArenaSettings is the subset of the arena settings packet the core reads.
type ArenaSettings struct {
	BounceFactor          int32 // bounce velocity scale is 16/BounceFactor
	SendPositionDelay     int32 // centiseconds between outbound positions
	EnterDelay            int32 // centiseconds dead before respawn
	FlagDropDelay         int32
	BountyIncreaseForKill int16
	RadarMode             int32
	WarpRadiusLimit       int32
	AntiwarpSettleDelay   int32 // fake-antiwarp ticks after an attach request
	AntiWarpPixels        int32
	RepelDistance         int32 // pixels
	ExtraPositionData     bool  // arena demands the extended position block
	SpawnSettings         [4]SpawnSettings
	ShipSettings          [8]ShipSettings
}

// DefaultArenaSettings returns VIE-like defaults used until the real arena
// settings packet arrives.
func DefaultArenaSettings() ArenaSettings {
	s := ArenaSettings{
		BounceFactor:        16,
		SendPositionDelay:   100,
		EnterDelay:          0,
		RadarMode:           0,
		WarpRadiusLimit:     MapExtent,
		AntiwarpSettleDelay: 100,
		AntiWarpPixels:      1024,
		RepelDistance:       512,
	}
	for i := range s.ShipSettings {
		s.ShipSettings[i] = ShipSettings{
			InitialEnergy:   1000,
			InitialSpeed:    2400,
			InitialThrust:   16,
			InitialRotation: 200,
			BulletSpeed:     2000,
			BombSpeed:       1500,
			BulletFireDelay: 15,
			BombFireDelay:   50,
			Radius:          14,
			TurretLimit:     2,
			AttachBounty:    0,
			InitialRepel:    2,
			InitialBurst:    2,
			MaxGuns:         1,
			MaxBombs:        1,
		}
	}
	return s
}
