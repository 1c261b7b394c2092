package game

import "testing"

func TestVieRNGSequenceIsDeterministic(t *testing.T) {
	a := VieRNG{Seed: 1234}
	b := VieRNG{Seed: 1234}
	for i := 0; i < 16; i++ {
		if a.GetNext() != b.GetNext() {
			t.Fatal("same seed must yield the same sequence")
		}
	}

	c := VieRNG{Seed: 1234}
	first := c.GetNext()
	if first == c.GetNext() {
		t.Error("the generator must advance")
	}
	if c.Seed < 1 {
		t.Error("state must stay positive")
	}
}

func TestHashNameMixes(t *testing.T) {
	if hashName("alpha") == hashName("bravo") {
		t.Error("different names should hash apart")
	}
	if hashName("alpha") != hashName("alpha") {
		t.Error("the hash must be stable")
	}
}

func TestSpawnUsesFrequencyEntry(t *testing.T) {
	cases := []struct {
		name string
		freq uint16
		want Vec2
	}{
		{"freq 0 entry 0", 0, Vec2{200, 300}},
		{"freq 1 wraps negative", 1, Vec2{924, 400}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := NewTestSim(
				WithSettings(func(s *ArenaSettings) {
					s.SpawnSettings[0] = SpawnSettings{X: 200, Y: 300}
					s.SpawnSettings[1] = SpawnSettings{X: -100, Y: 400}
				}),
				WithSeed(7),
				WithSelf(1, "self", 0, tc.freq),
			)
			ts.Players.Spawn(false)

			self := ts.Self()
			if self.Position != tc.want {
				t.Errorf("position = %+v, want %+v", self.Position, tc.want)
			}
			if !self.Velocity.IsZero() {
				t.Error("spawn zeroes velocity")
			}
			if self.Togglables&StatusFlash == 0 {
				t.Error("spawn sets flash")
			}
			if self.WarpAnimT != 0 {
				t.Error("spawn restarts the warp animation")
			}
			if !ts.SimLog.HasEntry("spawn", "placed", "") {
				t.Error("spawn event missing")
			}
		})
	}
}

func TestSpawnRadiusSamplesInsideArea(t *testing.T) {
	ts := NewTestSim(
		WithSettings(func(s *ArenaSettings) {
			s.SpawnSettings[0] = SpawnSettings{X: 400, Y: 400, Radius: 20}
		}),
		WithSeed(11),
		WithSelf(1, "self", 0, 0),
	)
	ts.Players.Spawn(false)

	self := ts.Self()
	if absf(self.Position.X-400) > 20 || absf(self.Position.Y-400) > 20 {
		t.Errorf("position = %+v, want within 20 tiles of (400,400)", self.Position)
	}
	radius := ts.Conn.Settings.ShipSettings[0].GetRadius()
	if !ts.TileMap.CanFit(self.Position, radius, 0) {
		t.Error("spawn position must fit the ship")
	}
}

func TestSpawnDefaultHemisphereModes(t *testing.T) {
	ts := NewTestSim(
		WithSettings(func(s *ArenaSettings) { s.RadarMode = 1 }),
		WithSeed(3),
		WithSelf(1, "self", 0, 1),
	)
	ts.Players.Spawn(false)

	self := ts.Self()
	if self.Position == (Vec2{512, 512}) {
		// The single hemispheric candidate didn't fit; center fallback.
		return
	}
	// Odd frequency biases x into the right hemisphere band.
	if self.Position.X < 0x300 || self.Position.X > 0x3FF {
		t.Errorf("pos.X = %f, want in [0x300, 0x3FF] for odd frequency", self.Position.X)
	}
	if self.Position.Y < 0x100 || self.Position.Y > 0x1FF {
		t.Errorf("pos.Y = %f, want in [0x100, 0x1FF]", self.Position.Y)
	}
}

func TestSpawnResetRestoresLoadout(t *testing.T) {
	ts := NewTestSim(
		WithSettings(func(s *ArenaSettings) {
			s.SpawnSettings[0] = SpawnSettings{X: 100, Y: 100}
		}),
		WithSelf(1, "self", 0, 0),
	)
	ts.Ships.Ship.Repels = 0
	ts.Players.Spawn(true)

	if ts.Ships.Ship.Repels != ts.Conn.Settings.ShipSettings[0].InitialRepel {
		t.Error("reset spawn restores the loadout from settings")
	}
}
