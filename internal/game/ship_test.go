package game

import "testing"

func TestApplyInputRotatesAndThrusts(t *testing.T) {
	ts := NewTestSim(WithSelf(1, "self", 0, 0))
	self := ts.Self()
	self.Orientation = 0

	var input InputState
	input.SetAction(InputRight, true)
	input.SetAction(InputForward, true)

	ts.Ships.ApplyInput(self, &input, 0.01)

	if self.Orientation <= 0 {
		t.Error("turning right advances orientation")
	}
	if self.Velocity.IsZero() {
		t.Error("thrusting changes velocity")
	}

	// Sustained thrust saturates at the ship's top speed.
	for i := 0; i < 5000; i++ {
		ts.Ships.ApplyInput(self, &input, 0.01)
	}
	maxSpeed := ts.Conn.Settings.ShipSettings[0].GetMaxSpeed()
	if self.Velocity.Length() > maxSpeed+0.01 {
		t.Errorf("speed %f exceeds cap %f", self.Velocity.Length(), maxSpeed)
	}
}

func TestApplyInputSkipsDeadAndSpectators(t *testing.T) {
	ts := NewTestSim(WithSelf(1, "self", 0, 0))
	self := ts.Self()
	self.EnterDelay = 1

	var input InputState
	input.SetAction(InputForward, true)
	ts.Ships.ApplyInput(self, &input, 0.01)

	if !self.Velocity.IsZero() {
		t.Error("dead players take no input")
	}
}

func TestShipCooldownAndCapability(t *testing.T) {
	ts := NewTestSim(WithSelf(1, "self", 0, 0))
	sc := ts.Ships
	now := ts.Clock.Now()

	if sc.CooldownActive(WeaponBullet, now) {
		t.Error("no cooldown initially")
	}
	sc.Ship.NextBulletTick = MakeTick(uint32(now) + 20)
	if !sc.CooldownActive(WeaponBullet, now) {
		t.Error("cooldown active until the next-fire tick")
	}

	if !sc.HasWeapon(WeaponBullet) || !sc.HasWeapon(WeaponBomb) {
		t.Error("default loadout has guns and bombs")
	}
	if !sc.HasWeapon(WeaponRepel) {
		t.Error("default loadout carries repels")
	}
	sc.Ship.Repels = 0
	if sc.HasWeapon(WeaponRepel) {
		t.Error("no repels left means no repel capability")
	}
}

func TestResetShipRestoresFromSettings(t *testing.T) {
	ts := NewTestSim(WithSelf(1, "self", 0, 0))
	sc := ts.Ships
	sc.Ship.Repels = 0
	sc.Ship.Energy = 1

	sc.ResetShip()

	s := ts.Conn.Settings.ShipSettings[0]
	if sc.Ship.Energy != uint32(s.InitialEnergy) || sc.Ship.Repels != s.InitialRepel {
		t.Errorf("loadout = %+v, want settings defaults", sc.Ship)
	}
}
