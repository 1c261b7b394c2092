package game

import "testing"

// deliverSelfLarge sends self a large position packet stamped diff ticks
// behind server-now.
func deliverSelfLarge(ts *TestSim, diff int32, f LargePositionFields) {
	f.PlayerID = 1
	f.Timestamp = uint16((uint32(ts.Conn.GetServerTick()) - uint32(diff)) & 0xFFFF)
	ts.Deliver(BuildLargePosition(f))
}

func TestReconciliationLerpsSmallDelta(t *testing.T) {
	ts := NewTestSim(WithSelf(1, "self", 0, 0))
	self := ts.Self()
	self.Position = Vec2{500, 500}

	// ping byte 40 plus a timestamp 10 ticks old: 50 ticks of forward
	// simulation at (1, 0) tiles/s projects half a tile ahead.
	deliverSelfLarge(ts, 10, LargePositionFields{
		X:    500 * 16,
		Y:    500 * 16,
		VelX: 160,
		Ping: 40,
	})

	self = ts.Self()
	if self.Position != (Vec2{500, 500}) {
		t.Errorf("position = %+v, want restored (500,500)", self.Position)
	}
	if absf(self.LerpTime-0.2) > 1e-6 {
		t.Errorf("lerp time = %f, want 0.2", self.LerpTime)
	}
	if absf(self.LerpVelocity.X-2.5) > 0.05 || absf(self.LerpVelocity.Y) > 0.05 {
		t.Errorf("lerp velocity = %+v, want (2.5, 0)", self.LerpVelocity)
	}
	if self.Velocity != (Vec2{1, 0}) {
		t.Errorf("velocity = %+v, want (1, 0)", self.Velocity)
	}
	if self.Ping != 50 {
		t.Errorf("ping = %d, want 50", self.Ping)
	}
}

func TestReconciliationFlashSnaps(t *testing.T) {
	ts := NewTestSim(WithSelf(1, "self", 0, 0))
	self := ts.Self()
	self.Position = Vec2{500, 500}

	deliverSelfLarge(ts, 10, LargePositionFields{
		X:          500 * 16,
		Y:          500 * 16,
		VelX:       160,
		Ping:       40,
		Togglables: StatusFlash,
	})

	self = ts.Self()
	if absf(self.Position.X-500.5) > 0.05 || absf(self.Position.Y-500) > 0.05 {
		t.Errorf("position = %+v, want snapped to (500.5, 500)", self.Position)
	}
	if self.LerpTime != 0 {
		t.Errorf("lerp time = %f, want 0 after snap", self.LerpTime)
	}
	if self.Togglables&StatusFlash != 0 {
		t.Error("flash must be cleared after snapping from a non-zero position")
	}
}

func TestReconciliationLargeDeltaSnaps(t *testing.T) {
	ts := NewTestSim(WithSelf(1, "self", 0, 0))
	self := ts.Self()
	self.Position = Vec2{100, 100}

	deliverSelfLarge(ts, 0, LargePositionFields{X: 500 * 16, Y: 500 * 16})

	self = ts.Self()
	if self.Position != (Vec2{500, 500}) {
		t.Errorf("position = %+v, want snapped to the packet position", self.Position)
	}
}

func TestStalePositionPacketDropped(t *testing.T) {
	ts := NewTestSim(WithSelf(1, "self", 0, 0), WithPlayer(5, "other", 0, 1))

	fresh := LargePositionFields{PlayerID: 5, X: 200 * 16, Y: 200 * 16}
	fresh.Timestamp = ts.ServerSmallTick()
	ts.Deliver(BuildLargePosition(fresh))

	stale := LargePositionFields{PlayerID: 5, X: 900 * 16, Y: 900 * 16}
	stale.Timestamp = fresh.Timestamp - 5
	ts.Deliver(BuildLargePosition(stale))

	p := ts.Players.GetPlayerByID(5)
	if p.Position != (Vec2{200, 200}) {
		t.Errorf("position = %+v; stale packet must not apply", p.Position)
	}
}

func TestWrapToleranceAcceptsAncientLookingTimestamp(t *testing.T) {
	ts := NewTestSim(WithSelf(1, "self", 0, 0), WithPlayer(5, "other", 0, 1))

	p := ts.Players.GetPlayerByID(5)
	p.Timestamp = ts.ServerSmallTick() + 2000 // far "ahead" of the packet

	f := LargePositionFields{PlayerID: 5, X: 300 * 16, Y: 300 * 16}
	f.Timestamp = ts.ServerSmallTick()
	ts.Deliver(BuildLargePosition(f))

	p = ts.Players.GetPlayerByID(5)
	if p.Position != (Vec2{300, 300}) {
		t.Errorf("position = %+v; a >999 tick delta is treated as newer", p.Position)
	}
}

func TestOutOfSyncTimestampRejected(t *testing.T) {
	ts := NewTestSim(WithSelf(1, "self", 0, 0), WithPlayer(5, "other", 0, 1))

	f := LargePositionFields{PlayerID: 5, X: 300 * 16, Y: 300 * 16}
	f.Timestamp = uint16((uint32(ts.Conn.GetServerTick()) - 400) & 0xFFFF)
	ts.Deliver(BuildLargePosition(f))

	p := ts.Players.GetPlayerByID(5)
	if p.IsSynchronized() {
		t.Error("a timestamp 400 ticks out must be rejected")
	}
}

func TestSelfPositionIgnoredWhileDead(t *testing.T) {
	ts := NewTestSim(WithSelf(1, "self", 0, 0))
	self := ts.Self()
	self.EnterDelay = 1.5
	self.Position = Vec2{100, 100}

	deliverSelfLarge(ts, 0, LargePositionFields{X: 700 * 16, Y: 700 * 16})

	if ts.Self().Position != (Vec2{100, 100}) {
		t.Error("position packets for a dead self must be ignored")
	}
}

func TestSetCoordinates(t *testing.T) {
	ts := NewTestSim(
		WithTile(100, 100, TileIDSafe),
		WithSelf(1, "self", 0, 0),
	)
	self := ts.Self()
	self.Velocity = Vec2{3, 3}

	ts.Deliver(BuildSetCoordinates(100, 100))

	self = ts.Self()
	if self.Position != (Vec2{100.5, 100.5}) {
		t.Errorf("position = %+v, want half-tile centered (100.5, 100.5)", self.Position)
	}
	if !self.Velocity.IsZero() {
		t.Error("velocity must be zeroed")
	}
	if self.Togglables&StatusSafety == 0 {
		t.Error("standing on a safe tile sets the safety bit")
	}
	if !ts.SimLog.HasEntry("safety", "enter", "") {
		t.Error("safe-enter event missing")
	}
	if !ts.SimLog.HasEntry("position", "teleport", "") {
		t.Error("teleport event missing")
	}

	// The immediate position packet carries the flash bit; sending clears it
	// locally.
	packets := ts.Transport.SentOfType(C2SPosition)
	if len(packets) == 0 {
		t.Fatal("set-coordinates must send a position packet immediately")
	}
	out, _ := ParseOutboundPosition(packets[len(packets)-1])
	if StatusFlags(out.Togglables)&StatusFlash == 0 {
		t.Error("outbound packet must carry flash")
	}
	if ts.Self().Togglables&StatusFlash != 0 {
		t.Error("flash is cleared locally once sent")
	}

	// Leaving the safe tile fires the matching leave event.
	ts.Deliver(BuildSetCoordinates(200, 200))
	if !ts.SimLog.HasEntry("safety", "leave", "") {
		t.Error("safe-leave event missing")
	}
	if ts.Self().Togglables&StatusSafety != 0 {
		t.Error("safety bit must clear off the tile")
	}
}

func TestSetCoordinatesUnsticks(t *testing.T) {
	ts := NewTestSim(
		WithSolidRect(45, 45, 55, 55),
		WithSelf(1, "self", 0, 0),
	)

	ts.Deliver(BuildSetCoordinates(50, 50))

	self := ts.Self()
	radius := ts.Conn.Settings.ShipSettings[0].GetRadius()
	if ts.TileMap.IsColliding(self.Position, radius, self.Frequency) {
		t.Errorf("self still colliding at %+v after unstuck", self.Position)
	}
	if self.Position.X > 45 || self.Position.Y > 45 {
		t.Errorf("unstuck should have walked up-left out of the block, at %+v", self.Position)
	}
}
