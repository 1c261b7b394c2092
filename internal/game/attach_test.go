package game

import "testing"

// fullBall is a Soccer collaborator that always carries the ball.
type fullBall struct{}

func (fullBall) IsCarryingBall() bool { return true }
func (fullBall) CarryTimer() float32  { return 1 }

func newAttachSim(t *testing.T) *TestSim {
	t.Helper()
	ts := NewTestSim(
		WithSettings(func(s *ArenaSettings) {
			for i := range s.ShipSettings {
				s.ShipSettings[i].TurretLimit = 4
				s.ShipSettings[i].AttachBounty = 10
			}
		}),
		WithSelf(1, "self", 0, 10),
		WithPlayer(2, "carrier", 2, 10),
		WithPlayer(3, "enemy", 0, 11),
		WithPlayer(4, "mate-a", 0, 10),
		WithPlayer(5, "mate-b", 0, 10),
	)
	self := ts.Self()
	self.Energy = float32(ts.Ships.Ship.Energy)
	self.Bounty = 50
	return ts
}

func TestAttachSelfFlow(t *testing.T) {
	ts := newAttachSim(t)
	pm := ts.Players

	// Destination already has two of its four turret slots used.
	ts.Deliver(BuildCreateTurret(4, 2))
	ts.Deliver(BuildCreateTurret(5, 2))

	dest := pm.GetPlayerByID(2)
	if got := pm.AttachSelf(dest); got != AttachSuccess {
		t.Fatalf("AttachSelf = %v, want success", got)
	}

	requests := ts.Transport.SentOfType(C2SAttachRequest)
	if len(requests) != 1 {
		t.Fatalf("attach requests sent = %d, want 1", len(requests))
	}
	if got := uint16(requests[0][1]) | uint16(requests[0][2])<<8; got != 2 {
		t.Errorf("attach request target = %d, want 2", got)
	}
	if ts.Self().AttachParent != 2 {
		t.Error("local link must be established optimistically")
	}

	// Server confirmation applies the energy cost and announces the attach.
	ts.Deliver(BuildCreateTurret(1, 2))

	self := ts.Self()
	if absf(self.Energy-1000*0.333) > 1 {
		t.Errorf("energy = %f, want about a third of 1000", self.Energy)
	}
	if !ts.SimLog.HasEntry("attach", "link", "self -> carrier") {
		t.Errorf("attach event missing:\n%s", ts.SimLog.Format())
	}

	// A second confirmation must not charge energy again.
	before := self.Energy
	ts.Deliver(BuildCreateTurret(1, 2))
	if ts.Self().Energy != before {
		t.Error("re-confirmation must be idempotent")
	}
}

func TestAttachSelfPreconditionLadder(t *testing.T) {
	t.Run("no destination", func(t *testing.T) {
		ts := newAttachSim(t)
		if got := ts.Players.AttachSelf(nil); got != AttachNoDestination {
			t.Errorf("got %v", got)
		}
	})

	t.Run("carrying ball", func(t *testing.T) {
		ts := newAttachSim(t)
		ts.Players.SetSoccer(fullBall{})
		if got := ts.Players.AttachSelf(ts.Players.GetPlayerByID(2)); got != AttachCarryingBall {
			t.Errorf("got %v", got)
		}
	})

	t.Run("already attached detaches", func(t *testing.T) {
		ts := newAttachSim(t)
		ts.Deliver(BuildCreateTurret(1, 2))
		if got := ts.Players.AttachSelf(ts.Players.GetPlayerByID(2)); got != AttachDetachFromParent {
			t.Errorf("got %v", got)
		}
		if ts.Self().AttachParent != InvalidPlayerID {
			t.Error("self must be detached")
		}
	})

	t.Run("has children drops them", func(t *testing.T) {
		ts := newAttachSim(t)
		ts.Deliver(BuildCreateTurret(4, 1))
		if got := ts.Players.AttachSelf(ts.Players.GetPlayerByID(2)); got != AttachDetachChildren {
			t.Errorf("got %v", got)
		}
		if len(ts.Transport.SentOfType(C2SAttachDrop)) != 1 {
			t.Error("attach drop must be sent")
		}
	})

	t.Run("not enough energy", func(t *testing.T) {
		ts := newAttachSim(t)
		ts.Self().Energy = 500
		if got := ts.Players.AttachSelf(ts.Players.GetPlayerByID(2)); got != AttachNotEnoughEnergy {
			t.Errorf("got %v", got)
		}
	})

	t.Run("bounty too low", func(t *testing.T) {
		ts := newAttachSim(t)
		ts.Self().Bounty = 5
		if got := ts.Players.AttachSelf(ts.Players.GetPlayerByID(2)); got != AttachBountyTooLow {
			t.Errorf("got %v", got)
		}
	})

	t.Run("self", func(t *testing.T) {
		ts := newAttachSim(t)
		if got := ts.Players.AttachSelf(ts.Self()); got != AttachSelf {
			t.Errorf("got %v", got)
		}
	})

	t.Run("wrong frequency", func(t *testing.T) {
		ts := newAttachSim(t)
		if got := ts.Players.AttachSelf(ts.Players.GetPlayerByID(3)); got != AttachFrequency {
			t.Errorf("got %v", got)
		}
	})

	t.Run("spectator destination", func(t *testing.T) {
		ts := newAttachSim(t)
		dest := ts.Players.GetPlayerByID(2)
		dest.Ship = SpectatorShip
		if got := ts.Players.AttachSelf(dest); got != AttachSpectator {
			t.Errorf("got %v", got)
		}
	})

	t.Run("unattachable ship", func(t *testing.T) {
		ts := newAttachSim(t)
		ts.Conn.Settings.ShipSettings[2].TurretLimit = 0
		if got := ts.Players.AttachSelf(ts.Players.GetPlayerByID(2)); got != AttachTargetShipNotAttachable {
			t.Errorf("got %v", got)
		}
	})

	t.Run("too many turrets", func(t *testing.T) {
		ts := newAttachSim(t)
		ts.Conn.Settings.ShipSettings[2].TurretLimit = 2
		ts.Deliver(BuildCreateTurret(4, 2))
		ts.Deliver(BuildCreateTurret(5, 2))
		if got := ts.Players.AttachSelf(ts.Players.GetPlayerByID(2)); got != AttachTooManyTurrets {
			t.Errorf("got %v", got)
		}
	})

	t.Run("antiwarped", func(t *testing.T) {
		ts := newAttachSim(t)
		enemy := ts.Players.GetPlayerByID(3)
		enemy.Togglables |= StatusAntiwarp
		enemy.Position = ts.Self().Position
		if got := ts.Players.AttachSelf(ts.Players.GetPlayerByID(2)); got != AttachAntiwarped {
			t.Errorf("got %v", got)
		}
	})
}

func TestDestroyTurretDetachesChildren(t *testing.T) {
	ts := newAttachSim(t)
	pm := ts.Players

	ts.Deliver(BuildCreateTurret(4, 2))
	ts.Deliver(BuildCreateTurret(5, 2))

	ts.Deliver(BuildDestroyTurret(2))

	parent := pm.GetPlayerByID(2)
	if parent.Children != nil {
		t.Error("all children must be unlinked")
	}
	for _, id := range []PlayerID{4, 5} {
		child := pm.GetPlayerByID(id)
		if child.AttachParent != InvalidPlayerID {
			t.Errorf("child %d still attached", id)
		}
		if child.IsSynchronized() {
			t.Errorf("child %d must be desynchronized after detach", id)
		}
	}
}

func TestCreateTurretReleaseDetachesSelf(t *testing.T) {
	ts := newAttachSim(t)
	ts.Deliver(BuildCreateTurret(1, 2))
	if ts.Self().AttachParent != 2 {
		t.Fatal("setup link failed")
	}

	ts.Deliver(BuildCreateTurretRelease(1))

	if ts.Self().AttachParent != InvalidPlayerID {
		t.Error("a short create-turret packet releases the pending link")
	}
}

func TestAttachInfoRecycling(t *testing.T) {
	ts := newAttachSim(t)
	pm := ts.Players

	ts.Deliver(BuildCreateTurret(4, 2))
	parent := pm.GetPlayerByID(2)
	node := parent.Children

	ts.Deliver(BuildDestroyTurret(2))
	if pm.attachFree != node {
		t.Error("detached node must return to the free list")
	}

	ts.Deliver(BuildCreateTurret(5, 2))
	if pm.GetPlayerByID(2).Children != node {
		t.Error("the free list node must be reused for the next link")
	}
}

func TestRemoteChildInheritsParentMotion(t *testing.T) {
	ts := newAttachSim(t)
	pm := ts.Players

	parent := pm.GetPlayerByID(2)
	parent.Position = Vec2{300, 300}
	parent.Velocity = Vec2{3, -1}

	ts.Deliver(BuildCreateTurret(4, 2))

	child := pm.GetPlayerByID(4)
	if child.Position != (Vec2{300, 300}) || child.Velocity != (Vec2{3, -1}) {
		t.Error("a newly linked remote child inherits the parent's motion")
	}
}
