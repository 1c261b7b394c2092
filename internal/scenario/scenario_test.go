package scenario

import (
	"testing"

	"github.com/fennwald/driftbot/internal/game"
)

func TestBrawlerSessionEndToEnd(t *testing.T) {
	s := New(Config{Seed: 42, EnemyCount: 2, Behavior: "brawler"})
	s.Run(1500)

	r := s.BuildReport()

	if r.ShipRequests == 0 {
		t.Error("the bot must request its ship")
	}
	self := s.Sim.Self()
	if self == nil || self.Ship != 0 {
		t.Fatal("the scripted server grants the requested ship")
	}
	if r.PositionsSent == 0 {
		t.Error("the session must send position packets")
	}
	if !self.IsSynchronized() {
		t.Error("the position echo must synchronize the local player")
	}
	if r.Spawns == 0 {
		t.Error("the ship change must respawn the bot")
	}
	if s.Results["failure"] == r.Ticks {
		t.Error("the tree should not fail every tick")
	}
}

func TestBrawlerMovesAndStaysInBounds(t *testing.T) {
	s := New(Config{Seed: 7, EnemyCount: 1, Behavior: "brawler"})
	s.Run(400)

	start := s.Sim.Self().Position
	s.Run(1200)
	end := s.Sim.Self().Position

	if start.Distance(end) < 0.5 {
		t.Errorf("the bot should move under its own inputs (start %+v end %+v)", start, end)
	}
	radius := s.Sim.Conn.Settings.ShipSettings[0].GetRadius()
	if s.Sim.TileMap.IsColliding(end, radius, 0) {
		t.Errorf("the bot must not end inside a wall at %+v", end)
	}
}

func TestTurretSessionAttaches(t *testing.T) {
	s := New(Config{Seed: 9, EnemyCount: 1, Behavior: "turret"})

	attached := -1
	for i := 0; i < 3000; i++ {
		s.Step()
		if self := s.Sim.Self(); self != nil && self.AttachParent != game.InvalidPlayerID {
			attached = i
			break
		}
	}
	if attached < 0 {
		t.Fatalf("the turret behavior never attached:\n%s", s.Sim.SimLog.Format())
	}

	r := s.BuildReport()
	if r.AttachRequests == 0 {
		t.Error("an attach request must have been sent")
	}
	if r.Attaches == 0 {
		t.Error("the attach event must have fired")
	}
}
