package behavior

import (
	"math"

	"github.com/fennwald/driftbot/internal/game"
)

// TargetMemory tracks enemy contacts across ticks so target selection stays
// stable when a contact briefly breaks line of sight.
type TargetMemory interface {
	// Update refreshes the memory from the current roster.
	Update(ctx *ExecuteContext)
	// NearestTarget returns the id of the closest remembered enemy, or
	// InvalidPlayerID when nothing is remembered.
	NearestTarget(ctx *ExecuteContext) game.PlayerID
}

// sighting is one remembered enemy contact.
type sighting struct {
	position   game.Vec2
	confidence float32 // 0..1, decays while unseen
	visible    bool    // currently in view this tick
}

// SightingMemory remembers enemies seen recently, decaying confidence while
// they are hidden and dropping contacts that stay hidden too long.
type SightingMemory struct {
	sightings map[game.PlayerID]*sighting
}

// NewSightingMemory creates an empty memory.
func NewSightingMemory() *SightingMemory {
	return &SightingMemory{sightings: make(map[game.PlayerID]*sighting)}
}

// Update implements TargetMemory.
func (m *SightingMemory) Update(ctx *ExecuteContext) {
	self := ctx.Self()
	if self == nil {
		return
	}

	for _, s := range m.sightings {
		s.visible = false
	}

	for i := 0; i < ctx.Players.PlayerCount(); i++ {
		p := ctx.Players.PlayerAt(i)
		if p.ID == self.ID || p.Frequency == self.Frequency {
			continue
		}
		if p.Ship >= game.SpectatorShip || !p.IsSynchronized() || p.EnterDelay > 0 {
			continue
		}
		if !p.IsVisibleTo(self) {
			continue
		}
		if !game.LineOfSight(ctx.Map, self.Position, p.Position, self.Frequency) {
			continue
		}

		s, ok := m.sightings[p.ID]
		if !ok {
			s = &sighting{}
			m.sightings[p.ID] = s
		}
		s.position = p.Position
		s.confidence = 1
		s.visible = true
	}

	// Decay hidden contacts and drop the stale ones.
	for id, s := range m.sightings {
		if s.visible {
			continue
		}
		s.confidence -= 0.005 * ctx.Dt * 100
		if s.confidence <= 0.01 {
			delete(m.sightings, id)
		}
	}
}

// NearestTarget implements TargetMemory.
func (m *SightingMemory) NearestTarget(ctx *ExecuteContext) game.PlayerID {
	self := ctx.Self()
	if self == nil {
		return game.InvalidPlayerID
	}

	best := game.InvalidPlayerID
	bestDist := float32(math.MaxFloat32)

	for id, s := range m.sightings {
		// The contact must still be on the roster and targetable.
		p := ctx.Players.GetPlayerByID(id)
		if p == nil || p.Ship >= game.SpectatorShip || p.EnterDelay > 0 {
			continue
		}
		if d := s.position.Distance(self.Position); d < bestDist {
			bestDist = d
			best = id
		}
	}
	return best
}
