// Package scenario wires a full headless session: the harness plays a
// scripted server, the bot plays the client, and both cmds (report runner
// and viewer) drive the same loop.
package scenario

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/fennwald/driftbot/internal/behavior"
	"github.com/fennwald/driftbot/internal/game"
	"github.com/fennwald/driftbot/internal/render"
)

// SelfID is the bot's player id in every scripted scenario.
const SelfID game.PlayerID = 1

// Config selects the scripted world.
type Config struct {
	Seed       int64
	Verbose    bool
	EnemyCount int
	Behavior   string // "brawler" or "turret"
}

// scriptedEnemy orbits a center point and reports positions like a remote
// client would.
type scriptedEnemy struct {
	id     game.PlayerID
	center game.Vec2
	radius float64
	angle  float64
	speed  float64 // radians per tick
}

func (e *scriptedEnemy) position() game.Vec2 {
	return game.Vec2{
		X: e.center.X + float32(e.radius*math.Cos(e.angle)),
		Y: e.center.Y + float32(e.radius*math.Sin(e.angle)),
	}
}

func (e *scriptedEnemy) velocity() game.Vec2 {
	// Tangent of the orbit, in tiles per second at 100 ticks per second.
	v := e.radius * e.speed * 100
	return game.Vec2{
		X: float32(-v * math.Sin(e.angle)),
		Y: float32(v * math.Cos(e.angle)),
	}
}

// Scenario is one running session.
type Scenario struct {
	Sim     *game.TestSim
	Bot     *behavior.Bot
	Overlay *render.Recorder

	enemies  []*scriptedEnemy
	carrier  game.PlayerID
	rng      *rand.Rand
	tick     int
	consumed int // outbound packets already inspected by the fake server

	// Results tallies tree outcomes by name.
	Results map[string]int
}

// New builds the session: map, roster, bot, and the scripted opposition.
func New(cfg Config) *Scenario {
	if cfg.EnemyCount <= 0 {
		cfg.EnemyCount = 2
	}

	sim := game.NewTestSim(
		game.WithVerbose(cfg.Verbose),
		game.WithSeed(cfg.Seed),
		// A box of walls around the combat area keeps the fight bounded.
		game.WithSolidRect(440, 440, 584, 442),
		game.WithSolidRect(440, 582, 584, 584),
		game.WithSolidRect(440, 442, 442, 582),
		game.WithSolidRect(582, 442, 584, 582),
		// An interior wall so pathing has something to route around.
		game.WithSolidRect(500, 480, 502, 540),
		game.WithTile(470, 470, game.TileIDSafe),
		game.WithSettings(func(s *game.ArenaSettings) {
			s.SendPositionDelay = 10
			s.SpawnSettings[0] = game.SpawnSettings{X: 480, Y: 520, Radius: 8}
		}),
		game.WithSelf(SelfID, "driftbot", game.SpectatorShip, 0),
	)

	s := &Scenario{
		Sim:     sim,
		Overlay: render.NewRecorder(),
		rng:     rand.New(rand.NewSource(cfg.Seed)), // #nosec G404 -- scripted opposition jitter
		Results: make(map[string]int),
	}

	for i := 0; i < cfg.EnemyCount; i++ {
		id := game.PlayerID(100 + i)
		sim.Deliver(game.BuildPlayerEntering(game.EnterFields{
			Ship:         uint8(i % 8),
			Name:         fmt.Sprintf("drone-%d", i),
			ID:           id,
			Frequency:    1,
			AttachParent: game.InvalidPlayerID,
		}))
		s.enemies = append(s.enemies, &scriptedEnemy{
			id:     id,
			center: game.Vec2{X: 512, Y: 512},
			radius: 14 + float64(i)*4,
			angle:  s.rng.Float64() * 2 * math.Pi,
			speed:  0.002 + 0.001*float64(i),
		})
	}

	if cfg.Behavior == "turret" {
		s.carrier = 50
		sim.Deliver(game.BuildPlayerEntering(game.EnterFields{
			Ship:         2,
			Name:         "carrier",
			ID:           s.carrier,
			Frequency:    0,
			AttachParent: game.InvalidPlayerID,
		}))
	}

	var b behavior.Behavior
	switch cfg.Behavior {
	case "turret":
		b = &behavior.TurretBehavior{RequestShip: 0}
	default:
		b = &behavior.BrawlerBehavior{RequestShip: 0}
	}

	ctx := &behavior.ExecuteContext{
		Players:    sim.Players,
		Conn:       sim.Conn,
		Map:        sim.TileMap,
		Input:      &game.InputState{},
		Ships:      sim.Ships,
		Pathfinder: game.NewNavGrid(sim.TileMap, sim.Conn.Settings.ShipSettings[0].GetRadius(), 0),
		Debug:      render.NewRecorder(),
	}
	s.Overlay = ctx.Debug.(*render.Recorder)
	s.Bot = behavior.NewBot(ctx, b)

	return s
}

// Step advances the session one tick: scripted traffic in, bot decision,
// frame update, scripted server responses out.
func (s *Scenario) Step() {
	s.tick++

	// Enemies orbit and report every 10 ticks, batched the way busy servers
	// batch remote traffic.
	for _, e := range s.enemies {
		e.angle += e.speed
	}
	if s.tick%10 == 0 {
		recs := make([]game.BatchedRecord, 0, len(s.enemies))
		for _, e := range s.enemies {
			pos := e.position()
			vel := e.velocity()
			recs = append(recs, game.BatchedRecord{
				PlayerID:  e.id,
				Direction: uint8(s.rng.Intn(40)) & 0x3F,
				Timestamp: s.Sim.ServerSmallTick10(),
				X:         uint16(pos.X * 16),
				Y:         uint16(pos.Y * 16),
				VelX:      int32(vel.X * 16 * 10),
				VelY:      int32(vel.Y * 16 * 10),
			})
		}
		s.Sim.Deliver(game.BuildBatchedLargePosition(recs...))
	}

	// The carrier reports standalone large positions.
	if s.carrier != 0 && s.tick%10 == 5 {
		s.Sim.Deliver(game.BuildLargePosition(game.LargePositionFields{
			Direction: 10,
			Timestamp: s.Sim.ServerSmallTick(),
			X:         uint16(490 * 16),
			Y:         uint16(520 * 16),
			PlayerID:  s.carrier,
		}))
	}

	result := s.Bot.Tick(1.0 / 100.0)
	s.Results[result.String()]++

	s.Sim.Clock.Advance(1)
	s.Sim.Players.Update(1.0 / 100.0)

	s.pumpServer()

	// Without a recharge simulation the scripted server keeps the bot's
	// energy topped up outside of attach costs.
	if self := s.Sim.Self(); self != nil && self.Ship != game.SpectatorShip {
		max := float32(s.Sim.Ships.Ship.Energy)
		if self.Energy < max {
			self.Energy += 20 * 1.0 / 100.0 * 100
			if self.Energy > max {
				self.Energy = max
			}
		}
	}
}

// pumpServer answers the bot's outbound requests the way the live server
// would: ship changes are granted, attach requests are confirmed.
func (s *Scenario) pumpServer() {
	sent := s.Sim.Transport.Sent
	for ; s.consumed < len(sent); s.consumed++ {
		pkt := sent[s.consumed]
		if len(pkt) == 0 {
			continue
		}
		switch game.ProtocolC2S(pkt[0]) {
		case game.C2SPosition:
			// The server echoes the client's own position; that echo is what
			// synchronizes the local player.
			if out, ok := game.ParseOutboundPosition(pkt); ok && out.X != 0xFFFF {
				s.Sim.Deliver(game.BuildLargePosition(game.LargePositionFields{
					Direction:  out.Direction,
					Timestamp:  uint16(uint32(out.Timestamp) & 0xFFFF),
					X:          out.X,
					Y:          out.Y,
					VelX:       out.VelX,
					VelY:       out.VelY,
					PlayerID:   SelfID,
					Togglables: game.StatusFlags(out.Togglables),
					Bounty:     out.Bounty,
				}))
			}
		case game.C2SSetShip:
			if len(pkt) >= 2 {
				s.Sim.Deliver(game.BuildTeamAndShipChange(SelfID, pkt[1], 0))
				if self := s.Sim.Self(); self != nil {
					self.Energy = float32(s.Sim.Ships.Ship.Energy)
				}
			}
		case game.C2SAttachRequest:
			if len(pkt) >= 3 {
				target := game.PlayerID(uint16(pkt[1]) | uint16(pkt[2])<<8)
				if target != game.InvalidPlayerID {
					s.Sim.Deliver(game.BuildCreateTurret(SelfID, target))
				}
			}
		}
	}
}

// Run advances n ticks.
func (s *Scenario) Run(n int) {
	for i := 0; i < n; i++ {
		s.Step()
	}
}

// Report summarizes the run for the headless command.
type Report struct {
	Ticks          int
	PositionsSent  int
	ShipRequests   int
	AttachRequests int
	Spawns         int
	Teleports      int
	Attaches       int
	Detaches       int
	TreeResults    map[string]int
	FinalPosition  game.Vec2
}

// BuildReport tallies the session counters.
func (s *Scenario) BuildReport() Report {
	r := Report{
		Ticks:          s.tick,
		PositionsSent:  len(s.Sim.Transport.SentOfType(game.C2SPosition)),
		ShipRequests:   len(s.Sim.Transport.SentOfType(game.C2SSetShip)),
		AttachRequests: len(s.Sim.Transport.SentOfType(game.C2SAttachRequest)),
		Spawns:         s.Sim.SimLog.CountCategory("spawn", "placed"),
		Teleports:      s.Sim.SimLog.CountCategory("position", "teleport"),
		Attaches:       s.Sim.SimLog.CountCategory("attach", "link"),
		Detaches:       s.Sim.SimLog.CountCategory("attach", "unlink"),
		TreeResults:    s.Results,
	}
	if self := s.Sim.Self(); self != nil {
		r.FinalPosition = self.Position
	}
	return r
}

// String renders the report as lines of key=value counters.
func (r Report) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "ticks=%d positions_sent=%d ship_requests=%d attach_requests=%d\n",
		r.Ticks, r.PositionsSent, r.ShipRequests, r.AttachRequests)
	fmt.Fprintf(&sb, "spawns=%d teleports=%d attaches=%d detaches=%d\n",
		r.Spawns, r.Teleports, r.Attaches, r.Detaches)
	fmt.Fprintf(&sb, "tree: success=%d failure=%d running=%d\n",
		r.TreeResults["success"], r.TreeResults["failure"], r.TreeResults["running"])
	fmt.Fprintf(&sb, "final_position=(%.1f,%.1f)\n", r.FinalPosition.X, r.FinalPosition.Y)
	return sb.String()
}
