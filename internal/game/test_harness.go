package game

import (
	"go.uber.org/zap"
)

// FakeClock is a settable clock used by the harness and tests.
type FakeClock struct {
	tick Tick
}

// Now implements Clock.
func (c *FakeClock) Now() Tick { return c.tick }

// Advance moves the clock forward n ticks.
func (c *FakeClock) Advance(n int) { c.tick = MakeTick(uint32(c.tick) + uint32(n)) }

// Set pins the clock to an absolute tick.
func (c *FakeClock) Set(t Tick) { c.tick = t }

// CaptureTransport records outbound packets instead of sending them.
type CaptureTransport struct {
	Sent [][]byte
}

// Send implements Transport.
func (t *CaptureTransport) Send(data []byte) error {
	buf := make([]byte, len(data))
	copy(buf, data)
	t.Sent = append(t.Sent, buf)
	return nil
}

// SentOfType returns every captured packet with the given type byte.
func (t *CaptureTransport) SentOfType(kind ProtocolC2S) [][]byte {
	var out [][]byte
	for _, p := range t.Sent {
		if len(p) > 0 && p[0] == byte(kind) {
			out = append(out, p)
		}
	}
	return out
}

// OutboundPosition is a decoded client position packet, used by tests to
// assert on what the session actually sent.
type OutboundPosition struct {
	Direction  uint8
	Timestamp  Tick
	VelX       int16
	Y          uint16
	Checksum   uint8
	Togglables uint8
	X          uint16
	VelY       int16
	Bounty     uint16
	Energy     uint16
	Weapon     uint16
	HasExtra   bool
	Extra      struct {
		Energy    uint16
		Ping      uint16
		FlagTimer uint16
		Items     uint32
	}
}

// ParseOutboundPosition decodes a captured 0x03 packet.
func ParseOutboundPosition(pkt []byte) (OutboundPosition, bool) {
	var out OutboundPosition
	if len(pkt) < 22 || pkt[0] != byte(C2SPosition) {
		return out, false
	}
	b := NewReadBuffer(pkt)
	b.ReadU8()
	out.Direction = b.ReadU8()
	out.Timestamp = Tick(b.ReadU32())
	out.VelX = int16(b.ReadU16())
	out.Y = b.ReadU16()
	out.Checksum = b.ReadU8()
	out.Togglables = b.ReadU8()
	out.X = b.ReadU16()
	out.VelY = int16(b.ReadU16())
	out.Bounty = b.ReadU16()
	out.Energy = b.ReadU16()
	out.Weapon = b.ReadU16()
	if len(pkt) >= 32 {
		out.HasExtra = true
		out.Extra.Energy = b.ReadU16()
		out.Extra.Ping = b.ReadU16()
		out.Extra.FlagTimer = b.ReadU16()
		out.Extra.Items = b.ReadU32()
	}
	return out, true
}

// --- Server-side packet builders ---
//
// The harness plays the server: it encodes the same wire layouts the
// handlers decode so scenarios and tests can feed the session real packets.

// EnterFields describes one roster entry for a PlayerEntering packet.
type EnterFields struct {
	Ship         uint8
	Name         string
	Squad        string
	KillPoints   uint32
	FlagPoints   uint32
	ID           PlayerID
	Frequency    uint16
	Wins         uint16
	Losses       uint16
	AttachParent PlayerID
	Flags        uint16
	Koth         uint8
}

// BuildPlayerID encodes the self-id assignment packet.
func BuildPlayerID(id PlayerID) []byte {
	b := NewNetworkBuffer(3)
	b.WriteU8(uint8(S2CPlayerID))
	b.WriteU16(uint16(id))
	return b.Bytes()
}

// BuildJoinGame encodes the roster-complete packet.
func BuildJoinGame() []byte {
	return []byte{byte(S2CJoinGame)}
}

// BuildPlayerEntering encodes a roster entry.
func BuildPlayerEntering(f EnterFields) []byte {
	b := NewNetworkBuffer(64)
	b.WriteU8(uint8(S2CPlayerEntering))
	b.WriteU8(f.Ship)
	b.WriteU8(0) // audio flag
	b.WriteString(f.Name, 20)
	b.WriteString(f.Squad, 20)
	b.WriteU32(f.KillPoints)
	b.WriteU32(f.FlagPoints)
	b.WriteU16(uint16(f.ID))
	b.WriteU16(f.Frequency)
	b.WriteU16(f.Wins)
	b.WriteU16(f.Losses)
	b.WriteU16(uint16(f.AttachParent))
	b.WriteU16(f.Flags)
	b.WriteU8(f.Koth)
	return b.Bytes()
}

// BuildPlayerLeaving encodes a leave packet.
func BuildPlayerLeaving(id PlayerID) []byte {
	b := NewNetworkBuffer(3)
	b.WriteU8(uint8(S2CPlayerLeaving))
	b.WriteU16(uint16(id))
	return b.Bytes()
}

// LargePositionFields describes a standalone large position packet.
type LargePositionFields struct {
	Direction  uint8
	Timestamp  uint16
	X, Y       uint16 // pixels
	VelX, VelY int16  // pixels per second times ten
	PlayerID   PlayerID
	Togglables StatusFlags
	Ping       uint8
	Bounty     uint16
	Weapon     uint16

	// IncludeExtra appends the full trailing block (energy, latency, flag
	// timer, items).
	IncludeExtra bool
	Energy       uint16
	S2CLatency   uint16
	FlagTimer    uint16
	Items        uint32
}

// BuildLargePosition encodes a large position packet.
func BuildLargePosition(f LargePositionFields) []byte {
	b := NewNetworkBuffer(32)
	b.WriteU8(uint8(S2CLargePosition))
	b.WriteU8(f.Direction)
	b.WriteU16(f.Timestamp)
	b.WriteU16(f.X)
	b.WriteU16(uint16(f.VelY))
	b.WriteU16(uint16(f.PlayerID))
	b.WriteU16(uint16(f.VelX))
	b.WriteU8(0) // checksum
	b.WriteU8(uint8(f.Togglables))
	b.WriteU8(f.Ping)
	b.WriteU16(f.Y)
	b.WriteU16(f.Bounty)
	b.WriteU16(f.Weapon)
	if f.IncludeExtra {
		b.WriteU16(f.Energy)
		b.WriteU16(f.S2CLatency)
		b.WriteU16(f.FlagTimer)
		b.WriteU32(f.Items)
	}
	return b.Bytes()
}

// SmallPositionFields describes a standalone small position packet.
type SmallPositionFields struct {
	Direction  uint8
	Timestamp  uint16
	X, Y       uint16 // pixels
	VelX, VelY int16  // pixels per second times ten
	Ping       uint8
	Bounty     uint8
	PlayerID   uint8 // the wire truncates ids to one byte here
	Togglables StatusFlags

	IncludeExtra bool
	Energy       uint16
	S2CLatency   uint16
	FlagTimer    uint16
	Items        uint32
}

// BuildSmallPosition encodes a small position packet.
func BuildSmallPosition(f SmallPositionFields) []byte {
	b := NewNetworkBuffer(28)
	b.WriteU8(uint8(S2CSmallPosition))
	b.WriteU8(f.Direction)
	b.WriteU16(f.Timestamp)
	b.WriteU16(f.X)
	b.WriteU8(f.Ping)
	b.WriteU8(f.Bounty)
	b.WriteU8(f.PlayerID)
	b.WriteU8(uint8(f.Togglables))
	b.WriteU16(uint16(f.VelY))
	b.WriteU16(f.Y)
	b.WriteU16(uint16(f.VelX))
	if f.IncludeExtra {
		b.WriteU16(f.Energy)
		b.WriteU16(f.S2CLatency)
		b.WriteU16(f.FlagTimer)
		b.WriteU32(f.Items)
	}
	return b.Bytes()
}

// BuildBatchedLargePosition encodes a batched large packet from records.
func BuildBatchedLargePosition(recs ...BatchedRecord) []byte {
	b := NewNetworkBuffer(1 + len(recs)*11)
	b.WriteU8(uint8(S2CBatchedLargePosition))
	for _, r := range recs {
		EncodeBatchedLargeRecord(b, r)
	}
	return b.Bytes()
}

// BuildBatchedSmallPosition encodes a batched small packet from records.
func BuildBatchedSmallPosition(recs ...BatchedRecord) []byte {
	b := NewNetworkBuffer(1 + len(recs)*10)
	b.WriteU8(uint8(S2CBatchedSmallPosition))
	for _, r := range recs {
		EncodeBatchedSmallRecord(b, r)
	}
	return b.Bytes()
}

// BuildPlayerDeath encodes a kill packet.
func BuildPlayerDeath(killer, killed PlayerID, bounty, flagTransfer uint16) []byte {
	b := NewNetworkBuffer(10)
	b.WriteU8(uint8(S2CPlayerDeath))
	b.WriteU8(0) // green id
	b.WriteU16(uint16(killer))
	b.WriteU16(uint16(killed))
	b.WriteU16(bounty)
	b.WriteU16(flagTransfer)
	return b.Bytes()
}

// BuildFrequencyChange encodes a team change packet.
func BuildFrequencyChange(id PlayerID, frequency uint16) []byte {
	b := NewNetworkBuffer(5)
	b.WriteU8(uint8(S2CFrequencyChange))
	b.WriteU16(uint16(id))
	b.WriteU16(frequency)
	return b.Bytes()
}

// BuildTeamAndShipChange encodes a combined ship and team change packet.
func BuildTeamAndShipChange(id PlayerID, ship uint8, frequency uint16) []byte {
	b := NewNetworkBuffer(6)
	b.WriteU8(uint8(S2CTeamAndShipChange))
	b.WriteU8(ship)
	b.WriteU16(uint16(id))
	b.WriteU16(frequency)
	return b.Bytes()
}

// BuildSetCoordinates encodes a server-forced teleport.
func BuildSetCoordinates(x, y uint16) []byte {
	b := NewNetworkBuffer(5)
	b.WriteU8(uint8(S2CSetCoordinates))
	b.WriteU16(x)
	b.WriteU16(y)
	return b.Bytes()
}

// BuildCreateTurret encodes a turret link packet.
func BuildCreateTurret(requester, destination PlayerID) []byte {
	b := NewNetworkBuffer(5)
	b.WriteU8(uint8(S2CCreateTurret))
	b.WriteU16(uint16(requester))
	b.WriteU16(uint16(destination))
	return b.Bytes()
}

// BuildCreateTurretRelease encodes the short release form.
func BuildCreateTurretRelease(requester PlayerID) []byte {
	b := NewNetworkBuffer(3)
	b.WriteU8(uint8(S2CCreateTurret))
	b.WriteU16(uint16(requester))
	return b.Bytes()
}

// BuildDestroyTurret encodes a turret teardown packet.
func BuildDestroyTurret(id PlayerID) []byte {
	b := NewNetworkBuffer(3)
	b.WriteU8(uint8(S2CDestroyTurret))
	b.WriteU16(uint16(id))
	return b.Bytes()
}

// BuildFlagDrop encodes a flag drop packet.
func BuildFlagDrop(id PlayerID) []byte {
	b := NewNetworkBuffer(3)
	b.WriteU8(uint8(S2CDropFlag))
	b.WriteU16(uint16(id))
	return b.Bytes()
}

// --- TestSim ---

// TestSim is a headless session harness used by the tests, the report
// command and the viewer. It plays both sides: the harness encodes server
// packets and the session under test responds through a capture transport.
type TestSim struct {
	Clock      *FakeClock
	Transport  *CaptureTransport
	TileMap    *TileMap
	Conn       *Connection
	Dispatcher *PacketDispatcher
	Events     *EventBus
	Players    *PlayerManager
	Ships      *ShipController
	SimLog     *SimLog

	selfID PlayerID
}

// simOptionKind controls the pass in which an option is applied.
type simOptionKind int

const (
	simOptInfra  simOptionKind = iota // map, settings, seed, verbose
	simOptRoster                      // self and other players
)

// SimOption is a builder function applied to a TestSim during construction.
type SimOption struct {
	kind simOptionKind
	fn   func(*TestSim)
}

// WithVerbose replaces the SimLog with one in the given verbose mode.
func WithVerbose(v bool) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.SimLog = NewSimLog(v)
	}}
}

// WithSettings mutates the arena settings before the roster is built.
func WithSettings(mutate func(*ArenaSettings)) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		mutate(&ts.Conn.Settings)
	}}
}

// WithSolidRect fills a wall rectangle (inclusive tile bounds).
func WithSolidRect(x0, y0, x1, y1 int) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.TileMap.FillRect(x0, y0, x1, y1, 1)
	}}
}

// WithTile places one special tile.
func WithTile(x, y int, id TileID) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.TileMap.SetTile(x, y, id)
	}}
}

// WithSeed seeds spawn jitter for deterministic runs.
func WithSeed(seed int64) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.Players.SetSeed(seed)
	}}
}

// WithPing sets the connection's round-trip estimate in ticks.
func WithPing(ticks uint32) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.Conn.Ping = ticks
	}}
}

// WithSelf assigns the local player id and enters it into the roster.
func WithSelf(id PlayerID, name string, ship uint8, frequency uint16) SimOption {
	return SimOption{simOptRoster, func(ts *TestSim) {
		ts.selfID = id
		ts.Deliver(BuildPlayerID(id))
		ts.Deliver(BuildPlayerEntering(EnterFields{
			Ship:         ship,
			Name:         name,
			ID:           id,
			Frequency:    frequency,
			AttachParent: InvalidPlayerID,
		}))
	}}
}

// WithPlayer enters a remote player into the roster.
func WithPlayer(id PlayerID, name string, ship uint8, frequency uint16) SimOption {
	return SimOption{simOptRoster, func(ts *TestSim) {
		ts.Deliver(BuildPlayerEntering(EnterFields{
			Ship:         ship,
			Name:         name,
			ID:           id,
			Frequency:    frequency,
			AttachParent: InvalidPlayerID,
		}))
	}}
}

// NewTestSim constructs a session harness in two ordered passes:
// infrastructure (map, settings, seed) then roster.
func NewTestSim(opts ...SimOption) *TestSim {
	clock := &FakeClock{}
	clock.Set(10000)
	transport := &CaptureTransport{}
	log := zap.NewNop()

	ts := &TestSim{
		Clock:      clock,
		Transport:  transport,
		TileMap:    NewTileMap(),
		Dispatcher: NewPacketDispatcher(),
		Events:     NewEventBus(),
		SimLog:     NewSimLog(false),
		selfID:     InvalidPlayerID,
	}

	ts.Conn = NewConnection(log, clock, transport)
	ts.Conn.Map = ts.TileMap
	ts.Conn.LoginState = LoginStateComplete
	ts.Conn.JoinedArena = true

	ts.Players = NewPlayerManager(log, ts.Conn, ts.Dispatcher, ts.Events)
	ts.Ships = NewShipController(ts.Conn)
	ts.Players.SetShipController(ts.Ships)

	for _, o := range opts {
		if o.kind == simOptInfra {
			o.fn(ts)
		}
	}

	ts.Events.Subscribe(ts.SimLog.EventListener(clock))

	for _, o := range opts {
		if o.kind == simOptRoster {
			o.fn(ts)
		}
	}

	ts.Deliver(BuildJoinGame())
	return ts
}

// Deliver routes a server packet into the session.
func (ts *TestSim) Deliver(pkt []byte) {
	ts.Dispatcher.Dispatch(pkt)
}

// Self returns the local player.
func (ts *TestSim) Self() *Player {
	return ts.Players.GetPlayerByID(ts.selfID)
}

// ServerSmallTick returns the low 16 bits of the current server tick, the
// timestamp a standalone position packet sent "now" would carry.
func (ts *TestSim) ServerSmallTick() uint16 {
	return uint16(uint32(ts.Conn.GetServerTick()) & 0xFFFF)
}

// ServerSmallTick10 returns the low 10 bits of the current server tick for
// batched records.
func (ts *TestSim) ServerSmallTick10() uint16 {
	return uint16(uint32(ts.Conn.GetServerTick()) & 0x3FF)
}

// RunTicks advances the session n ticks of 10ms each.
func (ts *TestSim) RunTicks(n int) {
	for i := 0; i < n; i++ {
		ts.Clock.Advance(1)
		ts.Players.Update(1.0 / 100.0)
	}
}

// RunUntil advances up to maxTicks, stopping early when predicate returns
// true. Returns the tick count consumed, or -1 when the predicate never hit.
func (ts *TestSim) RunUntil(predicate func(*TestSim) bool, maxTicks int) int {
	for i := 0; i < maxTicks; i++ {
		ts.Clock.Advance(1)
		ts.Players.Update(1.0 / 100.0)
		if predicate(ts) {
			return i + 1
		}
	}
	return -1
}
