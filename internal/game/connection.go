package game

import "go.uber.org/zap"

// LoginState tracks progress through the login handshake. The handshake
// itself (encryption, authentication, map download) lives in the transport
// layer; the core only gates outbound traffic on reaching Complete.
type LoginState int

const (
	LoginStateConnecting LoginState = iota
	LoginStateAuthentication
	LoginStateArenaLogin
	LoginStateMapDownload
	LoginStateComplete
)

// Transport delivers raw outbound packets. The socket and encryption layer
// behind it is an external collaborator.
type Transport interface {
	Send(data []byte) error
}

// Damage is one entry of the damage report ring.
type Damage struct {
	Timestamp  Tick
	ShooterID  PlayerID
	WeaponData WeaponData
	Energy     int16
	Damage     int16
}

// Connection owns the session-level protocol state shared by every
// subsystem: server time reconciliation, arena settings, the map oracle and
// the outbound packet path.
type Connection struct {
	log       *zap.Logger
	clock     Clock
	transport Transport

	Settings ArenaSettings
	Map      Map

	// TimeDiff is serverTick - localTick, updated by the sync layer.
	TimeDiff int32
	// Ping is the round-trip estimate in ticks.
	Ping uint32

	LoginState  LoginState
	JoinedArena bool

	// ExtraPositionInfo is set when this client opted into extended position
	// packets; Settings.ExtraPositionData is the arena-wide demand.
	ExtraPositionInfo bool

	// ReportDamage enables watch-damage reporting to the server.
	ReportDamage bool

	// WeaponsReceived counts position packets that carried a live weapon.
	WeaponsReceived uint32
}

// NewConnection wires a connection over the given transport.
func NewConnection(log *zap.Logger, clock Clock, transport Transport) *Connection {
	return &Connection{
		log:       log.Named("conn"),
		clock:     clock,
		transport: transport,
		Settings:  DefaultArenaSettings(),
	}
}

// GetCurrentTick returns the local tick.
func (c *Connection) GetCurrentTick() Tick {
	return c.clock.Now()
}

// GetServerTick returns the current tick in server time.
func (c *Connection) GetServerTick() Tick {
	return MakeTick(uint32(c.clock.Now()) + uint32(c.TimeDiff))
}

// Send transmits a built packet. Transport errors are logged and swallowed;
// the protocol is datagram-oriented and loss-tolerant.
func (c *Connection) Send(b *NetworkBuffer) {
	if err := c.transport.Send(b.Bytes()); err != nil {
		c.log.Warn("send failed", zap.Int("size", b.Size()), zap.Error(err))
	}
}

// SendAttachRequest asks the server to attach to target, or to detach when
// target is InvalidPlayerID.
func (c *Connection) SendAttachRequest(target PlayerID) {
	b := NewNetworkBuffer(3)
	b.WriteU8(uint8(C2SAttachRequest))
	b.WriteU16(uint16(target))
	c.Send(b)
}

// SendAttachDrop asks the server to drop all of our attached turrets.
func (c *Connection) SendAttachDrop() {
	b := NewNetworkBuffer(1)
	b.WriteU8(uint8(C2SAttachDrop))
	c.Send(b)
}

// SendShipRequest asks the server for a ship change.
func (c *Connection) SendShipRequest(ship uint8) {
	b := NewNetworkBuffer(2)
	b.WriteU8(uint8(C2SSetShip))
	b.WriteU8(ship)
	c.Send(b)
}

// SendDamage flushes queued damage entries to the server.
func (c *Connection) SendDamage(damages []Damage) {
	b := NewNetworkBuffer(1 + len(damages)*12)
	b.WriteU8(uint8(C2SDamage))
	for _, d := range damages {
		b.WriteU32(uint32(d.Timestamp))
		b.WriteU16(uint16(d.ShooterID))
		b.WriteU16(uint16(d.WeaponData))
		b.WriteU16(uint16(d.Energy))
		b.WriteU16(uint16(d.Damage))
	}
	c.Send(b)
}
