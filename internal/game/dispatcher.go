package game

// ProtocolS2C enumerates the server-to-client packet types the core handles,
// keyed by the first byte of the decoded packet.
type ProtocolS2C byte

const (
	S2CPlayerID             ProtocolS2C = 0x01
	S2CJoinGame             ProtocolS2C = 0x02
	S2CPlayerEntering       ProtocolS2C = 0x03
	S2CPlayerLeaving        ProtocolS2C = 0x04
	S2CLargePosition        ProtocolS2C = 0x05
	S2CPlayerDeath          ProtocolS2C = 0x06
	S2CFrequencyChange      ProtocolS2C = 0x0D
	S2CCreateTurret         ProtocolS2C = 0x0E
	S2CDestroyTurret        ProtocolS2C = 0x15
	S2CDropFlag             ProtocolS2C = 0x16
	S2CTeamAndShipChange    ProtocolS2C = 0x1D
	S2CSmallPosition        ProtocolS2C = 0x28
	S2CSetCoordinates       ProtocolS2C = 0x32
	S2CBatchedSmallPosition ProtocolS2C = 0x38
	S2CBatchedLargePosition ProtocolS2C = 0x39
)

// ProtocolC2S enumerates the client-to-server packet types the core emits.
type ProtocolC2S byte

const (
	C2SPosition      ProtocolC2S = 0x03
	C2SSetFrequency  ProtocolC2S = 0x0F
	C2SAttachRequest ProtocolC2S = 0x10
	C2SAttachDrop    ProtocolC2S = 0x14
	C2SSetShip       ProtocolC2S = 0x18
	C2SDamage        ProtocolC2S = 0x32
)

// PacketHandler processes one decoded packet. The slice is only valid for the
// duration of the call.
type PacketHandler func(pkt []byte)

// PacketDispatcher fans decoded packets out to handlers registered on the
// packet's type byte. Dispatch order within a type is registration order.
type PacketDispatcher struct {
	handlers [256][]PacketHandler
}

// NewPacketDispatcher creates an empty dispatcher.
func NewPacketDispatcher() *PacketDispatcher {
	return &PacketDispatcher{}
}

// Register adds a handler for a packet type.
func (d *PacketDispatcher) Register(t ProtocolS2C, h PacketHandler) {
	d.handlers[t] = append(d.handlers[t], h)
}

// Dispatch routes one packet to every handler registered for its type byte.
// Empty packets are ignored.
func (d *PacketDispatcher) Dispatch(pkt []byte) {
	if len(pkt) == 0 {
		return
	}
	for _, h := range d.handlers[pkt[0]] {
		h(pkt)
	}
}
