package game

import (
	"math/rand"

	"go.uber.org/zap"
)

const (
	animDurationShipWarp    = 0.5
	animDurationShipExplode = 0.8
	animDurationBombFlash   = 0.12

	// extraDataTimeout is how long (ticks) received extended position data is
	// considered fresh.
	extraDataTimeout = 500

	maxPlayers       = 1024
	maxDamageEntries = 32
	maxPacketSize    = 520

	invalidIndex = 0xFFFF
)

// AttachRequestResponse reports why a local attach request was or was not
// issued.
type AttachRequestResponse int

const (
	AttachSuccess AttachRequestResponse = iota
	AttachNoDestination
	AttachCarryingBall
	AttachDetachFromParent
	AttachDetachChildren
	AttachNotEnoughEnergy
	AttachBountyTooLow
	AttachSelf
	AttachFrequency
	AttachSpectator
	AttachTargetShipNotAttachable
	AttachTooManyTurrets
	AttachAntiwarped
	AttachUnrecoverableError
)

func (r AttachRequestResponse) String() string {
	switch r {
	case AttachSuccess:
		return "success"
	case AttachNoDestination:
		return "no destination"
	case AttachCarryingBall:
		return "carrying ball"
	case AttachDetachFromParent:
		return "detached from parent"
	case AttachDetachChildren:
		return "detached children"
	case AttachNotEnoughEnergy:
		return "not enough energy"
	case AttachBountyTooLow:
		return "bounty too low"
	case AttachSelf:
		return "cannot attach to self"
	case AttachFrequency:
		return "wrong frequency"
	case AttachSpectator:
		return "target is spectating"
	case AttachTargetShipNotAttachable:
		return "target ship has no turret slots"
	case AttachTooManyTurrets:
		return "too many turrets"
	case AttachAntiwarped:
		return "antiwarped"
	default:
		return "unrecoverable error"
	}
}

// PlayerManager owns the arena roster: the flat player table, the id lookup,
// the turret attachment graph, position reconciliation and the outbound
// position cadence.
type PlayerManager struct {
	log    *zap.Logger
	conn   *Connection
	events *EventBus
	rng    *rand.Rand

	players      []Player
	playerLookup []uint16 // id -> table index, invalidIndex when absent

	playerID            PlayerID
	receivedInitialList bool
	requestingAttach    bool
	attachFree          *AttachInfo

	damages            []Damage
	lastSendDamageTick Tick
	lastPositionTick   Tick

	shipController *ShipController
	weaponManager  WeaponManager
	radar          Radar
	soccer         Soccer
	chat           ChatController
}

// NewPlayerManager wires a manager onto the dispatcher and event bus.
// Collaborators default to inert implementations; use the setters to attach
// real ones.
func NewPlayerManager(log *zap.Logger, conn *Connection, dispatcher *PacketDispatcher, events *EventBus) *PlayerManager {
	pm := &PlayerManager{
		log:           log.Named("players"),
		conn:          conn,
		events:        events,
		rng:           rand.New(rand.NewSource(1)), // #nosec G404 -- gameplay jitter, not security
		players:       make([]Player, 0, maxPlayers),
		playerLookup:  make([]uint16, 0x10000),
		playerID:      InvalidPlayerID,
		weaponManager: nopWeaponManager{},
		radar:         allRadar{},
		soccer:        noSoccer{},
		chat:          nopChat{},
	}
	for i := range pm.playerLookup {
		pm.playerLookup[i] = invalidIndex
	}

	dispatcher.Register(S2CPlayerID, pm.onPlayerIDChange)
	dispatcher.Register(S2CPlayerEntering, pm.onPlayerEnter)
	dispatcher.Register(S2CPlayerLeaving, pm.onPlayerLeave)
	dispatcher.Register(S2CJoinGame, pm.onJoinGame)
	dispatcher.Register(S2CTeamAndShipChange, pm.onPlayerFreqAndShipChange)
	dispatcher.Register(S2CFrequencyChange, pm.onPlayerFrequencyChange)
	dispatcher.Register(S2CLargePosition, pm.onLargePositionPacket)
	dispatcher.Register(S2CSmallPosition, pm.onSmallPositionPacket)
	dispatcher.Register(S2CBatchedSmallPosition, pm.onBatchedSmallPositionPacket)
	dispatcher.Register(S2CBatchedLargePosition, pm.onBatchedLargePositionPacket)
	dispatcher.Register(S2CPlayerDeath, pm.onPlayerDeath)
	dispatcher.Register(S2CDropFlag, pm.onFlagDrop)
	dispatcher.Register(S2CSetCoordinates, pm.onSetCoordinates)
	dispatcher.Register(S2CCreateTurret, pm.onCreateTurretLink)
	dispatcher.Register(S2CDestroyTurret, pm.onDestroyTurretLink)

	return pm
}

// SetShipController attaches the local ship loadout collaborator.
func (pm *PlayerManager) SetShipController(sc *ShipController) { pm.shipController = sc }

// SetWeaponManager attaches the projectile collaborator.
func (pm *PlayerManager) SetWeaponManager(wm WeaponManager) { pm.weaponManager = wm }

// SetRadar attaches the radar collaborator.
func (pm *PlayerManager) SetRadar(r Radar) { pm.radar = r }

// SetSoccer attaches the ball-state collaborator.
func (pm *PlayerManager) SetSoccer(s Soccer) { pm.soccer = s }

// SetChat attaches the chat collaborator.
func (pm *PlayerManager) SetChat(c ChatController) { pm.chat = c }

// SetSeed reseeds spawn jitter, used by deterministic harness runs.
func (pm *PlayerManager) SetSeed(seed int64) {
	pm.rng = rand.New(rand.NewSource(seed)) // #nosec G404 -- gameplay jitter, not security
}

// PlayerID returns the local player's id.
func (pm *PlayerManager) PlayerID() PlayerID { return pm.playerID }

// ReceivedInitialList reports whether the initial roster has been delivered.
func (pm *PlayerManager) ReceivedInitialList() bool { return pm.receivedInitialList }

// PlayerCount returns the number of live roster entries.
func (pm *PlayerManager) PlayerCount() int { return len(pm.players) }

// PlayerAt returns the roster entry at a table index.
func (pm *PlayerManager) PlayerAt(i int) *Player { return &pm.players[i] }

// GetSelf returns the local player, or nil before the id is known.
func (pm *PlayerManager) GetSelf() *Player {
	return pm.GetPlayerByID(pm.playerID)
}

// GetPlayerByID returns the live player with the given id, or nil. Pointers
// are only valid until the next packet is processed.
func (pm *PlayerManager) GetPlayerByID(id PlayerID) *Player {
	if id == InvalidPlayerID {
		return nil
	}
	idx := pm.playerLookup[id]
	if idx == invalidIndex {
		return nil
	}
	return &pm.players[idx]
}

// GetPlayerByName returns the live player with the given name, or nil.
func (pm *PlayerManager) GetPlayerByName(name string) *Player {
	for i := range pm.players {
		if pm.players[i].Name == name {
			return &pm.players[i]
		}
	}
	return nil
}

// Update advances animations and simulation for every player and drives the
// outbound position and damage cadences. dt is in seconds.
func (pm *PlayerManager) Update(dt float32) {
	currentTick := pm.conn.GetCurrentTick()
	self := pm.GetSelf()
	if self == nil {
		return
	}

	for i := range pm.players {
		player := &pm.players[i]
		if player.Ship >= SpectatorShip {
			continue
		}

		pm.SimulatePlayer(player, dt, false)

		player.ExplodeAnimT += dt
		player.WarpAnimT += dt
		player.BombflashAnimT += dt

		if player.EnterDelay > 0 {
			player.EnterDelay -= dt

			if player.ExplodeAnimT >= animDurationShipExplode {
				if player.ID != pm.playerID {
					player.Position = Vec2{}
					player.LerpTime = 0
				}
				player.Velocity = Vec2{}
			}

			if player.ID == pm.playerID && player.EnterDelay <= 0 {
				if pm.conn.Settings.EnterDelay > 0 {
					pm.Spawn(true)
					player.WarpAnimT = 0
				} else {
					player.Energy = 1
				}
			}
		}
	}

	positionDelay := int32(100)
	if self.Ship != SpectatorShip {
		positionDelay = pm.conn.Settings.SendPositionDelay
		if positionDelay < 5 {
			positionDelay = 5
		}
		if self.EnterDelay > 0 {
			positionDelay = 50
		}
	}

	serverTimestamp := pm.conn.GetServerTick()
	if pm.conn.LoginState == LoginStateComplete && pm.conn.JoinedArena &&
		abs32(TickDiff(serverTimestamp, pm.lastPositionTick)) >= positionDelay {
		pm.SendPositionPacket()
	}

	if len(pm.damages) > 0 && TickDiff(currentTick, pm.lastSendDamageTick) >= 10 {
		pm.conn.SendDamage(pm.damages)
		pm.damages = pm.damages[:0]
		pm.lastSendDamageTick = currentTick
	}
}

// PushDamage queues a damage report for the 10-tick flush.
func (pm *PlayerManager) PushDamage(shooter PlayerID, weapon WeaponData, energy, damage int) {
	if len(pm.damages) >= maxDamageEntries {
		return
	}
	pm.damages = append(pm.damages, Damage{
		Timestamp:  pm.conn.GetServerTick(),
		ShooterID:  shooter,
		WeaponData: weapon,
		Energy:     int16(energy),
		Damage:     int16(damage),
	})
}

// weaponChecksum is the single-byte XOR checksum of the outbound position
// packet core (the checksum byte itself holds zero while summing).
func weaponChecksum(data []byte) uint8 {
	var sum uint8
	for _, b := range data {
		sum ^= b
	}
	return sum
}

// SendPositionPacket builds and transmits the 0x03 position packet for the
// local player, appending the extended block when the arena demands it or
// the client opted in.
func (pm *PlayerManager) SendPositionPacket() {
	player := pm.GetSelf()
	if player == nil {
		return
	}

	x := uint16(player.Position.X * 16)
	y := uint16(player.Position.Y * 16)
	velX := uint16(int16(player.Velocity.X * 16 * 10))
	velY := uint16(int16(player.Velocity.Y * 16 * 10))
	weapon := uint16(player.Weapon)
	energy := uint16(player.Energy)
	direction := uint8(player.Orientation * 40)
	bounty := player.Bounty
	togglables := uint8(player.Togglables)

	if player.Ship != SpectatorShip && player.EnterDelay > 0 {
		// Dead players report an off-map position until respawn.
		x = 0xFFFF
		y = 0xFFFF
		velX = 0
		velY = 0
		direction = 0
		togglables = 0x80
		energy = 0
		bounty = 0
		weapon = 0
	}

	serverTimestamp := pm.conn.GetServerTick()

	if player.AttachParent != InvalidPlayerID {
		velX = 0
		velY = 0

		parent := pm.GetPlayerByID(player.AttachParent)
		if parent != nil {
			// No position packets can go out until the attach request has gone
			// through and the parent has synchronized.
			if !parent.IsSynchronized() {
				pm.lastPositionTick = serverTimestamp
				return
			}

			// First packet after the parent synchronized: the attach is now
			// real, so pay the attach energy cost.
			if pm.requestingAttach {
				player.Energy = player.Energy * 0.333
				pm.requestingAttach = false
				pm.events.Dispatch(PlayerAttachEvent{Child: player, Parent: parent})
			}

			velX = uint16(int16(parent.Velocity.X * 16 * 10))
			velY = uint16(int16(parent.Velocity.Y * 16 * 10))
		} else {
			player.AttachParent = InvalidPlayerID
			pm.requestingAttach = false
		}
	}

	// The server discards position packets whose timestamp isn't newer, so
	// bump past the previous send when the clock hasn't advanced.
	if TickDiff(serverTimestamp, pm.lastPositionTick) <= 0 {
		serverTimestamp = MakeTick(uint32(pm.lastPositionTick) + 1)
	}

	b := NewNetworkBuffer(maxPacketSize)
	b.WriteU8(uint8(C2SPosition))           // type
	b.WriteU8(direction)                    // direction
	b.WriteU32(uint32(serverTimestamp))     // timestamp
	b.WriteU16(velX)                        // x velocity
	b.WriteU16(y)                           // y
	b.WriteU8(0)                            // checksum placeholder
	b.WriteU8(togglables)                   // togglables
	b.WriteU16(x)                           // x
	b.WriteU16(velY)                        // y velocity
	b.WriteU16(bounty)                      // bounty
	b.WriteU16(energy)                      // energy
	b.WriteU16(weapon)                      // weapon info

	b.SetByte(10, weaponChecksum(b.Bytes()))

	if pm.conn.ExtraPositionInfo || pm.conn.Settings.ExtraPositionData {
		b.WriteU16(energy)
		b.WriteU16(uint16(pm.conn.Ping / 10))
		b.WriteU16(player.FlagTimer / 100)

		items := ItemSet{}
		if pm.shipController != nil {
			ship := &pm.shipController.Ship
			items.Bursts = ship.Bursts
			items.Repels = ship.Repels
			items.Thors = ship.Thors
			items.Bricks = ship.Bricks
			items.Decoys = ship.Decoys
			items.Rockets = ship.Rockets
			items.Portals = ship.Portals
		}
		b.WriteU32(items.Pack())
	}

	pm.conn.Send(b)
	pm.lastPositionTick = serverTimestamp
	player.Togglables &^= StatusFlash
}

// --- Packet handlers ---

func (pm *PlayerManager) onPlayerIDChange(pkt []byte) {
	if len(pkt) < 3 {
		return
	}
	b := NewReadBuffer(pkt)
	b.ReadU8()
	pm.playerID = PlayerID(b.ReadU16())
	pm.log.Debug("player id assigned", zap.Uint16("id", uint16(pm.playerID)))

	// Hard reset: every player reference is invalidated.
	pm.players = pm.players[:0]
	pm.receivedInitialList = false
	for i := range pm.playerLookup {
		pm.playerLookup[i] = invalidIndex
	}
}

func (pm *PlayerManager) onJoinGame(pkt []byte) {
	pm.receivedInitialList = true
	pm.events.Dispatch(JoinGameEvent{})
}

func (pm *PlayerManager) onPlayerEnter(pkt []byte) {
	b := NewReadBuffer(pkt)
	b.ReadU8()

	ship := b.ReadU8()
	b.ReadU8() // audio flag
	name := b.ReadString(20)
	squad := b.ReadString(20)
	killPoints := b.ReadU32()
	flagPoints := b.ReadU32()
	id := PlayerID(b.ReadU16())
	frequency := b.ReadU16()
	wins := b.ReadU16()
	losses := b.ReadU16()
	attachParent := PlayerID(b.ReadU16())
	flags := b.ReadU16()
	koth := b.ReadU8()

	if b.Overrun() {
		return
	}

	// Some servers send an enter packet for a player already delivered in the
	// initial list; replace the stale entry.
	if existing := pm.GetPlayerByName(name); existing != nil {
		pm.RemovePlayer(existing)
	}

	if len(pm.players) >= maxPlayers {
		pm.log.Warn("player table full, dropping enter", zap.String("name", name))
		return
	}

	index := len(pm.players)
	pm.players = append(pm.players, Player{
		ID:           id,
		Name:         name,
		Squad:        squad,
		Ship:         ship,
		KillPoints:   killPoints,
		FlagPoints:   flagPoints,
		Frequency:    frequency,
		Wins:         wins,
		Losses:       losses,
		AttachParent: attachParent,
		Flags:        flags,
		Koth:         koth,
		Timestamp:    InvalidSmallTick,

		// Animation clocks start completed so nothing plays on appearance.
		WarpAnimT:      animDurationShipWarp,
		ExplodeAnimT:   animDurationShipExplode,
		BombflashAnimT: animDurationBombFlash,
	})
	player := &pm.players[index]
	pm.playerLookup[player.ID] = uint16(index)

	pm.log.Info("player entered arena", zap.String("name", name), zap.Uint16("id", uint16(id)))

	if player.AttachParent != InvalidPlayerID {
		if destination := pm.GetPlayerByID(player.AttachParent); destination != nil {
			pm.attachPlayer(player, destination)
		}
	}

	if pm.receivedInitialList {
		pm.chat.AddMessage(ChatArena, "%s entered arena", player.Name)
	}

	pm.events.Dispatch(PlayerEnterEvent{Player: player})
}

func (pm *PlayerManager) onPlayerLeave(pkt []byte) {
	if len(pkt) < 3 {
		return
	}
	b := NewReadBuffer(pkt)
	b.ReadU8()
	pm.RemovePlayer(pm.GetPlayerByID(PlayerID(b.ReadU16())))
}

// RemovePlayer detaches and deletes a player, swapping the last table entry
// into the vacated slot and fixing both lookup entries.
func (pm *PlayerManager) RemovePlayer(player *Player) {
	if player == nil {
		return
	}

	idx := pm.playerLookup[player.ID]
	if idx == invalidIndex {
		return
	}
	index := int(idx)

	pm.weaponManager.ClearWeapons(player)

	pm.log.Info("player left arena", zap.String("name", player.Name))

	pm.DetachPlayer(player)
	pm.DetachAllChildren(player)

	pm.chat.AddMessage(ChatArena, "%s left arena", player.Name)

	pm.events.Dispatch(PlayerLeaveEvent{Player: player})

	last := len(pm.players) - 1
	pm.playerLookup[pm.players[last].ID] = uint16(index)
	pm.playerLookup[player.ID] = invalidIndex
	pm.players[index] = pm.players[last]
	pm.players = pm.players[:last]
}

func (pm *PlayerManager) onPlayerDeath(pkt []byte) {
	if len(pkt) < 10 {
		return
	}
	b := NewReadBuffer(pkt)
	b.ReadU8()
	b.ReadU8() // green id
	killerID := PlayerID(b.ReadU16())
	killedID := PlayerID(b.ReadU16())
	bounty := b.ReadU16()
	flagTransfer := b.ReadU16()

	killed := pm.GetPlayerByID(killedID)
	killer := pm.GetPlayerByID(killerID)

	if killed != nil {
		// Hide the player until they send a new position packet.
		killed.EnterDelay = float32(pm.conn.Settings.EnterDelay)/100.0 + animDurationShipExplode
		killed.ExplodeAnimT = 0
		killed.Flags = 0
		killed.FlagTimer = 0
		killed.BallCarrier = false
		killed.Energy = 0

		pm.DetachPlayer(killed)
		pm.DetachAllChildren(killed)
	}

	if killer != nil && killer != killed {
		killer.Flags += flagTransfer
		if flagTransfer > 0 {
			killer.FlagTimer = uint16(pm.conn.Settings.FlagDropDelay)
		}
		if killer.ID == pm.playerID && killed != nil && killed.Bounty > 0 {
			killer.Bounty += uint16(pm.conn.Settings.BountyIncreaseForKill)
		}
	}

	if killer != nil && killed != nil {
		pm.events.Dispatch(PlayerDeathEvent{
			Killed:       killed,
			Killer:       killer,
			Bounty:       bounty,
			FlagTransfer: flagTransfer,
		})
	}
}

func (pm *PlayerManager) onFlagDrop(pkt []byte) {
	if len(pkt) < 3 {
		return
	}
	b := NewReadBuffer(pkt)
	b.ReadU8()
	if player := pm.GetPlayerByID(PlayerID(b.ReadU16())); player != nil {
		player.Flags = 0
		player.FlagTimer = 0
	}
}

func (pm *PlayerManager) onPlayerFrequencyChange(pkt []byte) {
	if len(pkt) < 5 {
		return
	}
	b := NewReadBuffer(pkt)
	b.ReadU8()
	pid := PlayerID(b.ReadU16())
	frequency := b.ReadU16()

	player := pm.GetPlayerByID(pid)
	if player == nil {
		return
	}

	pm.DetachPlayer(player)
	pm.DetachAllChildren(player)

	oldFreq := player.Frequency
	player.Frequency = frequency
	pm.resetOnTeamOrShipChange(player)

	pm.events.Dispatch(PlayerFreqAndShipChangeEvent{
		Player:  player,
		OldFreq: oldFreq,
		NewFreq: frequency,
		OldShip: player.Ship,
		NewShip: player.Ship,
	})

	if player.ID == pm.playerID {
		pm.Spawn(true)
	}
}

func (pm *PlayerManager) onPlayerFreqAndShipChange(pkt []byte) {
	if len(pkt) < 6 {
		return
	}
	b := NewReadBuffer(pkt)
	b.ReadU8()
	ship := b.ReadU8()
	pid := PlayerID(b.ReadU16())
	frequency := b.ReadU16()

	player := pm.GetPlayerByID(pid)
	if player == nil {
		return
	}

	pm.DetachPlayer(player)
	pm.DetachAllChildren(player)

	oldFreq := player.Frequency
	oldShip := player.Ship

	player.Ship = ship
	player.Frequency = frequency
	pm.resetOnTeamOrShipChange(player)

	if player.ID == pm.playerID {
		if pm.shipController != nil {
			pm.shipController.UpdateSettings(ship)
		}
		pm.Spawn(true)
	}

	// Dispatch after the spawn so listeners observe the respawn position and
	// a fresh position packet can carry the new ship immediately.
	pm.events.Dispatch(PlayerFreqAndShipChangeEvent{
		Player:  player,
		OldFreq: oldFreq,
		NewFreq: frequency,
		OldShip: oldShip,
		NewShip: ship,
	})
}

// resetOnTeamOrShipChange zeroes the transient state any team or ship change
// invalidates.
func (pm *PlayerManager) resetOnTeamOrShipChange(player *Player) {
	player.Velocity = Vec2{}
	player.LerpTime = 0
	player.WarpAnimT = 0
	player.EnterDelay = 0
	player.Flags = 0
	player.BallCarrier = false
	player.Energy = 0
	pm.weaponManager.ClearWeapons(player)
}

// getTimestampDiff returns how many ticks behind server-now a tagged
// timestamp is, falling back to a ping-derived estimate when the value is
// implausible.
func getTimestampDiff(conn *Connection, taggedTimestamp Tick) int32 {
	diff := TickDiff(conn.GetServerTick(), taggedTimestamp)
	if diff < 0 || diff > 4000 {
		diff = int32(conn.Ping/10) / 2
		if diff > 14 {
			diff = 15
		}
	}
	return diff
}

// isNewerPositionPacket gates inbound positions on the player's last seen
// small tick, treating very large deltas as wraparound.
func isNewerPositionPacket(player *Player, timestamp uint16) bool {
	if player == nil {
		return false
	}
	if player.Timestamp == InvalidSmallTick {
		return true
	}
	if SmallTickGTE(timestamp, player.Timestamp) {
		return true
	}
	delta := int32(timestamp) - int32(player.Timestamp)
	return abs32(delta) > 999
}

func (pm *PlayerManager) onLargePositionPacket(pkt []byte) {
	if len(pkt) < 21 {
		return
	}
	b := NewReadBuffer(pkt)
	b.ReadU8()

	direction := b.ReadU8()
	timestamp := b.ReadU16()
	x := b.ReadU16()
	velYRaw := int16(b.ReadU16())
	pid := PlayerID(b.ReadU16())

	player := pm.GetPlayerByID(pid)

	// Rebuild the packet timestamp in local time.
	serverTimestamp := Tick(uint32(pm.conn.GetServerTick())&0x7FFF0000 | uint32(timestamp))
	localTimestamp := MakeTick(uint32(serverTimestamp) - uint32(pm.conn.TimeDiff))

	// Throw away bad timestamps so the player doesn't get desynchronized.
	if abs32(TickDiff(localTimestamp, pm.conn.GetCurrentTick())) >= 300 {
		return
	}

	if !isNewerPositionPacket(player, timestamp) {
		return
	}

	player.Orientation = float32(direction) / 40.0
	velY := float32(velYRaw) / 16.0 / 10.0
	velX := float32(int16(b.ReadU16())) / 16.0 / 10.0
	velocity := Vec2{velX, velY}

	b.ReadU8() // checksum
	player.Togglables = StatusFlags(b.ReadU8())
	player.Ping = uint32(b.ReadU8())
	y := b.ReadU16()
	player.Bounty = b.ReadU16()

	if player.Togglables&StatusFlash != 0 {
		player.WarpAnimT = 0
	}

	weapon := b.ReadU16()
	player.Weapon = WeaponData(weapon)
	if weapon != 0 {
		pm.conn.WeaponsReceived++
	}

	// Never force-set our own energy or latency from the server echo.
	if player.ID != pm.playerID {
		if len(pkt) >= 23 {
			player.LastExtraTimestamp = pm.conn.GetCurrentTick()
			player.Energy = float32(b.ReadU16())
		}
		if len(pkt) >= 25 {
			player.S2CLatency = b.ReadU16()
		}
		if len(pkt) >= 27 {
			player.FlagTimer = b.ReadU16()
		}
		if len(pkt) >= 31 {
			player.Items = b.ReadU32()
		}
	}

	timestampDiff := getTimestampDiff(pm.conn, serverTimestamp)

	player.Timestamp = timestamp
	player.Ping += uint32(timestampDiff)

	pm.OnPositionPacket(player, Vec2{float32(x) / 16.0, float32(y) / 16.0}, velocity, int32(player.Ping))
}

func (pm *PlayerManager) onSmallPositionPacket(pkt []byte) {
	if len(pkt) < 16 {
		return
	}
	b := NewReadBuffer(pkt)
	b.ReadU8()

	direction := b.ReadU8()
	timestamp := b.ReadU16()
	x := b.ReadU16()
	ping := b.ReadU8()
	bounty := b.ReadU8()

	// The wire field is a single byte even though ids are 16-bit; servers
	// with a roster above 255 truncate here.
	pid := PlayerID(b.ReadU8())
	pm.log.Debug("small position id read as one byte", zap.Uint16("pid", uint16(pid)))

	player := pm.GetPlayerByID(pid)

	serverTimestamp := Tick(uint32(pm.conn.GetServerTick())&0x7FFF0000 | uint32(timestamp))
	localTimestamp := MakeTick(uint32(serverTimestamp) - uint32(pm.conn.TimeDiff))

	if abs32(TickDiff(localTimestamp, pm.conn.GetCurrentTick())) >= 300 {
		return
	}

	if !isNewerPositionPacket(player, timestamp) {
		return
	}

	player.Orientation = float32(direction) / 40.0
	player.Ping = uint32(ping)
	player.Bounty = uint16(bounty)
	player.Togglables = StatusFlags(b.ReadU8())
	velY := float32(int16(b.ReadU16())) / 16.0 / 10.0
	y := b.ReadU16()
	velX := float32(int16(b.ReadU16())) / 16.0 / 10.0
	velocity := Vec2{velX, velY}

	if player.Togglables&StatusFlash != 0 {
		player.WarpAnimT = 0
	}

	if player.ID != pm.playerID {
		if len(pkt) >= 18 {
			player.LastExtraTimestamp = pm.conn.GetCurrentTick()
			player.Energy = float32(b.ReadU16())
		}
		if len(pkt) >= 20 {
			player.S2CLatency = b.ReadU16()
		}
		if len(pkt) >= 22 {
			player.FlagTimer = b.ReadU16()
		}
		if len(pkt) >= 26 {
			player.Items = b.ReadU32()
		}
	}

	timestampDiff := getTimestampDiff(pm.conn, serverTimestamp)

	player.Timestamp = timestamp
	player.Ping += uint32(timestampDiff)

	pm.OnPositionPacket(player, Vec2{float32(x) / 16.0, float32(y) / 16.0}, velocity, int32(player.Ping))
}

// BatchedRecord is one decoded entry of a batched position packet.
type BatchedRecord struct {
	PlayerID   PlayerID
	Togglables StatusFlags // low six bits; large records only
	Direction  uint8       // 6-bit facing
	Timestamp  uint16      // 10-bit small tick
	X          uint16      // 14-bit position in pixels
	Y          uint16      // 14-bit position in pixels
	VelX       int32       // pixels per second times ten
	VelY       int32       // 14-bit signed, same scale
}

// decodeBatchedBody reads the shared packed fields following the per-record
// id field.
func decodeBatchedBody(b *NetworkBuffer, rec *BatchedRecord) {
	packed := b.ReadU16()
	rec.Direction = uint8(packed >> 10)
	rec.Timestamp = packed & 0x3FF

	packedPos := b.ReadU32()
	rec.X = uint16(packedPos & 0x3FFF)
	rec.Y = uint16((packedPos >> 14) & 0x3FFF)

	packedVelocity := b.ReadU16()
	rec.VelY = int32(packedVelocity) << 18 >> 18

	multiplier := int8(b.ReadU8())

	// The velocity's top bits ride in a shared multiplier byte and the
	// position word's high nibble.
	rec.VelX = (int32(packedVelocity>>14)+int32(multiplier)*4)*16 + int32(packedPos>>28)
}

// encodeBatchedBody is the server-side packing of decodeBatchedBody, used by
// the harness and the round-trip tests.
func encodeBatchedBody(b *NetworkBuffer, rec BatchedRecord) {
	b.WriteU16(uint16(rec.Direction&0x3F)<<10 | rec.Timestamp&0x3FF)

	low4 := rec.VelX & 0xF // two's complement keeps this in 0..15
	q := (rec.VelX - low4) / 16

	b.WriteU32(uint32(rec.X&0x3FFF) | uint32(rec.Y&0x3FFF)<<14 | uint32(low4)<<28)

	high2 := q & 3
	multiplier := (q - high2) / 4

	b.WriteU16(uint16(high2)<<14 | uint16(rec.VelY&0x3FFF))
	b.WriteU8(uint8(int8(multiplier)))
}

// EncodeBatchedLargeRecord appends one 11-byte large record.
func EncodeBatchedLargeRecord(b *NetworkBuffer, rec BatchedRecord) {
	b.WriteU16(uint16(rec.PlayerID)&0x3FF | uint16(rec.Togglables&0x3F)<<10)
	encodeBatchedBody(b, rec)
}

// EncodeBatchedSmallRecord appends one 10-byte small record.
func EncodeBatchedSmallRecord(b *NetworkBuffer, rec BatchedRecord) {
	b.WriteU8(uint8(rec.PlayerID))
	encodeBatchedBody(b, rec)
}

// DecodeBatchedLargeRecord reads one large record.
func DecodeBatchedLargeRecord(b *NetworkBuffer) BatchedRecord {
	var rec BatchedRecord
	pidTogglables := b.ReadU16()
	rec.PlayerID = PlayerID(pidTogglables & 0x3FF)
	rec.Togglables = StatusFlags(pidTogglables >> 10)
	decodeBatchedBody(b, &rec)
	return rec
}

// DecodeBatchedSmallRecord reads one small record.
func DecodeBatchedSmallRecord(b *NetworkBuffer) BatchedRecord {
	var rec BatchedRecord
	rec.PlayerID = PlayerID(b.ReadU8())
	decodeBatchedBody(b, &rec)
	return rec
}

// applyBatchedRecord runs the timestamp gates and state update shared by both
// batched packet variants.
func (pm *PlayerManager) applyBatchedRecord(rec BatchedRecord, large bool) {
	// Splice the 10-bit timestamp into the server tick's high bits.
	serverTimestamp := Tick(uint32(pm.conn.GetServerTick())&0x7FFFFC00 | uint32(rec.Timestamp))
	localTimestamp := MakeTick(uint32(serverTimestamp) - uint32(pm.conn.TimeDiff))
	timestamp := uint16(uint32(serverTimestamp) & 0xFFFF)

	if abs32(TickDiff(localTimestamp, pm.conn.GetCurrentTick())) >= 300 {
		return
	}

	player := pm.GetPlayerByID(rec.PlayerID)
	if player == nil || !isNewerPositionPacket(player, timestamp) {
		return
	}

	timestampDiff := getTimestampDiff(pm.conn, serverTimestamp)

	player.Timestamp = timestamp
	player.Orientation = float32(rec.Direction) / 40.0
	if large {
		// Keep the top two togglable bits; batched packets never carry them.
		player.Togglables = rec.Togglables | player.Togglables&0xC0
	}

	position := Vec2{float32(rec.X) / 16.0, float32(rec.Y) / 16.0}
	velocity := Vec2{float32(rec.VelX) / 16.0 / 10.0, float32(rec.VelY) / 16.0 / 10.0}

	pm.OnPositionPacket(player, position, velocity, timestampDiff)
}

func (pm *PlayerManager) onBatchedLargePositionPacket(pkt []byte) {
	b := NewReadBuffer(pkt)
	b.ReadU8()
	for b.Remaining() >= 11 {
		pm.applyBatchedRecord(DecodeBatchedLargeRecord(b), true)
	}
}

func (pm *PlayerManager) onBatchedSmallPositionPacket(pkt []byte) {
	b := NewReadBuffer(pkt)
	b.ReadU8()
	for b.Remaining() >= 10 {
		pm.applyBatchedRecord(DecodeBatchedSmallRecord(b), false)
	}
}

// OnPositionPacket reconciles an accepted inbound position: hard-set, wind
// the simulation forward simTicks, then either snap or schedule a 200ms lerp
// toward the projected spot.
func (pm *PlayerManager) OnPositionPacket(player *Player, position, velocity Vec2, simTicks int32) {
	// Ignore position packets for self while dead; some servers warp the
	// player mid-death and the reference client does not.
	if player.ID == pm.playerID && player.EnterDelay > 0 {
		return
	}

	previousPos := player.Position

	// Hard set so the forward simulation starts from the packet state.
	player.Position = position
	player.Velocity = velocity
	player.LerpTime = 0

	// Simulate per tick; the integrator is unstable over large dt.
	for i := int32(0); i < simTicks; i++ {
		pm.SimulatePlayer(player, 1.0/100.0, true)
	}

	projectedPos := player.Position
	player.Position = previousPos

	absDx := absf(projectedPos.X - player.Position.X)
	absDy := absf(projectedPos.Y - player.Position.Y)

	// Jump straight there when badly out of sync or freshly warped.
	if absDx >= 4.0 || absDy >= 4.0 || player.Togglables&StatusFlash != 0 {
		player.Position = projectedPos
		player.LerpTime = 0

		if player.Togglables&StatusFlash != 0 && !previousPos.IsZero() {
			player.Togglables &^= StatusFlash
		}
	} else {
		player.LerpTime = 0.2
		player.LerpVelocity = projectedPos.Sub(player.Position).Scale(1 / player.LerpTime)
	}

	// A packet can tell us we're inside a wall; push out before announcing.
	if player.ID == pm.playerID {
		pm.unstuckSelf(player)
		pm.events.Dispatch(TeleportEvent{Player: player})
	}
}

func (pm *PlayerManager) onSetCoordinates(pkt []byte) {
	self := pm.GetSelf()
	if self == nil || len(pkt) < 5 {
		return
	}

	b := NewReadBuffer(pkt)
	b.ReadU8()
	x := b.ReadU16()
	y := b.ReadU16()

	self.Position = Vec2{float32(x) + 0.5, float32(y) + 0.5}
	self.Velocity = Vec2{}
	self.Togglables |= StatusFlash
	self.WarpAnimT = 0

	pm.unstuckSelf(self)
	pm.events.Dispatch(TeleportEvent{Player: self})

	if pm.conn.Map.GetTileID(self.Position) == TileIDSafe {
		if self.Togglables&StatusSafety == 0 {
			pm.events.Dispatch(SafeEnterEvent{Position: self.Position})
		}
		self.Togglables |= StatusSafety
	} else {
		if self.Togglables&StatusSafety != 0 {
			pm.events.Dispatch(SafeLeaveEvent{Position: self.Position})
		}
		self.Togglables &^= StatusSafety
	}

	pm.SendPositionPacket()
}

// --- Attachment ---

// AttachSelf requests a turret attach onto destination, enforcing the full
// precondition ladder locally before anything is sent.
func (pm *PlayerManager) AttachSelf(destination *Player) AttachRequestResponse {
	if destination == nil {
		return AttachNoDestination
	}
	if pm.soccer.IsCarryingBall() {
		return AttachCarryingBall
	}

	self := pm.GetSelf()
	if self == nil {
		return AttachUnrecoverableError
	}

	if self.AttachParent != InvalidPlayerID {
		pm.conn.SendAttachRequest(InvalidPlayerID)
		pm.DetachPlayer(self)
		return AttachDetachFromParent
	}

	if self.Children != nil {
		pm.conn.SendAttachDrop()
		return AttachDetachChildren
	}

	if pm.shipController != nil && self.Energy < float32(pm.shipController.Ship.Energy) {
		return AttachNotEnoughEnergy
	}

	srcSettings := pm.conn.Settings.ShipSettings[self.Ship]
	if self.Bounty < srcSettings.AttachBounty {
		return AttachBountyTooLow
	}

	if self.ID == destination.ID {
		return AttachSelf
	}
	if self.Frequency != destination.Frequency {
		return AttachFrequency
	}
	if destination.Ship >= SpectatorShip {
		return AttachSpectator
	}

	destSettings := pm.conn.Settings.ShipSettings[destination.Ship]
	if destSettings.TurretLimit == 0 {
		return AttachTargetShipNotAttachable
	}
	if pm.GetTurretCount(destination) >= int(destSettings.TurretLimit) {
		return AttachTooManyTurrets
	}

	if pm.IsAntiwarped(self) {
		return AttachAntiwarped
	}

	pm.conn.SendAttachRequest(destination.ID)

	if pm.shipController != nil {
		pm.shipController.Ship.FakeAntiwarpEndTick =
			MakeTick(uint32(pm.conn.GetCurrentTick()) + uint32(pm.conn.Settings.AntiwarpSettleDelay))
	}

	pm.attachPlayer(self, destination)
	pm.requestingAttach = true

	return AttachSuccess
}

// attachPlayer links requester under destination, recycling a free-list node
// when one is available.
func (pm *PlayerManager) attachPlayer(requester, destination *Player) {
	requester.AttachParent = destination.ID

	if pm.attachFree == nil {
		pm.attachFree = &AttachInfo{}
	}
	info := pm.attachFree
	pm.attachFree = info.Next

	info.PlayerID = requester.ID
	info.Next = destination.Children
	destination.Children = info
}

func (pm *PlayerManager) onCreateTurretLink(pkt []byte) {
	if len(pkt) < 3 {
		return
	}
	requestID := PlayerID(NewReadBuffer(pkt[1:]).ReadU16())

	// A short packet is a release of our own pending link.
	if len(pkt) < 5 {
		if self := pm.GetSelf(); self != nil {
			pm.DetachPlayer(self)
		}
		return
	}

	destinationID := PlayerID(NewReadBuffer(pkt[3:]).ReadU16())
	requester := pm.GetPlayerByID(requestID)

	if requester != nil && destinationID == InvalidPlayerID {
		pm.DetachPlayer(requester)
		return
	}

	destination := pm.GetPlayerByID(destinationID)
	if requester == nil || destination == nil {
		return
	}

	if requester.ID == pm.playerID {
		self := pm.GetSelf()

		// Confirmation of a locally requested attach: the link already exists,
		// only the energy cost applies.
		if self != nil && self.AttachParent == destinationID {
			if pm.requestingAttach {
				self.Energy = self.Energy * 0.333
				pm.requestingAttach = false
				pm.events.Dispatch(PlayerAttachEvent{Child: requester, Parent: destination})
			}
			return
		}
	}

	// Defensive re-parent: sever any stale link before the new one.
	pm.DetachPlayer(requester)

	pm.attachPlayer(requester, destination)
	pm.events.Dispatch(PlayerAttachEvent{Child: requester, Parent: destination})

	// Newly linked remote children inherit the parent's motion so they don't
	// visibly jump before their next position packet.
	if requester.ID != pm.playerID {
		requester.Position = destination.Position
		requester.Velocity = destination.Velocity
		requester.LerpVelocity = destination.LerpVelocity
		requester.LerpTime = destination.LerpTime
	}
}

func (pm *PlayerManager) onDestroyTurretLink(pkt []byte) {
	if len(pkt) < 3 {
		return
	}
	pid := PlayerID(NewReadBuffer(pkt[1:]).ReadU16())

	player := pm.GetPlayerByID(pid)
	if player == nil {
		return
	}

	self := pm.GetSelf()
	if self != nil && self.AttachParent == pid && self.EnterDelay <= 0 {
		pm.requestingAttach = false
		pm.conn.SendAttachRequest(InvalidPlayerID)
	}
	pm.DetachAllChildren(player)
}

// DetachPlayer severs the player's link to its parent, if any.
func (pm *PlayerManager) DetachPlayer(player *Player) {
	if player.AttachParent == InvalidPlayerID {
		return
	}

	parent := pm.GetPlayerByID(player.AttachParent)

	if player.ID == pm.playerID {
		pm.requestingAttach = false
		pm.conn.SendAttachRequest(InvalidPlayerID)
	}

	if parent != nil {
		var prev *AttachInfo
		for current := parent.Children; current != nil; current = current.Next {
			if current.PlayerID != player.ID {
				prev = current
				continue
			}
			if prev != nil {
				prev.Next = current.Next
			} else {
				parent.Children = current.Next
			}

			current.PlayerID = InvalidPlayerID
			current.Next = pm.attachFree
			pm.attachFree = current
			break
		}

		pm.events.Dispatch(PlayerDetachEvent{Child: player, Parent: parent})
	}

	player.AttachParent = InvalidPlayerID
	// Desynchronize so the player doesn't appear until a new position packet.
	player.Timestamp = InvalidSmallTick
}

// DetachAllChildren unlinks every child of player, returning the nodes to
// the free list.
func (pm *PlayerManager) DetachAllChildren(player *Player) {
	current := player.Children

	for current != nil {
		remove := current
		current = current.Next

		child := pm.GetPlayerByID(remove.PlayerID)
		if child != nil && child.AttachParent == player.ID {
			child.AttachParent = InvalidPlayerID
			child.Timestamp = InvalidSmallTick

			if child.ID == pm.playerID {
				pm.requestingAttach = false
				pm.conn.SendAttachRequest(InvalidPlayerID)
			}
		}

		remove.PlayerID = InvalidPlayerID
		remove.Next = pm.attachFree
		pm.attachFree = remove
	}

	player.Children = nil
}

// GetTurretCount returns how many children are attached to player.
func (pm *PlayerManager) GetTurretCount(player *Player) int {
	count := 0
	for info := player.Children; info != nil; info = info.Next {
		count++
	}
	return count
}

// IsAntiwarped reports whether self is inside an active antiwarp field,
// including the local fake-antiwarp window after an attach request.
func (pm *PlayerManager) IsAntiwarped(self *Player) bool {
	tick := pm.conn.GetCurrentTick()

	if pm.shipController != nil && TickGT(pm.shipController.Ship.FakeAntiwarpEndTick, tick) {
		return true
	}

	antiwarpTiles := float32(pm.conn.Settings.AntiWarpPixels) / 16.0
	antiwarpRangeSq := antiwarpTiles * antiwarpTiles

	for i := range pm.players {
		player := &pm.players[i]

		if player.Ship >= SpectatorShip {
			continue
		}
		if player.EnterDelay > 0 {
			continue
		}
		if player.Frequency == self.Frequency {
			continue
		}
		if player.Togglables&StatusAntiwarp == 0 {
			continue
		}
		if !pm.radar.InRadarView(player.Position) {
			continue
		}

		if player.Position.DistanceSq(self.Position) <= antiwarpRangeSq {
			return true
		}
	}

	return false
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
