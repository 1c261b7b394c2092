package behavior

import "github.com/fennwald/driftbot/internal/game"

// shipRequestThrottle is the minimum tick gap between ship change requests.
const shipRequestThrottle = 300

// ShipQueryNode succeeds when the local player is in the ship stored under
// the key.
type ShipQueryNode struct {
	Key string
}

// NewShipQueryNode creates a query against a blackboard key holding an int.
func NewShipQueryNode(key string) *ShipQueryNode {
	return &ShipQueryNode{Key: key}
}

// Execute implements Node.
func (n *ShipQueryNode) Execute(ctx *ExecuteContext) ExecuteResult {
	self := ctx.Self()
	if self == nil {
		return Failure
	}
	want, ok := Value[int](ctx.Blackboard, n.Key)
	if !ok {
		return Failure
	}
	if int(self.Ship) == want {
		return Success
	}
	return Failure
}

// ShipRequestNode asks the server for the ship stored under the key,
// throttled so a slow server isn't spammed.
type ShipRequestNode struct {
	Key string
}

// NewShipRequestNode creates a request node.
func NewShipRequestNode(key string) *ShipRequestNode {
	return &ShipRequestNode{Key: key}
}

// Execute implements Node.
func (n *ShipRequestNode) Execute(ctx *ExecuteContext) ExecuteResult {
	self := ctx.Self()
	if self == nil {
		return Failure
	}
	want, ok := Value[int](ctx.Blackboard, n.Key)
	if !ok {
		return Failure
	}
	if int(self.Ship) == want {
		return Success
	}

	now := ctx.Conn.GetCurrentTick()
	last := ValueOr[game.Tick](ctx.Blackboard, "ship_request_tick", 0)
	if last == 0 || game.TickDiff(now, last) >= shipRequestThrottle {
		ctx.Conn.SendShipRequest(uint8(want))
		ctx.Blackboard.Set("ship_request_tick", now)
	}
	return Success
}

// ShipMultifireQueryNode succeeds when multifire is currently toggled on.
type ShipMultifireQueryNode struct{}

// NewShipMultifireQueryNode creates the query.
func NewShipMultifireQueryNode() *ShipMultifireQueryNode {
	return &ShipMultifireQueryNode{}
}

// Execute implements Node.
func (n *ShipMultifireQueryNode) Execute(ctx *ExecuteContext) ExecuteResult {
	if ctx.Ships != nil && ctx.Ships.Ship.Multifire {
		return Success
	}
	return Failure
}

// ShipMultifireCapabilityNode succeeds when the current ship supports
// multifire at all.
type ShipMultifireCapabilityNode struct{}

// NewShipMultifireCapabilityNode creates the query.
func NewShipMultifireCapabilityNode() *ShipMultifireCapabilityNode {
	return &ShipMultifireCapabilityNode{}
}

// Execute implements Node.
func (n *ShipMultifireCapabilityNode) Execute(ctx *ExecuteContext) ExecuteResult {
	if ctx.Ships != nil && ctx.Ships.SupportsMultifire() {
		return Success
	}
	return Failure
}

// ShipWeaponCapabilityQueryNode succeeds when the current loadout can use
// the weapon class.
type ShipWeaponCapabilityQueryNode struct {
	Weapon game.WeaponType
}

// NewShipWeaponCapabilityQueryNode creates the query.
func NewShipWeaponCapabilityQueryNode(w game.WeaponType) *ShipWeaponCapabilityQueryNode {
	return &ShipWeaponCapabilityQueryNode{Weapon: w}
}

// Execute implements Node.
func (n *ShipWeaponCapabilityQueryNode) Execute(ctx *ExecuteContext) ExecuteResult {
	if ctx.Ships != nil && ctx.Ships.HasWeapon(n.Weapon) {
		return Success
	}
	return Failure
}

// ShipWeaponCooldownQueryNode succeeds while the weapon class is still
// recharging; invert it to gate on readiness.
type ShipWeaponCooldownQueryNode struct {
	Weapon game.WeaponType
}

// NewShipWeaponCooldownQueryNode creates the query.
func NewShipWeaponCooldownQueryNode(w game.WeaponType) *ShipWeaponCooldownQueryNode {
	return &ShipWeaponCooldownQueryNode{Weapon: w}
}

// Execute implements Node.
func (n *ShipWeaponCooldownQueryNode) Execute(ctx *ExecuteContext) ExecuteResult {
	if ctx.Ships != nil && ctx.Ships.CooldownActive(n.Weapon, ctx.Conn.GetCurrentTick()) {
		return Success
	}
	return Failure
}
