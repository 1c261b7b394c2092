package behavior

import "github.com/fennwald/driftbot/internal/game"

// Steering accumulates movement intent from steering leaves over one tick
// and turns it into rotation/thrust inputs at the end of the tick. Several
// leaves may contribute; forces add, the last Face wins.
type Steering struct {
	force      game.Vec2
	faceTarget game.Vec2
	hasForce   bool
	hasFace    bool
}

// NewSteering creates an empty accumulator.
func NewSteering() *Steering {
	return &Steering{}
}

// Reset clears the tick's accumulated intent.
func (s *Steering) Reset() {
	*s = Steering{}
}

// Seek accelerates toward target, backing off inside the leash distance so
// the ship orbits rather than rams.
func (s *Steering) Seek(ctx *ExecuteContext, target game.Vec2, leash float32) {
	self := ctx.Self()
	if self == nil {
		return
	}

	toTarget := target.Sub(self.Position)
	dist := toTarget.Length()

	maxSpeed := ctx.Conn.Settings.ShipSettings[self.Ship&7].GetMaxSpeed()

	var desired game.Vec2
	switch {
	case leash > 0 && dist < leash*0.8:
		desired = toTarget.Normalized().Scale(-maxSpeed)
	case leash > 0 && dist <= leash:
		// Inside the leash band: hold.
	default:
		desired = toTarget.Normalized().Scale(maxSpeed)
	}

	s.force = s.force.Add(desired.Sub(self.Velocity))
	s.hasForce = true
}

// Arrive accelerates toward target and decelerates within slowRadius.
func (s *Steering) Arrive(ctx *ExecuteContext, target game.Vec2, slowRadius float32) {
	self := ctx.Self()
	if self == nil {
		return
	}

	toTarget := target.Sub(self.Position)
	dist := toTarget.Length()
	maxSpeed := ctx.Conn.Settings.ShipSettings[self.Ship&7].GetMaxSpeed()

	speed := maxSpeed
	if slowRadius > 0 && dist < slowRadius {
		speed = maxSpeed * dist / slowRadius
	}

	desired := toTarget.Normalized().Scale(speed)
	s.force = s.force.Add(desired.Sub(self.Velocity))
	s.hasForce = true
}

// Face turns the ship toward target without thrusting.
func (s *Steering) Face(target game.Vec2) {
	s.faceTarget = target
	s.hasFace = true
}

// Actuate converts the accumulated intent into input bits for this frame.
func (s *Steering) Actuate(self *game.Player, input *game.InputState) {
	if self == nil {
		return
	}

	// Pick the facing: an explicit Face wins, otherwise face the force.
	var want game.Vec2
	switch {
	case s.hasFace:
		want = s.faceTarget.Sub(self.Position)
	case s.hasForce:
		want = s.force
	default:
		return
	}
	if want.IsZero() {
		return
	}

	target := game.HeadingToOrientation(want.Normalized())
	diff := target - self.Orientation
	for diff < -0.5 {
		diff += 1
	}
	for diff > 0.5 {
		diff -= 1
	}

	const deadzone = 1.0 / 80.0 // half a discrete facing
	if diff > deadzone {
		input.SetAction(game.InputRight, true)
	} else if diff < -deadzone {
		input.SetAction(game.InputLeft, true)
	}

	if s.hasForce {
		heading := game.OrientationToHeading(uint8(self.Orientation * 40))
		along := s.force.Dot(heading)
		if along > 0.1 {
			input.SetAction(game.InputForward, true)
		} else if along < -0.1 {
			input.SetAction(game.InputBackward, true)
		}
	}
}
