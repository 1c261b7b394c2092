package game

import "math"

// Vec2 is a 2D vector in world tiles. One tile is 16 pixels.
type Vec2 struct {
	X, Y float32
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// Scale returns v scaled by s.
func (v Vec2) Scale(s float32) Vec2 { return Vec2{v.X * s, v.Y * s} }

// Dot returns the dot product of v and o.
func (v Vec2) Dot(o Vec2) float32 { return v.X*o.X + v.Y*o.Y }

// LengthSq returns the squared length of v.
func (v Vec2) LengthSq() float32 { return v.X*v.X + v.Y*v.Y }

// Length returns the length of v.
func (v Vec2) Length() float32 { return sqrtf(v.LengthSq()) }

// DistanceSq returns the squared distance between v and o.
func (v Vec2) DistanceSq(o Vec2) float32 { return v.Sub(o).LengthSq() }

// Distance returns the distance between v and o.
func (v Vec2) Distance(o Vec2) float32 { return sqrtf(v.DistanceSq(o)) }

// Normalized returns v scaled to unit length, or the zero vector.
func (v Vec2) Normalized() Vec2 {
	l := v.Length()
	if l <= 0 {
		return Vec2{}
	}
	return v.Scale(1 / l)
}

// PixelRounded snaps v to the nearest 1/16 tile, the display resolution of
// the wire protocol.
func (v Vec2) PixelRounded() Vec2 {
	return Vec2{
		X: floorf(v.X*16+0.5) / 16,
		Y: floorf(v.Y*16+0.5) / 16,
	}
}

// IsZero reports whether both components are exactly zero.
func (v Vec2) IsZero() bool { return v.X == 0 && v.Y == 0 }

// axisValue returns the axis'th component (0 = X, 1 = Y).
func (v Vec2) axisValue(axis int) float32 {
	if axis == 0 {
		return v.X
	}
	return v.Y
}

// axisPtr returns a pointer to the axis'th component (0 = X, 1 = Y).
func (v *Vec2) axisPtr(axis int) *float32 {
	if axis == 0 {
		return &v.X
	}
	return &v.Y
}

// Rectangle is an axis-aligned box in world tiles.
type Rectangle struct {
	Min, Max Vec2
}

// NewRectangle builds a rectangle centered on pos with the given half extents.
func NewRectangle(pos, halfExtents Vec2) Rectangle {
	return Rectangle{Min: pos.Sub(halfExtents), Max: pos.Add(halfExtents)}
}

// Center returns the rectangle's midpoint.
func (r Rectangle) Center() Vec2 {
	return Vec2{(r.Min.X + r.Max.X) / 2, (r.Min.Y + r.Max.Y) / 2}
}

// Translate returns the rectangle moved so its center is at pos.
func (r Rectangle) Translate(pos Vec2) Rectangle {
	half := Vec2{(r.Max.X - r.Min.X) / 2, (r.Max.Y - r.Min.Y) / 2}
	return Rectangle{Min: pos.Sub(half), Max: pos.Add(half)}
}

// Contains reports whether p lies inside the rectangle.
func (r Rectangle) Contains(p Vec2) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Ray is a half-line from an origin along a direction.
type Ray struct {
	Origin    Vec2
	Direction Vec2
}

// LineSegment connects two points.
type LineSegment struct {
	A, B Vec2
}

// BoxBoxIntersect reports whether two AABBs overlap.
func BoxBoxIntersect(minA, maxA, minB, maxB Vec2) bool {
	return minA.X <= maxB.X && maxA.X >= minB.X && minA.Y <= maxB.Y && maxA.Y >= minB.Y
}

// RayRectangleIntercept returns the first segment parameter t >= 0 where the
// ray enters the rectangle. The bool is false when no hit exists within
// maxLength along the ray.
func RayRectangleIntercept(ray Ray, rect Rectangle, maxLength float32) (float32, bool) {
	tMin := float32(0)
	tMax := maxLength

	for axis := 0; axis < 2; axis++ {
		o := *ray.Origin.axisPtr(axis)
		d := *ray.Direction.axisPtr(axis)
		lo := *rect.Min.axisPtr(axis)
		hi := *rect.Max.axisPtr(axis)

		if absf(d) < 1e-8 {
			if o < lo || o > hi {
				return 0, false
			}
			continue
		}

		invD := 1 / d
		t1 := (lo - o) * invD
		t2 := (hi - o) * invD
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tMin {
			tMin = t1
		}
		if t2 < tMax {
			tMax = t2
		}
		if tMin > tMax {
			return 0, false
		}
	}

	return tMin, true
}

// OrientationToHeading converts one of the 40 discrete ship facings into a
// unit heading vector. Facing 0 points up; facings advance clockwise.
func OrientationToHeading(discreteRotation uint8) Vec2 {
	const toRads = math.Pi / 180.0
	rads := float64((40-(int(discreteRotation)+30))%40) * 9.0 * toRads
	return Vec2{float32(math.Cos(rads)), -float32(math.Sin(rads))}
}

// HeadingToOrientation is the inverse of OrientationToHeading, returning the
// nearest discrete facing as a normalized 0..1 orientation.
func HeadingToOrientation(heading Vec2) float32 {
	angle := math.Atan2(float64(-heading.Y), float64(heading.X))
	steps := int(math.Round(angle/(9.0*math.Pi/180.0)))
	rot := ((40 - steps - 30) % 40 + 40) % 40
	return float32(rot) / 40.0
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func floorf(x float32) float32 { return float32(math.Floor(float64(x))) }

func sqrtf(x float32) float32 { return float32(math.Sqrt(float64(x))) }

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}
