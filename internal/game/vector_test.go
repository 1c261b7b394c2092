package game

import "testing"

func TestOrientationHeadingRoundTrip(t *testing.T) {
	for rot := 0; rot < 40; rot++ {
		heading := OrientationToHeading(uint8(rot))
		if absf(heading.Length()-1) > 1e-4 {
			t.Fatalf("heading for rotation %d is not unit length", rot)
		}
		orientation := HeadingToOrientation(heading)
		if int(orientation*40+0.5) != rot {
			t.Errorf("rotation %d round-trips to %f", rot, orientation*40)
		}
	}
}

func TestOrientationZeroPointsUp(t *testing.T) {
	h := OrientationToHeading(0)
	if absf(h.X) > 1e-4 || absf(h.Y+1) > 1e-4 {
		t.Errorf("rotation 0 heading = %+v, want (0,-1)", h)
	}
	h = OrientationToHeading(10)
	if absf(h.X-1) > 1e-4 || absf(h.Y) > 1e-4 {
		t.Errorf("rotation 10 heading = %+v, want (1,0)", h)
	}
}

func TestPixelRounded(t *testing.T) {
	v := Vec2{X: 1.04, Y: -0.49}
	r := v.PixelRounded()
	if absf(r.X-1.0625) > 1e-5 {
		t.Errorf("r.X = %f, want 1.0625 (17/16)", r.X)
	}
	if absf(r.Y+0.5) > 1e-5 {
		t.Errorf("r.Y = %f, want -0.5", r.Y)
	}
}

func TestBoxBoxIntersect(t *testing.T) {
	if !BoxBoxIntersect(Vec2{0, 0}, Vec2{2, 2}, Vec2{1, 1}, Vec2{3, 3}) {
		t.Error("overlapping boxes must intersect")
	}
	if BoxBoxIntersect(Vec2{0, 0}, Vec2{1, 1}, Vec2{2, 2}, Vec2{3, 3}) {
		t.Error("separated boxes must not intersect")
	}
	if !BoxBoxIntersect(Vec2{0, 0}, Vec2{1, 1}, Vec2{1, 0}, Vec2{2, 1}) {
		t.Error("edge-touching boxes count as intersecting")
	}
}

func TestRayRectangleIntercept(t *testing.T) {
	ray := Ray{Origin: Vec2{0, 0}, Direction: Vec2{1, 0}}
	rect := Rectangle{Min: Vec2{5, -1}, Max: Vec2{7, 1}}

	tHit, ok := RayRectangleIntercept(ray, rect, 100)
	if !ok {
		t.Fatal("the ray crosses the rectangle")
	}
	if absf(tHit-5) > 1e-4 {
		t.Errorf("entry t = %f, want 5", tHit)
	}

	if _, ok := RayRectangleIntercept(ray, rect, 3); ok {
		t.Error("an intercept past the length limit must not count")
	}

	miss := Ray{Origin: Vec2{0, 5}, Direction: Vec2{1, 0}}
	if _, ok := RayRectangleIntercept(miss, rect, 100); ok {
		t.Error("a parallel ray above the rectangle misses")
	}
}
