package game

import "testing"

func TestFindPathStraightLine(t *testing.T) {
	tm := NewTileMap()
	ng := NewNavGrid(tm, 0.875, 0)

	path := ng.FindPath(Vec2{100.5, 100.5}, Vec2{120.5, 100.5})
	if len(path) < 2 {
		t.Fatalf("path length = %d, want at least endpoints", len(path))
	}
	last := path[len(path)-1]
	if last.Distance(Vec2{120.5, 100.5}) > 1 {
		t.Errorf("path ends at %+v, want near the goal", last)
	}
	// Open ground smooths to almost nothing.
	if len(path) > 3 {
		t.Errorf("smoothed path has %d waypoints on open ground", len(path))
	}
}

func TestFindPathRoutesAroundWall(t *testing.T) {
	tm := NewTileMap()
	tm.FillRect(110, 95, 110, 105, 1)
	ng := NewNavGrid(tm, 0.875, 0)

	path := ng.FindPath(Vec2{105.5, 100.5}, Vec2{115.5, 100.5})
	if len(path) == 0 {
		t.Fatal("a route around the wall exists")
	}

	for _, wp := range path {
		if ng.IsBlocked(int(wp.X), int(wp.Y)) {
			t.Errorf("waypoint %+v is blocked", wp)
		}
	}

	// The route must clear the wall vertically at some point.
	cleared := false
	for _, wp := range path {
		if wp.Y < 95 || wp.Y > 105 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("the path should deviate around the wall's extent")
	}
}

func TestFindPathBlockedEndpoints(t *testing.T) {
	tm := NewTileMap()
	tm.FillRect(200, 200, 204, 204, 1)
	ng := NewNavGrid(tm, 0.875, 0)

	if ng.FindPath(Vec2{202.5, 202.5}, Vec2{300.5, 300.5}) != nil {
		t.Error("a blocked start has no path")
	}
	if ng.FindPath(Vec2{300.5, 300.5}, Vec2{202.5, 202.5}) != nil {
		t.Error("a blocked goal has no path")
	}
}
