package game

import "testing"

func TestTileSolidity(t *testing.T) {
	tm := NewTileMap()
	tm.SetTile(10, 10, 1)
	tm.SetTile(11, 10, TileIDSafe)
	tm.SetTile(12, 10, TileIDWormhole)
	tm.SetTile(13, 10, TileIDFirstDoor)

	if !tm.IsSolid(10, 10, 0) {
		t.Error("wall tile should be solid")
	}
	if tm.IsSolid(11, 10, 0) {
		t.Error("safe tile should be walk-through")
	}
	if tm.IsSolid(12, 10, 0) {
		t.Error("wormhole tile should be walk-through")
	}
	if !tm.IsSolid(13, 10, 0) {
		t.Error("door tile should be solid")
	}
	if tm.IsSolid(5, 5, 0) {
		t.Error("empty tile should not be solid")
	}
	if !tm.IsSolid(2000, 5, 0) {
		t.Error("out of bounds should read solid")
	}
}

func TestIsCollidingAndCanFit(t *testing.T) {
	tm := NewTileMap()
	tm.FillRect(100, 100, 102, 102, 1)

	if !tm.IsColliding(Vec2{101.5, 101.5}, 0.875, 0) {
		t.Error("center of the wall should collide")
	}
	if tm.IsColliding(Vec2{110.5, 110.5}, 0.875, 0) {
		t.Error("open ground should not collide")
	}
	// Touching the wall's edge region collides, clear of it fits.
	if tm.CanFit(Vec2{103.5, 101.5}, 0.875, 0) {
		t.Error("a ship overlapping the wall edge should not fit")
	}
	if !tm.CanFit(Vec2{105.5, 101.5}, 0.875, 0) {
		t.Error("a ship clear of the wall should fit")
	}
}

func TestGetTileID(t *testing.T) {
	tm := NewTileMap()
	tm.SetTile(512, 512, TileIDSafe)
	if got := tm.GetTileID(Vec2{512.7, 512.2}); got != TileIDSafe {
		t.Errorf("GetTileID = %d, want safe", got)
	}
	if got := tm.GetTileID(Vec2{-5, 3}); got != 0 {
		t.Errorf("out of bounds tile id = %d, want 0", got)
	}
}

func TestLineOfSight(t *testing.T) {
	tm := NewTileMap()
	tm.FillRect(200, 195, 200, 205, 1)

	if LineOfSight(tm, Vec2{190.5, 200.5}, Vec2{210.5, 200.5}, 0) {
		t.Error("a wall across the segment should block sight")
	}
	if !LineOfSight(tm, Vec2{190.5, 220.5}, Vec2{210.5, 220.5}, 0) {
		t.Error("an empty segment should be clear")
	}
	if !LineOfSight(tm, Vec2{190.5, 200.5}, Vec2{190.5, 200.5}, 0) {
		t.Error("a zero-length segment is clear")
	}
}
