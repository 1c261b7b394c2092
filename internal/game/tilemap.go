package game

// TileID identifies the contents of one map cell. Values follow the VIE map
// format: 0 is empty, most low ids are solid wall variants, and a handful of
// ids carry special behavior.
type TileID uint8

const (
	TileIDFirstDoor TileID = 162 // doors cycle 162..169
	TileIDLastDoor  TileID = 169
	TileIDFlag      TileID = 170
	TileIDSafe      TileID = 171
	TileIDGoal      TileID = 172
	TileIDWormhole  TileID = 220
)

// MapExtent is the world size in tiles on each axis.
const MapExtent = 1024

// Map is the read-only terrain oracle the core queries. Implementations own
// tile storage and any team-door or brick filtering keyed by frequency.
type Map interface {
	// IsSolid reports whether the tile at (x, y) blocks a ship on the given
	// frequency.
	IsSolid(x, y uint16, frequency uint16) bool
	// IsColliding reports whether a ship AABB of the given radius centered at
	// pos overlaps any solid tile.
	IsColliding(pos Vec2, radius float32, frequency uint16) bool
	// CanFit reports whether a ship of the given radius fits at pos without
	// touching solid tiles.
	CanFit(pos Vec2, radius float32, frequency uint16) bool
	// GetTileID returns the tile id under pos.
	GetTileID(pos Vec2) TileID
}

// tileBlocks reports whether a tile id is solid terrain. Doors count as
// solid; safe, flag, goal and wormhole tiles are walk-through.
func tileBlocks(id TileID) bool {
	if id == 0 {
		return false
	}
	if id >= TileIDFirstDoor && id <= TileIDLastDoor {
		return true
	}
	switch id {
	case TileIDFlag, TileIDSafe, TileIDGoal, TileIDWormhole:
		return false
	}
	// 173..190 are large asteroid / station pieces, all solid. 191+ are
	// fly-over or special tiles that do not block ships.
	return id <= 190
}

// TileMap is the concrete 1024x1024 terrain grid used by the harness, the
// viewer and the tests. Real deployments load it from the arena map file.
type TileMap struct {
	tiles []TileID // row-major: index = y*MapExtent + x
}

// NewTileMap creates an empty map.
func NewTileMap() *TileMap {
	return &TileMap{tiles: make([]TileID, MapExtent*MapExtent)}
}

func (tm *TileMap) inBounds(x, y int) bool {
	return x >= 0 && x < MapExtent && y >= 0 && y < MapExtent
}

// SetTile places a tile id at (x, y).
func (tm *TileMap) SetTile(x, y int, id TileID) {
	if !tm.inBounds(x, y) {
		return
	}
	tm.tiles[y*MapExtent+x] = id
}

// FillRect places a tile id over an inclusive rectangle of cells.
func (tm *TileMap) FillRect(x0, y0, x1, y1 int, id TileID) {
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			tm.SetTile(x, y, id)
		}
	}
}

// IsSolid implements Map.
func (tm *TileMap) IsSolid(x, y uint16, frequency uint16) bool {
	if x >= MapExtent || y >= MapExtent {
		return true
	}
	return tileBlocks(tm.tiles[int(y)*MapExtent+int(x)])
}

// IsColliding implements Map.
func (tm *TileMap) IsColliding(pos Vec2, radius float32, frequency uint16) bool {
	minX := int(floorf(pos.X - radius))
	minY := int(floorf(pos.Y - radius))
	maxX := int(floorf(pos.X + radius))
	maxY := int(floorf(pos.Y + radius))

	boxMin := Vec2{pos.X - radius, pos.Y - radius}
	boxMax := Vec2{pos.X + radius, pos.Y + radius}

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			if x < 0 || y < 0 || x >= MapExtent || y >= MapExtent {
				return true
			}
			if !tm.IsSolid(uint16(x), uint16(y), frequency) {
				continue
			}
			tileMin := Vec2{float32(x), float32(y)}
			tileMax := Vec2{float32(x) + 1, float32(y) + 1}
			if BoxBoxIntersect(boxMin, boxMax, tileMin, tileMax) {
				return true
			}
		}
	}
	return false
}

// CanFit implements Map.
func (tm *TileMap) CanFit(pos Vec2, radius float32, frequency uint16) bool {
	if pos.X-radius < 0 || pos.Y-radius < 0 ||
		pos.X+radius >= MapExtent || pos.Y+radius >= MapExtent {
		return false
	}
	return !tm.IsColliding(pos, radius, frequency)
}

// GetTileID implements Map.
func (tm *TileMap) GetTileID(pos Vec2) TileID {
	x := int(floorf(pos.X))
	y := int(floorf(pos.Y))
	if !tm.inBounds(x, y) {
		return 0
	}
	return tm.tiles[y*MapExtent+x]
}

// LineOfSight steps the tile grid from a to b and reports whether the
// straight segment is free of solid tiles for the given frequency.
func LineOfSight(m Map, a, b Vec2, frequency uint16) bool {
	delta := b.Sub(a)
	steps := int(absf(delta.X))
	if int(absf(delta.Y)) > steps {
		steps = int(absf(delta.Y))
	}
	steps *= 2
	if steps == 0 {
		return true
	}
	inc := delta.Scale(1 / float32(steps))

	pos := a
	for i := 0; i <= steps; i++ {
		x := int(floorf(pos.X))
		y := int(floorf(pos.Y))
		if x < 0 || y < 0 || x >= MapExtent || y >= MapExtent {
			return false
		}
		if m.IsSolid(uint16(x), uint16(y), frequency) {
			return false
		}
		pos = pos.Add(inc)
	}
	return true
}
