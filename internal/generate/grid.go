package generate

// Rect is an axis-aligned room, edges inclusive.
type Rect struct {
	X1, Y1, X2, Y2 int
}

func (r Rect) Center() (int, int) {
	return (r.X1 + r.X2) / 2, (r.Y1 + r.Y2) / 2
}

// Intersects reports whether r overlaps other (inclusive edges).
func (r Rect) Intersects(other Rect) bool {
	return r.X1 <= other.X2 && r.X2 >= other.X1 &&
		r.Y1 <= other.Y2 && r.Y2 >= other.Y1
}

type Tile uint8

const (
	Wall Tile = iota
	Floor
	Beacon
)

// Grid is the carved floor plan. Everything starts as wall.
type Grid struct {
	Width, Height int
	Rooms         []Rect
	tiles         []Tile
}

func NewGrid(width, height int) *Grid {
	return &Grid{Width: width, Height: height, tiles: make([]Tile, width*height)}
}

func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.Width && y >= 0 && y < g.Height
}

// At returns the tile at (x, y); out of bounds reads as wall.
func (g *Grid) At(x, y int) Tile {
	if !g.InBounds(x, y) {
		return Wall
	}
	return g.tiles[y*g.Width+x]
}

func (g *Grid) Set(x, y int, t Tile) {
	if g.InBounds(x, y) {
		g.tiles[y*g.Width+x] = t
	}
}

func (g *Grid) Walkable(x, y int) bool { return g.At(x, y) != Wall }

// CarvePath opens floor from each waypoint to the next, inclusive. A leg
// between waypoints that differ on both axes runs along x first. Tiles
// outside the grid are skipped.
func (g *Grid) CarvePath(pts ...[2]int) {
	for i := 1; i < len(pts); i++ {
		x, y := pts[i-1][0], pts[i-1][1]
		tx, ty := pts[i][0], pts[i][1]
		g.Set(x, y, Floor)
		for x != tx || y != ty {
			if x != tx {
				x += sign(tx - x)
			} else {
				y += sign(ty - y)
			}
			g.Set(x, y, Floor)
		}
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

// Edge reports whether (x, y) is a wall touching a walkable tile, counting
// diagonals. Only edge walls become geometry.
func (g *Grid) Edge(x, y int) bool {
	if g.At(x, y) != Wall || !g.InBounds(x, y) {
		return false
	}
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if (dx != 0 || dy != 0) && g.Walkable(x+dx, y+dy) {
				return true
			}
		}
	}
	return false
}
