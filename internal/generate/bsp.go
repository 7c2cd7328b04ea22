// Package generate lays out a labyrinth of rooms and corridors with a BSP
// split and builds it into a scene: edge walls become cubes, the floor is
// terrain, and a swaying beacon marks the last room.
package generate

import "math/rand"

// CorridorStyle selects the shape of connecting tunnels.
type CorridorStyle uint8

const (
	CorridorLShaped CorridorStyle = iota
	CorridorZShaped
	CorridorStraight
)

// waypoints returns the corners of a tunnel from a to b. L-shaped tunnels
// turn at a random elbow; rng is only read for that style.
func (c CorridorStyle) waypoints(a, b [2]int, rng *rand.Rand) [][2]int {
	switch c {
	case CorridorZShaped:
		mid := (a[1] + b[1]) / 2
		return [][2]int{a, {a[0], mid}, {b[0], mid}, b}
	case CorridorStraight:
		return [][2]int{a, {b[0], a[1]}, b}
	}
	if rng.Intn(2) == 0 {
		return [][2]int{a, {b[0], a[1]}, b}
	}
	return [][2]int{a, {a[0], b[1]}, b}
}

// Config drives one layout.
type Config struct {
	Width, Height int
	MinLeafSize   int
	MaxLeafSize   int
	MinRoomSize   int
	RoomPadding   int
	Corridor      CorridorStyle
	Rand          *rand.Rand
}

// DefaultConfig returns a small layout seeded with seed.
func DefaultConfig(seed int64) Config {
	return Config{
		Width:       32,
		Height:      24,
		MinLeafSize: 7,
		MaxLeafSize: 14,
		MinRoomSize: 4,
		RoomPadding: 1,
		Rand:        rand.New(rand.NewSource(seed)),
	}
}

type leaf struct {
	X, Y, W, H  int
	left, right *leaf
	room        *Rect
}

func (l *leaf) split(cfg *Config) bool {
	if l.left != nil || l.right != nil {
		return false
	}
	// Split across the longer side once it is clearly longer.
	horizontal := cfg.Rand.Intn(2) == 0
	if l.W > l.H && float64(l.W)/float64(l.H) >= 1.25 {
		horizontal = false
	} else if l.H > l.W && float64(l.H)/float64(l.W) >= 1.25 {
		horizontal = true
	}

	size := l.H
	if !horizontal {
		size = l.W
	}
	lo, hi := cfg.MinLeafSize, size-cfg.MinLeafSize
	if size <= cfg.MinLeafSize*2 || lo >= hi {
		return false
	}
	at := lo + cfg.Rand.Intn(hi-lo+1)

	if horizontal {
		l.left = &leaf{X: l.X, Y: l.Y, W: l.W, H: at}
		l.right = &leaf{X: l.X, Y: l.Y + at, W: l.W, H: l.H - at}
	} else {
		l.left = &leaf{X: l.X, Y: l.Y, W: at, H: l.H}
		l.right = &leaf{X: l.X + at, Y: l.Y, W: l.W - at, H: l.H}
	}
	return true
}

// createRooms carves one room inside every terminal leaf.
func (l *leaf) createRooms(g *Grid, cfg *Config) {
	if l.left != nil || l.right != nil {
		if l.left != nil {
			l.left.createRooms(g, cfg)
		}
		if l.right != nil {
			l.right.createRooms(g, cfg)
		}
		return
	}
	pad := cfg.RoomPadding
	availW := max(l.W-2*pad, cfg.MinRoomSize)
	availH := max(l.H-2*pad, cfg.MinRoomSize)
	rw := cfg.MinRoomSize + cfg.Rand.Intn(max(1, availW-cfg.MinRoomSize+1))
	rh := cfg.MinRoomSize + cfg.Rand.Intn(max(1, availH-cfg.MinRoomSize+1))
	rw = max(min(rw, l.W-2*pad), 3)
	rh = max(min(rh, l.H-2*pad), 3)

	rx := max(l.X+pad+cfg.Rand.Intn(max(1, l.W-rw-2*pad+1)), 1)
	ry := max(l.Y+pad+cfg.Rand.Intn(max(1, l.H-rh-2*pad+1)), 1)
	// Keep a one-tile wall border around the grid.
	if rx+rw >= g.Width {
		rw = g.Width - rx - 1
	}
	if ry+rh >= g.Height {
		rh = g.Height - ry - 1
	}
	if rw < 3 || rh < 3 {
		return
	}

	room := Rect{X1: rx, Y1: ry, X2: rx + rw - 1, Y2: ry + rh - 1}
	l.room = &room
	for y := room.Y1; y <= room.Y2; y++ {
		for x := room.X1; x <= room.X2; x++ {
			g.Set(x, y, Floor)
		}
	}
	g.Rooms = append(g.Rooms, room)
}

// anyRoom returns a room from this subtree, left first.
func (l *leaf) anyRoom() *Rect {
	if l.room != nil {
		return l.room
	}
	if l.left != nil {
		if r := l.left.anyRoom(); r != nil {
			return r
		}
	}
	if l.right != nil {
		return l.right.anyRoom()
	}
	return nil
}

func (l *leaf) connect(g *Grid, cfg *Config) {
	if l.left == nil || l.right == nil {
		return
	}
	l.left.connect(g, cfg)
	l.right.connect(g, cfg)

	a, b := l.left.anyRoom(), l.right.anyRoom()
	if a == nil || b == nil {
		return
	}
	ax, ay := a.Center()
	bx, by := b.Center()
	g.CarvePath(cfg.Corridor.waypoints([2]int{ax, ay}, [2]int{bx, by}, cfg.Rand)...)
}

// Generate carves a layout and returns it with the start tile, the centre
// of the first room. The last room's centre holds the beacon.
func Generate(cfg *Config) (*Grid, int, int) {
	g := NewGrid(cfg.Width, cfg.Height)
	root := &leaf{W: cfg.Width, H: cfg.Height}

	leaves := []*leaf{root}
	for split := true; split; {
		split = false
		var next []*leaf
		for _, l := range leaves {
			if l.left != nil || l.right != nil {
				next = append(next, l.left, l.right)
				continue
			}
			if l.W > cfg.MaxLeafSize || l.H > cfg.MaxLeafSize || cfg.Rand.Float64() > 0.25 {
				if l.split(cfg) {
					next = append(next, l.left, l.right)
					split = true
					continue
				}
			}
			next = append(next, l)
		}
		leaves = next
	}

	root.createRooms(g, cfg)
	root.connect(g, cfg)

	sx, sy := 1, 1
	if len(g.Rooms) > 0 {
		sx, sy = g.Rooms[0].Center()
	}
	if len(g.Rooms) > 1 {
		bx, by := g.Rooms[len(g.Rooms)-1].Center()
		g.Set(bx, by, Beacon)
	}
	return g, sx, sy
}
