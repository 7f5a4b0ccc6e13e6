package board

import (
	"errors"
	"fmt"
)

// Size is the width and height of every grid.
const Size = 10

var (
	ErrOutOfBounds  = errors.New("position out of bounds")
	ErrAlreadyFired = errors.New("cell already fired upon")
	ErrInvalidGrid  = errors.New("invalid ship grid")
)

// Cell is the state of a single grid square.
type Cell uint8

const (
	Empty Cell = iota
	ShipIntact
	ShipHit
	MissMarker
)

func (c Cell) String() string {
	switch c {
	case Empty:
		return "empty"
	case ShipIntact:
		return "ship"
	case ShipHit:
		return "hit"
	case MissMarker:
		return "miss"
	default:
		return fmt.Sprintf("cell(%d)", uint8(c))
	}
}

// Coord addresses a cell. X is the column, Y the row.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (c Coord) InBounds() bool {
	return c.X >= 0 && c.X < Size && c.Y >= 0 && c.Y < Size
}

// Grid is one player's ship layout and the shots received on it, indexed [y][x].
type Grid [Size][Size]Cell

// Clone returns an independent copy of g.
func (g Grid) Clone() Grid {
	return g
}

func (g *Grid) At(c Coord) Cell {
	return g[c.Y][c.X]
}

func (g *Grid) Set(c Coord, v Cell) {
	g[c.Y][c.X] = v
}

// Count returns how many cells hold v.
func (g *Grid) Count(v Cell) int {
	n := 0
	for _, row := range g {
		for _, cell := range row {
			if cell == v {
				n++
			}
		}
	}
	return n
}

// FromMatrix converts the wire layout (0 = empty, 1 = ship) into a Grid.
// Only the shape and the cell values are checked; ship placement is accepted as given.
func FromMatrix(m [][]int) (Grid, error) {
	var g Grid
	if len(m) != Size {
		return g, fmt.Errorf("%w: want %d rows, got %d", ErrInvalidGrid, Size, len(m))
	}
	for y, row := range m {
		if len(row) != Size {
			return g, fmt.Errorf("%w: row %d has %d cells", ErrInvalidGrid, y, len(row))
		}
		for x, v := range row {
			switch v {
			case 0:
				g[y][x] = Empty
			case 1:
				g[y][x] = ShipIntact
			default:
				return g, fmt.Errorf("%w: value %d at (%d,%d)", ErrInvalidGrid, v, x, y)
			}
		}
	}
	return g, nil
}

// Matrix converts g back to the wire layout. Hit ship cells stay 1, misses become 0.
func (g *Grid) Matrix() [][]int {
	m := make([][]int, Size)
	for y := range g {
		m[y] = make([]int, Size)
		for x, cell := range g[y] {
			if cell == ShipIntact || cell == ShipHit {
				m[y][x] = 1
			}
		}
	}
	return m
}

// Shoot resolves a shot at c and records it on the grid.
// Cells that were already fired upon are rejected and left untouched.
func (g *Grid) Shoot(c Coord) (Result, []Coord, error) {
	if !c.InBounds() {
		return Missed, nil, ErrOutOfBounds
	}

	switch g.At(c) {
	case ShipIntact:
		g.Set(c, ShipHit)
		sunk, coords := SinkCheck(g, c)
		if sunk {
			return Killed, coords, nil
		}
		return Hit, nil, nil
	case Empty:
		g.Set(c, MissMarker)
		return Missed, nil, nil
	default:
		return Missed, nil, ErrAlreadyFired
	}
}

func isShip(c Cell) bool {
	return c == ShipIntact || c == ShipHit
}

func neighbours(c Coord) [4]Coord {
	return [4]Coord{
		{X: c.X, Y: c.Y + 1},
		{X: c.X, Y: c.Y - 1},
		{X: c.X + 1, Y: c.Y},
		{X: c.X - 1, Y: c.Y},
	}
}

// SinkCheck walks the ship containing c (4-connected, no diagonals) and
// reports whether every cell of it has been hit, along with all of its cells.
// The grid is not modified.
func SinkCheck(g *Grid, c Coord) (bool, []Coord) {
	if !c.InBounds() || !isShip(g.At(c)) {
		return false, nil
	}

	var visited [Size][Size]bool
	visited[c.Y][c.X] = true
	stack := []Coord{c}
	var coords []Coord
	sunk := true

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		coords = append(coords, cur)
		if g.At(cur) == ShipIntact {
			sunk = false
		}

		for _, n := range neighbours(cur) {
			if !n.InBounds() || visited[n.Y][n.X] || !isShip(g.At(n)) {
				continue
			}
			visited[n.Y][n.X] = true
			stack = append(stack, n)
		}
	}

	return sunk, coords
}

// HasSurvivingShip reports whether any ship cell on g has not been hit yet.
func HasSurvivingShip(g *Grid) bool {
	for _, row := range g {
		for _, cell := range row {
			if cell == ShipIntact {
				return true
			}
		}
	}
	return false
}
