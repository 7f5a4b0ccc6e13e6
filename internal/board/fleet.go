package board

import "math/rand/v2"

// Fleet lists the ship lengths of the classic layout: one of four cells,
// two of three, three of two and four single-cell boats.
var Fleet = []int{4, 3, 3, 2, 2, 2, 1, 1, 1, 1}

// RandomFleet places every ship of Fleet at random. Ships never touch each
// other, not even diagonally.
func RandomFleet(r *rand.Rand) Grid {
	for {
		if g, ok := tryPlaceFleet(r); ok {
			return g
		}
	}
}

func tryPlaceFleet(r *rand.Rand) (Grid, bool) {
	var g Grid
	for _, length := range Fleet {
		placed := false
		for attempt := 0; attempt < 200 && !placed; attempt++ {
			horizontal := r.IntN(2) == 0
			start := Coord{X: r.IntN(Size), Y: r.IntN(Size)}
			cells, ok := shipCells(start, length, horizontal)
			if !ok || !clearAround(&g, cells) {
				continue
			}
			for _, c := range cells {
				g.Set(c, ShipIntact)
			}
			placed = true
		}
		if !placed {
			return g, false
		}
	}
	return g, true
}

func shipCells(start Coord, length int, horizontal bool) ([]Coord, bool) {
	cells := make([]Coord, 0, length)
	for i := 0; i < length; i++ {
		c := start
		if horizontal {
			c.X += i
		} else {
			c.Y += i
		}
		if !c.InBounds() {
			return nil, false
		}
		cells = append(cells, c)
	}
	return cells, true
}

// clearAround reports whether no cell in or around cells holds a ship.
func clearAround(g *Grid, cells []Coord) bool {
	for _, c := range cells {
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				n := Coord{X: c.X + dx, Y: c.Y + dy}
				if n.InBounds() && g.At(n) != Empty {
					return false
				}
			}
		}
	}
	return true
}
