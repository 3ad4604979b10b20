package neighbor

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

type cellIndex [3]int

// CellLinkedList bins positions into cubic cells so that radius queries
// only visit the 27 cells around the query point.
type CellLinkedList struct {
	cellSize float64
	pos      []r3.Vec
	cells    map[cellIndex][]int
}

// NewCellLinkedList bins pos into cells of edge cellSize. The query radius
// must not exceed cellSize.
func NewCellLinkedList(pos []r3.Vec, cellSize float64) *CellLinkedList {
	c := &CellLinkedList{
		cellSize: cellSize,
		cells:    make(map[cellIndex][]int),
	}
	c.Rebuild(pos)
	return c
}

// Rebuild re-bins the particles, reusing the cell slices.
func (c *CellLinkedList) Rebuild(pos []r3.Vec) {
	for k, v := range c.cells {
		c.cells[k] = v[:0]
	}
	c.pos = pos
	for i, p := range pos {
		idx := c.index(p)
		c.cells[idx] = append(c.cells[idx], i)
	}
}

func (c *CellLinkedList) index(p r3.Vec) cellIndex {
	return cellIndex{
		int(math.Floor(p.X / c.cellSize)),
		int(math.Floor(p.Y / c.cellSize)),
		int(math.Floor(p.Z / c.cellSize)),
	}
}

// Query calls fn for every binned particle strictly closer than radius to p,
// in ascending cell then insertion order.
func (c *CellLinkedList) Query(p r3.Vec, radius float64, fn func(j int, r float64)) {
	center := c.index(p)
	radiusSq := radius * radius

	for dz := -1; dz <= 1; dz++ {
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				idx := cellIndex{center[0] + dx, center[1] + dy, center[2] + dz}
				for _, j := range c.cells[idx] {
					d2 := r3.Norm2(r3.Sub(p, c.pos[j]))
					if d2 < radiusSq {
						fn(j, math.Sqrt(d2))
					}
				}
			}
		}
	}
}
