package systems

import (
	"math"

	"github.com/pthm-cable/symbiosis/components"
	"github.com/pthm-cable/symbiosis/config"
)

// Cell is one placement slot of the grid.
type Cell struct {
	Col, Row  int
	Buildable bool   // false for lane cells
	Occupant  uint32 // tower id, 0 when free
}

// Grid maps world positions to cells and tracks which tower sits where.
type Grid struct {
	cols, rows int
	cellSize   float64
	originX    float64
	originY    float64
	cells      []Cell // row-major
	occupied   int
}

// NewGrid builds the grid and marks the lane band as non-buildable.
func NewGrid(cfg *config.Config) *Grid {
	g := &Grid{
		cols:     cfg.Grid.Width,
		rows:     cfg.Grid.Height,
		cellSize: cfg.Grid.CellSize,
		originX:  cfg.Grid.OriginX,
		originY:  cfg.Grid.OriginY,
	}
	g.cells = make([]Cell, g.cols*g.rows)
	for row := 0; row < g.rows; row++ {
		for col := 0; col < g.cols; col++ {
			g.cells[row*g.cols+col] = Cell{
				Col:       col,
				Row:       row,
				Buildable: !cfg.Derived.LaneRows[row],
			}
		}
	}
	return g
}

// Cols returns the grid width in cells.
func (g *Grid) Cols() int { return g.cols }

// Rows returns the grid height in cells.
func (g *Grid) Rows() int { return g.rows }

// cellCoords converts a world position to (possibly out of range) cell
// coordinates. Exact half-cell positions round to the even cell.
func (g *Grid) cellCoords(pos components.Position) (col, row int) {
	col = int(math.RoundToEven((pos.X - g.originX) / g.cellSize))
	row = int(math.RoundToEven((pos.Y - g.originY) / g.cellSize))
	return col, row
}

func (g *Grid) inBounds(col, row int) bool {
	return col >= 0 && col < g.cols && row >= 0 && row < g.rows
}

// cellIndex returns the flat index for a world position, or -1 if outside.
func (g *Grid) cellIndex(pos components.Position) int {
	col, row := g.cellCoords(pos)
	if !g.inBounds(col, row) {
		return -1
	}
	return row*g.cols + col
}

// CellCenter returns the world position of a cell.
func (g *Grid) CellCenter(col, row int) components.Position {
	return components.Position{
		X: g.originX + float64(col)*g.cellSize,
		Y: g.originY + float64(row)*g.cellSize,
	}
}

// IsValidPosition reports whether pos maps to a cell.
func (g *Grid) IsValidPosition(pos components.Position) bool {
	return g.cellIndex(pos) >= 0
}

// SnapToGrid returns the centre of the cell containing pos, clamped to the grid.
func (g *Grid) SnapToGrid(pos components.Position) components.Position {
	col, row := g.cellCoords(pos)
	col = min(max(col, 0), g.cols-1)
	row = min(max(row, 0), g.rows-1)
	return g.CellCenter(col, row)
}

// CellAt returns the cell containing pos.
func (g *Grid) CellAt(pos components.Position) (*Cell, bool) {
	idx := g.cellIndex(pos)
	if idx < 0 {
		return nil, false
	}
	return &g.cells[idx], true
}

// IsOccupied reports whether the cell at pos holds a tower. Positions
// outside the grid count as occupied.
func (g *Grid) IsOccupied(pos components.Position) bool {
	idx := g.cellIndex(pos)
	if idx < 0 {
		return true
	}
	return g.cells[idx].Occupant != 0
}

// IsBuildable reports whether a tower may be placed at pos.
func (g *Grid) IsBuildable(pos components.Position) bool {
	idx := g.cellIndex(pos)
	if idx < 0 {
		return false
	}
	c := &g.cells[idx]
	return c.Buildable && c.Occupant == 0
}

// Occupy assigns the cell at pos to id. Returns false without change if the
// cell is outside the grid or already taken.
func (g *Grid) Occupy(pos components.Position, id uint32) bool {
	idx := g.cellIndex(pos)
	if idx < 0 || id == 0 || g.cells[idx].Occupant != 0 {
		return false
	}
	g.cells[idx].Occupant = id
	g.occupied++
	return true
}

// Free clears the cell at pos.
func (g *Grid) Free(pos components.Position) {
	idx := g.cellIndex(pos)
	if idx < 0 || g.cells[idx].Occupant == 0 {
		return
	}
	g.cells[idx].Occupant = 0
	g.occupied--
}

// OccupiedCount returns the number of occupied cells.
func (g *Grid) OccupiedCount() int {
	return g.occupied
}
