package systems

import (
	"testing"

	"github.com/pthm-cable/symbiosis/components"
	"github.com/pthm-cable/symbiosis/config"
)

func pos(x, y float64) components.Position {
	return components.Position{X: x, Y: y}
}

func TestGridIsValidPosition(t *testing.T) {
	g := NewGrid(config.Default())

	tests := []struct {
		name string
		p    components.Position
		want bool
	}{
		{"origin", pos(0, 0), true},
		{"far corner", pos(19, 14), true},
		{"rounds down into grid", pos(19.4, 14.4), true},
		{"rounds past last column", pos(19.6, 0), false},
		{"rounds to -1", pos(-0.6, 0), false},
		{"rounds to 0", pos(-0.4, 0), true},
		{"half cell rounds to even 0", pos(-0.5, 0), true},
		{"half cell rounds to even 20", pos(19.5, 0), false},
		{"below grid", pos(3, 15), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.IsValidPosition(tt.p); got != tt.want {
				t.Errorf("IsValidPosition(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestGridSnapToGrid(t *testing.T) {
	g := NewGrid(config.Default())

	tests := []struct {
		in, want components.Position
	}{
		{pos(3.4, 4.6), pos(3, 5)},
		{pos(7, 2), pos(7, 2)},
		{pos(25, -3), pos(19, 0)},
		{pos(0.5, 1.5), pos(0, 2)},
		{pos(2.5, 3.5), pos(2, 4)},
	}
	for _, tt := range tests {
		if got := g.SnapToGrid(tt.in); got != tt.want {
			t.Errorf("SnapToGrid(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestGridLaneBand(t *testing.T) {
	g := NewGrid(config.Default())

	for row := 0; row < g.Rows(); row++ {
		c, ok := g.CellAt(pos(5, float64(row)))
		if !ok {
			t.Fatalf("row %d: no cell", row)
		}
		inLane := row >= 6 && row <= 8
		if c.Buildable == inLane {
			t.Errorf("row %d: buildable = %v, lane = %v", row, c.Buildable, inLane)
		}
		if g.IsBuildable(pos(5, float64(row))) == inLane {
			t.Errorf("row %d: IsBuildable disagrees with lane band", row)
		}
	}
}

func TestGridOccupancy(t *testing.T) {
	g := NewGrid(config.Default())
	p := pos(5, 5)

	if g.IsOccupied(p) {
		t.Fatal("fresh cell should be free")
	}
	if !g.Occupy(p, 1) {
		t.Fatal("Occupy on free cell failed")
	}
	if g.Occupy(p, 2) {
		t.Error("second Occupy should be rejected")
	}
	if c, _ := g.CellAt(p); c.Occupant != 1 {
		t.Errorf("occupant = %d, want 1", c.Occupant)
	}
	if !g.IsOccupied(p) || g.IsBuildable(p) {
		t.Error("occupied cell should not be buildable")
	}
	if g.OccupiedCount() != 1 {
		t.Errorf("OccupiedCount = %d, want 1", g.OccupiedCount())
	}

	g.Free(p)
	g.Free(p)
	if g.IsOccupied(p) || g.OccupiedCount() != 0 {
		t.Error("Free should release the cell exactly once")
	}

	if !g.IsOccupied(pos(-10, -10)) {
		t.Error("out-of-range positions count as occupied")
	}
	if g.Occupy(pos(-10, -10), 3) {
		t.Error("Occupy out of range should fail")
	}
}

func TestGridOrigin(t *testing.T) {
	cfg := config.Default()
	cfg.Grid.OriginX = 10
	cfg.Grid.OriginY = -2
	cfg.Grid.CellSize = 2
	if err := cfg.Finalize(); err != nil {
		t.Fatal(err)
	}
	g := NewGrid(cfg)

	if g.IsValidPosition(pos(0, 0)) {
		t.Error("(0,0) lies left of the shifted origin")
	}
	if got := g.SnapToGrid(pos(13.1, 1.2)); got != pos(14, 2) {
		t.Errorf("SnapToGrid = %v, want (14,2)", got)
	}
	if c, ok := g.CellAt(pos(48.4, 26.2)); !ok || c.Col != 19 || c.Row != 14 {
		t.Errorf("CellAt far corner = %+v, %v; want col 19 row 14", c, ok)
	}
}
