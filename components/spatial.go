package components

import "gonum.org/v1/gonum/spatial/r2"

// Position is an entity's world position. X runs along grid columns, Y along rows.
type Position struct {
	X, Y float64
}

// Vec returns the position as a gonum vector.
func (p Position) Vec() r2.Vec {
	return r2.Vec{X: p.X, Y: p.Y}
}

// PositionOf converts a vector back to a Position.
func PositionOf(v r2.Vec) Position {
	return Position{X: v.X, Y: v.Y}
}

// Distance returns the euclidean distance between two positions.
func Distance(a, b Position) float64 {
	return r2.Norm(r2.Sub(a.Vec(), b.Vec()))
}

// DistanceSq returns the squared distance (avoids sqrt in targeting).
func DistanceSq(a, b Position) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	return dx*dx + dy*dy
}
