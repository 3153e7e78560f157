package systems

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/symbiosis/components"
)

// Movement walks enemies along the lane waypoints.
type Movement struct {
	reg          *Registry
	waypoints    []r2.Vec
	arriveRadius float64

	leaked []uint32 // reused between ticks
}

// NewMovement creates the movement system for the registry's configured lane.
func NewMovement(reg *Registry) *Movement {
	return &Movement{
		reg:          reg,
		waypoints:    reg.cfg.Derived.Waypoints,
		arriveRadius: reg.cfg.Lane.ArriveRadius,
	}
}

// Entrance returns the lane's first waypoint, where enemies spawn.
func (m *Movement) Entrance() components.Position {
	if len(m.waypoints) == 0 {
		return components.Position{}
	}
	return components.PositionOf(m.waypoints[0])
}

// Update moves every live enemy and removes those that passed the last
// waypoint as leaks. Returns the number leaked this tick.
func (m *Movement) Update(dt float64) int {
	m.leaked = m.leaked[:0]

	query := m.reg.enemyFilter.Query()
	for query.Next() {
		pos, health, enemy := query.Get()
		if !health.Alive {
			continue
		}
		enemy.Age += dt
		if m.step(pos, enemy, dt) {
			m.leaked = append(m.leaked, enemy.ID)
		}
	}

	// Structural changes only after the query has finished
	for _, id := range m.leaked {
		m.reg.RemoveEnemy(id, Leaked)
	}
	return len(m.leaked)
}

// step advances one enemy. Returns true once it has no waypoint left.
func (m *Movement) step(pos *components.Position, enemy *components.Enemy, dt float64) bool {
	if enemy.Waypoint >= len(m.waypoints) {
		return true
	}
	target := m.waypoints[enemy.Waypoint]
	p := pos.Vec()
	delta := r2.Sub(target, p)
	dist := r2.Norm(delta)
	travel := enemy.Speed * dt

	if dist <= travel {
		p = target
	} else if dist > 0 {
		p = r2.Add(p, r2.Scale(travel/dist, delta))
	}
	*pos = components.PositionOf(p)

	if r2.Norm(r2.Sub(target, p)) <= m.arriveRadius {
		enemy.Waypoint++
	}
	return enemy.Waypoint >= len(m.waypoints)
}
