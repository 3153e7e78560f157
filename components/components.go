// Package components defines ECS components for the simulation.
package components

// TowerKind selects the per-variant behaviour of a tower.
type TowerKind uint8

const (
	KindRoot   TowerKind = iota // Support tower, never attacks
	KindCombat                  // Fires at enemies in range
)

// String returns the config name of the kind.
func (k TowerKind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindCombat:
		return "combat"
	default:
		return "unknown"
	}
}

// ParseTowerKind maps a config name to a TowerKind.
func ParseTowerKind(s string) (TowerKind, bool) {
	switch s {
	case "root":
		return KindRoot, true
	case "combat":
		return KindCombat, true
	}
	return 0, false
}

// Health is shared by towers and enemies.
type Health struct {
	Current float64
	Max     float64
	Alive   bool
}

// ApplyDamage lowers health, flooring at zero. Returns true if this call killed the entity.
// Dead entities are left untouched.
func (h *Health) ApplyDamage(amount float64) bool {
	if !h.Alive || amount <= 0 {
		return false
	}
	h.Current -= amount
	if h.Current <= 0 {
		h.Current = 0
		h.Alive = false
		return true
	}
	return false
}

// Heal raises health up to Max. Returns the amount actually restored.
func (h *Health) Heal(amount float64) float64 {
	if !h.Alive || amount <= 0 || h.Current >= h.Max {
		return 0
	}
	before := h.Current
	h.Current += amount
	if h.Current > h.Max {
		h.Current = h.Max
	}
	return h.Current - before
}

// Tower holds tower-specific state. Static stats live in the config tower table.
type Tower struct {
	ID       uint32
	TypeID   uint8 // index into config.Towers
	Kind     TowerKind
	Level    int
	Cooldown float64 // seconds until the tower may fire again
}

// Enemy holds enemy-specific state.
type Enemy struct {
	ID            uint32
	TypeID        uint8 // index into config.Enemies
	Speed         float64
	Armor         float64
	Waypoint      int     // index of the waypoint being walked towards
	Age           float64 // seconds since spawn
	BiomassReward int
	EnergyReward  int
}
