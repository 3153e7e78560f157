package game

import "github.com/pthm-cable/symbiosis/systems"

// Snapshot is a read-only copy of the simulation state.
type Snapshot struct {
	Tick    int32
	SimTime float64

	Biomass  int
	Energy   int
	Lives    int
	MaxLives int
	Leaks    int
	Active   bool

	Wave          systems.WaveStatus
	Towers        []systems.TowerInfo
	Enemies       []systems.EnemyInfo
	Links         []systems.LinkInfo
	OccupiedCells int

	// Lifetime counts
	TowersBuilt    int
	EnemiesSpawned int

	// Combat totals for the last step
	Shots  int
	Kills  int
	Damage float64
}

// Snapshot captures the current state. Slices are copies and safe to retain.
func (g *Game) Snapshot() Snapshot {
	return Snapshot{
		Tick:           g.tick,
		SimTime:        float64(g.tick) * g.cfg.Derived.DT,
		Biomass:        g.ledger.Biomass(),
		Energy:         g.ledger.Energy(),
		Lives:          g.base.Lives(),
		MaxLives:       g.base.MaxLives(),
		Leaks:          g.base.Leaks(),
		Active:         !g.base.Destroyed(),
		Wave:           g.waves.Status(),
		Towers:         g.registry.Towers(),
		Enemies:        g.registry.Enemies(),
		Links:          g.symbiosis.Links(),
		OccupiedCells:  g.grid.OccupiedCount(),
		TowersBuilt:    g.registry.TowersBuilt(),
		EnemiesSpawned: g.registry.EnemiesSpawned(),
		Shots:          g.lastResult.Shots,
		Kills:          g.lastResult.Kills,
		Damage:         g.lastResult.Damage,
	}
}
