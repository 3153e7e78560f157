package systems

import (
	"math"
	"testing"

	"github.com/pthm-cable/symbiosis/components"
	"github.com/pthm-cable/symbiosis/config"
	"github.com/pthm-cable/symbiosis/events"
)

// testSim wires every subsystem the same way the game does, without telemetry.
type testSim struct {
	cfg    *config.Config
	bus    *events.Bus
	ledger *Ledger
	grid   *Grid
	reg    *Registry
	base   *Base
	move   *Movement
	combat *Combat
	waves  *Waves
	sym    *Symbiosis
}

func newTestSim(t *testing.T, mutate func(c *config.Config)) *testSim {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
		if err := cfg.Finalize(); err != nil {
			t.Fatalf("test config invalid: %v", err)
		}
	}

	s := &testSim{cfg: cfg, bus: events.NewBus()}
	s.ledger = NewLedger(cfg.Resources, s.bus, nil)
	s.grid = NewGrid(cfg)
	s.reg = NewRegistry(cfg, s.grid, s.ledger, s.bus, nil)
	s.base = NewBase(cfg.Base, s.bus, nil)
	s.reg.SetLeakSink(s.base)
	s.move = NewMovement(s.reg)
	s.combat = NewCombat(s.reg)
	s.waves = NewWaves(cfg, s.reg, s.move.Entrance(), s.bus, nil)
	s.sym = NewSymbiosis(cfg, s.reg, s.ledger, s.bus, nil)
	return s
}

func (s *testSim) mustBuild(t *testing.T, x, y float64, typeName string) TowerInfo {
	t.Helper()
	info, err := s.reg.BuildTower(components.Position{X: x, Y: y}, typeName)
	if err != nil {
		t.Fatalf("BuildTower(%v, %v, %s): %v", x, y, typeName, err)
	}
	return info
}

func (s *testSim) mustSpawn(t *testing.T, x, y float64, typeName string) EnemyInfo {
	t.Helper()
	info, err := s.reg.SpawnEnemy(typeName, components.Position{X: x, Y: y})
	if err != nil {
		t.Fatalf("SpawnEnemy(%s): %v", typeName, err)
	}
	return info
}

func (s *testSim) tower(t *testing.T, id uint32) TowerInfo {
	t.Helper()
	info, ok := s.reg.Tower(id)
	if !ok {
		t.Fatalf("tower %d not found", id)
	}
	return info
}

func (s *testSim) enemy(t *testing.T, id uint32) EnemyInfo {
	t.Helper()
	info, ok := s.reg.Enemy(id)
	if !ok {
		t.Fatalf("enemy %d not found", id)
	}
	return info
}

func ofType(batch []events.Event, typ events.Type) []events.Event {
	var out []events.Event
	for _, e := range batch {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
