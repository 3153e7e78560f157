// Package game wires the simulation subsystems together and advances them
// one fixed tick at a time.
package game

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pthm-cable/symbiosis/components"
	"github.com/pthm-cable/symbiosis/config"
	"github.com/pthm-cable/symbiosis/events"
	"github.com/pthm-cable/symbiosis/systems"
	"github.com/pthm-cable/symbiosis/telemetry"
)

// ErrGameOver is returned by StartWave once the base has been destroyed.
var ErrGameOver = errors.New("game over")

// Options configures game initialization.
type Options struct {
	Logger        *slog.Logger
	LogStats      bool                      // Log wave and perf stats
	OutputDir     string                    // CSV and config output (empty = disabled)
	Registerer    prometheus.Registerer     // Metrics registry (nil = metrics disabled)
	StatsCallback func(telemetry.WaveStats) // Called when a wave's stats are flushed
}

// Game holds the complete simulation state.
type Game struct {
	cfg    *config.Config
	logger *slog.Logger
	bus    *events.Bus

	ledger    *systems.Ledger
	grid      *systems.Grid
	registry  *systems.Registry
	base      *systems.Base
	movement  *systems.Movement
	combat    *systems.Combat
	waves     *systems.Waves
	symbiosis *systems.Symbiosis

	// Telemetry
	collector        *telemetry.Collector
	perfCollector    *telemetry.PerfCollector
	lifetimeTracker  *telemetry.LifetimeTracker
	bookmarkDetector *telemetry.BookmarkDetector
	outputManager    *telemetry.OutputManager
	metrics          *telemetry.Metrics
	logStats         bool
	statsCallback    func(telemetry.WaveStats)
	waveHistory      []telemetry.WaveStats

	tick       int32
	lastWave   int
	lastResult systems.CombatResult
}

// NewGame creates a game from a finalized config.
func NewGame(cfg *config.Config, opts Options) (*Game, error) {
	if cfg == nil {
		return nil, errors.New("nil config")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	g := &Game{
		cfg:              cfg,
		logger:           logger,
		bus:              events.NewBus(),
		collector:        telemetry.NewCollector(cfg.Derived.DT),
		perfCollector:    telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		lifetimeTracker:  telemetry.NewLifetimeTracker(cfg.Derived.DT),
		bookmarkDetector: telemetry.NewBookmarkDetector(10),
		logStats:         opts.LogStats,
		statsCallback:    opts.StatsCallback,
	}

	if opts.Registerer != nil {
		m, err := telemetry.NewMetrics(opts.Registerer)
		if err != nil {
			return nil, fmt.Errorf("registering metrics: %w", err)
		}
		g.metrics = m
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	g.outputManager = om
	if err := om.WriteConfig(cfg); err != nil {
		om.Close()
		return nil, fmt.Errorf("writing config snapshot: %w", err)
	}

	g.ledger = systems.NewLedger(cfg.Resources, g.bus, logger.With("system", "ledger"))
	g.grid = systems.NewGrid(cfg)
	g.registry = systems.NewRegistry(cfg, g.grid, g.ledger, g.bus, logger.With("system", "registry"))
	g.base = systems.NewBase(cfg.Base, g.bus, logger.With("system", "base"))
	g.registry.SetLeakSink(g.base)
	g.movement = systems.NewMovement(g.registry)
	g.combat = systems.NewCombat(g.registry)
	g.combat.OnShot(g.recordShot)
	g.waves = systems.NewWaves(cfg, g.registry, g.movement.Entrance(), g.bus, logger.With("system", "waves"))
	g.symbiosis = systems.NewSymbiosis(cfg, g.registry, g.ledger, g.bus, logger.With("system", "symbiosis"))

	// Telemetry sees every event before any external subscriber.
	g.bus.Subscribe(events.ListenerFunc(g.onEvent))

	g.metrics.SetState(g.ledger.Biomass(), g.ledger.Energy(), 0)

	logger.Info("game initialized",
		"grid", fmt.Sprintf("%dx%d", g.grid.Cols(), g.grid.Rows()),
		"biomass", g.ledger.Biomass(),
		"energy", g.ledger.Energy(),
		"lives", g.base.Lives(),
	)
	return g, nil
}

// Step advances the simulation by one fixed tick.
func (g *Game) Step() {
	dt := g.cfg.Derived.DT
	g.bus.SetTick(g.tick)

	g.perfCollector.StartTick()

	g.perfCollector.StartPhase(telemetry.PhaseRegen)
	g.ledger.Update(dt)

	g.perfCollector.StartPhase(telemetry.PhaseWaves)
	g.waves.Update(dt)

	g.perfCollector.StartPhase(telemetry.PhaseMovement)
	g.movement.Update(dt)

	g.perfCollector.StartPhase(telemetry.PhaseCombat)
	g.lastResult = g.combat.Update(dt)

	g.perfCollector.StartPhase(telemetry.PhaseSymbiosis)
	g.symbiosis.Update(dt)

	g.perfCollector.StartPhase(telemetry.PhaseEvents)
	g.bus.Flush()

	elapsed := g.perfCollector.EndTick(telemetry.Load{
		Enemies: g.registry.LiveEnemyCount(),
		Towers:  g.registry.LiveTowerCount(),
		Links:   g.registry.LinkCount(),
	})
	g.metrics.ObserveTick(elapsed)
	g.metrics.SetState(g.ledger.Biomass(), g.ledger.Energy(), g.registry.LinkCount())
	g.flushPerf()

	g.tick++
	g.bus.SetTick(g.tick)
}

// BuildTower places a tower of the named type at a world position.
func (g *Game) BuildTower(pos components.Position, typeName string) (systems.TowerInfo, error) {
	info, err := g.registry.BuildTower(pos, typeName)
	if err != nil {
		g.logger.Warn("build rejected", "type", typeName, "x", pos.X, "y", pos.Y, "error", err)
		return systems.TowerInfo{}, fmt.Errorf("build %s at (%g, %g): %w", typeName, pos.X, pos.Y, err)
	}
	return info, nil
}

// UpgradeTower raises a tower's level.
func (g *Game) UpgradeTower(id uint32) error {
	if err := g.registry.UpgradeTower(id); err != nil {
		return fmt.Errorf("upgrade tower %d: %w", id, err)
	}
	return nil
}

// DestroyTower removes a tower and cancels its links. Returns false if the
// tower was unknown or already destroyed.
func (g *Game) DestroyTower(id uint32) bool {
	return g.registry.DestroyTower(id)
}

// StartWave begins wave n.
func (g *Game) StartWave(n int) error {
	if g.base.Destroyed() {
		return ErrGameOver
	}
	if err := g.waves.StartWave(n); err != nil {
		return fmt.Errorf("start wave %d: %w", n, err)
	}
	g.lastWave = n
	return nil
}

// StartNextWave begins the wave after the last one started.
func (g *Game) StartNextWave() (int, error) {
	n := g.lastWave + 1
	if err := g.StartWave(n); err != nil {
		return 0, err
	}
	return n, nil
}

// CreateSymbiosisLink connects two towers.
func (g *Game) CreateSymbiosisLink(source, target uint32, linkType components.LinkType) (systems.LinkInfo, error) {
	info, err := g.symbiosis.CreateLink(source, target, linkType)
	if err != nil {
		return systems.LinkInfo{}, fmt.Errorf("link %d -> %d (%s): %w", source, target, linkType, err)
	}
	return info, nil
}

// RemoveSymbiosisLink tears a link down.
func (g *Game) RemoveSymbiosisLink(id uint32) bool {
	return g.symbiosis.RemoveLink(id)
}

// Subscribe registers a listener for events. Listeners run in subscription
// order after the game's own telemetry.
func (g *Game) Subscribe(l events.Listener, types ...events.Type) {
	g.bus.Subscribe(l, types...)
}

// Events returns the batch delivered by the last Step.
func (g *Game) Events() []events.Event {
	return g.bus.Last()
}

// Tick returns the number of completed steps.
func (g *Game) Tick() int32 {
	return g.tick
}

// Active reports whether the base still stands.
func (g *Game) Active() bool {
	return !g.base.Destroyed()
}

// WaveStatus reports the wave director's state.
func (g *Game) WaveStatus() systems.WaveStatus {
	return g.waves.Status()
}

// WaveHistory returns the stats of every completed wave.
func (g *Game) WaveHistory() []telemetry.WaveStats {
	out := make([]telemetry.WaveStats, len(g.waveHistory))
	copy(out, g.waveHistory)
	return out
}

// MetricsHandler serves the game's Prometheus metrics.
func (g *Game) MetricsHandler() http.Handler {
	return g.metrics.Handler()
}

// Config returns the game configuration.
func (g *Game) Config() *config.Config {
	return g.cfg
}

// Close flushes any remaining tower records and closes output files.
func (g *Game) Close() error {
	for _, t := range g.registry.Towers() {
		if rec := g.lifetimeTracker.Remove(t.ID, g.tick); rec != nil {
			rec.DestroyedTick = -1
			if err := g.outputManager.WriteTower(*rec); err != nil {
				g.logger.Error("failed to write tower record", "error", err)
			}
		}
	}
	return g.outputManager.Close()
}
