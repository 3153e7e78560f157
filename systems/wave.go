package systems

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/symbiosis/components"
	"github.com/pthm-cable/symbiosis/config"
	"github.com/pthm-cable/symbiosis/events"
)

// WaveState is the wave director's lifecycle state.
type WaveState uint8

const (
	WaveIdle WaveState = iota
	WaveSpawning
	WaveDraining
	WaveCompleted
)

func (s WaveState) String() string {
	switch s {
	case WaveIdle:
		return "idle"
	case WaveSpawning:
		return "spawning"
	case WaveDraining:
		return "draining"
	case WaveCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// WaveStatus reports the director's progress.
type WaveStatus struct {
	State         WaveState
	Wave          int // current or most recent wave, 0 before the first
	Spawned       int
	Total         int
	LastCompleted int
}

// InProgress reports whether a wave is spawning or draining.
func (s WaveStatus) InProgress() bool {
	return s.State == WaveSpawning || s.State == WaveDraining
}

// Waves runs the wave state machine. A countdown timer drives spawning.
type Waves struct {
	cfg      *config.Config
	reg      *Registry
	entrance components.Position
	bus      events.Emitter
	logger   *slog.Logger

	state         WaveState
	wave          int
	def           config.WaveConfig
	spawned       int
	timer         float64
	lastCompleted int
}

// NewWaves creates a wave director spawning at the given lane entrance.
func NewWaves(cfg *config.Config, reg *Registry, entrance components.Position, bus events.Emitter, logger *slog.Logger) *Waves {
	if bus == nil {
		bus = events.Discard
	}
	return &Waves{
		cfg:      cfg,
		reg:      reg,
		entrance: entrance,
		bus:      bus,
		logger:   orDiscard(logger),
	}
}

// Definition returns the wave definition for 1-based wave n.
func (w *Waves) Definition(n int) config.WaveConfig {
	return w.cfg.Wave(n)
}

// StartWave begins wave n. The first enemy spawns on the next Update.
func (w *Waves) StartWave(n int) error {
	if w.Status().InProgress() {
		return fmt.Errorf("start wave %d while wave %d is %s: %w", n, w.wave, w.state, ErrWaveInProgress)
	}
	w.wave = n
	w.def = w.cfg.Wave(n)
	w.spawned = 0
	w.timer = 0
	w.state = WaveSpawning

	w.bus.Emit(events.Event{Type: events.WaveStarted, Value: n})
	w.logger.Info("wave started", "wave", n, "count", w.def.Count, "interval", w.def.SpawnInterval)
	return nil
}

// Update advances spawning and detects completion.
func (w *Waves) Update(dt float64) {
	switch w.state {
	case WaveSpawning:
		w.timer -= dt
		for w.timer <= 0 && w.spawned < w.def.Count {
			w.spawnNext()
			w.timer += w.def.SpawnInterval
		}
		if w.spawned >= w.def.Count {
			w.state = WaveDraining
			w.logger.Debug("wave draining", "wave", w.wave)
		}
	case WaveDraining:
		if w.reg.LiveEnemyCount() == 0 {
			w.state = WaveCompleted
			w.lastCompleted = w.wave
			w.bus.Emit(events.Event{Type: events.WaveCompleted, Value: w.wave})
			w.logger.Info("wave completed", "wave", w.wave)
			w.state = WaveIdle
		}
	}
}

func (w *Waves) spawnNext() {
	typeName := w.def.Enemies[w.spawned%len(w.def.Enemies)]
	info, err := w.reg.SpawnEnemy(typeName, w.entrance)
	w.spawned++
	if err != nil {
		// Validated at load time, so only reachable with a hand-built config
		w.logger.Error("spawn failed", "wave", w.wave, "type", typeName, "error", err)
		return
	}
	w.bus.Emit(events.Event{
		Type:     events.EnemySpawned,
		EntityID: info.ID,
		Kind:     typeName,
		Value:    w.wave,
	})
}

// Status reports the current state.
func (w *Waves) Status() WaveStatus {
	return WaveStatus{
		State:         w.state,
		Wave:          w.wave,
		Spawned:       w.spawned,
		Total:         w.def.Count,
		LastCompleted: w.lastCompleted,
	}
}
