// Package events defines the outbound notifications of the simulation and
// a per-tick queue that delivers them to listeners in registration order.
package events

import "log/slog"

// Type identifies an event.
type Type uint8

const (
	TowerBuilt Type = iota
	TowerDestroyed
	TowerUpgraded
	BiomassChanged
	EnergyChanged
	WaveStarted
	WaveCompleted
	EnemyKilled
	EnemyLeaked
	EnemySpawned
	LinkCreated
	LinkBroken
	BaseDestroyed
	numTypes
)

var typeNames = [numTypes]string{
	TowerBuilt:     "tower_built",
	TowerDestroyed: "tower_destroyed",
	TowerUpgraded:  "tower_upgraded",
	BiomassChanged: "biomass_changed",
	EnergyChanged:  "energy_changed",
	WaveStarted:    "wave_started",
	WaveCompleted:  "wave_completed",
	EnemyKilled:    "enemy_killed",
	EnemyLeaked:    "enemy_leaked",
	EnemySpawned:   "enemy_spawned",
	LinkCreated:    "link_created",
	LinkBroken:     "link_broken",
	BaseDestroyed:  "base_destroyed",
}

func (t Type) String() string {
	if t < numTypes {
		return typeNames[t]
	}
	return "unknown"
}

// Event is a single notification. Fields not meaningful for a type are zero.
//
//	TowerBuilt/TowerDestroyed: EntityID=tower, Kind=tower type, X/Y=cell centre
//	TowerUpgraded:             EntityID=tower, Value=new level
//	BiomassChanged/EnergyChanged: Value=new total, Amount=signed delta
//	WaveStarted/WaveCompleted: Value=wave number
//	EnemySpawned:              EntityID=enemy, Kind=enemy type, Value=wave
//	EnemyKilled:               EntityID=enemy, TargetID=killing tower, Kind=enemy type,
//	                           Value=biomass reward, Amount=seconds alive, X/Y=position
//	EnemyLeaked:               EntityID=enemy, Kind=enemy type, Amount=seconds alive
//	LinkCreated/LinkBroken:    EntityID=link, SourceID/TargetID=towers, Kind=link type,
//	                           Value=upkeep (created), Reason=why broken
//	BaseDestroyed:             Value=total leaks
type Event struct {
	Type     Type
	Tick     int32
	EntityID uint32
	SourceID uint32
	TargetID uint32
	Value    int
	Amount   float64
	X, Y     float64
	Kind     string
	Reason   string
}

// LogValue implements slog.LogValuer.
func (e Event) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("type", e.Type.String()),
		slog.Int("tick", int(e.Tick)),
	}
	if e.EntityID != 0 {
		attrs = append(attrs, slog.Int("id", int(e.EntityID)))
	}
	if e.SourceID != 0 {
		attrs = append(attrs, slog.Int("source", int(e.SourceID)))
	}
	if e.TargetID != 0 {
		attrs = append(attrs, slog.Int("target", int(e.TargetID)))
	}
	if e.Kind != "" {
		attrs = append(attrs, slog.String("kind", e.Kind))
	}
	if e.Reason != "" {
		attrs = append(attrs, slog.String("reason", e.Reason))
	}
	attrs = append(attrs, slog.Int("value", e.Value))
	return slog.GroupValue(attrs...)
}

// Listener receives delivered events.
type Listener interface {
	OnEvent(e Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(e Event)

// OnEvent calls f(e).
func (f ListenerFunc) OnEvent(e Event) { f(e) }

// Emitter is the write side of the bus, handed to subsystems.
type Emitter interface {
	Emit(e Event)
}

// Discard drops every event.
var Discard Emitter = discard{}

type discard struct{}

func (discard) Emit(Event) {}
