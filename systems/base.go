package systems

import (
	"log/slog"

	"github.com/pthm-cable/symbiosis/config"
	"github.com/pthm-cable/symbiosis/events"
)

// Base is the player's base. Every leaked enemy costs lives.
type Base struct {
	lives         int
	maxLives      int
	leaks         int
	damagePerLeak int
	destroyed     bool

	bus    events.Emitter
	logger *slog.Logger
}

// NewBase creates a base with full lives.
func NewBase(cfg config.BaseConfig, bus events.Emitter, logger *slog.Logger) *Base {
	if bus == nil {
		bus = events.Discard
	}
	return &Base{
		lives:         cfg.Lives,
		maxLives:      cfg.Lives,
		damagePerLeak: cfg.DamagePerLeak,
		bus:           bus,
		logger:        orDiscard(logger),
	}
}

// OnLeak implements LeakSink.
func (b *Base) OnLeak(e EnemyInfo) {
	b.leaks++
	b.lives = max(b.lives-b.damagePerLeak, 0)
	b.logger.Debug("enemy leaked", "enemy", e.ID, "type", e.Type, "lives", b.lives)
	if b.lives == 0 && !b.destroyed {
		b.destroyed = true
		b.bus.Emit(events.Event{Type: events.BaseDestroyed, Value: b.leaks})
		b.logger.Warn("base destroyed", "leaks", b.leaks)
	}
}

// Lives returns remaining lives.
func (b *Base) Lives() int { return b.lives }

// MaxLives returns starting lives.
func (b *Base) MaxLives() int { return b.maxLives }

// Leaks returns the number of enemies that reached the base.
func (b *Base) Leaks() int { return b.leaks }

// Destroyed reports whether lives have run out.
func (b *Base) Destroyed() bool { return b.destroyed }
