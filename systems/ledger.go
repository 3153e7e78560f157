package systems

import (
	"log/slog"

	"github.com/pthm-cable/symbiosis/config"
	"github.com/pthm-cable/symbiosis/events"
)

// Ledger holds the two player resources. Both counters stay non-negative.
type Ledger struct {
	biomass int
	energy  int

	regenRate     int
	regenInterval float64
	regenTimer    float64

	bus    events.Emitter
	logger *slog.Logger
}

// NewLedger creates a ledger with the configured starting resources.
func NewLedger(cfg config.ResourcesConfig, bus events.Emitter, logger *slog.Logger) *Ledger {
	if bus == nil {
		bus = events.Discard
	}
	return &Ledger{
		biomass:       max(cfg.StartingBiomass, 0),
		energy:        max(cfg.StartingEnergy, 0),
		regenRate:     cfg.RegenRate,
		regenInterval: cfg.RegenInterval,
		bus:           bus,
		logger:        orDiscard(logger),
	}
}

// Biomass returns the current biomass.
func (l *Ledger) Biomass() int { return l.biomass }

// Energy returns the current energy.
func (l *Ledger) Energy() int { return l.energy }

// CanAfford reports whether a biomass cost can be paid. Build and upgrade use this.
func (l *Ledger) CanAfford(cost int) bool {
	return l.CanAffordBiomass(cost)
}

// CanAffordBiomass reports whether biomass >= cost.
func (l *Ledger) CanAffordBiomass(cost int) bool {
	return l.biomass >= cost
}

// CanAffordEnergy reports whether energy >= cost.
func (l *Ledger) CanAffordEnergy(cost int) bool {
	return l.energy >= cost
}

// SpendBiomass removes biomass, clamping at zero. Callers check CanAfford first.
func (l *Ledger) SpendBiomass(amount int) {
	if amount <= 0 {
		return
	}
	prev := l.biomass
	l.biomass = max(l.biomass-amount, 0)
	l.emitChange(events.BiomassChanged, l.biomass, l.biomass-prev)
}

// AddBiomass credits biomass.
func (l *Ledger) AddBiomass(amount int) {
	if amount <= 0 {
		return
	}
	l.biomass += amount
	l.emitChange(events.BiomassChanged, l.biomass, amount)
}

// SpendEnergy removes energy, clamping at zero.
func (l *Ledger) SpendEnergy(amount int) {
	if amount <= 0 {
		return
	}
	prev := l.energy
	l.energy = max(l.energy-amount, 0)
	l.emitChange(events.EnergyChanged, l.energy, l.energy-prev)
	if l.energy == 0 && prev > 0 {
		l.logger.Warn("energy depleted")
	}
}

// AddEnergy credits energy.
func (l *Ledger) AddEnergy(amount int) {
	if amount <= 0 {
		return
	}
	l.energy += amount
	l.emitChange(events.EnergyChanged, l.energy, amount)
}

// Update advances the regeneration timer. Every elapsed interval adds regenRate energy.
func (l *Ledger) Update(dt float64) {
	if l.regenRate <= 0 || l.regenInterval <= 0 {
		return
	}
	l.regenTimer += dt
	for l.regenTimer >= l.regenInterval {
		l.regenTimer -= l.regenInterval
		l.AddEnergy(l.regenRate)
	}
}

func (l *Ledger) emitChange(t events.Type, total, delta int) {
	if delta == 0 {
		return
	}
	l.bus.Emit(events.Event{Type: t, Value: total, Amount: float64(delta)})
}
