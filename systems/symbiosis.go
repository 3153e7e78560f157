package systems

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/pthm-cable/symbiosis/components"
	"github.com/pthm-cable/symbiosis/config"
	"github.com/pthm-cable/symbiosis/events"
)

// Link reasons reported on LinkBroken.
const (
	ReasonRemoved      = "removed"
	ReasonEndpointDied = "endpoint_destroyed"
	ReasonOutOfRange   = "out_of_range"
	ReasonNoEnergy     = "insufficient_energy"
)

// Link connects two towers. The target receives the effect; the link charges
// Upkeep energy per second while active.
type Link struct {
	ID     uint32
	Source uint32
	Target uint32
	Type   components.LinkType
	Active bool
	Upkeep int

	accrued float64 // fractional upkeep not yet debited
}

// LinkInfo is a read-only view of a link.
type LinkInfo struct {
	ID     uint32
	Source uint32
	Target uint32
	Type   components.LinkType
	Active bool
	Upkeep int
}

func (l *Link) info() LinkInfo {
	return LinkInfo{ID: l.ID, Source: l.Source, Target: l.Target, Type: l.Type, Active: l.Active, Upkeep: l.Upkeep}
}

// Symbiosis manages the link lifecycle and the modifiers links grant.
type Symbiosis struct {
	cfg    *config.Config
	reg    *Registry
	ledger *Ledger
	bus    events.Emitter
	logger *slog.Logger

	created int
	broken  int
}

// NewSymbiosis creates the network and hooks it into tower destruction.
func NewSymbiosis(cfg *config.Config, reg *Registry, ledger *Ledger, bus events.Emitter, logger *slog.Logger) *Symbiosis {
	if bus == nil {
		bus = events.Discard
	}
	s := &Symbiosis{
		cfg:    cfg,
		reg:    reg,
		ledger: ledger,
		bus:    bus,
		logger: orDiscard(logger),
	}
	reg.OnTowerDestroyed(s.cancelLinksFor)
	return s
}

// Contribution returns the bonus a link of type t grants its target.
func (s *Symbiosis) Contribution(t components.LinkType) components.Contribution {
	fx := s.cfg.Symbiosis.Effects
	switch t {
	case components.LinkNutritional:
		return components.Contribution{DamageBonus: fx.NutritionalDamage}
	case components.LinkProtective:
		return components.Contribution{DefenseBonus: fx.ProtectiveReduction}
	case components.LinkAmplifying:
		return components.Contribution{FireRateBonus: fx.AmplifyingFireRate}
	case components.LinkHealing:
		return components.Contribution{RegenPerSec: fx.HealingPerSec}
	}
	return components.Contribution{}
}

// CreateLink validates and registers a link from src to dst.
func (s *Symbiosis) CreateLink(src, dst uint32, t components.LinkType) (LinkInfo, error) {
	if src == dst {
		return LinkInfo{}, fmt.Errorf("link %d to itself: %w", src, ErrInvalidEndpoint)
	}
	srcEnt, ok := s.reg.liveTower(src)
	if !ok {
		return LinkInfo{}, fmt.Errorf("link source %d: %w", src, ErrInvalidEndpoint)
	}
	dstEnt, ok := s.reg.liveTower(dst)
	if !ok {
		return LinkInfo{}, fmt.Errorf("link target %d: %w", dst, ErrInvalidEndpoint)
	}
	dstTower := s.reg.towerMap.Get(dstEnt)
	if !s.cfg.Derived.Towers[dstTower.TypeID].Supports[t] {
		return LinkInfo{}, fmt.Errorf("%s tower %d does not accept %s links: %w",
			s.cfg.Towers[dstTower.TypeID].Name, dst, t, ErrInvalidEndpoint)
	}
	for _, l := range s.reg.LinksFor(src) {
		if l.Source == src && l.Target == dst && l.Type == t {
			return LinkInfo{}, fmt.Errorf("%s link %d->%d already exists: %w", t, src, dst, ErrInvalidEndpoint)
		}
	}

	dist := components.Distance(*s.reg.posMap.Get(srcEnt), *s.reg.posMap.Get(dstEnt))
	if dist > s.cfg.Symbiosis.MaxDistance {
		return LinkInfo{}, fmt.Errorf("link %d->%d distance %.2f > %.2f: %w",
			src, dst, dist, s.cfg.Symbiosis.MaxDistance, ErrTooFar)
	}
	upkeep := s.cfg.Towers[s.reg.towerMap.Get(srcEnt).TypeID].EnergyDraw
	if !s.ledger.CanAffordEnergy(upkeep) {
		return LinkInfo{}, fmt.Errorf("link upkeep %d, have %d: %w", upkeep, s.ledger.Energy(), ErrInsufficientEnergy)
	}

	l := s.reg.AddLink(src, dst, t, upkeep)
	s.reg.modMap.Get(dstEnt).Add(l.ID, s.Contribution(t))
	s.created++

	s.bus.Emit(events.Event{
		Type:     events.LinkCreated,
		EntityID: l.ID,
		SourceID: src,
		TargetID: dst,
		Kind:     t.String(),
		Value:    upkeep,
	})
	s.logger.Debug("link created", "link", l.ID, "source", src, "target", dst, "type", t.String())
	return l.info(), nil
}

// RemoveLink tears a link down at the player's request.
func (s *Symbiosis) RemoveLink(id uint32) bool {
	l, ok := s.reg.Link(id)
	if !ok {
		return false
	}
	s.breakLink(l, ReasonRemoved)
	return true
}

// Update re-validates every link, charges upkeep and applies healing.
func (s *Symbiosis) Update(dt float64) {
	for _, l := range s.reg.Links() {
		srcEnt, srcOK := s.reg.liveTower(l.Source)
		dstEnt, dstOK := s.reg.liveTower(l.Target)
		if !srcOK || !dstOK {
			s.breakLink(l, ReasonEndpointDied)
			continue
		}
		if components.Distance(*s.reg.posMap.Get(srcEnt), *s.reg.posMap.Get(dstEnt)) > s.cfg.Symbiosis.MaxDistance {
			s.breakLink(l, ReasonOutOfRange)
			continue
		}
		if !s.ledger.CanAffordEnergy(l.Upkeep) {
			s.breakLink(l, ReasonNoEnergy)
			continue
		}

		l.accrued += float64(l.Upkeep) * dt
		if whole := math.Floor(l.accrued); whole >= 1 {
			l.accrued -= whole
			s.ledger.SpendEnergy(int(whole))
		}

		if l.Type == components.LinkHealing {
			regen := s.Contribution(l.Type).RegenPerSec
			s.reg.healthMap.Get(dstEnt).Heal(regen * dt)
		}
	}
}

// Links returns every active link in id order.
func (s *Symbiosis) Links() []LinkInfo {
	links := s.reg.Links()
	out := make([]LinkInfo, len(links))
	for i, l := range links {
		out[i] = l.info()
	}
	return out
}

// Created returns the lifetime number of links created.
func (s *Symbiosis) Created() int { return s.created }

// Broken returns the lifetime number of links torn down.
func (s *Symbiosis) Broken() int { return s.broken }

// cancelLinksFor tears down every link touching a destroyed tower.
func (s *Symbiosis) cancelLinksFor(towerID uint32) {
	for _, l := range s.reg.LinksFor(towerID) {
		s.breakLink(l, ReasonEndpointDied)
	}
}

// breakLink removes the link and its contribution from the target, if the
// target still exists.
func (s *Symbiosis) breakLink(l *Link, reason string) {
	if _, ok := s.reg.RemoveLink(l.ID); !ok {
		return
	}
	if ent, ok := s.reg.towers[l.Target]; ok && s.reg.world.Alive(ent) {
		s.reg.modMap.Get(ent).Remove(l.ID)
	}
	s.broken++

	s.bus.Emit(events.Event{
		Type:     events.LinkBroken,
		EntityID: l.ID,
		SourceID: l.Source,
		TargetID: l.Target,
		Kind:     l.Type.String(),
		Reason:   reason,
	})
	s.logger.Debug("link broken", "link", l.ID, "reason", reason)
}
