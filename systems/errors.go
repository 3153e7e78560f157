// Package systems provides the simulation subsystems: resources, the placement
// grid, the entity registry, movement, combat, waves and symbiosis links.
package systems

import (
	"errors"
	"log/slog"
)

// Rejected preconditions. State is unchanged when one of these is returned.
var (
	ErrUnknownType         = errors.New("unknown type")
	ErrInvalidPosition     = errors.New("position outside grid")
	ErrOccupied            = errors.New("cell occupied or not buildable")
	ErrInsufficientBiomass = errors.New("insufficient biomass")
	ErrInsufficientEnergy  = errors.New("insufficient energy")
	ErrInvalidTower        = errors.New("invalid tower")
	ErrMaxLevel            = errors.New("tower at max level")
	ErrWaveInProgress      = errors.New("wave in progress")
	ErrTooFar              = errors.New("towers too far apart")
	ErrInvalidEndpoint     = errors.New("invalid link endpoint")
)

var discardLogger = slog.New(slog.DiscardHandler)

func orDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return discardLogger
	}
	return l
}
