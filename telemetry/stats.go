// Package telemetry collects per-wave statistics, tick timings and metrics,
// and writes them out as CSV.
package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WaveStats holds aggregated statistics for one wave, from WaveStarted to WaveCompleted.
type WaveStats struct {
	Wave        int     `csv:"wave"`
	StartTick   int32   `csv:"start_tick"`
	EndTick     int32   `csv:"end_tick"`
	SimTimeSec  float64 `csv:"sim_time"`
	DurationSec float64 `csv:"duration"`

	// Enemies
	Spawned int `csv:"spawned"`
	Killed  int `csv:"killed"`
	Leaked  int `csv:"leaked"`

	// Combat
	Shots       int     `csv:"shots"`
	DamageDealt float64 `csv:"damage_dealt"`
	KillRate    float64 `csv:"kill_rate"` // killed / spawned

	// Time from spawn to kill
	TTKMean float64 `csv:"ttk_mean"`
	TTKP50  float64 `csv:"ttk_p50"`
	TTKP90  float64 `csv:"ttk_p90"`

	// Economy
	BiomassEarned int `csv:"biomass_earned"`
	BiomassSpent  int `csv:"biomass_spent"`
	EnergyEarned  int `csv:"energy_earned"`
	EnergySpent   int `csv:"energy_spent"`

	// Structures
	TowersBuilt  int `csv:"towers_built"`
	TowersLost   int `csv:"towers_lost"`
	LinksCreated int `csv:"links_created"`
	LinksBroken  int `csv:"links_broken"`

	// State at wave end
	Biomass     int `csv:"biomass"`
	Energy      int `csv:"energy"`
	Lives       int `csv:"lives"`
	LiveTowers  int `csv:"live_towers"`
	ActiveLinks int `csv:"active_links"`
}

// ComputeTTKStats calculates mean and empirical percentiles of kill times.
func ComputeTTKStats(values []float64) (mean, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mean = stat.Mean(sorted, nil)
	p50 = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.9, stat.Empirical, sorted, nil)
	return mean, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WaveStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("wave", s.Wave),
		slog.Int("start_tick", int(s.StartTick)),
		slog.Int("end_tick", int(s.EndTick)),
		slog.Float64("duration", s.DurationSec),
		slog.Int("spawned", s.Spawned),
		slog.Int("killed", s.Killed),
		slog.Int("leaked", s.Leaked),
		slog.Int("shots", s.Shots),
		slog.Float64("damage_dealt", s.DamageDealt),
		slog.Float64("kill_rate", s.KillRate),
		slog.Float64("ttk_mean", s.TTKMean),
		slog.Float64("ttk_p50", s.TTKP50),
		slog.Float64("ttk_p90", s.TTKP90),
		slog.Int("biomass_earned", s.BiomassEarned),
		slog.Int("biomass_spent", s.BiomassSpent),
		slog.Int("energy_earned", s.EnergyEarned),
		slog.Int("energy_spent", s.EnergySpent),
		slog.Int("towers_built", s.TowersBuilt),
		slog.Int("towers_lost", s.TowersLost),
		slog.Int("links_created", s.LinksCreated),
		slog.Int("links_broken", s.LinksBroken),
		slog.Int("biomass", s.Biomass),
		slog.Int("energy", s.Energy),
		slog.Int("lives", s.Lives),
	)
}

// LogStats logs the wave stats.
func (s WaveStats) LogStats(logger *slog.Logger) {
	logger.Info("wave_stats", "stats", s)
}
