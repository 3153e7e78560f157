package telemetry

import (
	"log/slog"
	"time"
)

// Phase is one stage of the simulation step.
type Phase uint8

const (
	PhaseRegen Phase = iota
	PhaseWaves
	PhaseMovement
	PhaseCombat
	PhaseSymbiosis
	PhaseEvents
	numPhases
)

var phaseNames = [numPhases]string{"regen", "waves", "movement", "combat", "symbiosis", "events"}

func (p Phase) String() string {
	if p < numPhases {
		return phaseNames[p]
	}
	return "unknown"
}

// Load is the world population at the end of a tick.
type Load struct {
	Enemies int
	Towers  int
	Links   int
}

// Entities is the number of simulated towers and enemies.
func (l Load) Entities() int { return l.Enemies + l.Towers }

type tickSample struct {
	total  time.Duration
	phases [numPhases]time.Duration
	load   Load
}

// PerfCollector times the step phases over a window of ticks.
type PerfCollector struct {
	samples []tickSample
	n       int // samples recorded since Reset

	cur        tickSample
	tickStart  time.Time
	phaseStart time.Time
	phase      Phase
	inPhase    bool
	last       time.Duration
}

// NewPerfCollector creates a collector averaging over windowSize ticks (60 = one second at 60 Hz).
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{samples: make([]tickSample, windowSize)}
}

// StartTick begins timing a new simulation tick.
func (p *PerfCollector) StartTick() {
	p.cur = tickSample{}
	p.inPhase = false
	p.tickStart = time.Now()
}

// StartPhase closes the running phase and starts timing the next one.
func (p *PerfCollector) StartPhase(phase Phase) {
	now := time.Now()
	p.closePhase(now)
	p.phase = phase
	p.phaseStart = now
	p.inPhase = true
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.inPhase && p.phase < numPhases {
		p.cur.phases[p.phase] += now.Sub(p.phaseStart)
	}
	p.inPhase = false
}

// EndTick records the tick with the population it ended on and returns its
// wall-clock duration. Once the window is full, later ticks overwrite the oldest.
func (p *PerfCollector) EndTick(load Load) time.Duration {
	now := time.Now()
	p.closePhase(now)
	p.cur.total = now.Sub(p.tickStart)
	p.cur.load = load

	p.samples[p.n%len(p.samples)] = p.cur
	p.n++
	p.last = p.cur.total
	return p.cur.total
}

// Last returns the duration of the most recent tick.
func (p *PerfCollector) Last() time.Duration {
	return p.last
}

// WindowFull reports whether a full window has been recorded since Reset.
func (p *PerfCollector) WindowFull() bool {
	return p.n >= len(p.samples)
}

// Reset discards recorded samples.
func (p *PerfCollector) Reset() {
	p.n = 0
}

// PerfStats aggregates one window of ticks.
type PerfStats struct {
	Ticks int

	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration
	TicksPerSecond  float64

	PhaseAvg [numPhases]time.Duration
	PhasePct [numPhases]float64 // share of the average tick
	Slowest  Phase

	AvgEnemies  float64
	PeakEnemies int
	AvgTowers   float64
	AvgLinks    float64

	// Average tick cost per live tower or enemy; 0 for an empty world.
	USPerEntity float64
}

// Stats aggregates the current window.
func (p *PerfCollector) Stats() PerfStats {
	count := min(p.n, len(p.samples))
	if count == 0 {
		return PerfStats{}
	}

	var st PerfStats
	st.Ticks = count
	var total time.Duration
	var phaseSum [numPhases]time.Duration
	var enemies, towers, links, entities int

	for i, s := range p.samples[:count] {
		total += s.total
		if i == 0 || s.total < st.MinTickDuration {
			st.MinTickDuration = s.total
		}
		st.MaxTickDuration = max(st.MaxTickDuration, s.total)
		for ph, d := range s.phases {
			phaseSum[ph] += d
		}
		enemies += s.load.Enemies
		towers += s.load.Towers
		links += s.load.Links
		entities += s.load.Entities()
		st.PeakEnemies = max(st.PeakEnemies, s.load.Enemies)
	}

	n := float64(count)
	st.AvgTickDuration = total / time.Duration(count)
	for ph := range phaseSum {
		st.PhaseAvg[ph] = phaseSum[ph] / time.Duration(count)
		if st.AvgTickDuration > 0 {
			st.PhasePct[ph] = float64(st.PhaseAvg[ph]) / float64(st.AvgTickDuration) * 100
		}
		if st.PhaseAvg[ph] > st.PhaseAvg[st.Slowest] {
			st.Slowest = Phase(ph)
		}
	}
	if st.AvgTickDuration > 0 {
		st.TicksPerSecond = float64(time.Second) / float64(st.AvgTickDuration)
	}
	st.AvgEnemies = float64(enemies) / n
	st.AvgTowers = float64(towers) / n
	st.AvgLinks = float64(links) / n
	if entities > 0 {
		st.USPerEntity = float64(total.Microseconds()) / float64(entities)
	}
	return st
}

// LogStats logs the window summary at info level.
func (s PerfStats) LogStats(logger *slog.Logger) {
	logger.Info("perf", "stats", s)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("ticks", s.Ticks),
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
		slog.String("slowest", s.Slowest.String()),
		slog.Float64("avg_enemies", s.AvgEnemies),
		slog.Int("peak_enemies", s.PeakEnemies),
		slog.Float64("us_per_entity", s.USPerEntity),
	}
	for ph, pct := range s.PhasePct {
		if pct > 0.1 {
			attrs = append(attrs, slog.Float64(Phase(ph).String()+"_pct", pct))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is the perf.csv row.
type PerfStatsCSV struct {
	WindowEnd    int32   `csv:"window_end"`
	AvgTickUS    int64   `csv:"avg_tick_us"`
	MinTickUS    int64   `csv:"min_tick_us"`
	MaxTickUS    int64   `csv:"max_tick_us"`
	TicksPerSec  float64 `csv:"ticks_per_sec"`
	Slowest      string  `csv:"slowest_phase"`
	AvgEnemies   float64 `csv:"avg_enemies"`
	PeakEnemies  int     `csv:"peak_enemies"`
	AvgTowers    float64 `csv:"avg_towers"`
	AvgLinks     float64 `csv:"avg_links"`
	USPerEntity  float64 `csv:"us_per_entity"`
	RegenPct     float64 `csv:"regen_pct"`
	WavesPct     float64 `csv:"waves_pct"`
	MovementPct  float64 `csv:"movement_pct"`
	CombatPct    float64 `csv:"combat_pct"`
	SymbiosisPct float64 `csv:"symbiosis_pct"`
	EventsPct    float64 `csv:"events_pct"`
}

// ToCSV flattens the stats for the window ending at windowEnd.
func (s PerfStats) ToCSV(windowEnd int32) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:    windowEnd,
		AvgTickUS:    s.AvgTickDuration.Microseconds(),
		MinTickUS:    s.MinTickDuration.Microseconds(),
		MaxTickUS:    s.MaxTickDuration.Microseconds(),
		TicksPerSec:  s.TicksPerSecond,
		Slowest:      s.Slowest.String(),
		AvgEnemies:   s.AvgEnemies,
		PeakEnemies:  s.PeakEnemies,
		AvgTowers:    s.AvgTowers,
		AvgLinks:     s.AvgLinks,
		USPerEntity:  s.USPerEntity,
		RegenPct:     s.PhasePct[PhaseRegen],
		WavesPct:     s.PhasePct[PhaseWaves],
		MovementPct:  s.PhasePct[PhaseMovement],
		CombatPct:    s.PhasePct[PhaseCombat],
		SymbiosisPct: s.PhasePct[PhaseSymbiosis],
		EventsPct:    s.PhasePct[PhaseEvents],
	}
}
