package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseMovement)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(PhaseCombat)
		time.Sleep(500 * time.Microsecond)
		if d := pc.EndTick(Load{Enemies: 4, Towers: 2}); d <= 0 {
			t.Fatal("EndTick returned non-positive duration")
		}
	}

	stats := pc.Stats()
	if stats.Ticks != 5 || stats.AvgTickDuration <= 0 {
		t.Errorf("ticks %d avg %v", stats.Ticks, stats.AvgTickDuration)
	}
	if stats.PhaseAvg[PhaseMovement] <= 0 || stats.PhaseAvg[PhaseCombat] <= 0 {
		t.Errorf("phase averages = %v", stats.PhaseAvg)
	}
	if stats.PhaseAvg[PhaseRegen] != 0 {
		t.Errorf("untimed phase has average %v", stats.PhaseAvg[PhaseRegen])
	}
	if stats.Slowest != PhaseCombat {
		t.Errorf("slowest = %v, want combat", stats.Slowest)
	}
	if stats.USPerEntity <= 0 {
		t.Error("expected a positive per-entity cost")
	}
	if pc.Last() <= 0 {
		t.Error("expected Last to report the final tick")
	}
}

func TestPerfCollector_Load(t *testing.T) {
	pc := NewPerfCollector(4)
	for _, enemies := range []int{0, 2, 6, 4} {
		pc.StartTick()
		pc.EndTick(Load{Enemies: enemies, Towers: 3, Links: 1})
	}

	stats := pc.Stats()
	if stats.AvgEnemies != 3 || stats.PeakEnemies != 6 {
		t.Errorf("enemies avg %v peak %d, want 3/6", stats.AvgEnemies, stats.PeakEnemies)
	}
	if stats.AvgTowers != 3 || stats.AvgLinks != 1 {
		t.Errorf("towers %v links %v, want 3/1", stats.AvgTowers, stats.AvgLinks)
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5)

	for i := 0; i < 4; i++ {
		pc.StartTick()
		pc.EndTick(Load{})
	}
	if pc.WindowFull() {
		t.Fatal("window full after 4 of 5 samples")
	}
	for i := 0; i < 6; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseWaves)
		time.Sleep(10 * time.Microsecond)
		pc.EndTick(Load{Enemies: 1})
	}
	if !pc.WindowFull() {
		t.Fatal("window should be full")
	}
	stats := pc.Stats()
	if stats.Ticks != 5 || stats.TicksPerSecond <= 0 {
		t.Errorf("ticks %d tps %v", stats.Ticks, stats.TicksPerSecond)
	}
	if stats.AvgEnemies != 1 {
		t.Errorf("avg enemies = %v, want 1 once the oldest ticks are overwritten", stats.AvgEnemies)
	}

	pc.Reset()
	if pc.WindowFull() || pc.Stats().AvgTickDuration != 0 {
		t.Error("Reset did not clear samples")
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	stats := NewPerfCollector(10).Stats()
	if stats.Ticks != 0 || stats.AvgTickDuration != 0 || stats.USPerEntity != 0 {
		t.Errorf("empty stats = %+v", stats)
	}
}

func TestPerfStatsToCSV(t *testing.T) {
	s := PerfStats{
		AvgTickDuration: 50 * time.Microsecond,
		Slowest:         PhaseCombat,
		PeakEnemies:     7,
	}
	s.PhasePct[PhaseCombat] = 40
	s.PhasePct[PhaseEvents] = 5

	rec := s.ToCSV(600)
	if rec.WindowEnd != 600 || rec.AvgTickUS != 50 || rec.CombatPct != 40 || rec.EventsPct != 5 || rec.RegenPct != 0 {
		t.Errorf("ToCSV = %+v", rec)
	}
	if rec.Slowest != "combat" || rec.PeakEnemies != 7 {
		t.Errorf("ToCSV load columns = %+v", rec)
	}
}

func TestPhaseString(t *testing.T) {
	if PhaseSymbiosis.String() != "symbiosis" || Phase(99).String() != "unknown" {
		t.Errorf("phase names: %q %q", PhaseSymbiosis.String(), Phase(99).String())
	}
}
