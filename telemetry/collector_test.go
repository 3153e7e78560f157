package telemetry

import "testing"

func TestCollectorFlush(t *testing.T) {
	c := NewCollector(0.5)
	c.RecordTowerBuilt() // before the wave starts, carried into it
	c.RecordBiomass(-50)
	c.Begin(1, 100)
	if !c.Open() || c.Wave() != 1 {
		t.Fatalf("Open %v Wave %d after Begin", c.Open(), c.Wave())
	}

	for i := 0; i < 4; i++ {
		c.RecordSpawn()
	}
	c.RecordShot(10)
	c.RecordShot(15)
	c.RecordKill(2)
	c.RecordKill(4)
	c.RecordKill(3)
	c.RecordLeak()
	c.RecordBiomass(30)
	c.RecordEnergy(-20)
	c.RecordEnergy(10)
	c.RecordLinkCreated()
	c.RecordLinkBroken()
	c.RecordTowerLost()

	s := c.Flush(160, Snapshot{Biomass: 480, Energy: 990, Lives: 19, LiveTowers: 0, ActiveLinks: 0})

	if s.Wave != 1 || s.StartTick != 100 || s.EndTick != 160 {
		t.Errorf("window = wave %d ticks %d-%d", s.Wave, s.StartTick, s.EndTick)
	}
	if !approxEqual(s.DurationSec, 30, 1e-9) || !approxEqual(s.SimTimeSec, 80, 1e-9) {
		t.Errorf("duration %v sim time %v, want 30/80", s.DurationSec, s.SimTimeSec)
	}
	if s.Spawned != 4 || s.Killed != 3 || s.Leaked != 1 {
		t.Errorf("spawned/killed/leaked = %d/%d/%d", s.Spawned, s.Killed, s.Leaked)
	}
	if !approxEqual(s.KillRate, 0.75, 1e-9) {
		t.Errorf("KillRate = %v, want 0.75", s.KillRate)
	}
	if s.Shots != 2 || s.DamageDealt != 25 {
		t.Errorf("shots %d damage %v", s.Shots, s.DamageDealt)
	}
	if !approxEqual(s.TTKMean, 3, 1e-9) || s.TTKP50 != 3 {
		t.Errorf("ttk mean %v p50 %v", s.TTKMean, s.TTKP50)
	}
	if s.BiomassEarned != 30 || s.BiomassSpent != 50 || s.EnergyEarned != 10 || s.EnergySpent != 20 {
		t.Errorf("economy = %+v", s)
	}
	if s.TowersBuilt != 1 || s.TowersLost != 1 || s.LinksCreated != 1 || s.LinksBroken != 1 {
		t.Errorf("structures = %+v", s)
	}
	if s.Biomass != 480 || s.Lives != 19 {
		t.Errorf("snapshot not copied: %+v", s)
	}

	// Counters reset after flush
	c.Begin(2, 200)
	s = c.Flush(220, Snapshot{})
	if s.Spawned != 0 || s.Killed != 0 || s.Shots != 0 || s.TTKMean != 0 || s.BiomassSpent != 0 {
		t.Errorf("counters not reset: %+v", s)
	}
	if c.Open() {
		t.Error("collector still open after Flush")
	}
}
