package telemetry

// Snapshot is the world state sampled when a wave ends.
type Snapshot struct {
	Biomass     int
	Energy      int
	Lives       int
	LiveTowers  int
	ActiveLinks int
}

// Collector accumulates events within a wave and produces WaveStats.
type Collector struct {
	dt float64

	wave      int
	startTick int32
	open      bool

	// Event counters for the current wave
	spawned       int
	killed        int
	leaked        int
	shots         int
	damageDealt   float64
	biomassEarned int
	biomassSpent  int
	energyEarned  int
	energySpent   int
	towersBuilt   int
	towersLost    int
	linksCreated  int
	linksBroken   int
	killTimes     []float64
}

// NewCollector creates a new stats collector.
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(dt float64) *Collector {
	return &Collector{dt: dt}
}

// Begin starts a new wave window. Counters recorded between waves (builds
// placed before the wave started, for instance) carry into it.
func (c *Collector) Begin(wave int, tick int32) {
	c.wave = wave
	c.startTick = tick
	c.open = true
}

// Open reports whether a wave window is in progress.
func (c *Collector) Open() bool {
	return c.open
}

// Wave returns the wave being collected.
func (c *Collector) Wave() int {
	return c.wave
}

// RecordSpawn records an enemy spawn.
func (c *Collector) RecordSpawn() {
	c.spawned++
}

// RecordKill records a kill and the enemy's time alive.
func (c *Collector) RecordKill(ageSec float64) {
	c.killed++
	c.killTimes = append(c.killTimes, ageSec)
}

// RecordLeak records an enemy reaching the base.
func (c *Collector) RecordLeak() {
	c.leaked++
}

// RecordShot records a tower shot.
func (c *Collector) RecordShot(damage float64) {
	c.shots++
	c.damageDealt += damage
}

// RecordBiomass records a signed biomass change.
func (c *Collector) RecordBiomass(delta int) {
	if delta > 0 {
		c.biomassEarned += delta
	} else {
		c.biomassSpent -= delta
	}
}

// RecordEnergy records a signed energy change.
func (c *Collector) RecordEnergy(delta int) {
	if delta > 0 {
		c.energyEarned += delta
	} else {
		c.energySpent -= delta
	}
}

// RecordTowerBuilt records a tower placement.
func (c *Collector) RecordTowerBuilt() {
	c.towersBuilt++
}

// RecordTowerLost records a tower destruction.
func (c *Collector) RecordTowerLost() {
	c.towersLost++
}

// RecordLinkCreated records a new symbiosis link.
func (c *Collector) RecordLinkCreated() {
	c.linksCreated++
}

// RecordLinkBroken records a link teardown.
func (c *Collector) RecordLinkBroken() {
	c.linksBroken++
}

// Flush produces WaveStats for the current wave and resets counters.
func (c *Collector) Flush(currentTick int32, snap Snapshot) WaveStats {
	var killRate float64
	if c.spawned > 0 {
		killRate = float64(c.killed) / float64(c.spawned)
	}
	ttkMean, ttkP50, ttkP90 := ComputeTTKStats(c.killTimes)

	stats := WaveStats{
		Wave:        c.wave,
		StartTick:   c.startTick,
		EndTick:     currentTick,
		SimTimeSec:  float64(currentTick) * c.dt,
		DurationSec: float64(currentTick-c.startTick) * c.dt,

		Spawned: c.spawned,
		Killed:  c.killed,
		Leaked:  c.leaked,

		Shots:       c.shots,
		DamageDealt: c.damageDealt,
		KillRate:    killRate,

		TTKMean: ttkMean,
		TTKP50:  ttkP50,
		TTKP90:  ttkP90,

		BiomassEarned: c.biomassEarned,
		BiomassSpent:  c.biomassSpent,
		EnergyEarned:  c.energyEarned,
		EnergySpent:   c.energySpent,

		TowersBuilt:  c.towersBuilt,
		TowersLost:   c.towersLost,
		LinksCreated: c.linksCreated,
		LinksBroken:  c.linksBroken,

		Biomass:     snap.Biomass,
		Energy:      snap.Energy,
		Lives:       snap.Lives,
		LiveTowers:  snap.LiveTowers,
		ActiveLinks: snap.ActiveLinks,
	}

	// Reset for next wave
	c.open = false
	c.startTick = currentTick
	c.spawned = 0
	c.killed = 0
	c.leaked = 0
	c.shots = 0
	c.damageDealt = 0
	c.biomassEarned = 0
	c.biomassSpent = 0
	c.energyEarned = 0
	c.energySpent = 0
	c.towersBuilt = 0
	c.towersLost = 0
	c.linksCreated = 0
	c.linksBroken = 0
	c.killTimes = c.killTimes[:0]

	return stats
}
