package telemetry

// TowerRecord is the lifetime summary of one tower.
type TowerRecord struct {
	ID              uint32  `csv:"id"`
	Type            string  `csv:"type"`
	BuiltTick       int32   `csv:"built_tick"`
	DestroyedTick   int32   `csv:"destroyed_tick"` // -1 while alive
	Level           int     `csv:"level"`
	Shots           int     `csv:"shots"`
	DamageDealt     float64 `csv:"damage_dealt"`
	Kills           int     `csv:"kills"`
	LinksCreated    int     `csv:"links_created"`
	SurvivalTimeSec float64 `csv:"survival_time"`
}

// LifetimeTracker manages per-tower lifetime statistics.
type LifetimeTracker struct {
	dt    float64
	stats map[uint32]*TowerRecord
}

// NewLifetimeTracker creates a new lifetime tracker.
// dt: seconds per tick
func NewLifetimeTracker(dt float64) *LifetimeTracker {
	return &LifetimeTracker{
		dt:    dt,
		stats: make(map[uint32]*TowerRecord),
	}
}

// Register starts tracking a newly built tower.
func (lt *LifetimeTracker) Register(towerID uint32, typeName string, builtTick int32) {
	lt.stats[towerID] = &TowerRecord{
		ID:            towerID,
		Type:          typeName,
		BuiltTick:     builtTick,
		DestroyedTick: -1,
		Level:         1,
	}
}

// Get returns the lifetime stats for a tower, or nil if not found.
func (lt *LifetimeTracker) Get(towerID uint32) *TowerRecord {
	return lt.stats[towerID]
}

// Remove stops tracking a tower and returns its finished record.
func (lt *LifetimeTracker) Remove(towerID uint32, tick int32) *TowerRecord {
	rec := lt.stats[towerID]
	if rec == nil {
		return nil
	}
	delete(lt.stats, towerID)
	rec.DestroyedTick = tick
	rec.SurvivalTimeSec = float64(tick-rec.BuiltTick) * lt.dt
	return rec
}

// RecordShot adds a shot and its damage.
func (lt *LifetimeTracker) RecordShot(towerID uint32, damage float64) {
	if s := lt.stats[towerID]; s != nil {
		s.Shots++
		s.DamageDealt += damage
	}
}

// RecordKill increments kill count.
func (lt *LifetimeTracker) RecordKill(towerID uint32) {
	if s := lt.stats[towerID]; s != nil {
		s.Kills++
	}
}

// RecordUpgrade stores the tower's new level.
func (lt *LifetimeTracker) RecordUpgrade(towerID uint32, level int) {
	if s := lt.stats[towerID]; s != nil {
		s.Level = level
	}
}

// RecordLink increments the links created with this tower as source.
func (lt *LifetimeTracker) RecordLink(towerID uint32) {
	if s := lt.stats[towerID]; s != nil {
		s.LinksCreated++
	}
}

// Count returns the number of tracked towers.
func (lt *LifetimeTracker) Count() int {
	return len(lt.stats)
}
