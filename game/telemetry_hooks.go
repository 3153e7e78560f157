package game

import (
	"github.com/pthm-cable/symbiosis/events"
	"github.com/pthm-cable/symbiosis/telemetry"
)

// onEvent feeds the collector, lifetime tracker and metrics.
func (g *Game) onEvent(e events.Event) {
	switch e.Type {
	case events.WaveStarted:
		g.collector.Begin(e.Value, e.Tick)
		g.metrics.SetWave(e.Value)
	case events.WaveCompleted:
		g.flushTelemetry(e.Tick)
	case events.EnemySpawned:
		g.collector.RecordSpawn()
	case events.EnemyKilled:
		g.collector.RecordKill(e.Amount)
		g.lifetimeTracker.RecordKill(e.TargetID)
		g.metrics.EnemyKilled(e.Kind)
	case events.EnemyLeaked:
		g.collector.RecordLeak()
		g.metrics.EnemyLeaked(e.Kind)
	case events.BiomassChanged:
		g.collector.RecordBiomass(int(e.Amount))
	case events.EnergyChanged:
		g.collector.RecordEnergy(int(e.Amount))
	case events.TowerBuilt:
		g.collector.RecordTowerBuilt()
		g.lifetimeTracker.Register(e.EntityID, e.Kind, e.Tick)
		g.metrics.TowerBuilt(e.Kind)
	case events.TowerUpgraded:
		g.lifetimeTracker.RecordUpgrade(e.EntityID, e.Value)
	case events.TowerDestroyed:
		g.collector.RecordTowerLost()
		if rec := g.lifetimeTracker.Remove(e.EntityID, e.Tick); rec != nil {
			if err := g.outputManager.WriteTower(*rec); err != nil {
				g.logger.Error("failed to write tower record", "error", err)
			}
		}
	case events.LinkCreated:
		g.collector.RecordLinkCreated()
		g.lifetimeTracker.RecordLink(e.SourceID)
	case events.LinkBroken:
		g.collector.RecordLinkBroken()
	case events.BaseDestroyed:
		g.logger.Warn("game over", "tick", e.Tick, "leaks", e.Value)
	}
}

// recordShot is the combat shot callback.
func (g *Game) recordShot(towerID, _ uint32, damage float64, _ bool) {
	g.collector.RecordShot(damage)
	g.lifetimeTracker.RecordShot(towerID, damage)
}

// flushTelemetry closes the current wave window and handles bookmarks.
func (g *Game) flushTelemetry(tick int32) {
	stats := g.collector.Flush(tick, telemetry.Snapshot{
		Biomass:     g.ledger.Biomass(),
		Energy:      g.ledger.Energy(),
		Lives:       g.base.Lives(),
		LiveTowers:  g.registry.LiveTowerCount(),
		ActiveLinks: g.registry.LinkCount(),
	})
	g.waveHistory = append(g.waveHistory, stats)

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	if g.logStats {
		stats.LogStats(g.logger)
	}

	if err := g.outputManager.WriteWave(stats); err != nil {
		g.logger.Error("failed to write wave stats", "error", err)
	}

	for _, bm := range g.bookmarkDetector.Check(stats) {
		if g.logStats {
			bm.LogBookmark(g.logger)
		}
		if err := g.outputManager.WriteBookmark(bm); err != nil {
			g.logger.Error("failed to write bookmark", "error", err)
		}
	}
}

// flushPerf writes and resets the tick timings once a full window is recorded.
func (g *Game) flushPerf() {
	if !g.perfCollector.WindowFull() {
		return
	}
	stats := g.perfCollector.Stats()
	if g.logStats {
		stats.LogStats(g.logger)
	}
	if err := g.outputManager.WritePerf(stats, g.tick); err != nil {
		g.logger.Error("failed to write perf", "error", err)
	}
	g.perfCollector.Reset()
}
