package game

import (
	"context"
	"fmt"
	"math"

	"github.com/pthm-cable/symbiosis/components"
)

// ScenarioResult summarizes a headless run.
type ScenarioResult struct {
	Ticks          int32
	WavesCompleted int
	Lives          int
	Leaks          int
	BaseDestroyed  bool
	Biomass        int
	Energy         int
	TowersAlive    int
	LinksActive    int
}

// SetupScenario places the scripted builds and links.
func (g *Game) SetupScenario() error {
	sc := g.cfg.Scenario
	ids := make([]uint32, len(sc.Builds))
	for i, b := range sc.Builds {
		info, err := g.BuildTower(components.Position{X: b.X, Y: b.Y}, b.Type)
		if err != nil {
			return fmt.Errorf("scenario build %d: %w", i, err)
		}
		ids[i] = info.ID
	}
	for i, l := range sc.Links {
		if l.Source < 0 || l.Source >= len(ids) || l.Target < 0 || l.Target >= len(ids) {
			return fmt.Errorf("scenario link %d: build index out of range", i)
		}
		lt, ok := components.ParseLinkType(l.Type)
		if !ok {
			return fmt.Errorf("scenario link %d: unknown link type %q", i, l.Type)
		}
		if _, err := g.CreateSymbiosisLink(ids[l.Source], ids[l.Target], lt); err != nil {
			return fmt.Errorf("scenario link %d: %w", i, err)
		}
	}
	g.logger.Info("scenario ready", "towers", len(ids), "links", len(sc.Links), "waves", sc.Waves)
	return nil
}

// RunScenario sets up the scripted scenario and steps until every scripted
// wave completes, the base falls, maxTicks is reached (0 = no limit) or ctx
// is cancelled. Waves start after wave_gap seconds of idle time.
func (g *Game) RunScenario(ctx context.Context, maxTicks int) (ScenarioResult, error) {
	if err := g.SetupScenario(); err != nil {
		return g.result(), err
	}

	sc := g.cfg.Scenario
	gapTicks := int(math.Ceil(sc.WaveGap / g.cfg.Derived.DT))
	idle := 0

	for {
		if err := ctx.Err(); err != nil {
			return g.result(), err
		}
		if maxTicks > 0 && int(g.tick) >= maxTicks {
			g.logger.Info("max ticks reached", "tick", g.tick)
			break
		}
		if !g.Active() {
			break
		}

		st := g.waves.Status()
		if !st.InProgress() {
			if st.LastCompleted >= sc.Waves {
				break
			}
			if idle >= gapTicks {
				if _, err := g.StartNextWave(); err != nil {
					return g.result(), err
				}
				idle = 0
			} else {
				idle++
			}
		}

		g.Step()
	}

	res := g.result()
	g.logger.Info("scenario finished",
		"ticks", res.Ticks,
		"waves", res.WavesCompleted,
		"lives", res.Lives,
		"base_destroyed", res.BaseDestroyed,
	)
	return res, nil
}

func (g *Game) result() ScenarioResult {
	return ScenarioResult{
		Ticks:          g.tick,
		WavesCompleted: g.waves.Status().LastCompleted,
		Lives:          g.base.Lives(),
		Leaks:          g.base.Leaks(),
		BaseDestroyed:  g.base.Destroyed(),
		Biomass:        g.ledger.Biomass(),
		Energy:         g.ledger.Energy(),
		TowersAlive:    g.registry.LiveTowerCount(),
		LinksActive:    g.registry.LinkCount(),
	}
}
