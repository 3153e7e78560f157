package systems

import (
	"cmp"
	"slices"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/symbiosis/components"
)

// ShotFunc observes every shot fired. killed is true on the killing blow.
type ShotFunc func(towerID, enemyID uint32, damage float64, killed bool)

// CombatResult summarizes one combat tick.
type CombatResult struct {
	Shots  int
	Kills  int
	Damage float64
}

// towerBehavior is the per-kind combat step.
type towerBehavior func(c *Combat, t *combatTower, dt float64, res *CombatResult)

var towerBehaviors = map[components.TowerKind]towerBehavior{
	components.KindRoot:   nil, // support only
	components.KindCombat: (*Combat).fire,
}

type combatTower struct {
	entity ecs.Entity
	id     uint32
	typeID uint8
	kind   components.TowerKind
	pos    components.Position
}

type combatEnemy struct {
	id    uint32
	pos   components.Position
	armor float64
	alive bool
}

// Combat resolves tower fire against enemies.
type Combat struct {
	reg    *Registry
	onShot ShotFunc

	towers  []combatTower
	enemies []combatEnemy
}

// NewCombat creates the combat resolver.
func NewCombat(reg *Registry) *Combat {
	return &Combat{reg: reg}
}

// OnShot sets an observer for fired shots.
func (c *Combat) OnShot(fn ShotFunc) {
	c.onShot = fn
}

// Update runs one combat tick. Towers act in id order; an enemy killed by an
// earlier tower is invisible to later ones.
func (c *Combat) Update(dt float64) CombatResult {
	var res CombatResult
	c.collect()

	for i := range c.towers {
		t := &c.towers[i]
		behave := towerBehaviors[t.kind]
		if behave == nil {
			continue
		}
		behave(c, t, dt, &res)
	}
	return res
}

// collect snapshots towers and live enemies so damage and removal can happen
// after the queries have closed.
func (c *Combat) collect() {
	c.towers = c.towers[:0]
	tq := c.reg.towerFilter.Query()
	for tq.Next() {
		pos, health, tower, _ := tq.Get()
		if !health.Alive {
			continue
		}
		c.towers = append(c.towers, combatTower{
			entity: tq.Entity(),
			id:     tower.ID,
			typeID: tower.TypeID,
			kind:   tower.Kind,
			pos:    *pos,
		})
	}
	slices.SortFunc(c.towers, func(a, b combatTower) int { return cmp.Compare(a.id, b.id) })

	c.enemies = c.enemies[:0]
	eq := c.reg.enemyFilter.Query()
	for eq.Next() {
		pos, health, enemy := eq.Get()
		if !health.Alive {
			continue
		}
		c.enemies = append(c.enemies, combatEnemy{id: enemy.ID, pos: *pos, armor: enemy.Armor, alive: true})
	}
	slices.SortFunc(c.enemies, func(a, b combatEnemy) int { return cmp.Compare(a.id, b.id) })
}

// fire is the combat-kind behaviour: cool down, then shoot the nearest target.
func (c *Combat) fire(t *combatTower, dt float64, res *CombatResult) {
	if !c.reg.world.Alive(t.entity) {
		return
	}
	tower := c.reg.towerMap.Get(t.entity)
	tower.Cooldown -= dt
	if tower.Cooldown > 0 {
		return
	}

	tc := c.reg.cfg.Towers[t.typeID]
	target := c.nearest(t.pos, tc.Range)
	if target < 0 {
		// Stay ready so the tower fires as soon as something enters range
		tower.Cooldown = 0
		return
	}

	mods := c.reg.modMap.Get(t.entity)
	tower.Cooldown = 1 / (tc.FireRate * mods.FireRateMultiplier())
	e := &c.enemies[target]
	dmg := max(tc.Damage*mods.DamageMultiplier()-e.armor, 0)

	killed := c.reg.DamageEnemy(e.id, dmg)
	res.Shots++
	res.Damage += dmg
	if c.onShot != nil {
		c.onShot(t.id, e.id, dmg, killed)
	}
	if killed {
		e.alive = false
		res.Kills++
		c.reg.removeEnemy(e.id, Killed, t.id)
	}
}

// nearest returns the index of the closest live enemy within rng, ties going
// to the lowest id, or -1.
func (c *Combat) nearest(from components.Position, rng float64) int {
	best := -1
	bestDist := rng * rng
	for i := range c.enemies {
		e := &c.enemies[i]
		if !e.alive {
			continue
		}
		d := components.DistanceSq(from, e.pos)
		if d > rng*rng {
			continue
		}
		// Enemies are id-sorted, so strict < keeps the lowest id on ties
		if best < 0 || d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}
