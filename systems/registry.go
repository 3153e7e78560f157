package systems

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/symbiosis/components"
	"github.com/pthm-cable/symbiosis/config"
	"github.com/pthm-cable/symbiosis/events"
)

// RemovalReason says why an enemy left the world.
type RemovalReason uint8

const (
	Killed RemovalReason = iota
	Leaked
)

func (r RemovalReason) String() string {
	switch r {
	case Killed:
		return "killed"
	case Leaked:
		return "leaked"
	default:
		return "unknown"
	}
}

// UpgradeHealthBonus is the fraction of base health added per level above 1.
const UpgradeHealthBonus = 0.25

// TowerInfo is a read-only view of a tower.
type TowerInfo struct {
	ID         uint32
	Type       string
	Kind       components.TowerKind
	Level      int
	Position   components.Position
	Health     float64
	MaxHealth  float64
	Alive      bool
	Cooldown   float64
	Links      int
	DamageMult float64
	FireMult   float64
	TakenMult  float64
}

// EnemyInfo is a read-only view of an enemy.
type EnemyInfo struct {
	ID            uint32
	Type          string
	Position      components.Position
	Health        float64
	MaxHealth     float64
	Alive         bool
	Waypoint      int
	Age           float64
	BiomassReward int
	EnergyReward  int
}

// LeakSink receives enemies that walked off the end of the lane.
type LeakSink interface {
	OnLeak(e EnemyInfo)
}

// Registry owns the ECS world and every tower, enemy and link in it.
// Relations are kept as ids and resolved through the lookup maps.
type Registry struct {
	cfg    *config.Config
	world  *ecs.World
	grid   *Grid
	ledger *Ledger
	bus    events.Emitter
	logger *slog.Logger

	towerMapper *ecs.Map4[components.Position, components.Health, components.Tower, components.Modifiers]
	enemyMapper *ecs.Map3[components.Position, components.Health, components.Enemy]
	towerFilter *ecs.Filter4[components.Position, components.Health, components.Tower, components.Modifiers]
	enemyFilter *ecs.Filter3[components.Position, components.Health, components.Enemy]

	posMap    *ecs.Map1[components.Position]
	healthMap *ecs.Map1[components.Health]
	towerMap  *ecs.Map1[components.Tower]
	modMap    *ecs.Map1[components.Modifiers]
	enemyMap  *ecs.Map1[components.Enemy]

	towers  map[uint32]ecs.Entity
	enemies map[uint32]ecs.Entity
	links   map[uint32]*Link
	retired map[uint32]struct{} // destroyed tower ids

	nextID     uint32 // shared by towers and enemies
	nextLinkID uint32

	leakSink       LeakSink
	destroyHooks   []func(towerID uint32)
	enemiesSpawned int
	towersBuilt    int
}

// NewRegistry creates an empty registry bound to the given grid and ledger.
func NewRegistry(cfg *config.Config, grid *Grid, ledger *Ledger, bus events.Emitter, logger *slog.Logger) *Registry {
	if bus == nil {
		bus = events.Discard
	}
	world := ecs.NewWorld()
	return &Registry{
		cfg:    cfg,
		world:  world,
		grid:   grid,
		ledger: ledger,
		bus:    bus,
		logger: orDiscard(logger),

		towerMapper: ecs.NewMap4[components.Position, components.Health, components.Tower, components.Modifiers](world),
		enemyMapper: ecs.NewMap3[components.Position, components.Health, components.Enemy](world),
		towerFilter: ecs.NewFilter4[components.Position, components.Health, components.Tower, components.Modifiers](world),
		enemyFilter: ecs.NewFilter3[components.Position, components.Health, components.Enemy](world),

		posMap:    ecs.NewMap1[components.Position](world),
		healthMap: ecs.NewMap1[components.Health](world),
		towerMap:  ecs.NewMap1[components.Tower](world),
		modMap:    ecs.NewMap1[components.Modifiers](world),
		enemyMap:  ecs.NewMap1[components.Enemy](world),

		towers:  make(map[uint32]ecs.Entity),
		enemies: make(map[uint32]ecs.Entity),
		links:   make(map[uint32]*Link),
		retired: make(map[uint32]struct{}),
	}
}

// SetLeakSink sets the receiver of leaked enemies.
func (r *Registry) SetLeakSink(s LeakSink) {
	r.leakSink = s
}

// OnTowerDestroyed registers a hook run while a tower is being torn down.
// The tower is already unreachable through lookups but its entity still exists.
func (r *Registry) OnTowerDestroyed(fn func(towerID uint32)) {
	r.destroyHooks = append(r.destroyHooks, fn)
}

func (r *Registry) allocID() uint32 {
	r.nextID++
	return r.nextID
}

// BuildTower validates and places a tower. All checks run before any mutation.
func (r *Registry) BuildTower(pos components.Position, typeName string) (TowerInfo, error) {
	idx, ok := r.cfg.Derived.TowerIndex[typeName]
	if !ok {
		return TowerInfo{}, fmt.Errorf("tower %q: %w", typeName, ErrUnknownType)
	}
	if !r.grid.IsValidPosition(pos) {
		return TowerInfo{}, fmt.Errorf("build at (%.2f, %.2f): %w", pos.X, pos.Y, ErrInvalidPosition)
	}
	if !r.grid.IsBuildable(pos) {
		return TowerInfo{}, fmt.Errorf("build at (%.2f, %.2f): %w", pos.X, pos.Y, ErrOccupied)
	}
	tc := r.cfg.Towers[idx]
	if !r.ledger.CanAfford(tc.BuildCost) {
		return TowerInfo{}, fmt.Errorf("build %s costs %d, have %d: %w",
			typeName, tc.BuildCost, r.ledger.Biomass(), ErrInsufficientBiomass)
	}

	snapped := r.grid.SnapToGrid(pos)
	id := r.allocID()
	health := components.Health{Current: tc.Health, Max: tc.Health, Alive: true}
	tower := components.Tower{
		ID:     id,
		TypeID: idx,
		Kind:   r.cfg.Derived.Towers[idx].Kind,
		Level:  1,
	}
	mods := components.Modifiers{}
	entity := r.towerMapper.NewEntity(&snapped, &health, &tower, &mods)
	r.towers[id] = entity
	r.grid.Occupy(snapped, id)
	r.ledger.SpendBiomass(tc.BuildCost)
	r.towersBuilt++

	r.bus.Emit(events.Event{
		Type:     events.TowerBuilt,
		EntityID: id,
		Kind:     tc.Name,
		X:        snapped.X,
		Y:        snapped.Y,
	})
	r.logger.Debug("tower built", "id", id, "type", tc.Name, "x", snapped.X, "y", snapped.Y)
	return r.towerInfo(entity), nil
}

// UpgradeTower raises a tower's level by one. Upgrading a destroyed tower
// is a no-op; ids that never named a tower are rejected.
func (r *Registry) UpgradeTower(id uint32) error {
	entity, ok := r.liveTower(id)
	if !ok {
		if _, gone := r.retired[id]; gone {
			return nil
		}
		return fmt.Errorf("upgrade tower %d: %w", id, ErrInvalidTower)
	}
	_, health, tower, _ := r.towerMapper.Get(entity)
	tc := r.cfg.Towers[tower.TypeID]
	if tower.Level >= tc.MaxLevel {
		return fmt.Errorf("upgrade tower %d: %w", id, ErrMaxLevel)
	}
	if !r.ledger.CanAfford(tc.UpgradeCost) {
		return fmt.Errorf("upgrade tower %d costs %d, have %d: %w",
			id, tc.UpgradeCost, r.ledger.Biomass(), ErrInsufficientBiomass)
	}

	tower.Level++
	bonus := tc.Health * UpgradeHealthBonus
	health.Max += bonus
	health.Current += bonus
	level := tower.Level
	r.ledger.SpendBiomass(tc.UpgradeCost)

	r.bus.Emit(events.Event{Type: events.TowerUpgraded, EntityID: id, Kind: tc.Name, Value: level})
	r.logger.Debug("tower upgraded", "id", id, "level", level)
	return nil
}

// DestroyTower tears a tower down: frees its cell, runs destroy hooks so links
// are cancelled, then removes the entity. Returns false if there was nothing to destroy.
func (r *Registry) DestroyTower(id uint32) bool {
	entity, ok := r.liveTower(id)
	if !ok {
		return false
	}
	r.destroyTower(entity, id)
	return true
}

func (r *Registry) destroyTower(entity ecs.Entity, id uint32) {
	pos, health, tower, _ := r.towerMapper.Get(entity)
	health.Alive = false
	snapped := *pos
	typeName := r.cfg.Towers[tower.TypeID].Name
	r.grid.Free(snapped)
	delete(r.towers, id)
	r.retired[id] = struct{}{}

	for _, hook := range r.destroyHooks {
		hook(id)
	}
	r.world.RemoveEntity(entity)

	r.bus.Emit(events.Event{
		Type:     events.TowerDestroyed,
		EntityID: id,
		Kind:     typeName,
		X:        snapped.X,
		Y:        snapped.Y,
	})
	r.logger.Debug("tower destroyed", "id", id, "type", typeName)
}

// DamageTower applies damage to a tower: armor first, then symbiosis
// protection. A tower reduced to zero health is destroyed.
func (r *Registry) DamageTower(id uint32, dmg float64) (destroyed bool) {
	entity, ok := r.liveTower(id)
	if !ok {
		return false
	}
	_, health, tower, mods := r.towerMapper.Get(entity)
	tc := r.cfg.Towers[tower.TypeID]
	d := max(dmg-tc.Armor, 0) * mods.DamageTakenFactor()
	if health.ApplyDamage(d) {
		r.destroyTower(entity, id)
		return true
	}
	return false
}

// SpawnEnemy creates an enemy of the named type at pos.
func (r *Registry) SpawnEnemy(typeName string, pos components.Position) (EnemyInfo, error) {
	idx, ok := r.cfg.Derived.EnemyIndex[typeName]
	if !ok {
		return EnemyInfo{}, fmt.Errorf("enemy %q: %w", typeName, ErrUnknownType)
	}
	ec := r.cfg.Enemies[idx]
	id := r.allocID()
	health := components.Health{Current: ec.Health, Max: ec.Health, Alive: true}
	enemy := components.Enemy{
		ID:            id,
		TypeID:        idx,
		Speed:         ec.Speed,
		Armor:         ec.Armor,
		BiomassReward: ec.BiomassReward,
		EnergyReward:  ec.EnergyReward,
	}
	p := pos
	entity := r.enemyMapper.NewEntity(&p, &health, &enemy)
	r.enemies[id] = entity
	r.enemiesSpawned++
	return r.enemyInfo(entity), nil
}

// DamageEnemy applies damage to an enemy. Returns true on the killing blow.
// Damage to a dead or unknown enemy is ignored. The caller removes killed enemies.
func (r *Registry) DamageEnemy(id uint32, dmg float64) (killed bool) {
	entity, ok := r.enemies[id]
	if !ok || !r.world.Alive(entity) {
		return false
	}
	return r.healthMap.Get(entity).ApplyDamage(dmg)
}

// RemoveEnemy takes an enemy out of the world. Killed enemies pay their
// rewards; leaked enemies go to the leak sink. Unknown ids are ignored.
func (r *Registry) RemoveEnemy(id uint32, reason RemovalReason) bool {
	return r.removeEnemy(id, reason, 0)
}

func (r *Registry) removeEnemy(id uint32, reason RemovalReason, killer uint32) bool {
	entity, ok := r.enemies[id]
	if !ok {
		return false
	}
	info := r.enemyInfo(entity)
	delete(r.enemies, id)
	r.world.RemoveEntity(entity)

	switch reason {
	case Killed:
		r.ledger.AddBiomass(info.BiomassReward)
		r.ledger.AddEnergy(info.EnergyReward)
		r.bus.Emit(events.Event{
			Type:     events.EnemyKilled,
			EntityID: id,
			TargetID: killer,
			Kind:     info.Type,
			Value:    info.BiomassReward,
			Amount:   info.Age,
			X:        info.Position.X,
			Y:        info.Position.Y,
		})
	case Leaked:
		if r.leakSink != nil {
			r.leakSink.OnLeak(info)
		}
		r.bus.Emit(events.Event{
			Type:     events.EnemyLeaked,
			EntityID: id,
			Kind:     info.Type,
			Amount:   info.Age,
		})
	}
	return true
}

func (r *Registry) liveTower(id uint32) (ecs.Entity, bool) {
	entity, ok := r.towers[id]
	if !ok || !r.world.Alive(entity) {
		return ecs.Entity{}, false
	}
	return entity, true
}

// Tower looks up a live tower.
func (r *Registry) Tower(id uint32) (TowerInfo, bool) {
	entity, ok := r.liveTower(id)
	if !ok {
		return TowerInfo{}, false
	}
	return r.towerInfo(entity), true
}

// Enemy looks up a live enemy.
func (r *Registry) Enemy(id uint32) (EnemyInfo, bool) {
	entity, ok := r.enemies[id]
	if !ok || !r.world.Alive(entity) {
		return EnemyInfo{}, false
	}
	return r.enemyInfo(entity), true
}

// LiveTowerCount returns the number of towers in the world.
func (r *Registry) LiveTowerCount() int {
	return len(r.towers)
}

// LiveEnemyCount returns the number of enemies in the world.
func (r *Registry) LiveEnemyCount() int {
	return len(r.enemies)
}

// TowersBuilt returns the lifetime number of towers built.
func (r *Registry) TowersBuilt() int { return r.towersBuilt }

// EnemiesSpawned returns the lifetime number of enemies spawned.
func (r *Registry) EnemiesSpawned() int { return r.enemiesSpawned }

// Towers returns all live towers ordered by id.
func (r *Registry) Towers() []TowerInfo {
	out := make([]TowerInfo, 0, len(r.towers))
	query := r.towerFilter.Query()
	for query.Next() {
		out = append(out, r.towerInfo(query.Entity()))
	}
	slices.SortFunc(out, func(a, b TowerInfo) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// Enemies returns all live enemies ordered by id.
func (r *Registry) Enemies() []EnemyInfo {
	out := make([]EnemyInfo, 0, len(r.enemies))
	query := r.enemyFilter.Query()
	for query.Next() {
		out = append(out, r.enemyInfo(query.Entity()))
	}
	slices.SortFunc(out, func(a, b EnemyInfo) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (r *Registry) towerInfo(entity ecs.Entity) TowerInfo {
	pos, health, tower, mods := r.towerMapper.Get(entity)
	return TowerInfo{
		ID:         tower.ID,
		Type:       r.cfg.Towers[tower.TypeID].Name,
		Kind:       tower.Kind,
		Level:      tower.Level,
		Position:   *pos,
		Health:     health.Current,
		MaxHealth:  health.Max,
		Alive:      health.Alive,
		Cooldown:   tower.Cooldown,
		Links:      mods.Count(),
		DamageMult: mods.DamageMultiplier(),
		FireMult:   mods.FireRateMultiplier(),
		TakenMult:  mods.DamageTakenFactor(),
	}
}

func (r *Registry) enemyInfo(entity ecs.Entity) EnemyInfo {
	pos, health, enemy := r.enemyMapper.Get(entity)
	return EnemyInfo{
		ID:            enemy.ID,
		Type:          r.cfg.Enemies[enemy.TypeID].Name,
		Position:      *pos,
		Health:        health.Current,
		MaxHealth:     health.Max,
		Alive:         health.Alive,
		Waypoint:      enemy.Waypoint,
		Age:           enemy.Age,
		BiomassReward: enemy.BiomassReward,
		EnergyReward:  enemy.EnergyReward,
	}
}

// AddLink stores a new link and assigns its id.
func (r *Registry) AddLink(source, target uint32, t components.LinkType, upkeep int) *Link {
	r.nextLinkID++
	l := &Link{
		ID:     r.nextLinkID,
		Source: source,
		Target: target,
		Type:   t,
		Active: true,
		Upkeep: upkeep,
	}
	r.links[l.ID] = l
	return l
}

// RemoveLink deletes a link from the table.
func (r *Registry) RemoveLink(id uint32) (*Link, bool) {
	l, ok := r.links[id]
	if !ok {
		return nil, false
	}
	l.Active = false
	delete(r.links, id)
	return l, true
}

// Link looks up a link by id.
func (r *Registry) Link(id uint32) (*Link, bool) {
	l, ok := r.links[id]
	return l, ok
}

// Links returns all links ordered by id.
func (r *Registry) Links() []*Link {
	out := make([]*Link, 0, len(r.links))
	for _, l := range r.links {
		out = append(out, l)
	}
	slices.SortFunc(out, func(a, b *Link) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// LinksFor returns the links touching a tower, ordered by id.
func (r *Registry) LinksFor(towerID uint32) []*Link {
	var out []*Link
	for _, l := range r.links {
		if l.Source == towerID || l.Target == towerID {
			out = append(out, l)
		}
	}
	slices.SortFunc(out, func(a, b *Link) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// LinkCount returns the number of active links.
func (r *Registry) LinkCount() int {
	return len(r.links)
}
