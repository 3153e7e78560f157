package systems

import (
	"errors"
	"testing"

	"github.com/pthm-cable/symbiosis/config"
	"github.com/pthm-cable/symbiosis/events"
)

func TestBuildTowerSuccess(t *testing.T) {
	s := newTestSim(t, nil)

	info, err := s.reg.BuildTower(pos(5.2, 4.8), "shield")
	if err != nil {
		t.Fatalf("BuildTower: %v", err)
	}
	if info.Position != pos(5, 5) {
		t.Errorf("position = %v, want snapped (5,5)", info.Position)
	}
	if info.Level != 1 || info.Health != 100 || !info.Alive {
		t.Errorf("unexpected new tower: %+v", info)
	}
	if s.ledger.Biomass() != 450 {
		t.Errorf("biomass = %d, want 450", s.ledger.Biomass())
	}
	if c, _ := s.grid.CellAt(pos(5, 5)); c.Occupant != info.ID {
		t.Errorf("cell occupant = %d, want %d", c.Occupant, info.ID)
	}

	built := ofType(s.bus.Flush(), events.TowerBuilt)
	if len(built) != 1 || built[0].EntityID != info.ID || built[0].Kind != "shield" {
		t.Errorf("TowerBuilt events = %+v", built)
	}
}

func TestBuildTowerRejections(t *testing.T) {
	tests := []struct {
		name    string
		biomass int
		setup   func(s *testSim)
		x, y    float64
		typ     string
		want    error
	}{
		{"unknown type checked first", 500, nil, -5, 0, "laser", ErrUnknownType},
		{"outside grid", 500, nil, -5, 0, "shield", ErrInvalidPosition},
		{"lane cell", 500, nil, 5, 7, "shield", ErrOccupied},
		{"occupied cell", 500, func(s *testSim) {
			s.reg.BuildTower(pos(5, 5), "root")
		}, 5, 5, "shield", ErrOccupied},
		{"not enough biomass", 40, nil, 5, 5, "shield", ErrInsufficientBiomass},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSim(t, func(c *config.Config) { c.Resources.StartingBiomass = tt.biomass })
			if tt.setup != nil {
				tt.setup(s)
			}
			beforeBiomass := s.ledger.Biomass()
			beforeTowers := s.reg.LiveTowerCount()
			beforeCells := s.grid.OccupiedCount()
			s.bus.Flush()

			_, err := s.reg.BuildTower(pos(tt.x, tt.y), tt.typ)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if s.ledger.Biomass() != beforeBiomass || s.reg.LiveTowerCount() != beforeTowers || s.grid.OccupiedCount() != beforeCells {
				t.Error("rejected build must not change state")
			}
			if n := len(s.bus.Flush()); n != 0 {
				t.Errorf("rejected build emitted %d events", n)
			}
		})
	}
}

func TestUpgradeTower(t *testing.T) {
	s := newTestSim(t, nil)
	tw := s.mustBuild(t, 5, 5, "shield")

	if err := s.reg.UpgradeTower(tw.ID); err != nil {
		t.Fatalf("upgrade to 2: %v", err)
	}
	got := s.tower(t, tw.ID)
	if got.Level != 2 || got.MaxHealth != 125 || got.Health != 125 {
		t.Errorf("after upgrade: level %d health %v/%v, want 2 125/125", got.Level, got.Health, got.MaxHealth)
	}
	if s.ledger.Biomass() != 425 {
		t.Errorf("biomass = %d, want 425", s.ledger.Biomass())
	}

	if err := s.reg.UpgradeTower(tw.ID); err != nil {
		t.Fatalf("upgrade to 3: %v", err)
	}
	if err := s.reg.UpgradeTower(tw.ID); !errors.Is(err, ErrMaxLevel) {
		t.Errorf("upgrade past max: err = %v, want ErrMaxLevel", err)
	}
	got = s.tower(t, tw.ID)
	if got.Level != 3 || got.MaxHealth != 150 || s.ledger.Biomass() != 400 {
		t.Errorf("max-level rejection changed state: %+v biomass %d", got, s.ledger.Biomass())
	}

	upgrades := ofType(s.bus.Flush(), events.TowerUpgraded)
	if len(upgrades) != 2 || upgrades[1].Value != 3 {
		t.Errorf("TowerUpgraded events = %+v", upgrades)
	}

	if err := s.reg.UpgradeTower(999); !errors.Is(err, ErrInvalidTower) {
		t.Errorf("unknown tower: err = %v, want ErrInvalidTower", err)
	}
}

func TestUpgradeDestroyedTowerIsNoOp(t *testing.T) {
	s := newTestSim(t, nil)
	tw := s.mustBuild(t, 5, 5, "shield")
	s.reg.DestroyTower(tw.ID)
	s.bus.Flush()
	before := s.ledger.Biomass()

	if err := s.reg.UpgradeTower(tw.ID); err != nil {
		t.Fatalf("upgrade destroyed tower: err = %v, want nil", err)
	}
	if s.ledger.Biomass() != before {
		t.Errorf("biomass = %d, want %d", s.ledger.Biomass(), before)
	}
	if _, ok := s.reg.Tower(tw.ID); ok {
		t.Error("destroyed tower came back")
	}
	if got := ofType(s.bus.Flush(), events.TowerUpgraded); len(got) != 0 {
		t.Errorf("TowerUpgraded events = %+v, want none", got)
	}

	// Enemy ids were never towers.
	e := s.mustSpawn(t, 0, 7, "basic")
	if err := s.reg.UpgradeTower(e.ID); !errors.Is(err, ErrInvalidTower) {
		t.Errorf("enemy id: err = %v, want ErrInvalidTower", err)
	}
}

func TestUpgradeInsufficientBiomass(t *testing.T) {
	s := newTestSim(t, func(c *config.Config) { c.Resources.StartingBiomass = 60 })
	tw := s.mustBuild(t, 5, 5, "shield")

	if err := s.reg.UpgradeTower(tw.ID); !errors.Is(err, ErrInsufficientBiomass) {
		t.Fatalf("err = %v, want ErrInsufficientBiomass", err)
	}
	if got := s.tower(t, tw.ID); got.Level != 1 {
		t.Errorf("level = %d, want 1", got.Level)
	}
}

func TestDestroyTowerIdempotent(t *testing.T) {
	s := newTestSim(t, nil)
	tw := s.mustBuild(t, 5, 5, "shield")
	s.bus.Flush()

	if !s.reg.DestroyTower(tw.ID) {
		t.Fatal("first destroy should succeed")
	}
	if s.reg.DestroyTower(tw.ID) {
		t.Error("second destroy should be a no-op")
	}
	if s.reg.LiveTowerCount() != 0 || s.grid.IsOccupied(pos(5, 5)) {
		t.Error("destroyed tower should free its cell")
	}
	if _, ok := s.reg.Tower(tw.ID); ok {
		t.Error("destroyed tower still resolvable")
	}
	if n := len(ofType(s.bus.Flush(), events.TowerDestroyed)); n != 1 {
		t.Errorf("got %d TowerDestroyed events, want 1", n)
	}

	// The cell is buildable again
	s.mustBuild(t, 5, 5, "root")
}

func TestDamageTower(t *testing.T) {
	s := newTestSim(t, nil)
	tw := s.mustBuild(t, 5, 5, "shield") // armor 2, hp 100

	if s.reg.DamageTower(tw.ID, 12) {
		t.Fatal("12 damage should not destroy")
	}
	if got := s.tower(t, tw.ID).Health; got != 90 {
		t.Errorf("health = %v, want 90", got)
	}

	s.reg.DamageTower(tw.ID, 1) // fully absorbed by armor
	if got := s.tower(t, tw.ID).Health; got != 90 {
		t.Errorf("health = %v, want 90 (armor absorbs)", got)
	}

	if !s.reg.DamageTower(tw.ID, 1000) {
		t.Fatal("lethal damage should destroy")
	}
	if s.reg.LiveTowerCount() != 0 || s.grid.OccupiedCount() != 0 {
		t.Error("tower destroyed by damage should be torn down")
	}
	if s.reg.DamageTower(tw.ID, 10) {
		t.Error("damage to a destroyed tower is a no-op")
	}
}

func TestSpawnDamageAndRemoveEnemy(t *testing.T) {
	s := newTestSim(t, nil)

	if _, err := s.reg.SpawnEnemy("dragon", pos(0, 7)); !errors.Is(err, ErrUnknownType) {
		t.Errorf("unknown enemy: err = %v, want ErrUnknownType", err)
	}

	e := s.mustSpawn(t, 0, 7, "basic")
	if e.Health != 50 || !e.Alive {
		t.Errorf("unexpected enemy: %+v", e)
	}
	if s.reg.LiveEnemyCount() != 1 {
		t.Fatalf("LiveEnemyCount = %d, want 1", s.reg.LiveEnemyCount())
	}

	if s.reg.DamageEnemy(e.ID, 30) {
		t.Error("30 damage should not kill")
	}
	if !s.reg.DamageEnemy(e.ID, 20) {
		t.Error("20 more damage should kill")
	}
	if s.reg.DamageEnemy(e.ID, 10) {
		t.Error("damage to a dead enemy is a no-op")
	}

	s.bus.Flush()
	if !s.reg.RemoveEnemy(e.ID, Killed) {
		t.Fatal("RemoveEnemy failed")
	}
	if s.reg.RemoveEnemy(e.ID, Killed) {
		t.Error("second RemoveEnemy should be a no-op")
	}
	if s.ledger.Biomass() != 510 || s.ledger.Energy() != 1005 {
		t.Errorf("rewards = %d/%d, want 510/1005", s.ledger.Biomass(), s.ledger.Energy())
	}
	if s.reg.LiveEnemyCount() != 0 {
		t.Error("enemy should be gone")
	}
	if n := len(ofType(s.bus.Flush(), events.EnemyKilled)); n != 1 {
		t.Errorf("got %d EnemyKilled events, want 1", n)
	}
}

func TestLeakGivesNoReward(t *testing.T) {
	s := newTestSim(t, nil)
	e := s.mustSpawn(t, 18, 7, "basic")

	s.reg.RemoveEnemy(e.ID, Leaked)
	if s.ledger.Biomass() != 500 || s.ledger.Energy() != 1000 {
		t.Errorf("leak changed resources: %d/%d", s.ledger.Biomass(), s.ledger.Energy())
	}
	if s.base.Lives() != 19 || s.base.Leaks() != 1 {
		t.Errorf("base = %d lives %d leaks, want 19/1", s.base.Lives(), s.base.Leaks())
	}
	if n := len(ofType(s.bus.Flush(), events.EnemyLeaked)); n != 1 {
		t.Errorf("got %d EnemyLeaked events, want 1", n)
	}
}

func TestIDsAreUniqueAcrossKinds(t *testing.T) {
	s := newTestSim(t, nil)
	a := s.mustBuild(t, 1, 1, "root")
	e := s.mustSpawn(t, 0, 7, "basic")
	b := s.mustBuild(t, 2, 1, "root")

	if a.ID == e.ID || e.ID == b.ID || !(a.ID < e.ID && e.ID < b.ID) {
		t.Errorf("ids not monotonic and unique: %d %d %d", a.ID, e.ID, b.ID)
	}

	s.reg.DestroyTower(a.ID)
	c := s.mustBuild(t, 1, 1, "root")
	if c.ID <= b.ID {
		t.Errorf("id %d reused after destroy", c.ID)
	}

	towers := s.reg.Towers()
	if len(towers) != 2 || towers[0].ID != b.ID || towers[1].ID != c.ID {
		t.Errorf("Towers() not id-ordered: %+v", towers)
	}
}
