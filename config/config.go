// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gonum.org/v1/gonum/spatial/r2"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/symbiosis/components"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Physics        PhysicsConfig        `yaml:"physics"`
	Grid           GridConfig           `yaml:"grid"`
	Lane           LaneConfig           `yaml:"lane"`
	Resources      ResourcesConfig      `yaml:"resources"`
	Towers         []TowerConfig        `yaml:"towers"`
	Enemies        []EnemyConfig        `yaml:"enemies"`
	Waves          []WaveConfig         `yaml:"waves"`
	ProceduralWave ProceduralWaveConfig `yaml:"procedural_wave"`
	Symbiosis      SymbiosisConfig      `yaml:"symbiosis"`
	Base           BaseConfig           `yaml:"base"`
	Telemetry      TelemetryConfig      `yaml:"telemetry"`
	Scenario       ScenarioConfig       `yaml:"scenario"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// PhysicsConfig holds the fixed timestep.
type PhysicsConfig struct {
	DT float64 `yaml:"dt"`
}

// GridConfig holds the placement grid layout.
type GridConfig struct {
	Width    int     `yaml:"width"`
	Height   int     `yaml:"height"`
	CellSize float64 `yaml:"cell_size"`
	OriginX  float64 `yaml:"origin_x"`
	OriginY  float64 `yaml:"origin_y"`
	LaneRows []int   `yaml:"lane_rows"` // Rows reserved for the enemy lane (empty = centre three rows)
}

// PointConfig is a world-space point.
type PointConfig struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// LaneConfig holds the enemy path.
type LaneConfig struct {
	Waypoints    []PointConfig `yaml:"waypoints"`     // Empty = straight line along the lane centre
	ArriveRadius float64       `yaml:"arrive_radius"` // Distance at which a waypoint counts as reached
}

// ResourcesConfig holds the starting economy and energy regeneration.
type ResourcesConfig struct {
	StartingBiomass int     `yaml:"starting_biomass"`
	StartingEnergy  int     `yaml:"starting_energy"`
	RegenRate       int     `yaml:"regen_rate"`
	RegenInterval   float64 `yaml:"regen_interval"`
}

// TowerConfig defines a buildable tower type.
type TowerConfig struct {
	Name               string   `yaml:"name"`
	Kind               string   `yaml:"kind"` // root | combat
	Damage             float64  `yaml:"damage"`
	Range              float64  `yaml:"range"`
	FireRate           float64  `yaml:"fire_rate"` // Shots per second
	Health             float64  `yaml:"health"`
	Armor              float64  `yaml:"armor"`
	BuildCost          int      `yaml:"build_cost"`
	UpgradeCost        int      `yaml:"upgrade_cost"`
	MaxLevel           int      `yaml:"max_level"`
	SupportedSymbiosis []string `yaml:"supported_symbiosis"`
	EnergyDraw         int      `yaml:"energy_draw"` // Link upkeep per second when this tower is the source
}

// EnemyConfig defines an enemy type.
type EnemyConfig struct {
	Name          string  `yaml:"name"`
	Health        float64 `yaml:"health"`
	Speed         float64 `yaml:"speed"`
	Armor         float64 `yaml:"armor"`
	BiomassReward int     `yaml:"biomass_reward"`
	EnergyReward  int     `yaml:"energy_reward"`
}

// WaveConfig defines a scripted wave.
type WaveConfig struct {
	Count         int      `yaml:"count"`
	Enemies       []string `yaml:"enemies"` // Cycled: spawn i uses enemies[i % len]
	SpawnInterval float64  `yaml:"spawn_interval"`
}

// ProceduralWaveConfig parameterizes waves beyond the scripted table.
// count = min(base_count + count_per_wave*n, max_count)
// interval = max(min_interval, base_interval - interval_step*n)
type ProceduralWaveConfig struct {
	BaseCount    int     `yaml:"base_count"`
	CountPerWave int     `yaml:"count_per_wave"`
	MaxCount     int     `yaml:"max_count"`
	BaseInterval float64 `yaml:"base_interval"`
	IntervalStep float64 `yaml:"interval_step"`
	MinInterval  float64 `yaml:"min_interval"`
	Enemy        string  `yaml:"enemy"`
}

// SymbiosisConfig holds link parameters.
type SymbiosisConfig struct {
	MaxDistance float64       `yaml:"max_distance"`
	Effects     EffectsConfig `yaml:"effects"`
}

// EffectsConfig holds the per-link-type effect magnitudes.
type EffectsConfig struct {
	NutritionalDamage   float64 `yaml:"nutritional_damage"`
	ProtectiveReduction float64 `yaml:"protective_reduction"`
	AmplifyingFireRate  float64 `yaml:"amplifying_fire_rate"`
	HealingPerSec       float64 `yaml:"healing_per_sec"`
}

// BaseConfig holds the player base parameters.
type BaseConfig struct {
	Lives         int `yaml:"lives"`
	DamagePerLeak int `yaml:"damage_per_leak"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	PerfWindow int `yaml:"perf_window"` // Ticks in the rolling perf window
}

// ScenarioConfig scripts a headless run.
type ScenarioConfig struct {
	Waves   int           `yaml:"waves"`
	WaveGap float64       `yaml:"wave_gap"`
	Builds  []BuildConfig `yaml:"builds"`
	Links   []LinkConfig  `yaml:"links"`
}

// BuildConfig places a tower at a world position.
type BuildConfig struct {
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`
	Type string  `yaml:"type"`
}

// LinkConfig connects two scripted builds by their index in Builds.
type LinkConfig struct {
	Source int    `yaml:"source"`
	Target int    `yaml:"target"`
	Type   string `yaml:"type"`
}

// TowerDerived holds parsed per-tower-type values.
type TowerDerived struct {
	Kind     components.TowerKind
	Supports map[components.LinkType]bool
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT         float64
	LaneRows   map[int]bool     // Rows that are never buildable
	LaneCenter int              // Row enemies walk along by default
	TowerIndex map[string]uint8 // name -> index into Towers
	EnemyIndex map[string]uint8 // name -> index into Enemies
	Towers     []TowerDerived   // parallel to Towers
	Waypoints  []r2.Vec         // Path in world space, first point is the lane entrance
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used. The result is validated.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Scalars not present in the file keep their defaults; lists are replaced whole
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the embedded defaults. Panics if they fail to validate.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults invalid: %v", err))
	}
	return cfg
}

// Finalize recomputes derived values and validates. Call it after editing a
// loaded Config in code.
func (c *Config) Finalize() error {
	c.computeDerived()
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.DT = c.Physics.DT

	// Lane band defaults to the three centre rows
	c.Derived.LaneCenter = c.Grid.Height / 2
	c.Derived.LaneRows = make(map[int]bool)
	if len(c.Grid.LaneRows) == 0 {
		for row := c.Derived.LaneCenter - 1; row <= c.Derived.LaneCenter+1; row++ {
			c.Derived.LaneRows[row] = true
		}
	} else {
		for _, row := range c.Grid.LaneRows {
			c.Derived.LaneRows[row] = true
		}
	}

	c.Derived.TowerIndex = make(map[string]uint8, len(c.Towers))
	c.Derived.Towers = make([]TowerDerived, len(c.Towers))
	for i, t := range c.Towers {
		c.Derived.TowerIndex[t.Name] = uint8(i)
		kind, _ := components.ParseTowerKind(t.Kind)
		d := TowerDerived{Kind: kind, Supports: make(map[components.LinkType]bool)}
		for _, name := range t.SupportedSymbiosis {
			if lt, ok := components.ParseLinkType(name); ok {
				d.Supports[lt] = true
			}
		}
		c.Derived.Towers[i] = d
	}

	c.Derived.EnemyIndex = make(map[string]uint8, len(c.Enemies))
	for i, e := range c.Enemies {
		c.Derived.EnemyIndex[e.Name] = uint8(i)
	}

	c.Derived.Waypoints = c.Derived.Waypoints[:0]
	if len(c.Lane.Waypoints) == 0 {
		y := c.Grid.OriginY + float64(c.Derived.LaneCenter)*c.Grid.CellSize
		c.Derived.Waypoints = append(c.Derived.Waypoints,
			r2.Vec{X: c.Grid.OriginX, Y: y},
			r2.Vec{X: c.Grid.OriginX + float64(c.Grid.Width-1)*c.Grid.CellSize, Y: y},
		)
	} else {
		for _, p := range c.Lane.Waypoints {
			c.Derived.Waypoints = append(c.Derived.Waypoints, r2.Vec{X: p.X, Y: p.Y})
		}
	}
}

// Validate reports every configuration problem found, joined into one error.
func (c *Config) Validate() error {
	var errs []error
	if c.Physics.DT <= 0 {
		errs = append(errs, fmt.Errorf("physics.dt must be positive, got %v", c.Physics.DT))
	}
	if c.Grid.Width <= 0 || c.Grid.Height <= 0 {
		errs = append(errs, fmt.Errorf("grid dimensions must be positive, got %dx%d", c.Grid.Width, c.Grid.Height))
	}
	if c.Grid.CellSize <= 0 {
		errs = append(errs, fmt.Errorf("grid.cell_size must be positive, got %v", c.Grid.CellSize))
	}
	if c.Resources.RegenInterval <= 0 {
		errs = append(errs, fmt.Errorf("resources.regen_interval must be positive, got %v", c.Resources.RegenInterval))
	}
	if len(c.Towers) == 0 {
		errs = append(errs, errors.New("towers: table is empty"))
	}
	if len(c.Towers) > 256 || len(c.Enemies) > 256 {
		errs = append(errs, errors.New("at most 256 tower and enemy types are supported"))
	}
	for _, t := range c.Towers {
		if t.Name == "" {
			errs = append(errs, fmt.Errorf("tower %q: missing name", t.Name))
		}
		if _, ok := components.ParseTowerKind(t.Kind); !ok {
			errs = append(errs, fmt.Errorf("tower %q: unknown kind %q", t.Name, t.Kind))
		}
		if t.FireRate <= 0 {
			errs = append(errs, fmt.Errorf("tower %q: fire_rate must be positive, got %v", t.Name, t.FireRate))
		}
		if t.Health <= 0 {
			errs = append(errs, fmt.Errorf("tower %q: health must be positive, got %v", t.Name, t.Health))
		}
		if t.MaxLevel < 1 {
			errs = append(errs, fmt.Errorf("tower %q: max_level must be at least 1", t.Name))
		}
		for _, name := range t.SupportedSymbiosis {
			if _, ok := components.ParseLinkType(name); !ok {
				errs = append(errs, fmt.Errorf("tower %q: unknown link type %q", t.Name, name))
			}
		}
	}
	if len(c.Towers) != len(c.Derived.TowerIndex) {
		errs = append(errs, errors.New("towers: duplicate type names"))
	}
	if len(c.Enemies) == 0 {
		errs = append(errs, errors.New("enemies: table is empty"))
	}
	if len(c.Enemies) != len(c.Derived.EnemyIndex) {
		errs = append(errs, errors.New("enemies: duplicate type names"))
	}
	for _, e := range c.Enemies {
		if e.Health <= 0 {
			errs = append(errs, fmt.Errorf("enemy %q: health must be positive, got %v", e.Name, e.Health))
		}
	}
	for i, w := range c.Waves {
		if w.Count <= 0 {
			errs = append(errs, fmt.Errorf("wave %d: count must be positive", i+1))
		}
		if len(w.Enemies) == 0 {
			errs = append(errs, fmt.Errorf("wave %d: no enemy types", i+1))
		}
		for _, name := range w.Enemies {
			if _, ok := c.Derived.EnemyIndex[name]; !ok {
				errs = append(errs, fmt.Errorf("wave %d: unknown enemy type %q", i+1, name))
			}
		}
	}
	if _, ok := c.Derived.EnemyIndex[c.ProceduralWave.Enemy]; !ok {
		errs = append(errs, fmt.Errorf("procedural_wave: unknown enemy type %q", c.ProceduralWave.Enemy))
	}
	if len(c.Derived.Waypoints) == 0 {
		errs = append(errs, errors.New("lane: no waypoints"))
	}
	for i, l := range c.Scenario.Links {
		if _, ok := components.ParseLinkType(l.Type); !ok {
			errs = append(errs, fmt.Errorf("scenario link %d: unknown link type %q", i, l.Type))
		}
	}
	return errors.Join(errs...)
}

// Wave returns the definition for 1-based wave n. Indices outside the
// scripted table get a procedurally generated wave.
func (c *Config) Wave(n int) WaveConfig {
	if n >= 1 && n <= len(c.Waves) {
		return c.Waves[n-1]
	}
	p := c.ProceduralWave
	count := p.BaseCount + p.CountPerWave*n
	if count > p.MaxCount {
		count = p.MaxCount
	}
	if count < 1 {
		count = 1
	}
	interval := p.BaseInterval - p.IntervalStep*float64(n)
	if interval < p.MinInterval {
		interval = p.MinInterval
	}
	return WaveConfig{
		Count:         count,
		Enemies:       []string{p.Enemy},
		SpawnInterval: interval,
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
