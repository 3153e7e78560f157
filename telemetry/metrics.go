package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the Prometheus instruments for a running game.
// All methods are no-ops on a nil receiver.
type Metrics struct {
	gatherer prometheus.Gatherer

	EnemiesKilled *prometheus.CounterVec
	EnemiesLeaked *prometheus.CounterVec
	TowersBuilt   *prometheus.CounterVec

	LinksActive  prometheus.Gauge
	Biomass      prometheus.Gauge
	Energy       prometheus.Gauge
	Wave         prometheus.Gauge
	TickDuration prometheus.Histogram
}

// NewMetrics registers game metrics against the provided registerer,
// defaulting to the global Prometheus registry when nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	killed, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "td_enemies_killed_total",
		Help: "Enemies killed by towers, labeled by enemy type.",
	}, []string{"type"}), "td_enemies_killed_total")
	if err != nil {
		return nil, err
	}
	leaked, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "td_enemies_leaked_total",
		Help: "Enemies that reached the base, labeled by enemy type.",
	}, []string{"type"}), "td_enemies_leaked_total")
	if err != nil {
		return nil, err
	}
	built, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "td_towers_built_total",
		Help: "Towers placed, labeled by tower type.",
	}, []string{"type"}), "td_towers_built_total")
	if err != nil {
		return nil, err
	}

	links, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "td_links_active",
		Help: "Current number of active symbiosis links.",
	}), "td_links_active")
	if err != nil {
		return nil, err
	}
	biomass, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "td_biomass",
		Help: "Current biomass balance.",
	}), "td_biomass")
	if err != nil {
		return nil, err
	}
	energy, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "td_energy",
		Help: "Current energy balance.",
	}), "td_energy")
	if err != nil {
		return nil, err
	}
	wave, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "td_wave",
		Help: "Current or most recently started wave number.",
	}), "td_wave")
	if err != nil {
		return nil, err
	}

	tick, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "td_tick_duration_seconds",
		Help:    "Wall-clock time spent in one simulation step.",
		Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
	}), "td_tick_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		gatherer:      gatherer,
		EnemiesKilled: killed,
		EnemiesLeaked: leaked,
		TowersBuilt:   built,
		LinksActive:   links,
		Biomass:       biomass,
		Energy:        energy,
		Wave:          wave,
		TickDuration:  tick,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (m *Metrics) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if m != nil && m.gatherer != nil {
		gatherer = m.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) EnemyKilled(enemyType string) {
	if m == nil {
		return
	}
	m.EnemiesKilled.WithLabelValues(enemyType).Inc()
}

func (m *Metrics) EnemyLeaked(enemyType string) {
	if m == nil {
		return
	}
	m.EnemiesLeaked.WithLabelValues(enemyType).Inc()
}

func (m *Metrics) TowerBuilt(towerType string) {
	if m == nil {
		return
	}
	m.TowersBuilt.WithLabelValues(towerType).Inc()
}

func (m *Metrics) SetWave(n int) {
	if m == nil {
		return
	}
	m.Wave.Set(float64(n))
}

// SetState updates the resource and link gauges.
func (m *Metrics) SetState(biomass, energy, links int) {
	if m == nil {
		return
	}
	m.Biomass.Set(float64(biomass))
	m.Energy.Set(float64(energy))
	m.LinksActive.Set(float64(links))
}

func (m *Metrics) ObserveTick(d time.Duration) {
	if m == nil {
		return
	}
	m.TickDuration.Observe(d.Seconds())
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return h, nil
}
