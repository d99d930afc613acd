package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillsurkov/twg-2025-1/internal/sim/catalogs"
	"github.com/kirillsurkov/twg-2025-1/internal/sim/colony"
	"github.com/kirillsurkov/twg-2025-1/internal/sim/lifecycle"
)

const (
	namespace = "colony"
	subsystem = "sim"
)

// ColonyCollector exports per-tick colony state. It implements
// colony.MetricsSink and is called from the simulation goroutine.
type ColonyCollector struct {
	tick          prometheus.Gauge
	stepDuration  prometheus.Histogram
	paused        prometheus.Gauge
	energy        *prometheus.GaugeVec
	energyRatio   prometheus.Gauge
	cargo         *prometheus.GaugeVec
	structures    *prometheus.GaugeVec
	orphans       prometheus.Gauge
	observers     prometheus.Gauge
	produced      *prometheus.CounterVec
	consumed      *prometheus.CounterVec
	lifecycle     *prometheus.CounterVec
	rejectedTotal prometheus.Counter
}

func NewColonyCollector() *ColonyCollector {
	return &ColonyCollector{
		tick: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "tick",
			Help:      "Last completed simulation tick",
		}),
		stepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "step_duration_seconds",
			Help:      "Wall time spent in one simulation step",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05},
		}),
		paused: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "paused",
			Help:      "1 while the economy is paused",
		}),
		energy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "energy",
			Help:      "Energy generated and consumed by connected structures",
		}, []string{"direction"}),
		energyRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "energy_ratio",
			Help:      "Spare share of generated energy",
		}),
		cargo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cargo",
			Help:      "Current stock and capacity per resource",
		}, []string{"resource", "field"}),
		structures: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "structures",
			Help:      "Committed structures by kind and lifecycle action",
		}, []string{"kind", "action"}),
		orphans: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "orphans",
			Help:      "Structures without a path to an anchor",
		}),
		observers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "observers",
			Help:      "Connected observer sessions",
		}),
		produced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "produced_total",
			Help:      "Resource produced by conversions",
		}, []string{"conversion", "resource"}),
		consumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "consumed_total",
			Help:      "Input amount consumed by conversions",
		}, []string{"conversion"}),
		lifecycle: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "lifecycle_events_total",
			Help:      "Lifecycle audit entries by action and kind",
		}, []string{"action", "kind"}),
		rejectedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "rejected_inputs_total",
			Help:      "Control inputs rejected by the simulation",
		}),
	}
}

func (c *ColonyCollector) Register(reg prometheus.Registerer) error {
	for _, m := range []prometheus.Collector{
		c.tick,
		c.stepDuration,
		c.paused,
		c.energy,
		c.energyRatio,
		c.cargo,
		c.structures,
		c.orphans,
		c.observers,
		c.produced,
		c.consumed,
		c.lifecycle,
		c.rejectedTotal,
	} {
		if err := reg.Register(m); err != nil {
			return err
		}
	}
	return nil
}

func (c *ColonyCollector) ObserveTick(s colony.TickStats) {
	c.tick.Set(float64(s.Tick))
	c.stepDuration.Observe(s.StepTime.Seconds())
	if s.Paused {
		c.paused.Set(1)
	} else {
		c.paused.Set(0)
	}

	c.energy.WithLabelValues("available").Set(s.Economy.EnergyAvailable)
	c.energy.WithLabelValues("in_use").Set(s.Economy.EnergyInUse)
	c.energyRatio.Set(s.Economy.EnergyRatio)
	for r, st := range s.Economy.Cargo {
		c.cargo.WithLabelValues(r.String(), "current").Set(st.Current)
		c.cargo.WithLabelValues(r.String(), "capacity").Set(st.Capacity)
	}

	// Every kind/action pair is written so vanished kinds read zero.
	for _, k := range catalogs.AllKinds() {
		for _, a := range []lifecycle.Action{lifecycle.Idle, lifecycle.Construct, lifecycle.Destruct} {
			c.structures.WithLabelValues(k.String(), a.String()).Set(float64(s.Counts[k][a]))
		}
	}
	c.orphans.Set(float64(s.Orphans))
	c.observers.Set(float64(s.Observers))

	for _, f := range s.Flows {
		c.produced.WithLabelValues(f.ConversionID, f.Output.String()).Add(f.Produced)
		c.consumed.WithLabelValues(f.ConversionID).Add(f.Consumed)
	}
	for _, a := range s.Audits {
		c.lifecycle.WithLabelValues(a.Action, a.Kind.String()).Inc()
	}
	if s.Rejected > 0 {
		c.rejectedTotal.Add(float64(s.Rejected))
	}
}
