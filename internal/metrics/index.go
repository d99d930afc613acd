package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillsurkov/twg-2025-1/internal/persistence/indexdb"
)

// RegisterIndexQueue exports the sqlite writer queue as scrape-time funcs.
func RegisterIndexQueue(reg prometheus.Registerer, stats func() indexdb.Stats) error {
	opts := func(name, help string) prometheus.Opts {
		return prometheus.Opts{Namespace: namespace, Subsystem: "index", Name: name, Help: help}
	}
	collectors := []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts(opts("queue_depth", "Pending index writes")), func() float64 {
			return float64(stats().QueueDepth)
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts(opts("queue_capacity", "Index write queue capacity")), func() float64 {
			return float64(stats().QueueCapacity)
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts(opts("dropped_ticks_total", "Tick rows dropped on a full queue")), func() float64 {
			return float64(stats().DropTickTotal)
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts(opts("dropped_audits_total", "Audit rows dropped on a full queue")), func() float64 {
			return float64(stats().DropAuditTotal)
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts(opts("dropped_economy_total", "Economy samples dropped on a full queue")), func() float64 {
			return float64(stats().DropEconomyTotal)
		}),
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
