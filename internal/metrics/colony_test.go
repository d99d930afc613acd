package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kirillsurkov/twg-2025-1/internal/sim/catalogs"
	"github.com/kirillsurkov/twg-2025-1/internal/sim/colony"
	"github.com/kirillsurkov/twg-2025-1/internal/sim/economy"
	"github.com/kirillsurkov/twg-2025-1/internal/sim/lifecycle"
)

func TestColonyCollectorObserveTick(t *testing.T) {
	c := NewColonyCollector()
	reg := prometheus.NewRegistry()
	if err := c.Register(reg); err != nil {
		t.Fatalf("register: %v", err)
	}

	stats := colony.TickStats{
		Tick:     42,
		StepTime: 300 * time.Microsecond,
		Economy: economy.Summary{
			EnergyAvailable: 10,
			EnergyInUse:     4,
			EnergyRatio:     0.6,
			Cargo: map[catalogs.Resource]economy.Stock{
				catalogs.Stone: {Current: 12, Capacity: 50},
			},
		},
		Flows: []economy.Flow{{ConversionID: "crush_stone", Output: catalogs.Silicon, Consumed: 0.5, Produced: 0.25}},
		Counts: map[catalogs.Kind]map[lifecycle.Action]int{
			catalogs.KindPrimaryBlock: {lifecycle.Idle: 1},
			catalogs.KindCrusher:      {lifecycle.Idle: 1, lifecycle.Construct: 2},
		},
		Orphans:  3,
		Audits:   []colony.AuditEntry{{Action: "BUILT", Kind: catalogs.KindCrusher}},
		Rejected: 2,
	}
	c.ObserveTick(stats)
	c.ObserveTick(stats)

	if got := testutil.ToFloat64(c.tick); got != 42 {
		t.Fatalf("tick=%v", got)
	}
	if got := testutil.ToFloat64(c.energyRatio); got != 0.6 {
		t.Fatalf("energy_ratio=%v", got)
	}
	if got := testutil.ToFloat64(c.cargo.WithLabelValues("STONE", "capacity")); got != 50 {
		t.Fatalf("stone capacity=%v", got)
	}
	if got := testutil.ToFloat64(c.structures.WithLabelValues("CRUSHER", "CONSTRUCT")); got != 2 {
		t.Fatalf("crushers under construction=%v", got)
	}
	if got := testutil.ToFloat64(c.structures.WithLabelValues("FURNACE", "IDLE")); got != 0 {
		t.Fatalf("furnaces=%v", got)
	}
	if got := testutil.ToFloat64(c.produced.WithLabelValues("crush_stone", "SILICON")); got != 0.5 {
		t.Fatalf("produced=%v", got)
	}
	if got := testutil.ToFloat64(c.lifecycle.WithLabelValues("BUILT", "CRUSHER")); got != 2 {
		t.Fatalf("lifecycle=%v", got)
	}
	if got := testutil.ToFloat64(c.rejectedTotal); got != 4 {
		t.Fatalf("rejected=%v", got)
	}
	if n := testutil.CollectAndCount(c.stepDuration); n != 1 {
		t.Fatalf("histogram series=%d", n)
	}
}

func TestColonyCollectorRegisterTwiceFails(t *testing.T) {
	c := NewColonyCollector()
	reg := prometheus.NewRegistry()
	if err := c.Register(reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := c.Register(reg); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
}
