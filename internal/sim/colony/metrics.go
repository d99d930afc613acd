package colony

import (
	"time"

	"github.com/kirillsurkov/twg-2025-1/internal/sim/catalogs"
	"github.com/kirillsurkov/twg-2025-1/internal/sim/economy"
	"github.com/kirillsurkov/twg-2025-1/internal/sim/lifecycle"
)

// MetricsSink receives a summary after every tick.
type MetricsSink interface {
	ObserveTick(s TickStats)
}

type TickStats struct {
	Tick      uint64
	StepTime  time.Duration
	Paused    bool
	Economy   economy.Summary
	Flows     []economy.Flow
	Counts    map[catalogs.Kind]map[lifecycle.Action]int
	Orphans   int
	Audits    []AuditEntry
	Rejected  int
	Observers int
}

func (c *Colony) tickStats(nowTick uint64, d time.Duration) TickStats {
	s := TickStats{
		Tick:      nowTick,
		StepTime:  d,
		Paused:    c.paused,
		Economy:   c.ledger.Summary(),
		Flows:     c.lastReport.Flows,
		Counts:    map[catalogs.Kind]map[lifecycle.Action]int{},
		Orphans:   len(c.conn.Orphans()),
		Audits:    c.audits,
		Observers: len(c.observers),
	}
	for _, st := range c.Structures() {
		m := s.Counts[st.Kind]
		if m == nil {
			m = map[lifecycle.Action]int{}
			s.Counts[st.Kind] = m
		}
		m[st.State.Action]++
	}
	for _, ev := range c.events {
		if ev.Type == "REJECTED" {
			s.Rejected++
		}
	}
	return s
}
