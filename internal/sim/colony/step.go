package colony

import (
	"time"

	"github.com/kirillsurkov/twg-2025-1/internal/observerproto"
	"github.com/kirillsurkov/twg-2025-1/internal/protocol"
	"github.com/kirillsurkov/twg-2025-1/internal/sim/catalogs"
	"github.com/kirillsurkov/twg-2025-1/internal/sim/connectivity"
	"github.com/kirillsurkov/twg-2025-1/internal/sim/economy"
	"github.com/kirillsurkov/twg-2025-1/internal/sim/grid"
	"github.com/kirillsurkov/twg-2025-1/internal/sim/lifecycle"
	"github.com/kirillsurkov/twg-2025-1/internal/sim/mapstore"
)

func (c *Colony) stepInternal(clk Clock, inputs []Input) string {
	stepStart := time.Now()
	nowTick := c.tick.Load()

	c.events = c.events[:0]
	c.audits = c.audits[:0]
	c.confirm = false

	// Inputs apply in receive order at the tick boundary.
	recorded := make([]Input, 0, len(inputs))
	for _, in := range inputs {
		c.applyInput(in)
		recorded = append(recorded, in)
	}

	// Systems: lifecycle -> connectivity/orphans -> mode -> economy.
	c.systemLifecycle(nowTick, clk.Now)
	c.store.SyncPreviewFromMain()
	c.conn = connectivity.Compute(c.store.View(mapstore.Build))
	c.systemOrphans(nowTick, clk.Now)
	c.table.ClearHighlights()
	c.systemMode(nowTick, clk.Now)
	if c.paused {
		c.lastReport = economy.Report{EnergyRatio: c.ledger.EnergyRatio()}
	} else {
		c.lastReport = c.systemEconomy(clk.Delta)
	}

	frame := c.buildFrame(nowTick, clk.Now)
	c.latest.Store(frame)
	c.stepObservers(frame)

	digest := c.stateDigest(nowTick)
	if c.tickLogger != nil {
		_ = c.tickLogger.WriteTick(TickLogEntry{Tick: nowTick, Clock: clk, Inputs: recorded, Digest: digest})
	}
	if c.auditLogger != nil {
		for _, a := range c.audits {
			_ = c.auditLogger.WriteAudit(a)
		}
	}
	if c.metrics != nil {
		c.metrics.ObserveTick(c.tickStats(nowTick, time.Since(stepStart)))
	}

	c.tick.Add(1)
	return digest
}

func (c *Colony) systemLifecycle(nowTick uint64, now float64) {
	for _, tr := range c.table.Advance(now) {
		k, _ := c.store.KindAt(tr.Cell, mapstore.Main)
		if tr.Removed {
			c.store.Remove(tr.Cell, mapstore.Main)
			c.audit(nowTick, now, "DESTROYED", tr.Cell, k, "")
			c.event("STRUCTURE_REMOVED", tr.Cell, k)
			continue
		}
		c.audit(nowTick, now, "BUILT", tr.Cell, k, "")
		c.event("STRUCTURE_READY", tr.Cell, k)
	}
}

// systemOrphans queues every structure without a path to an anchor for
// destruction, including ones still under construction.
func (c *Colony) systemOrphans(nowTick uint64, now float64) {
	for _, cell := range c.conn.Orphans() {
		st, ok := c.table.Get(cell)
		if !ok || st.Action == lifecycle.Destruct {
			continue
		}
		if c.table.StartDestruct(cell, now+c.jitter()) {
			k, _ := c.store.KindAt(cell, mapstore.Main)
			c.audit(nowTick, now, "DESTRUCT", cell, k, "disconnected")
		}
	}
}

func (c *Colony) systemMode(nowTick uint64, now float64) {
	switch c.mode.Kind {
	case ModeIdle:
		if c.cursor != nil {
			c.table.SetHighlight(c.cursor.Cell, lifecycle.HighlightWhite)
		}
	case ModeInteract:
		if !c.store.Contains(c.mode.Cell, mapstore.Main) {
			c.setMode(Mode{Kind: ModeIdle})
			return
		}
		c.table.SetHighlight(c.mode.Cell, lifecycle.HighlightWhite)
	case ModeConstruct:
		c.stepConstruct(nowTick, now)
	case ModeDestruct:
		c.stepDestruct(nowTick, now)
	}
}

// placeable reports whether k can be committed at cell right now.
func (c *Colony) placeable(cell grid.Cell, k catalogs.Kind) bool {
	if !c.store.IsAvailable(cell, k) {
		return false
	}
	if k == catalogs.KindEmptyRoom {
		return true
	}
	st, ok := c.table.Get(cell)
	return ok && st.Action == lifecycle.Idle
}

func (c *Colony) stepConstruct(nowTick uint64, now float64) {
	if c.cursor == nil {
		c.ghost = nil
		return
	}
	kind := c.mode.Structure
	cell := c.cursor.Cell
	recipe := c.cat.Recipe(kind)
	available := c.placeable(cell, kind)
	affordable := c.ledger.Affordable(recipe)

	g := &lifecycle.Ghost{Kind: kind, Cell: cell, Available: available && affordable, Highlight: lifecycle.HighlightRed}
	if g.Available {
		g.Highlight = lifecycle.HighlightGreen
	}
	c.ghost = g

	if !c.confirm {
		return
	}
	switch {
	case !available:
		c.reject("", protocol.ErrBlocked, "cell not available for "+kind.String(), &cell)
		return
	case !c.ledger.Debit(recipe):
		c.reject("", protocol.ErrNoResource, "recipe not affordable: "+kind.String(), &cell)
		return
	}
	c.store.Place(cell, kind, mapstore.Main)
	c.table.StartConstruct(cell, now)
	c.audit(nowTick, now, "CONSTRUCT", cell, kind, "")
	c.event("STRUCTURE_PLACED", cell, kind)
	c.setMode(Mode{Kind: ModeIdle})
}

func (c *Colony) stepDestruct(nowTick uint64, now float64) {
	if c.cursor == nil {
		return
	}
	x := c.cursor.Cell
	k, ok := c.store.KindAt(x, mapstore.Main)
	if !ok {
		if c.confirm {
			c.reject("", protocol.ErrInvalidTarget, "nothing to destroy", &x)
		}
		return
	}
	if k == catalogs.KindPrimaryBlock {
		if c.confirm {
			c.reject("", protocol.ErrProtected, "the primary block cannot be destroyed", &x)
		}
		return
	}

	c.store.Remove(x, mapstore.Build)
	preview := connectivity.ComputeExcluding(c.store.View(mapstore.Build), x)
	for _, o := range preview.Orphans() {
		if c.conn.Connected(o) {
			c.table.SetHighlight(o, lifecycle.HighlightOrange)
		}
	}
	c.table.SetHighlight(x, lifecycle.HighlightRed)

	if !c.confirm {
		return
	}
	if !c.table.StartDestruct(x, now+c.jitter()) {
		c.reject("", protocol.ErrInvalidTarget, "already being destroyed", &x)
		return
	}
	c.audit(nowTick, now, "DESTRUCT", x, k, "confirmed")
	c.setMode(Mode{Kind: ModeIdle})
}

// systemEconomy runs over connected, completed Main structures in row-major
// order. Only Idle structures convert.
func (c *Colony) systemEconomy(dt float64) economy.Report {
	cells := c.store.Cells(mapstore.Main)
	members := make([]economy.Member, 0, len(cells))
	for _, cell := range cells {
		k, _ := c.store.KindAt(cell, mapstore.Main)
		st, _ := c.table.Get(cell)
		if st.Action == lifecycle.Construct {
			continue
		}
		if k != catalogs.KindPrimaryBlock && !c.conn.Connected(cell) {
			continue
		}
		members = append(members, economy.Member{Kind: k, Active: st.Action == lifecycle.Idle})
	}
	return c.ledger.Step(c.cat, members, dt)
}

func (c *Colony) event(typ string, cell grid.Cell, k catalogs.Kind) {
	a := cellArr(cell)
	c.events = append(c.events, observerproto.Event{Type: typ, Cell: &a, Kind: k.String()})
}
