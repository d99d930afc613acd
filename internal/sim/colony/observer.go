package colony

import (
	"encoding/json"

	"github.com/kirillsurkov/twg-2025-1/internal/observerproto"
	"github.com/kirillsurkov/twg-2025-1/internal/sim/catalogs"
	"github.com/kirillsurkov/twg-2025-1/internal/sim/mapstore"
)

// ObserverJoinRequest registers a read-only session that receives one TICK
// frame per tick on TickOut. All observer state is owned by the loop goroutine.
type ObserverJoinRequest struct {
	SessionID    string
	TickOut      chan []byte
	IncludeBuild bool
}

type observerClient struct {
	id           string
	tickOut      chan []byte
	includeBuild bool
}

func (c *Colony) handleObserverJoin(req ObserverJoinRequest) {
	if req.SessionID == "" || req.TickOut == nil {
		return
	}
	c.observers[req.SessionID] = &observerClient{
		id:           req.SessionID,
		tickOut:      req.TickOut,
		includeBuild: req.IncludeBuild,
	}
}

func (c *Colony) handleObserverLeave(id string) {
	delete(c.observers, id)
}

func (c *Colony) ObserverCount() int { return len(c.observers) }

func (c *Colony) stepObservers(frame *observerproto.TickMsg) {
	if len(c.observers) == 0 {
		return
	}
	var plain, withBuild []byte
	for _, o := range c.observers {
		var b []byte
		if o.includeBuild {
			if withBuild == nil {
				f := *frame
				f.Build = c.buildCells()
				withBuild, _ = json.Marshal(f)
			}
			b = withBuild
		} else {
			if plain == nil {
				plain, _ = json.Marshal(frame)
			}
			b = plain
		}
		if b != nil {
			sendLatest(o.tickOut, b)
		}
	}
}

func (c *Colony) buildCells() [][2]int {
	cells := c.store.Cells(mapstore.Build)
	out := make([][2]int, 0, len(cells))
	for _, cell := range cells {
		out = append(out, cellArr(cell))
	}
	return out
}

func (c *Colony) buildFrame(nowTick uint64, now float64) *observerproto.TickMsg {
	f := &observerproto.TickMsg{
		Type:            "TICK",
		ProtocolVersion: observerproto.Version,
		Tick:            nowTick,
		Now:             now,
		Paused:          c.paused,
		Mode:            observerproto.ModeState{Mode: c.mode.Kind.String()},
	}
	switch c.mode.Kind {
	case ModeConstruct:
		f.Mode.Kind = c.mode.Structure.String()
	case ModeInteract:
		cell := cellArr(c.mode.Cell)
		f.Mode.Cell = &cell
	}
	if c.cursor != nil {
		f.Cursor = &observerproto.CursorState{
			Cell: cellArr(c.cursor.Cell),
			Frac: [2]float64{c.cursor.Frac.X, c.cursor.Frac.Y},
		}
	}

	structs := c.Structures()
	f.Structures = make([]observerproto.StructureState, 0, len(structs))
	for _, s := range structs {
		st := observerproto.StructureState{
			Cell:      cellArr(s.Cell),
			Kind:      s.Kind.String(),
			Action:    s.State.Action.String(),
			StartedAt: s.State.StartedAt,
			Progress:  c.table.Progress(s.Cell, now),
			Highlight: s.State.Highlight.String(),
			Connected: s.Connected,
		}
		f.Structures = append(f.Structures, st)
		if c.mode.Kind == ModeInteract && s.Cell == c.mode.Cell {
			sel := st
			f.Selection = &sel
		}
	}
	if g := c.ghost; g != nil {
		f.Ghost = &observerproto.GhostState{
			Cell:      cellArr(g.Cell),
			Kind:      g.Kind.String(),
			Available: g.Available,
			Highlight: g.Highlight.String(),
		}
	}
	if b := c.store.BoundingBox(); !b.Empty() {
		f.Bounds = &observerproto.Bounds{Min: cellArr(b.Min), Max: cellArr(b.Max)}
	}

	sum := c.ledger.Summary()
	f.Economy = observerproto.EconomyState{
		EnergyAvailable: sum.EnergyAvailable,
		EnergyInUse:     sum.EnergyInUse,
		EnergyRatio:     sum.EnergyRatio,
		Cargo:           make(map[string][2]float64, len(sum.Cargo)),
	}
	for _, r := range catalogs.AllResources() {
		s := sum.Cargo[r]
		f.Economy.Cargo[r.String()] = [2]float64{s.Current, s.Capacity}
	}

	if len(c.events) > 0 {
		f.Events = append([]observerproto.Event(nil), c.events...)
	}
	for _, a := range c.audits {
		f.Audits = append(f.Audits, observerproto.AuditEntry{
			Tick:   a.Tick,
			Actor:  a.Actor,
			Action: a.Action,
			Cell:   cellArr(a.Cell),
			Kind:   a.Kind.String(),
			At:     a.At,
			Reason: a.Reason,
		})
	}
	return f
}

// Bootstrap describes the colony for newly connected observers.
func (c *Colony) Bootstrap() observerproto.BootstrapResponse {
	resp := observerproto.BootstrapResponse{
		ProtocolVersion: observerproto.Version,
		Tick:            c.tick.Load(),
		ColonyParams: observerproto.ColonyParams{
			TickRateHz: c.cfg.TickRateHz,
			RoomStride: c.cfg.RoomStride,
			FineStride: c.cfg.FineStride,
			Anchor:     cellArr(c.cfg.Anchor),
		},
		StructuresHash: c.cat.Digest,
	}
	for _, k := range catalogs.AllKinds() {
		d := c.cat.Def(k)
		info := observerproto.StructureInfo{
			Kind:        k.String(),
			Name:        d.Name,
			Description: d.Description,
			Icon:        d.Icon,
			Energy:      d.Energy,
		}
		if len(d.Recipe) > 0 {
			info.Recipe = map[string]float64{}
			for _, a := range d.Recipe {
				info.Recipe[a.Resource.String()] += a.Amount
			}
		}
		resp.Structures = append(resp.Structures, info)
	}
	for _, r := range catalogs.AllResources() {
		resp.Resources = append(resp.Resources, r.String())
	}
	return resp
}
