package colony

import (
	"fmt"

	"github.com/kirillsurkov/twg-2025-1/internal/observerproto"
	"github.com/kirillsurkov/twg-2025-1/internal/protocol"
	"github.com/kirillsurkov/twg-2025-1/internal/sim/catalogs"
	"github.com/kirillsurkov/twg-2025-1/internal/sim/grid"
	"github.com/kirillsurkov/twg-2025-1/internal/sim/lifecycle"
	"github.com/kirillsurkov/twg-2025-1/internal/sim/mapstore"
)

type ModeKind uint8

const (
	ModeIdle ModeKind = iota
	ModeConstruct
	ModeDestruct
	ModeInteract
)

func (m ModeKind) String() string {
	switch m {
	case ModeIdle:
		return protocol.ModeIdle
	case ModeConstruct:
		return protocol.ModeConstruct
	case ModeDestruct:
		return protocol.ModeDestruct
	case ModeInteract:
		return protocol.ModeInteract
	default:
		return fmt.Sprintf("MODE(%d)", uint8(m))
	}
}

// Mode is the player intent. Structure is set for Construct, Cell for Interact.
type Mode struct {
	Kind      ModeKind
	Structure catalogs.Kind
	Cell      grid.Cell
}

type Cursor struct {
	Cell grid.Cell
	Frac grid.Vec2
}

// Input is one queued control message. Exactly one payload is set.
type Input struct {
	SessionID string               `json:"session_id,omitempty"`
	Mode      *protocol.ModeMsg    `json:"mode,omitempty"`
	Cursor    *protocol.CursorMsg  `json:"cursor,omitempty"`
	Harvest   *protocol.HarvestMsg `json:"harvest,omitempty"`
	Pause     *protocol.PauseMsg   `json:"pause,omitempty"`
}

func cellFrom(v [2]int) grid.Cell { return grid.Cell{X: v[0], Y: v[1]} }
func cellArr(c grid.Cell) [2]int  { return [2]int{c.X, c.Y} }

func (c *Colony) applyInput(in Input) {
	switch {
	case in.Mode != nil:
		c.applyMode(in.SessionID, *in.Mode)
	case in.Cursor != nil:
		c.applyCursor(in.SessionID, *in.Cursor)
	case in.Harvest != nil:
		c.applyHarvest(in.SessionID, *in.Harvest)
	case in.Pause != nil:
		c.paused = in.Pause.Paused
	}
}

func (c *Colony) reject(session string, code, msg string, cell *grid.Cell) {
	ev := observerproto.Event{Type: "REJECTED", Session: session, Code: code, Message: msg}
	if cell != nil {
		a := cellArr(*cell)
		ev.Cell = &a
	}
	c.events = append(c.events, ev)
}

func (c *Colony) applyMode(session string, m protocol.ModeMsg) {
	switch m.Mode {
	case protocol.ModeIdle:
		c.setMode(Mode{Kind: ModeIdle})
	case protocol.ModeConstruct:
		k, ok := catalogs.ParseKind(m.Kind)
		if !ok || k == catalogs.KindPrimaryBlock {
			c.reject(session, protocol.ErrBadRequest, fmt.Sprintf("cannot construct %q", m.Kind), nil)
			return
		}
		if !c.ledger.Affordable(c.cat.Recipe(k)) {
			c.reject(session, protocol.ErrNoResource, "recipe not affordable: "+k.String(), nil)
			return
		}
		c.setMode(Mode{Kind: ModeConstruct, Structure: k})
	case protocol.ModeDestruct:
		c.setMode(Mode{Kind: ModeDestruct})
	case protocol.ModeInteract:
		if m.Cell == nil {
			c.reject(session, protocol.ErrBadRequest, "interact requires cell", nil)
			return
		}
		cell := cellFrom(*m.Cell)
		if !c.store.Contains(cell, mapstore.Main) {
			c.reject(session, protocol.ErrInvalidTarget, "no structure to interact with", &cell)
			return
		}
		c.setMode(Mode{Kind: ModeInteract, Cell: cell})
	default:
		c.reject(session, protocol.ErrBadRequest, fmt.Sprintf("unknown mode %q", m.Mode), nil)
	}
}

// setMode switches intent. Leaving Construct discards the ghost at once.
func (c *Colony) setMode(m Mode) {
	if c.mode.Kind == ModeConstruct && (m.Kind != ModeConstruct || m.Structure != c.mode.Structure) {
		c.ghost = nil
	}
	c.mode = m
}

func (c *Colony) applyCursor(session string, m protocol.CursorMsg) {
	switch {
	case m.Clear:
		c.cursor = nil
	case m.Pos != nil:
		p := grid.Vec2{X: m.Pos[0], Y: m.Pos[1]}
		cell, ok := grid.ToCellChecked(p, c.cfg.RoomStride)
		if !ok {
			c.reject(session, protocol.ErrBadRequest, "cursor position out of range", nil)
			return
		}
		c.cursor = &Cursor{Cell: cell, Frac: grid.Frac(p, c.cfg.RoomStride)}
	case m.Cell != nil:
		cell := cellFrom(*m.Cell)
		if !cell.InRange() {
			c.reject(session, protocol.ErrBadRequest, "cursor cell out of range", nil)
			return
		}
		c.cursor = &Cursor{Cell: cell}
	}
	if m.Confirm && c.cursor != nil {
		c.confirm = true
	}
}

// applyHarvest credits cargo delivered by an enabled hook or the main block.
func (c *Colony) applyHarvest(session string, m protocol.HarvestMsg) {
	cell := cellFrom(m.Cell)
	r, ok := catalogs.ParseResource(m.Resource)
	if !ok {
		c.reject(session, protocol.ErrBadRequest, fmt.Sprintf("unknown resource %q", m.Resource), &cell)
		return
	}
	k, ok := c.store.KindAt(cell, mapstore.Main)
	if !ok {
		c.reject(session, protocol.ErrInvalidTarget, "no harvester at cell", &cell)
		return
	}
	switch k {
	case catalogs.KindPrimaryBlock:
	case catalogs.KindHook:
		st, _ := c.table.Get(cell)
		if st.Action != lifecycle.Idle || !c.conn.Connected(cell) {
			c.reject(session, protocol.ErrBlocked, "hook is not enabled", &cell)
			return
		}
	default:
		c.reject(session, protocol.ErrInvalidTarget, k.String()+" cannot harvest", &cell)
		return
	}
	c.ledger.Harvest(r, m.Amount)
}
