package lifecycle

import (
	"fmt"
	"sort"

	"github.com/kirillsurkov/twg-2025-1/internal/sim/catalogs"
	"github.com/kirillsurkov/twg-2025-1/internal/sim/grid"
)

type Action uint8

const (
	Idle Action = iota
	Construct
	Destruct
)

func (a Action) String() string {
	switch a {
	case Idle:
		return "IDLE"
	case Construct:
		return "CONSTRUCT"
	case Destruct:
		return "DESTRUCT"
	default:
		return fmt.Sprintf("ACTION(%d)", uint8(a))
	}
}

func (a Action) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *Action) UnmarshalText(b []byte) error {
	switch string(b) {
	case "IDLE":
		*a = Idle
	case "CONSTRUCT":
		*a = Construct
	case "DESTRUCT":
		*a = Destruct
	default:
		return fmt.Errorf("unknown action %q", string(b))
	}
	return nil
}

// Highlight is presentation advice only.
type Highlight uint8

const (
	HighlightNone Highlight = iota
	HighlightWhite
	HighlightGreen
	HighlightOrange
	HighlightRed
)

func (h Highlight) String() string {
	switch h {
	case HighlightNone:
		return "NONE"
	case HighlightWhite:
		return "WHITE"
	case HighlightGreen:
		return "GREEN"
	case HighlightOrange:
		return "ORANGE"
	case HighlightRed:
		return "RED"
	default:
		return fmt.Sprintf("HIGHLIGHT(%d)", uint8(h))
	}
}

func (h Highlight) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

type State struct {
	Action    Action    `json:"action"`
	StartedAt float64   `json:"started_at"`
	Highlight Highlight `json:"highlight"`
}

// Transition records a finished episode. Removed is set for Destruct.
type Transition struct {
	Cell    grid.Cell `json:"cell"`
	From    Action    `json:"from"`
	Removed bool      `json:"removed,omitempty"`
	At      float64   `json:"at"`
}

// Table holds the lifecycle state of every committed structure, keyed by cell.
type Table struct {
	buildSeconds    float64
	destructSeconds float64
	states          map[grid.Cell]*State
}

func NewTable(buildSeconds, destructSeconds float64) *Table {
	return &Table{
		buildSeconds:    buildSeconds,
		destructSeconds: destructSeconds,
		states:          map[grid.Cell]*State{},
	}
}

func (t *Table) Get(c grid.Cell) (State, bool) {
	s, ok := t.states[c]
	if !ok {
		return State{}, false
	}
	return *s, true
}

func (t *Table) Len() int { return len(t.states) }

// Track registers a finished structure (e.g. the anchor at bootstrap).
func (t *Table) Track(c grid.Cell) {
	if _, ok := t.states[c]; ok {
		return
	}
	t.states[c] = &State{Action: Idle}
}

// StartConstruct begins a build episode on an Idle or untracked cell.
func (t *Table) StartConstruct(c grid.Cell, now float64) bool {
	s, ok := t.states[c]
	if !ok {
		t.states[c] = &State{Action: Construct, StartedAt: now}
		return true
	}
	if s.Action != Idle {
		return false
	}
	s.Action = Construct
	s.StartedAt = now
	return true
}

// StartDestruct forces c into Destruct from Idle or Construct.
func (t *Table) StartDestruct(c grid.Cell, at float64) bool {
	s, ok := t.states[c]
	if !ok || s.Action == Destruct {
		return false
	}
	s.Action = Destruct
	s.StartedAt = at
	return true
}

// Advance applies time-gated transitions at now. Destruct entries that
// complete are dropped from the table; callers remove them from the map.
func (t *Table) Advance(now float64) []Transition {
	var out []Transition
	for _, c := range t.Cells() {
		s := t.states[c]
		switch s.Action {
		case Construct:
			if elapsed(now, s.StartedAt, t.buildSeconds) {
				out = append(out, Transition{Cell: c, From: Construct, At: now})
				s.Action = Idle
				s.StartedAt = 0
			}
		case Destruct:
			if elapsed(now, s.StartedAt, t.destructSeconds) {
				out = append(out, Transition{Cell: c, From: Destruct, Removed: true, At: now})
				delete(t.states, c)
			}
		}
	}
	return out
}

// timeEpsilon absorbs rounding in tick*dt clocks, where now-start can land
// just under a whole duration.
const timeEpsilon = 1e-9

func elapsed(now, start, d float64) bool { return now-start >= d-timeEpsilon }

// Forget drops c without a transition.
func (t *Table) Forget(c grid.Cell) { delete(t.states, c) }

func (t *Table) SetHighlight(c grid.Cell, h Highlight) {
	if s, ok := t.states[c]; ok {
		s.Highlight = h
	}
}

func (t *Table) ClearHighlights() {
	for _, s := range t.states {
		s.Highlight = HighlightNone
	}
}

// Cells returns tracked cells in row-major order.
func (t *Table) Cells() []grid.Cell {
	out := make([]grid.Cell, 0, len(t.states))
	for c := range t.states {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Progress is the completed share (0..1) of the current episode.
func (t *Table) Progress(c grid.Cell, now float64) float64 {
	s, ok := t.states[c]
	if !ok {
		return 0
	}
	var d float64
	switch s.Action {
	case Construct:
		d = t.buildSeconds
	case Destruct:
		d = t.destructSeconds
	default:
		return 1
	}
	if d <= 0 {
		return 1
	}
	p := (now - s.StartedAt) / d
	return max(0, min(1, p))
}

// Ghost is the uncommitted preview instance shown while constructing.
type Ghost struct {
	Kind      catalogs.Kind `json:"kind"`
	Cell      grid.Cell     `json:"cell"`
	Available bool          `json:"available"`
	Highlight Highlight     `json:"highlight"`
}
