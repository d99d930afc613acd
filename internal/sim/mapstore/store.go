package mapstore

import (
	"math"
	"sort"

	"github.com/kirillsurkov/twg-2025-1/internal/sim/catalogs"
	"github.com/kirillsurkov/twg-2025-1/internal/sim/grid"
)

type Layer uint8

const (
	Main Layer = iota
	Build

	numLayers = iota
)

func (l Layer) String() string {
	switch l {
	case Main:
		return "MAIN"
	case Build:
		return "BUILD"
	default:
		return "UNKNOWN"
	}
}

// Bounds is an inclusive axis-aligned box. An empty store has Min > Max.
type Bounds struct {
	Min grid.Cell `json:"min"`
	Max grid.Cell `json:"max"`
}

func emptyBounds() Bounds {
	return Bounds{
		Min: grid.Cell{X: math.MaxInt, Y: math.MaxInt},
		Max: grid.Cell{X: math.MinInt, Y: math.MinInt},
	}
}

func (b Bounds) Empty() bool { return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y }

func (b Bounds) Contains(c grid.Cell) bool {
	return c.X >= b.Min.X && c.X <= b.Max.X && c.Y >= b.Min.Y && c.Y <= b.Max.Y
}

// Store holds the committed Main layer and the Build preview layer.
// It is not safe for concurrent use.
type Store struct {
	layers [numLayers]map[grid.Cell]catalogs.Kind
	bounds Bounds
}

func New() *Store {
	s := &Store{bounds: emptyBounds()}
	for i := range s.layers {
		s.layers[i] = map[grid.Cell]catalogs.Kind{}
	}
	return s
}

// Clone returns a deep copy of both layers.
func (s *Store) Clone() *Store {
	out := New()
	for i, m := range s.layers {
		for c, k := range m {
			out.layers[i][c] = k
		}
	}
	out.bounds = s.bounds
	return out
}

func (s *Store) layer(l Layer) map[grid.Cell]catalogs.Kind {
	if int(l) >= numLayers {
		return nil
	}
	return s.layers[l]
}

// Place inserts or overwrites. Callers check IsAvailable first.
func (s *Store) Place(c grid.Cell, k catalogs.Kind, l Layer) {
	m := s.layer(l)
	if m == nil {
		return
	}
	m[c] = k
	s.recalculateBounds()
}

// Remove deletes c from l; absent cells are a no-op.
func (s *Store) Remove(c grid.Cell, l Layer) {
	m := s.layer(l)
	if m == nil {
		return
	}
	if _, ok := m[c]; !ok {
		return
	}
	delete(m, c)
	s.recalculateBounds()
}

func (s *Store) Contains(c grid.Cell, l Layer) bool {
	_, ok := s.layer(l)[c]
	return ok
}

func (s *Store) KindAt(c grid.Cell, l Layer) (catalogs.Kind, bool) {
	k, ok := s.layer(l)[c]
	return k, ok
}

func (s *Store) Len(l Layer) int { return len(s.layer(l)) }

// IsAvailable reports whether k may be placed at c on Main. Rooms grow the
// colony into empty cells next to an existing structure; every other kind
// fills an existing empty room.
func (s *Store) IsAvailable(c grid.Cell, k catalogs.Kind) bool {
	main := s.layers[Main]
	switch k {
	case catalogs.KindEmptyRoom:
		if _, occupied := main[c]; occupied {
			return false
		}
		for _, n := range c.Neighbors() {
			if _, ok := main[n]; ok {
				return true
			}
		}
		return false
	default:
		cur, ok := main[c]
		return ok && cur == catalogs.KindEmptyRoom
	}
}

// SyncPreviewFromMain overwrites Build with a copy of Main.
func (s *Store) SyncPreviewFromMain() {
	b := make(map[grid.Cell]catalogs.Kind, len(s.layers[Main]))
	for c, k := range s.layers[Main] {
		b[c] = k
	}
	s.layers[Build] = b
	s.recalculateBounds()
}

func (s *Store) BoundingBox() Bounds { return s.bounds }

func (s *Store) recalculateBounds() {
	b := emptyBounds()
	for _, m := range s.layers {
		for c := range m {
			b.Min.X = min(b.Min.X, c.X)
			b.Min.Y = min(b.Min.Y, c.Y)
			b.Max.X = max(b.Max.X, c.X)
			b.Max.Y = max(b.Max.Y, c.Y)
		}
	}
	s.bounds = b
}

// Cells returns the occupied cells of l in row-major order.
func (s *Store) Cells(l Layer) []grid.Cell {
	m := s.layer(l)
	out := make([]grid.Cell, 0, len(m))
	for c := range m {
		out = append(out, c)
	}
	sortCells(out)
	return out
}

// Anchors returns the PrimaryBlock cells of l in row-major order.
func (s *Store) Anchors(l Layer) []grid.Cell {
	var out []grid.Cell
	for c, k := range s.layer(l) {
		if k == catalogs.KindPrimaryBlock {
			out = append(out, c)
		}
	}
	sortCells(out)
	return out
}

// View binds the store to one layer.
func (s *Store) View(l Layer) LayerView { return LayerView{s: s, l: l} }

type LayerView struct {
	s *Store
	l Layer
}

func (v LayerView) KindAt(c grid.Cell) (catalogs.Kind, bool) { return v.s.KindAt(c, v.l) }
func (v LayerView) Anchors() []grid.Cell                     { return v.s.Anchors(v.l) }
func (v LayerView) Cells() []grid.Cell                       { return v.s.Cells(v.l) }

func sortCells(cs []grid.Cell) {
	sort.Slice(cs, func(i, j int) bool { return cs[i].Less(cs[j]) })
}
