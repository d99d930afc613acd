package connectivity

import (
	"sort"

	"github.com/zyedidia/generic/mapset"

	"github.com/kirillsurkov/twg-2025-1/internal/sim/catalogs"
	"github.com/kirillsurkov/twg-2025-1/internal/sim/grid"
)

type View interface {
	KindAt(grid.Cell) (catalogs.Kind, bool)
	Anchors() []grid.Cell
	Cells() []grid.Cell
}

type Result struct {
	connected mapset.Set[grid.Cell]
	orphans   []grid.Cell
}

// Connected reports whether a non-anchor cell is reachable from an anchor.
func (r Result) Connected(c grid.Cell) bool { return r.connected.Has(c) }

// Orphans returns the non-anchor cells with no path to any anchor, row-major.
func (r Result) Orphans() []grid.Cell { return r.orphans }

func (r Result) ConnectedCount() int { return r.connected.Size() }

// ConnectedCells returns the reachable non-anchor cells, row-major.
func (r Result) ConnectedCells() []grid.Cell {
	out := make([]grid.Cell, 0, r.connected.Size())
	r.connected.Each(func(c grid.Cell) { out = append(out, c) })
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

func Compute(v View) Result {
	return walk(v, nil)
}

// ComputeExcluding evaluates v as if removed were absent. Anchors are never
// excluded.
func ComputeExcluding(v View, removed grid.Cell) Result {
	return walk(v, &removed)
}

func walk(v View, removed *grid.Cell) Result {
	visited := mapset.New[grid.Cell]()
	connected := mapset.New[grid.Cell]()

	if removed != nil {
		if k, ok := v.KindAt(*removed); !ok || k != catalogs.KindPrimaryBlock {
			visited.Put(*removed)
		}
	}

	anchors := v.Anchors()
	q := make([]grid.Cell, 0, len(anchors))
	q = append(q, anchors...)

	for len(q) > 0 {
		p := q[0]
		q = q[1:]
		visited.Put(p)

		for _, n := range p.Neighbors() {
			if visited.Has(n) || connected.Has(n) {
				continue
			}
			k, ok := v.KindAt(n)
			if !ok || k == catalogs.KindPrimaryBlock {
				continue
			}
			connected.Put(n)
			q = append(q, n)
		}
	}

	var orphans []grid.Cell
	for _, c := range v.Cells() {
		if removed != nil && c == *removed {
			continue
		}
		if k, ok := v.KindAt(c); ok && k == catalogs.KindPrimaryBlock {
			continue
		}
		if !connected.Has(c) {
			orphans = append(orphans, c)
		}
	}
	sort.Slice(orphans, func(i, j int) bool { return orphans[i].Less(orphans[j]) })
	return Result{connected: connected, orphans: orphans}
}
