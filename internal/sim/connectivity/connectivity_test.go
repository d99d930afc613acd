package connectivity

import (
	"testing"

	"github.com/kirillsurkov/twg-2025-1/internal/sim/catalogs"
	"github.com/kirillsurkov/twg-2025-1/internal/sim/grid"
	"github.com/kirillsurkov/twg-2025-1/internal/sim/mapstore"
)

func c(x, y int) grid.Cell { return grid.Cell{X: x, Y: y} }

func chain() *mapstore.Store {
	s := mapstore.New()
	s.Place(c(0, 0), catalogs.KindPrimaryBlock, mapstore.Main)
	s.Place(c(1, 0), catalogs.KindEmptyRoom, mapstore.Main)
	s.Place(c(2, 0), catalogs.KindEmptyRoom, mapstore.Main)
	s.Place(c(3, 0), catalogs.KindEmptyRoom, mapstore.Main)
	return s
}

func TestChainConnected(t *testing.T) {
	r := Compute(chain().View(mapstore.Main))
	for _, cell := range []grid.Cell{c(1, 0), c(2, 0), c(3, 0)} {
		if !r.Connected(cell) {
			t.Fatalf("%v should be connected", cell)
		}
	}
	if len(r.Orphans()) != 0 {
		t.Fatalf("unexpected orphans: %v", r.Orphans())
	}
	if r.Connected(c(0, 0)) {
		t.Fatalf("anchors are not reported as connected cells")
	}
}

func TestRemovingMiddleOrphansTail(t *testing.T) {
	s := chain()
	s.Remove(c(2, 0), mapstore.Main)
	r := Compute(s.View(mapstore.Main))
	if !r.Connected(c(1, 0)) {
		t.Fatalf("(1,0) should stay connected")
	}
	if r.Connected(c(3, 0)) {
		t.Fatalf("(3,0) should be disconnected")
	}
	if o := r.Orphans(); len(o) != 1 || o[0] != c(3, 0) {
		t.Fatalf("orphans: %v", o)
	}
}

func TestSpeculativeMatchesLiteralRemoval(t *testing.T) {
	s := chain()
	s.Place(c(1, 1), catalogs.KindCargo, mapstore.Main)
	s.Place(c(2, 1), catalogs.KindEmptyRoom, mapstore.Main)
	s.Place(c(3, 1), catalogs.KindFurnace, mapstore.Main)
	s.Place(c(4, 0), catalogs.KindHook, mapstore.Main)
	s.Place(c(-1, 0), catalogs.KindEmptyRoom, mapstore.Main)
	s.SyncPreviewFromMain()

	for _, x := range s.Cells(mapstore.Main) {
		preview := ComputeExcluding(s.View(mapstore.Build), x)

		lit := s.Clone()
		if k, _ := lit.KindAt(x, mapstore.Main); k != catalogs.KindPrimaryBlock {
			lit.Remove(x, mapstore.Main)
		}
		want := Compute(lit.View(mapstore.Main))

		got, exp := preview.ConnectedCells(), want.ConnectedCells()
		if len(got) != len(exp) {
			t.Fatalf("exclude %v: connected %v want %v", x, got, exp)
		}
		for i := range got {
			if got[i] != exp[i] {
				t.Fatalf("exclude %v: connected %v want %v", x, got, exp)
			}
		}
		gotOrphans, wo := preview.Orphans(), want.Orphans()
		if len(gotOrphans) != len(wo) {
			t.Fatalf("exclude %v: orphans %v want %v", x, gotOrphans, wo)
		}
	}
}

func TestAnchorIsNeverExcluded(t *testing.T) {
	s := chain()
	r := ComputeExcluding(s.View(mapstore.Main), c(0, 0))
	if r.ConnectedCount() != 3 {
		t.Fatalf("excluding an anchor must not change reachability, got %d", r.ConnectedCount())
	}
}

func TestNoAnchorsMeansNothingConnected(t *testing.T) {
	s := mapstore.New()
	s.Place(c(0, 0), catalogs.KindEmptyRoom, mapstore.Main)
	s.Place(c(1, 0), catalogs.KindFurnace, mapstore.Main)
	r := Compute(s.View(mapstore.Main))
	if r.ConnectedCount() != 0 || len(r.Orphans()) != 2 {
		t.Fatalf("got connected=%d orphans=%v", r.ConnectedCount(), r.Orphans())
	}
}

func TestMultipleAnchors(t *testing.T) {
	s := mapstore.New()
	s.Place(c(0, 0), catalogs.KindPrimaryBlock, mapstore.Main)
	s.Place(c(10, 0), catalogs.KindPrimaryBlock, mapstore.Main)
	s.Place(c(11, 0), catalogs.KindEmptyRoom, mapstore.Main)
	s.Place(c(5, 5), catalogs.KindEmptyRoom, mapstore.Main)
	r := Compute(s.View(mapstore.Main))
	if !r.Connected(c(11, 0)) || r.Connected(c(5, 5)) {
		t.Fatalf("unexpected result: connected=%v orphans=%v", r.ConnectedCells(), r.Orphans())
	}
}
