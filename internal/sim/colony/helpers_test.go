package colony

import (
	"testing"

	"github.com/kirillsurkov/twg-2025-1/internal/protocol"
	"github.com/kirillsurkov/twg-2025-1/internal/sim/catalogs"
	"github.com/kirillsurkov/twg-2025-1/internal/sim/grid"
	"github.com/kirillsurkov/twg-2025-1/internal/sim/mapstore"
)

func newTestColony(t *testing.T, mut func(*Config)) *Colony {
	t.Helper()
	cfg := Config{
		TickRateHz:     10,
		Seed:           7,
		DestructJitter: 0.5,
	}
	if mut != nil {
		mut(&cfg)
	}
	c, err := New(cfg, catalogs.Default())
	if err != nil {
		t.Fatalf("new colony: %v", err)
	}
	return c
}

func cell(x, y int) grid.Cell { return grid.Cell{X: x, Y: y} }

// seed commits a finished structure without going through the build flow.
func seed(c *Colony, at grid.Cell, k catalogs.Kind) {
	c.store.Place(at, k, mapstore.Main)
	c.table.Track(at)
}

func modeIn(mode, kind string) Input {
	return Input{SessionID: "S1", Mode: &protocol.ModeMsg{Type: protocol.TypeMode, Mode: mode, Kind: kind}}
}

func interactIn(x, y int) Input {
	return Input{SessionID: "S1", Mode: &protocol.ModeMsg{Type: protocol.TypeMode, Mode: protocol.ModeInteract, Cell: &[2]int{x, y}}}
}

func cursorIn(x, y int, confirm bool) Input {
	return Input{SessionID: "S1", Cursor: &protocol.CursorMsg{Type: protocol.TypeCursor, Cell: &[2]int{x, y}, Confirm: confirm}}
}

func harvestIn(x, y int, res string, amt float64) Input {
	return Input{SessionID: "S1", Harvest: &protocol.HarvestMsg{Type: protocol.TypeHarvest, Cell: [2]int{x, y}, Resource: res, Amount: amt}}
}

func pauseIn(p bool) Input {
	return Input{SessionID: "S1", Pause: &protocol.PauseMsg{Type: protocol.TypePause, Paused: p}}
}

func stepN(c *Colony, n int) {
	for i := 0; i < n; i++ {
		c.StepOnce(nil)
	}
}

func mustStructure(t *testing.T, c *Colony, at grid.Cell) Structure {
	t.Helper()
	s, ok := c.Structure(at)
	if !ok {
		t.Fatalf("no structure at %v", at)
	}
	return s
}

func rejectedCodes(c *Colony) []string {
	var out []string
	for _, ev := range c.Latest().Events {
		if ev.Type == "REJECTED" {
			out = append(out, ev.Code)
		}
	}
	return out
}
