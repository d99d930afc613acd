package economy

import (
	"math"
	"testing"

	"github.com/kirillsurkov/twg-2025-1/internal/sim/catalogs"
)

func primaryLedger(t *testing.T, extra ...catalogs.Kind) (*Ledger, *catalogs.StructureCatalog) {
	t.Helper()
	cat := catalogs.Default()
	l := NewLedger()
	l.Recompute(cat, append([]catalogs.Kind{catalogs.KindPrimaryBlock}, extra...))
	return l, cat
}

func TestRecomputeEnergyAndCapacity(t *testing.T) {
	l, _ := primaryLedger(t, catalogs.KindFurnace, catalogs.KindCargo, catalogs.KindGenerator)
	if l.EnergyAvailable != 18 || l.EnergyInUse != 5 {
		t.Fatalf("energy: available=%v in_use=%v", l.EnergyAvailable, l.EnergyInUse)
	}
	if got := l.Stock(catalogs.Stone).Capacity; got != 100 {
		t.Fatalf("stone capacity: got %v want 100", got)
	}
	if got := l.Stock(catalogs.Water).Capacity; got != 45 {
		t.Fatalf("water capacity: got %v want 45", got)
	}
	// A second recompute is a full rebuild, not an accumulation.
	l.Recompute(catalogs.Default(), []catalogs.Kind{catalogs.KindPrimaryBlock})
	if l.EnergyAvailable != 10 || l.EnergyInUse != 0 || l.Stock(catalogs.Stone).Capacity != 50 {
		t.Fatalf("recompute accumulated: %+v", l.Summary())
	}
}

func TestEnergyRatio(t *testing.T) {
	l := NewLedger()
	if r := l.EnergyRatio(); r != 0 {
		t.Fatalf("zero available: got %v", r)
	}
	l.EnergyAvailable, l.EnergyInUse = 10, 4
	if r := l.EnergyRatio(); math.Abs(r-0.6) > 1e-12 {
		t.Fatalf("ratio: got %v", r)
	}
	l.EnergyInUse = 25
	if r := l.EnergyRatio(); r != 0 {
		t.Fatalf("brownout ratio: got %v", r)
	}
}

func TestHarvestClampIdempotence(t *testing.T) {
	l, _ := primaryLedger(t)
	if got := l.Harvest(catalogs.Stone, 80); got != 50 {
		t.Fatalf("credit clamped to capacity: applied %v", got)
	}
	l.Harvest(catalogs.Stone, -math.MaxFloat64)
	l.Harvest(catalogs.Stone, 0)
	if got := l.Current(catalogs.Stone); got != 0 {
		t.Fatalf("current after huge debit: %v", got)
	}
	for i := 0; i < 3; i++ {
		l.Clamp()
		if got := l.Current(catalogs.Stone); got != 0 {
			t.Fatalf("clamp %d: %v", i, got)
		}
	}
}

func TestShrinkingCapacityTruncates(t *testing.T) {
	l, cat := primaryLedger(t, catalogs.KindCargo)
	l.Harvest(catalogs.Ice, 90)
	l.Recompute(cat, []catalogs.Kind{catalogs.KindPrimaryBlock})
	l.Clamp()
	if got := l.Current(catalogs.Ice); got != 50 {
		t.Fatalf("ice after cargo loss: %v", got)
	}
}

func TestFurnaceConservation(t *testing.T) {
	l, _ := primaryLedger(t, catalogs.KindFurnace)
	l.Harvest(catalogs.Ice, 0.3)
	f := l.Convert(catalogs.Conversion{ID: "melt_ice", Inputs: []catalogs.Resource{catalogs.Ice}, Output: catalogs.Water, Rate: 0.4, Ratio: 1}, 1.0)
	if f.Consumed != 0.3 || f.Produced != 0.3 {
		t.Fatalf("flow: %+v", f)
	}
	if l.Current(catalogs.Ice) != 0 || l.Current(catalogs.Water) != 0.3 {
		t.Fatalf("stocks: ice=%v water=%v", l.Current(catalogs.Ice), l.Current(catalogs.Water))
	}
}

func TestConvertIsRateBound(t *testing.T) {
	l, _ := primaryLedger(t)
	l.Harvest(catalogs.Stone, 10)
	f := l.Convert(catalogs.Conversion{ID: "crush", Inputs: []catalogs.Resource{catalogs.Stone}, Output: catalogs.Silicon, Rate: 0.5, Ratio: 0.5}, 2)
	if f.Consumed != 1 || f.Produced != 0.5 {
		t.Fatalf("flow: %+v", f)
	}
	if l.Current(catalogs.Stone) != 9 || l.Current(catalogs.Silicon) != 0.5 {
		t.Fatalf("stocks: stone=%v silicon=%v", l.Current(catalogs.Stone), l.Current(catalogs.Silicon))
	}
}

func TestConvertScalesDownWhenOutputFull(t *testing.T) {
	l, _ := primaryLedger(t)
	l.Harvest(catalogs.UraniumRods, 10)
	l.Harvest(catalogs.Aurelium, 10)
	l.Harvest(catalogs.Batteries, 19.5)
	cv := catalogs.Conversion{ID: "enrich", Inputs: []catalogs.Resource{catalogs.UraniumRods, catalogs.Aurelium}, Output: catalogs.Batteries, Rate: 4, Ratio: 2}
	f := l.Convert(cv, 1)
	if f.Produced != 0.5 || f.Consumed != 0.25 {
		t.Fatalf("flow: %+v", f)
	}
	if l.Current(catalogs.Batteries) != 20 {
		t.Fatalf("batteries: %v", l.Current(catalogs.Batteries))
	}
	if l.Current(catalogs.UraniumRods) != 9.75 || l.Current(catalogs.Aurelium) != 9.75 {
		t.Fatalf("inputs: rods=%v aurelium=%v", l.Current(catalogs.UraniumRods), l.Current(catalogs.Aurelium))
	}
	if f := l.Convert(cv, 1); f.Consumed != 0 {
		t.Fatalf("full output must stop conversion: %+v", f)
	}
}

func TestConvertLimitedByScarcestInput(t *testing.T) {
	l, _ := primaryLedger(t)
	l.Harvest(catalogs.UraniumRods, 0.0625)
	l.Harvest(catalogs.Aurelium, 5)
	cv := catalogs.Default().Def(catalogs.KindEnrichment).Conversions[0]
	f := l.Convert(cv, 1)
	if f.Consumed != 0.0625 {
		t.Fatalf("consumed: %v", f.Consumed)
	}
	if l.Current(catalogs.UraniumRods) != 0 || l.Current(catalogs.Aurelium) != 4.9375 {
		t.Fatalf("inputs: rods=%v aurelium=%v", l.Current(catalogs.UraniumRods), l.Current(catalogs.Aurelium))
	}
}

func TestStepSkipsConversionsInBrownout(t *testing.T) {
	cat := catalogs.Default()
	l := NewLedger()
	members := []Member{
		{Kind: catalogs.KindPrimaryBlock},
		{Kind: catalogs.KindEnrichment, Active: true},
		{Kind: catalogs.KindCrusher, Active: true},
		{Kind: catalogs.KindHook},
	}
	l.Recompute(cat, []catalogs.Kind{catalogs.KindPrimaryBlock})
	l.Harvest(catalogs.Stone, 10)
	rep := l.Step(cat, members, 1)
	if rep.EnergyRatio != 0 || len(rep.Flows) != 0 {
		t.Fatalf("brownout report: %+v", rep)
	}
	if l.Current(catalogs.Stone) != 10 {
		t.Fatalf("stone changed during brownout")
	}

	members = append(members, Member{Kind: catalogs.KindGenerator, Active: true})
	rep = l.Step(cat, members, 1)
	if rep.EnergyRatio <= 0 || len(rep.Flows) != 1 || rep.Flows[0].ConversionID != "crush_stone" {
		t.Fatalf("powered report: %+v", rep)
	}
}

func TestStepInactiveMembersDoNotConvert(t *testing.T) {
	cat := catalogs.Default()
	l := NewLedger()
	l.Recompute(cat, []catalogs.Kind{catalogs.KindPrimaryBlock})
	l.Harvest(catalogs.Ice, 1)
	rep := l.Step(cat, []Member{{Kind: catalogs.KindPrimaryBlock}, {Kind: catalogs.KindFurnace}}, 1)
	if len(rep.Flows) != 0 || l.Current(catalogs.Ice) != 1 {
		t.Fatalf("inactive furnace converted: %+v", rep)
	}
}

func TestShortfallAndDebit(t *testing.T) {
	l, cat := primaryLedger(t)
	recipe := cat.Recipe(catalogs.KindFurnace)
	l.Harvest(catalogs.Silicon, 10)
	l.Harvest(catalogs.Stone, 5)
	sf := l.Shortfall(recipe)
	if len(sf) != 1 || sf[0].Resource != catalogs.Stone || sf[0].Amount != 15 {
		t.Fatalf("shortfall: %+v", sf)
	}
	if l.Debit(recipe) {
		t.Fatalf("debit should fail")
	}
	if l.Current(catalogs.Silicon) != 10 {
		t.Fatalf("failed debit must not withdraw")
	}
	l.Harvest(catalogs.Stone, 15)
	if !l.Debit(recipe) {
		t.Fatalf("debit should succeed")
	}
	if l.Current(catalogs.Silicon) != 0 || l.Current(catalogs.Stone) != 0 {
		t.Fatalf("after debit: %+v", l.Summary())
	}
	if !l.Affordable(nil) {
		t.Fatalf("empty recipe is always affordable")
	}
}
