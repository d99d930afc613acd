package economy

import (
	"github.com/kirillsurkov/twg-2025-1/internal/sim/catalogs"
)

type Stock struct {
	Current  float64 `json:"current"`
	Capacity float64 `json:"capacity"`
}

// Ledger is the colony-wide store of energy and cargo. It is owned by the
// tick that mutates it; every mutation leaves 0 <= current <= capacity.
type Ledger struct {
	EnergyAvailable float64
	EnergyInUse     float64

	stock [catalogs.NumResources]Stock
}

func NewLedger() *Ledger { return &Ledger{} }

func (l *Ledger) Stock(r catalogs.Resource) Stock {
	if !r.Valid() {
		return Stock{}
	}
	return l.stock[r]
}

func (l *Ledger) Current(r catalogs.Resource) float64 { return l.Stock(r).Current }

// Recompute rebuilds energy and capacity from scratch for the given kinds.
func (l *Ledger) Recompute(cat *catalogs.StructureCatalog, kinds []catalogs.Kind) {
	l.EnergyAvailable = 0
	l.EnergyInUse = 0
	for i := range l.stock {
		l.stock[i].Capacity = 0
	}
	for _, k := range kinds {
		def := cat.Def(k)
		if def.Energy > 0 {
			l.EnergyAvailable += def.Energy
		} else {
			l.EnergyInUse -= def.Energy
		}
		for _, a := range def.Capacity {
			if a.Resource.Valid() && a.Amount > 0 {
				l.stock[a.Resource].Capacity += a.Amount
			}
		}
	}
}

// Clamp truncates every stock into [0, capacity].
func (l *Ledger) Clamp() {
	for i := range l.stock {
		l.stock[i].Current = clamp(l.stock[i].Current, 0, l.stock[i].Capacity)
	}
}

// EnergyRatio is the spare share of generated energy; 0 when nothing is generated.
func (l *Ledger) EnergyRatio() float64 {
	if l.EnergyAvailable <= 0 {
		return 0
	}
	return clamp((l.EnergyAvailable-l.EnergyInUse)/l.EnergyAvailable, 0, 1)
}

// Harvest adds a signed amount and returns the change actually applied.
func (l *Ledger) Harvest(r catalogs.Resource, amount float64) float64 {
	if !r.Valid() {
		return 0
	}
	s := &l.stock[r]
	before := s.Current
	s.Current = clamp(s.Current+amount, 0, s.Capacity)
	return s.Current - before
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

type Summary struct {
	EnergyAvailable float64                     `json:"energy_available"`
	EnergyInUse     float64                     `json:"energy_in_use"`
	EnergyRatio     float64                     `json:"energy_ratio"`
	Cargo           map[catalogs.Resource]Stock `json:"cargo"`
}

func (l *Ledger) Summary() Summary {
	out := Summary{
		EnergyAvailable: l.EnergyAvailable,
		EnergyInUse:     l.EnergyInUse,
		EnergyRatio:     l.EnergyRatio(),
		Cargo:           make(map[catalogs.Resource]Stock, catalogs.NumResources),
	}
	for _, r := range catalogs.AllResources() {
		out.Cargo[r] = l.stock[r]
	}
	return out
}
