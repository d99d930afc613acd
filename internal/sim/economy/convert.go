package economy

import "github.com/kirillsurkov/twg-2025-1/internal/sim/catalogs"

type Flow struct {
	ConversionID string            `json:"conversion_id"`
	Output       catalogs.Resource `json:"output"`
	Consumed     float64           `json:"consumed"`
	Produced     float64           `json:"produced"`
}

// Convert applies one conversion for dt seconds. Each input loses the same
// amount and the output gains amount*Ratio, scaled down together when the
// output would overflow its capacity.
func (l *Ledger) Convert(cv catalogs.Conversion, dt float64) Flow {
	f := Flow{ConversionID: cv.ID, Output: cv.Output}
	if dt <= 0 || cv.Rate <= 0 || cv.Ratio <= 0 || len(cv.Inputs) == 0 || !cv.Output.Valid() {
		return f
	}
	amount := cv.Rate * dt
	for _, in := range cv.Inputs {
		amount = min(amount, l.Current(in))
	}
	if amount <= 0 {
		return f
	}

	out := &l.stock[cv.Output]
	room := out.Capacity - out.Current
	if room <= 0 {
		return f
	}
	produced := amount * cv.Ratio
	full := false
	if produced >= room {
		produced = room
		amount = room / cv.Ratio
		full = true
	}

	for _, in := range cv.Inputs {
		s := &l.stock[in]
		s.Current = clamp(s.Current-amount, 0, s.Capacity)
	}
	if full {
		out.Current = out.Capacity
	} else {
		out.Current += produced
	}
	f.Consumed = amount
	f.Produced = produced
	return f
}

type Member struct {
	Kind catalogs.Kind
	// Active members run their conversions; inactive ones only count
	// towards energy and capacity.
	Active bool
}

type Report struct {
	EnergyRatio float64 `json:"energy_ratio"`
	Flows       []Flow  `json:"flows,omitempty"`
}

// Step runs one economy tick over members, in the order given.
func (l *Ledger) Step(cat *catalogs.StructureCatalog, members []Member, dt float64) Report {
	kinds := make([]catalogs.Kind, len(members))
	for i, m := range members {
		kinds[i] = m.Kind
	}
	l.Recompute(cat, kinds)
	l.Clamp()

	rep := Report{EnergyRatio: l.EnergyRatio()}
	if rep.EnergyRatio <= 0 {
		return rep
	}
	for _, m := range members {
		if !m.Active {
			continue
		}
		for _, cv := range cat.Def(m.Kind).Conversions {
			if f := l.Convert(cv, dt); f.Consumed > 0 {
				rep.Flows = append(rep.Flows, f)
			}
		}
	}
	return rep
}
