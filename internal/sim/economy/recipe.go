package economy

import "github.com/kirillsurkov/twg-2025-1/internal/sim/catalogs"

// Shortfall returns what is still missing to pay recipe from the ledger.
func (l *Ledger) Shortfall(recipe []catalogs.ResourceAmount) []catalogs.ResourceAmount {
	if len(recipe) == 0 {
		return nil
	}
	need := map[catalogs.Resource]float64{}
	order := make([]catalogs.Resource, 0, len(recipe))
	for _, a := range recipe {
		if !a.Resource.Valid() || a.Amount <= 0 {
			continue
		}
		if _, ok := need[a.Resource]; !ok {
			order = append(order, a.Resource)
		}
		need[a.Resource] += a.Amount
	}
	var out []catalogs.ResourceAmount
	for _, r := range order {
		n := need[r] - l.Current(r)
		if n > 0 {
			out = append(out, catalogs.ResourceAmount{Resource: r, Amount: n})
		}
	}
	return out
}

func (l *Ledger) Affordable(recipe []catalogs.ResourceAmount) bool {
	return len(l.Shortfall(recipe)) == 0
}

// Debit withdraws recipe atomically; nothing is taken when it is not affordable.
func (l *Ledger) Debit(recipe []catalogs.ResourceAmount) bool {
	if !l.Affordable(recipe) {
		return false
	}
	for _, a := range recipe {
		if a.Amount > 0 {
			l.Harvest(a.Resource, -a.Amount)
		}
	}
	return true
}
