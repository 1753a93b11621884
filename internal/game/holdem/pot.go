package holdem

import "sort"

type Pot struct {
	Amount   int64
	Eligible []int
}

// ComputePots layers total contributions into a main pot and side pots. Chips put in by
// folded players are dead money: they join the first layer they reach but never make
// their owner eligible.
func ComputePots(contribs []int64, live []bool) []Pot {
	levels := make([]int64, 0, len(contribs))
	seen := map[int64]bool{}
	for i, c := range contribs {
		if live[i] && c > 0 && !seen[c] {
			seen[c] = true
			levels = append(levels, c)
		}
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })

	pots := make([]Pot, 0, len(levels))
	var prev, assigned int64
	for _, level := range levels {
		pot := Pot{}
		for i, c := range contribs {
			pot.Amount += min64(c, level) - min64(c, prev)
			if live[i] && c >= level {
				pot.Eligible = append(pot.Eligible, i)
			}
		}
		assigned += pot.Amount
		pots = append(pots, pot)
		prev = level
	}

	var total int64
	for _, c := range contribs {
		total += c
	}
	if rest := total - assigned; rest > 0 && len(pots) > 0 {
		pots[len(pots)-1].Amount += rest
	}
	return pots
}
