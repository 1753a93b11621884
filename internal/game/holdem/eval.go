package holdem

import (
	"sort"
)

// Category ranking, highest wins.
const (
	HighCard = iota
	OnePair
	TwoPair
	Trips
	Straight
	Flush
	FullHouse
	Quads
	StraightFlush
)

type HandRank struct {
	Category int
	Ranks    []int
}

func (h HandRank) BetterThan(o HandRank) bool {
	return h.Compare(o) > 0
}

func (h HandRank) Compare(o HandRank) int {
	if h.Category != o.Category {
		if h.Category > o.Category {
			return 1
		}
		return -1
	}
	for i := 0; i < len(h.Ranks) && i < len(o.Ranks); i++ {
		if h.Ranks[i] != o.Ranks[i] {
			if h.Ranks[i] > o.Ranks[i] {
				return 1
			}
			return -1
		}
	}
	return 0
}

// Evaluate returns the best five-card rank among 5 to 7 cards.
func Evaluate(cards []Card) HandRank {
	best := HandRank{Category: -1}
	n := len(cards)
	if n < 5 {
		return best
	}
	var pick [5]Card
	var walk func(start, depth int)
	walk = func(start, depth int) {
		if depth == 5 {
			h := eval5(pick)
			if h.BetterThan(best) {
				best = h
			}
			return
		}
		for i := start; i <= n-(5-depth); i++ {
			pick[depth] = cards[i]
			walk(i+1, depth+1)
		}
	}
	walk(0, 0)
	return best
}

func eval5(cards [5]Card) HandRank {
	counts := map[int]int{}
	suits := map[Suit]int{}
	ranks := make([]int, 0, 5)
	for _, c := range cards {
		r := int(c.Rank)
		counts[r]++
		suits[c.Suit]++
		ranks = append(ranks, r)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ranks)))
	isFlush := len(suits) == 1
	isStraight, highStraight := straightHigh(ranks)
	if isFlush && isStraight {
		return HandRank{Category: StraightFlush, Ranks: []int{highStraight}}
	}

	type rc struct {
		rank  int
		count int
	}
	groups := make([]rc, 0, len(counts))
	for r, c := range counts {
		groups = append(groups, rc{rank: r, count: c})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].count != groups[j].count {
			return groups[i].count > groups[j].count
		}
		return groups[i].rank > groups[j].rank
	})

	switch {
	case groups[0].count == 4:
		return HandRank{Category: Quads, Ranks: []int{groups[0].rank, groups[1].rank}}
	case groups[0].count == 3 && groups[1].count == 2:
		return HandRank{Category: FullHouse, Ranks: []int{groups[0].rank, groups[1].rank}}
	case isFlush:
		return HandRank{Category: Flush, Ranks: ranks}
	case isStraight:
		return HandRank{Category: Straight, Ranks: []int{highStraight}}
	}

	// Remaining categories order their group ranks then kickers, which is exactly the
	// sorted group list.
	ordered := make([]int, 0, len(groups))
	for _, g := range groups {
		ordered = append(ordered, g.rank)
	}
	switch {
	case groups[0].count == 3:
		return HandRank{Category: Trips, Ranks: ordered}
	case groups[0].count == 2 && groups[1].count == 2:
		return HandRank{Category: TwoPair, Ranks: ordered}
	case groups[0].count == 2:
		return HandRank{Category: OnePair, Ranks: ordered}
	}
	return HandRank{Category: HighCard, Ranks: ranks}
}

func straightHigh(sortedDesc []int) (bool, int) {
	if len(sortedDesc) != 5 {
		return false, 0
	}
	for i := 1; i < 5; i++ {
		if sortedDesc[i-1] == sortedDesc[i] {
			return false, 0
		}
	}
	if sortedDesc[0]-sortedDesc[4] == 4 {
		return true, sortedDesc[0]
	}
	// Wheel A-5
	if sortedDesc[0] == int(Ace) && sortedDesc[1] == 5 && sortedDesc[4] == 2 {
		return true, 5
	}
	return false, 0
}
