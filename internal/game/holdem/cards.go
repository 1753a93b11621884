package holdem

import (
	"fmt"
	"math/rand"
)

type Suit int

type Rank int

const (
	Spades Suit = iota
	Hearts
	Diamonds
	Clubs
)

const (
	Two   Rank = 2
	Three Rank = 3
	Four  Rank = 4
	Five  Rank = 5
	Six   Rank = 6
	Seven Rank = 7
	Eight Rank = 8
	Nine  Rank = 9
	Ten   Rank = 10
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
	Ace   Rank = 14
)

const rankChars = "23456789TJQKA"
const suitChars = "shdc"

type Card struct {
	Rank Rank
	Suit Suit
}

func (c Card) String() string {
	if c.Rank < Two || c.Rank > Ace || c.Suit < Spades || c.Suit > Clubs {
		return "??"
	}
	return string(rankChars[c.Rank-Two]) + string(suitChars[c.Suit])
}

func (c Card) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Card) UnmarshalText(b []byte) error {
	parsed, err := ParseCard(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCard reads the two-character form produced by Card.String, e.g. "As" or "Td".
func ParseCard(s string) (Card, error) {
	if len(s) != 2 {
		return Card{}, fmt.Errorf("invalid card %q", s)
	}
	r, s2 := -1, -1
	for i := 0; i < len(rankChars); i++ {
		if rankChars[i] == s[0] {
			r = i
		}
	}
	for i := 0; i < len(suitChars); i++ {
		if suitChars[i] == s[1] {
			s2 = i
		}
	}
	if r < 0 || s2 < 0 {
		return Card{}, fmt.Errorf("invalid card %q", s)
	}
	return Card{Rank: Two + Rank(r), Suit: Suit(s2)}, nil
}

func cardStrings(cards []Card) []string {
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.String())
	}
	return out
}

// FullDeck returns the 52 cards in suit-major order.
func FullDeck() []Card {
	cards := make([]Card, 0, 52)
	for s := Spades; s <= Clubs; s++ {
		for r := Two; r <= Ace; r++ {
			cards = append(cards, Card{Rank: r, Suit: s})
		}
	}
	return cards
}

// Shuffler permutes cards in place.
type Shuffler func(cards []Card)

// RandomShuffle is a uniform Fisher-Yates permutation on the auto-seeded global source.
func RandomShuffle(cards []Card) {
	rand.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
}
