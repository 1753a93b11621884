package holdem

import "testing"

func TestComputePotsSidePots(t *testing.T) {
	pots := ComputePots([]int64{100, 300, 300}, []bool{true, true, true})
	if len(pots) != 2 {
		t.Fatalf("expected 2 pots, got %d", len(pots))
	}
	if pots[0].Amount != 300 || len(pots[0].Eligible) != 3 {
		t.Fatalf("unexpected main pot: %+v", pots[0])
	}
	if pots[1].Amount != 400 || len(pots[1].Eligible) != 2 {
		t.Fatalf("unexpected side pot: %+v", pots[1])
	}
}

func TestComputePotsDeadMoney(t *testing.T) {
	pots := ComputePots([]int64{50, 100, 100}, []bool{false, true, true})
	if len(pots) != 1 {
		t.Fatalf("expected 1 pot, got %d", len(pots))
	}
	if pots[0].Amount != 250 {
		t.Fatalf("expected dead money in pot, got %d", pots[0].Amount)
	}
	for _, i := range pots[0].Eligible {
		if i == 0 {
			t.Fatalf("folded seat must not be eligible: %+v", pots[0])
		}
	}
}

func TestComputePotsFoldedOverContribution(t *testing.T) {
	// A folded seat that put in more than every live seat still has its chips awarded.
	pots := ComputePots([]int64{500, 200, 200}, []bool{false, true, true})
	var total int64
	for _, p := range pots {
		total += p.Amount
	}
	if total != 900 {
		t.Fatalf("expected every chip assigned, got %d", total)
	}
}
