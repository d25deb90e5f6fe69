package economy

import "testing"

func TestCanAffordIsFalseOnlyWhenShort(t *testing.T) {
	l := NewLedger(Amounts{Energy: 10, Minerals: 5})

	cases := []struct {
		cost Amounts
		want bool
	}{
		{Amounts{Energy: 10}, true},
		{Amounts{Energy: 10.5}, false},
		{Amounts{Energy: 3, Minerals: 5}, true},
		{Amounts{Minerals: 6}, false},
		{Amounts{Food: 1}, false},
		{Amounts{}, true},
		{nil, true},
	}
	for _, tc := range cases {
		if got := l.CanAfford(tc.cost); got != tc.want {
			t.Fatalf("CanAfford(%v) = %v, want %v", tc.cost, got, tc.want)
		}
	}
}

func TestSpendDebitsAndLeavesSourceUntouched(t *testing.T) {
	l := NewLedger(Amounts{Energy: 10, Minerals: 4})
	out := l.Spend(Amounts{Energy: 10, Minerals: 1})

	if got := out.Amount(Energy); got != 0 {
		t.Fatalf("energy = %v, want 0", got)
	}
	if got := out.Amount(Minerals); got != 3 {
		t.Fatalf("minerals = %v, want 3", got)
	}
	if got := l.Amount(Energy); got != 10 {
		t.Fatalf("source ledger mutated: energy = %v", got)
	}
}

func TestSpendUnaffordablePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	NewLedger(Amounts{Energy: 1}).Spend(Amounts{Energy: 2})
}

func TestRecomputeAndAccrue(t *testing.T) {
	l := NewLedger(Amounts{Food: 1})
	planets := []Planet{
		{ID: "PLANET-0001", Production: Amounts{Energy: 4, Food: 2}, Upkeep: Amounts{Food: 5}},
	}
	l = Recompute(l, planets, Rates{Income: Amounts{Energy: 1}, Upkeep: Amounts{Energy: 2}})

	if got := l[Energy]; got.Income != 5 || got.Upkeep != 2 {
		t.Fatalf("energy line = %+v, want income 5 upkeep 2", got)
	}

	l = Accrue(l)
	if got := l.Amount(Energy); got != 3 {
		t.Fatalf("energy = %v, want 3", got)
	}
	// food: 1 + 2 - 5 floors at zero
	if got := l.Amount(Food); got != 0 {
		t.Fatalf("food = %v, want 0", got)
	}
}

func TestPlanetIn(t *testing.T) {
	planets := []Planet{{ID: "PLANET-0001", SystemID: "SYS-004"}}
	if _, ok := PlanetIn(planets, "SYS-004"); !ok {
		t.Fatalf("expected planet in SYS-004")
	}
	if _, ok := PlanetIn(planets, "SYS-005"); ok {
		t.Fatalf("unexpected planet in SYS-005")
	}
}

func TestCreditRefundsWithoutTouchingSource(t *testing.T) {
	l := NewLedger(Amounts{Minerals: 5})
	out := l.Credit(Amounts{Minerals: 20, Energy: -3})
	if out.Amount(Minerals) != 25 || out.Amount(Energy) != 0 {
		t.Fatalf("credited ledger = %+v", out)
	}
	if l.Amount(Minerals) != 5 {
		t.Fatalf("source minerals = %v, want 5", l.Amount(Minerals))
	}
}

func TestPlanetCloneCopiesCounts(t *testing.T) {
	p := Planet{ID: "PLANET-0001", Districts: map[string]int{"mining": 1}, Jobs: map[string]int{"miner": 2}}
	c := p.Clone()
	c.Districts["mining"]++
	c.Jobs["miner"] = 0
	if p.Districts["mining"] != 1 || p.Jobs["miner"] != 2 {
		t.Fatalf("clone shares maps with source: %+v", p)
	}
}
