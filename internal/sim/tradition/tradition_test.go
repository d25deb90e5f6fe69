package tradition

import (
	"testing"

	"planets-engine/internal/sim/economy"
	"planets-engine/internal/sim/rules"
)

func testConfig() Config {
	return Config{
		PointsPerInfluenceIncome: 0.5,
		Perks: []Perk{
			{ID: "unity", Cost: 2, Production: economy.Amounts{economy.Influence: 1}},
			{ID: "expansion", Cost: 3, Prerequisites: []string{"unity"}},
			{ID: "pacifism", Cost: 1, ExclusiveGroup: "stance"},
			{ID: "militarism", Cost: 1, ExclusiveGroup: "stance"},
		},
	}
}

func TestAdvanceAccumulatesPoints(t *testing.T) {
	cfg := testConfig()
	s := Advance(NewState(cfg), cfg, 4)
	if s.AvailablePoints != 2 {
		t.Fatalf("points = %v, want 2", s.AvailablePoints)
	}
	if got := Advance(s, cfg, -3); got.AvailablePoints != 2 {
		t.Fatalf("negative income changed points to %v", got.AvailablePoints)
	}
}

func TestUnlockRejections(t *testing.T) {
	cfg := testConfig()
	s := NewState(cfg)

	cases := []struct {
		perk string
		want rules.Reason
	}{
		{"missing", rules.InvalidPerk},
		{"expansion", rules.PrereqNotMet},
		{"unity", rules.InsufficientPoints},
	}
	for _, tc := range cases {
		_, err := Unlock(s, cfg, tc.perk)
		if got, _ := rules.ReasonOf(err); got != tc.want {
			t.Fatalf("Unlock(%s) = %q, want %q", tc.perk, got, tc.want)
		}
	}
}

func TestUnlockDebitsAndUpdatesChoices(t *testing.T) {
	cfg := testConfig()
	s := NewState(cfg)
	s.AvailablePoints = 10

	s, err := Unlock(s, cfg, "unity")
	if err != nil {
		t.Fatalf("Unlock unity: %v", err)
	}
	if s.AvailablePoints != 8 {
		t.Fatalf("points = %v, want 8", s.AvailablePoints)
	}
	if _, err := Unlock(s, cfg, "unity"); err == nil {
		t.Fatalf("expected ALREADY_UNLOCKED")
	} else if r, _ := rules.ReasonOf(err); r != rules.AlreadyUnlocked {
		t.Fatalf("reason = %s", r)
	}

	choices := map[string]bool{}
	for _, p := range Choices(s, cfg) {
		choices[p.ID] = true
	}
	if !choices["expansion"] || choices["unity"] {
		t.Fatalf("choices = %v", choices)
	}

	s, err = Unlock(s, cfg, "pacifism")
	if err != nil {
		t.Fatalf("Unlock pacifism: %v", err)
	}
	if _, err := Unlock(s, cfg, "militarism"); err == nil {
		t.Fatalf("militarism unlocked despite exclusive pick")
	}
	if got := Bonuses(s, cfg)[economy.Influence]; got != 1 {
		t.Fatalf("influence bonus = %v, want 1", got)
	}
}
