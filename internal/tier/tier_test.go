package tier

import (
	"testing"

	"github.com/stakecraft/econ-engine/internal/model"
)

// --- Classification ---

func TestClassify_RankAndScoreRules(t *testing.T) {
	tests := []struct {
		name   string
		rank   int
		points int64
		want   Tier
	}{
		{"rank 1", 1, 0, Holographic},
		{"rank 3", 3, 0, Holographic},
		{"rank 4", 4, 0, Diamond},
		{"rank 7", 7, 0, Diamond},
		{"rank 10", 10, 0, Diamond},
		{"rank 11 low score", 11, 500, Iron},
		{"rank 50 gold score", 50, 30000, Gold},
		{"rank 50 gold threshold", 50, 25000, Gold},
		{"rank 50 bronze score", 50, 12000, Bronze},
		{"rank 50 bronze threshold", 50, 10000, Bronze},
		{"rank 50 iron", 50, 500, Iron},
		{"negative points", 40, -3000, Iron},
		{"absent from leaderboard", 0, 0, Iron},
		// Rank rules win before score rules: top-3 with a gold-sized score
		// is still holographic.
		{"rank beats score", 2, 30000, Holographic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.rank, tt.points); got != tt.want {
				t.Errorf("Classify(%d, %d) = %s, want %s",
					tt.rank, tt.points, got, tt.want)
			}
		})
	}
}

// --- Ordering ---

func TestOrdinal_OrderedSet(t *testing.T) {
	ordered := []Tier{Iron, Bronze, Gold, Diamond, Holographic}
	for i := 1; i < len(ordered); i++ {
		lo, _ := ordered[i-1].Ordinal()
		hi, ok := ordered[i].Ordinal()
		if !ok || hi <= lo {
			t.Errorf("%s should order above %s", ordered[i], ordered[i-1])
		}
	}
}

func TestOrdinal_BetaNotComparable(t *testing.T) {
	if _, ok := Beta.Ordinal(); ok {
		t.Error("beta must not participate in ordering")
	}
	if Beta.AtLeast(Iron) || Holographic.AtLeast(Beta) {
		t.Error("comparisons involving beta must be false")
	}
	if !Beta.Valid() {
		t.Error("beta is still a valid tier value")
	}
}

// --- Ratchet ---

func TestRatchet(t *testing.T) {
	tests := []struct {
		name        string
		prev        Tier
		hasPrev     bool
		newTier     Tier
		wantHighest Tier
		wantIsNew   bool
	}{
		{"first ever bronze", "", false, Bronze, Bronze, true},
		{"first ever iron", "", false, Iron, Iron, true},
		{"bronze holds against iron", Bronze, true, Iron, Bronze, false},
		{"bronze to gold rises", Bronze, true, Gold, Gold, true},
		{"gold holds on tie", Gold, true, Gold, Gold, false},
		{"gold to diamond enters band", Gold, true, Diamond, Diamond, true},
		{"diamond to holographic", Diamond, true, Holographic, Holographic, true},
		{"holographic regresses to diamond", Holographic, true, Diamond, Diamond, false},
		// Falling out of the band drops the highest to the current tier.
		{"diamond falls to gold", Diamond, true, Gold, Gold, false},
		{"holographic falls to iron", Holographic, true, Iron, Iron, false},
		// After falling out, normal ratcheting resumes.
		{"gold holds against bronze", Gold, true, Bronze, Gold, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			highest, isNew := Ratchet(tt.prev, tt.hasPrev, tt.newTier)
			if highest != tt.wantHighest {
				t.Errorf("highest = %s, want %s", highest, tt.wantHighest)
			}
			if isNew != tt.wantIsNew {
				t.Errorf("isNew = %v, want %v", isNew, tt.wantIsNew)
			}
		})
	}
}

func TestRatchet_IsNewOnlyOnStrictIncrease(t *testing.T) {
	// First non-iron tier reached → true once, false on recomputation.
	highest, isNew := Ratchet("", false, Bronze)
	if !isNew {
		t.Fatal("first bronze should be a new unlock")
	}
	_, isNew = Ratchet(highest, true, Bronze)
	if isNew {
		t.Error("recomputing the same tier must not re-flag")
	}
	_, isNew = Ratchet(highest, true, Iron)
	if isNew {
		t.Error("dropping to iron must not flag")
	}
}

// --- Batch distribution ---

func TestAssignRanks(t *testing.T) {
	entries := []model.SeasonLeaderboardEntry{
		{UserID: "u-low", Points: 500},
		{UserID: "u-top", Points: 90000},
		{UserID: "u-bronze", Points: 12000},
		{UserID: "u-second", Points: 80000},
		{UserID: "u-third", Points: 70000},
		{UserID: "u-gold", Points: 30000},
	}

	got := AssignRanks(entries)
	if len(got) != len(entries) {
		t.Fatalf("expected %d assignments, got %d", len(entries), len(got))
	}

	want := map[string]struct {
		rank int
		tier Tier
	}{
		"u-top":    {1, Holographic},
		"u-second": {2, Holographic},
		"u-third":  {3, Holographic},
		"u-gold":   {4, Diamond}, // rank rule wins over the gold score
		"u-bronze": {5, Diamond},
		"u-low":    {6, Diamond},
	}
	for _, a := range got {
		w := want[a.UserID]
		if a.Rank != w.rank || a.Tier != w.tier {
			t.Errorf("%s: got rank=%d tier=%s, want rank=%d tier=%s",
				a.UserID, a.Rank, a.Tier, w.rank, w.tier)
		}
	}
}

func TestAssignRanks_LargeField(t *testing.T) {
	entries := make([]model.SeasonLeaderboardEntry, 50)
	for i := range entries {
		entries[i] = model.SeasonLeaderboardEntry{
			UserID: string(rune('a' + i%26)) + string(rune('0'+i/26)),
			Points: int64(50-i) * 1000, // 50000 down to 1000
		}
	}

	for _, a := range AssignRanks(entries) {
		var want Tier
		points := int64(51-a.Rank) * 1000
		switch {
		case a.Rank <= 3:
			want = Holographic
		case a.Rank <= 10:
			want = Diamond
		case points >= 25000:
			want = Gold
		case points >= 10000:
			want = Bronze
		default:
			want = Iron
		}
		if a.Tier != want {
			t.Errorf("rank %d (points %d): got %s, want %s",
				a.Rank, points, a.Tier, want)
		}
	}
}

func TestAssignRanks_Empty(t *testing.T) {
	if got := AssignRanks(nil); len(got) != 0 {
		t.Errorf("expected no assignments, got %d", len(got))
	}
}

func TestRankOf(t *testing.T) {
	entries := []model.SeasonLeaderboardEntry{
		{UserID: "a", Points: 100},
		{UserID: "b", Points: 300},
		{UserID: "c", Points: 200},
	}
	if r := RankOf(entries, "b"); r != 1 {
		t.Errorf("expected rank 1 for b, got %d", r)
	}
	if r := RankOf(entries, "a"); r != 3 {
		t.Errorf("expected rank 3 for a, got %d", r)
	}
	if r := RankOf(entries, "missing"); r != 0 {
		t.Errorf("expected rank 0 for missing user, got %d", r)
	}
}
