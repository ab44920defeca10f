package season_test

import (
	"context"
	"testing"
	"time"

	"github.com/stakecraft/econ-engine/internal/model"
	"github.com/stakecraft/econ-engine/internal/season"
	"github.com/stakecraft/econ-engine/internal/store"
	"github.com/stakecraft/econ-engine/internal/tier"
)

// seedBoard writes one leaderboard row per (user, points) pair, in order.
func seedBoard(t *testing.T, ms *store.MemoryStore, seasonID string, rows []struct {
	user   string
	points int64
}) {
	t.Helper()
	ctx := context.Background()
	for _, row := range rows {
		if err := ms.ApplyLeaderboardDelta(ctx, seasonID, row.user, row.points, true, row.points); err != nil {
			t.Fatalf("seed leaderboard: %v", err)
		}
	}
}

var standings = []struct {
	user   string
	points int64
}{
	{"u01", 100000}, {"u02", 90000}, {"u03", 80000},
	{"u04", 70000}, {"u05", 65000}, {"u06", 60000}, {"u07", 55000},
	{"u08", 50000}, {"u09", 45000}, {"u10", 40000},
	{"u11", 26000}, // outside top 10, above the gold threshold
	{"u12", 12000}, // bronze by points
	{"u13", 500},   // iron
}

func TestDistribute_AssignsTiers(t *testing.T) {
	ms := store.NewMemoryStore()
	svc := season.NewService(ms)
	ctx := context.Background()
	seedBoard(t, ms, "s1", standings)

	res, err := svc.Distribute(ctx, ms, "s1")
	if err != nil {
		t.Fatalf("distribute: %v", err)
	}
	if res.Participants != 13 || res.CardsCreated != 13 || res.Skipped != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}

	want := map[string]tier.Tier{
		"u01": tier.Holographic,
		"u03": tier.Holographic,
		"u04": tier.Diamond,
		"u10": tier.Diamond,
		"u11": tier.Gold,
		"u12": tier.Bronze,
		"u13": tier.Iron,
	}
	for user, wantTier := range want {
		card, err := ms.GetSeasonCard(ctx, "s1", user)
		if err != nil || card == nil {
			t.Fatalf("card missing for %s: %v", user, err)
		}
		if card.Tier != string(wantTier) {
			t.Errorf("%s: expected %s, got %s", user, wantTier, card.Tier)
		}
		if card.HighestTier != string(wantTier) {
			t.Errorf("%s: fresh card should ratchet to its own tier, got %s", user, card.HighestTier)
		}
	}
}

func TestDistribute_Idempotent(t *testing.T) {
	ms := store.NewMemoryStore()
	svc := season.NewService(ms)
	ctx := context.Background()
	seedBoard(t, ms, "s1", standings)

	if _, err := svc.Distribute(ctx, ms, "s1"); err != nil {
		t.Fatalf("first run: %v", err)
	}
	res, err := svc.Distribute(ctx, ms, "s1")
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if res.CardsCreated != 0 || res.Skipped != 13 {
		t.Errorf("second run should skip everything: %+v", res)
	}
}

func TestRecomputeCard_FirstComputation(t *testing.T) {
	ms := store.NewMemoryStore()
	svc := season.NewService(ms)
	ctx := context.Background()
	seedBoard(t, ms, "s1", standings)

	res, err := svc.RecomputeCard(ctx, "s1", "u01")
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if res.Rank != 1 || res.Tier != tier.Holographic {
		t.Errorf("expected rank 1 holographic, got rank %d %s", res.Rank, res.Tier)
	}
	if !res.IsNewTier {
		t.Error("first computation should report a new tier")
	}
}

func TestRecomputeCard_AbsentUser(t *testing.T) {
	ms := store.NewMemoryStore()
	svc := season.NewService(ms)

	res, err := svc.RecomputeCard(context.Background(), "s1", "ghost")
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if res.Rank != 0 || res.Tier != tier.Iron {
		t.Errorf("absent user should be rank 0 iron, got rank %d %s", res.Rank, res.Tier)
	}
}

func TestRecomputeCard_RatchetHolds(t *testing.T) {
	ms := store.NewMemoryStore()
	svc := season.NewService(ms)
	ctx := context.Background()

	// Previous high was gold; current standing only earns bronze.
	ms.UpsertSeasonCard(ctx, &model.UserSeasonCard{
		UserID: "u1", SeasonID: "s1",
		Tier: string(tier.Gold), HighestTier: string(tier.Gold),
	})
	seedBoard(t, ms, "s1", []struct {
		user   string
		points int64
	}{
		{"top01", 90000}, {"top02", 85000}, {"top03", 80000},
		{"top04", 75000}, {"top05", 70000}, {"top06", 65000},
		{"top07", 60000}, {"top08", 55000}, {"top09", 50000},
		{"top10", 45000},
		{"u1", 12000},
	})

	res, err := svc.RecomputeCard(ctx, "s1", "u1")
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if res.Tier != tier.Bronze {
		t.Errorf("expected bronze standing, got %s", res.Tier)
	}
	if res.HighestTier != tier.Gold {
		t.Errorf("gold high should hold against a bronze standing, got %s", res.HighestTier)
	}
	if res.IsNewTier {
		t.Error("holding the previous high is not a new tier")
	}
}

func TestRecomputeCard_DiamondBandTracksCurrent(t *testing.T) {
	ms := store.NewMemoryStore()
	svc := season.NewService(ms)
	ctx := context.Background()

	// A diamond high does not hold once the user drops out of the top 10:
	// the recorded high follows the current tier back down.
	ms.UpsertSeasonCard(ctx, &model.UserSeasonCard{
		UserID: "u1", SeasonID: "s1",
		Tier: string(tier.Diamond), HighestTier: string(tier.Diamond),
	})
	seedBoard(t, ms, "s1", []struct {
		user   string
		points int64
	}{
		{"top01", 90000}, {"top02", 85000}, {"top03", 80000},
		{"top04", 75000}, {"top05", 70000}, {"top06", 65000},
		{"top07", 60000}, {"top08", 55000}, {"top09", 50000},
		{"top10", 45000},
		{"u1", 30000},
	})

	res, err := svc.RecomputeCard(ctx, "s1", "u1")
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if res.Tier != tier.Gold {
		t.Errorf("rank 11 with 30000 points should be gold, got %s", res.Tier)
	}
	if res.HighestTier != tier.Gold {
		t.Errorf("diamond high should regress with the standing, got %s", res.HighestTier)
	}
}

func TestRecomputeCard_BetaCardUntouched(t *testing.T) {
	ms := store.NewMemoryStore()
	svc := season.NewService(ms)
	ctx := context.Background()

	if _, err := svc.GrantBeta(ctx, ms, "s1", []string{"tester"}); err != nil {
		t.Fatalf("grant: %v", err)
	}
	// A top-1 standing that would classify holographic must not displace
	// the grant.
	seedBoard(t, ms, "s1", []struct {
		user   string
		points int64
	}{
		{"tester", 90000},
	})

	res, err := svc.RecomputeCard(ctx, "s1", "tester")
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if res.Tier != tier.Beta || res.HighestTier != tier.Beta {
		t.Errorf("beta card should be reported as granted, got %s / %s", res.Tier, res.HighestTier)
	}
	if res.IsNewTier {
		t.Error("a granted card never unlocks")
	}
	if res.Rank != 1 {
		t.Errorf("rank should still reflect the standing, got %d", res.Rank)
	}

	card, _ := ms.GetSeasonCard(ctx, "s1", "tester")
	if card.Tier != string(tier.Beta) || card.HighestTier != string(tier.Beta) {
		t.Errorf("stored grant must survive recomputation, got %s / %s", card.Tier, card.HighestTier)
	}
}

func TestGrantBeta(t *testing.T) {
	ms := store.NewMemoryStore()
	svc := season.NewService(ms)
	ctx := context.Background()

	granted, err := svc.GrantBeta(ctx, ms, "s1", []string{"tester1", "tester2"})
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	if granted != 2 {
		t.Errorf("expected 2 grants, got %d", granted)
	}

	card, _ := ms.GetSeasonCard(ctx, "s1", "tester1")
	if card == nil || card.Tier != string(tier.Beta) {
		t.Fatalf("expected beta card, got %+v", card)
	}

	// Re-granting, or granting over an existing card, creates nothing.
	granted, err = svc.GrantBeta(ctx, ms, "s1", []string{"tester1", "tester3"})
	if err != nil {
		t.Fatalf("regrant: %v", err)
	}
	if granted != 1 {
		t.Errorf("expected 1 new grant, got %d", granted)
	}
}

func TestDistributeEnded(t *testing.T) {
	ms := store.NewMemoryStore()
	svc := season.NewService(ms)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	ms.CreateSeason(ctx, &model.Season{
		ID: "ended", Name: "Season 1",
		StartsAt: now.Add(-60 * 24 * time.Hour),
		EndsAt:   now.Add(-24 * time.Hour),
	})
	ms.CreateSeason(ctx, &model.Season{
		ID: "running", Name: "Season 2",
		StartsAt: now.Add(-24 * time.Hour),
		EndsAt:   now.Add(30 * 24 * time.Hour),
	})
	seedBoard(t, ms, "ended", standings[:3])
	seedBoard(t, ms, "running", standings[:3])

	if err := svc.DistributeEnded(ctx, ms, now); err != nil {
		t.Fatalf("distribute ended: %v", err)
	}

	card, _ := ms.GetSeasonCard(ctx, "ended", "u01")
	if card == nil {
		t.Error("ended season should get cards")
	}
	card, _ = ms.GetSeasonCard(ctx, "running", "u01")
	if card != nil {
		t.Error("running season should be untouched")
	}
}
