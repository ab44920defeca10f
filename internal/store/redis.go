package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stakecraft/econ-engine/internal/model"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis read-through
// cache for the hot read paths: markets, outcomes, and season leaderboards.
// Writes go to the primary store and invalidate the cache; reads check
// Redis first then fall back to the primary.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// --- Write-through (write to primary, invalidate cache) ---

func (s *CachedStore) CreateMarket(ctx context.Context, m *model.Market) error {
	if err := s.primary.CreateMarket(ctx, m); err != nil {
		return err
	}
	s.cacheMarket(ctx, m)
	return nil
}

func (s *CachedStore) CloseMarket(ctx context.Context, marketID string) error {
	if err := s.primary.CloseMarket(ctx, marketID); err != nil {
		return err
	}
	s.rdb.Del(ctx, marketKey(marketID))
	return nil
}

func (s *CachedStore) ResolveMarket(ctx context.Context, marketID, winningOutcomeID string) error {
	if err := s.primary.ResolveMarket(ctx, marketID, winningOutcomeID); err != nil {
		return err
	}
	// Invalidate; next read re-populates with the resolved state.
	s.rdb.Del(ctx, marketKey(marketID), outcomeKey(winningOutcomeID))
	return nil
}

func (s *CachedStore) ApplyLeaderboardDelta(ctx context.Context, seasonID, userID string, pointsDelta int64, won bool, betAmount int64) error {
	if err := s.primary.ApplyLeaderboardDelta(ctx, seasonID, userID, pointsDelta, won, betAmount); err != nil {
		return err
	}
	s.rdb.Del(ctx, leaderboardKey(seasonID))
	return nil
}

// --- Read-through (check cache first) ---

func (s *CachedStore) GetMarket(ctx context.Context, id string) (*model.Market, error) {
	data, err := s.rdb.Get(ctx, marketKey(id)).Bytes()
	if err == nil {
		var m model.Market
		if json.Unmarshal(data, &m) == nil {
			return &m, nil
		}
	}

	m, err := s.primary.GetMarket(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cacheMarket(ctx, m)
	return m, nil
}

func (s *CachedStore) GetOutcome(ctx context.Context, id string) (*model.Outcome, error) {
	data, err := s.rdb.Get(ctx, outcomeKey(id)).Bytes()
	if err == nil {
		var o model.Outcome
		if json.Unmarshal(data, &o) == nil {
			return &o, nil
		}
	}

	o, err := s.primary.GetOutcome(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(o); err == nil {
		s.rdb.Set(ctx, outcomeKey(id), data, s.ttl)
	}
	return o, nil
}

func (s *CachedStore) GetSeasonLeaderboard(ctx context.Context, seasonID string) ([]model.SeasonLeaderboardEntry, error) {
	data, err := s.rdb.Get(ctx, leaderboardKey(seasonID)).Bytes()
	if err == nil {
		var entries []model.SeasonLeaderboardEntry
		if json.Unmarshal(data, &entries) == nil {
			return entries, nil
		}
	}

	entries, err := s.primary.GetSeasonLeaderboard(ctx, seasonID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(entries); err == nil {
		s.rdb.Set(ctx, leaderboardKey(seasonID), data, s.ttl)
	}
	return entries, nil
}

// --- Passthrough (not cached) ---

func (s *CachedStore) ListMarkets(ctx context.Context) ([]model.Market, error) {
	return s.primary.ListMarkets(ctx)
}

func (s *CachedStore) InsertBet(ctx context.Context, bet *model.Bet) error {
	return s.primary.InsertBet(ctx, bet)
}

func (s *CachedStore) GetBetsByUser(ctx context.Context, userID string) ([]model.Bet, error) {
	return s.primary.GetBetsByUser(ctx, userID)
}

func (s *CachedStore) GetBetsByMarket(ctx context.Context, marketID string) ([]model.Bet, error) {
	return s.primary.GetBetsByMarket(ctx, marketID)
}

func (s *CachedStore) GetOpenStakes(ctx context.Context, userID string) (map[string]int64, error) {
	return s.primary.GetOpenStakes(ctx, userID)
}

func (s *CachedStore) SettleBet(ctx context.Context, betID, status string) error {
	return s.primary.SettleBet(ctx, betID, status)
}

func (s *CachedStore) CreateSeason(ctx context.Context, season *model.Season) error {
	return s.primary.CreateSeason(ctx, season)
}

func (s *CachedStore) GetSeason(ctx context.Context, id string) (*model.Season, error) {
	return s.primary.GetSeason(ctx, id)
}

func (s *CachedStore) ListEndedSeasons(ctx context.Context, before time.Time) ([]model.Season, error) {
	return s.primary.ListEndedSeasons(ctx, before)
}

func (s *CachedStore) GetSeasonCard(ctx context.Context, seasonID, userID string) (*model.UserSeasonCard, error) {
	return s.primary.GetSeasonCard(ctx, seasonID, userID)
}

func (s *CachedStore) UpsertSeasonCard(ctx context.Context, card *model.UserSeasonCard) error {
	return s.primary.UpsertSeasonCard(ctx, card)
}

func (s *CachedStore) CreateSeasonCardIfAbsent(ctx context.Context, card *model.UserSeasonCard) (bool, error) {
	return s.primary.CreateSeasonCardIfAbsent(ctx, card)
}

func (s *CachedStore) GetDailyRewardState(ctx context.Context, userID string) (*model.DailyRewardState, error) {
	return s.primary.GetDailyRewardState(ctx, userID)
}

func (s *CachedStore) ClaimDailyReward(ctx context.Context, userID string, prevLastClaim, newLastClaim time.Time, newDay int) (bool, error) {
	return s.primary.ClaimDailyReward(ctx, userID, prevLastClaim, newLastClaim, newDay)
}

// --- Cache helpers ---

func (s *CachedStore) cacheMarket(ctx context.Context, m *model.Market) {
	if data, err := json.Marshal(m); err == nil {
		s.rdb.Set(ctx, marketKey(m.ID), data, s.ttl)
	}
	for _, o := range m.Outcomes {
		if data, err := json.Marshal(o); err == nil {
			s.rdb.Set(ctx, outcomeKey(o.ID), data, s.ttl)
		}
	}
}

func marketKey(id string) string { return fmt.Sprintf("market:%s", id) }

func outcomeKey(id string) string { return fmt.Sprintf("outcome:%s", id) }

func leaderboardKey(seasonID string) string { return fmt.Sprintf("leaderboard:%s", seasonID) }
