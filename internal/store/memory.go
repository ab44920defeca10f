package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/stakecraft/econ-engine/internal/model"
)

// MemoryStore implements Store with in-memory maps. Used for testing and
// development. Not suitable for production (no persistence).
type MemoryStore struct {
	mu       sync.RWMutex
	markets  map[string]*model.Market
	outcomes map[string]*model.Outcome
	bets     map[string]*model.Bet
	seasons  map[string]*model.Season
	board    map[string]map[string]*model.SeasonLeaderboardEntry // seasonID → userID → entry
	cards    map[string]*model.UserSeasonCard                    // seasonID|userID
	daily    map[string]*model.DailyRewardState
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		markets:  make(map[string]*model.Market),
		outcomes: make(map[string]*model.Outcome),
		bets:     make(map[string]*model.Bet),
		seasons:  make(map[string]*model.Season),
		board:    make(map[string]map[string]*model.SeasonLeaderboardEntry),
		cards:    make(map[string]*model.UserSeasonCard),
		daily:    make(map[string]*model.DailyRewardState),
	}
}

func cardKey(seasonID, userID string) string { return seasonID + "|" + userID }

// --- Markets ---

func (s *MemoryStore) CreateMarket(_ context.Context, m *model.Market) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.markets[m.ID]; ok {
		return fmt.Errorf("market %s already exists", m.ID)
	}

	// Store copies to avoid external mutation.
	cp := *m
	cp.Outcomes = nil
	s.markets[m.ID] = &cp
	for _, o := range m.Outcomes {
		oc := o
		s.outcomes[o.ID] = &oc
	}
	return nil
}

func (s *MemoryStore) GetMarket(_ context.Context, id string) (*model.Market, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.markets[id]
	if !ok {
		return nil, fmt.Errorf("market %s not found", id)
	}
	cp := *m
	for _, o := range s.outcomes {
		if o.MarketID == id {
			cp.Outcomes = append(cp.Outcomes, *o)
		}
	}
	sort.Slice(cp.Outcomes, func(i, j int) bool {
		return cp.Outcomes[i].Name < cp.Outcomes[j].Name
	})
	return &cp, nil
}

func (s *MemoryStore) ListMarkets(_ context.Context) ([]model.Market, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	markets := make([]model.Market, 0, len(s.markets))
	for _, m := range s.markets {
		markets = append(markets, *m)
	}
	sort.Slice(markets, func(i, j int) bool {
		return markets[i].CreatedAt.After(markets[j].CreatedAt)
	})
	return markets, nil
}

func (s *MemoryStore) GetOutcome(_ context.Context, id string) (*model.Outcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.outcomes[id]
	if !ok {
		return nil, fmt.Errorf("outcome %s not found", id)
	}
	cp := *o
	return &cp, nil
}

func (s *MemoryStore) CloseMarket(_ context.Context, marketID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.markets[marketID]
	if !ok {
		return fmt.Errorf("market %s not found", marketID)
	}
	if m.Status != model.StatusOpen {
		return fmt.Errorf("market %s is not open", marketID)
	}
	m.Status = model.StatusClosed
	return nil
}

func (s *MemoryStore) ResolveMarket(_ context.Context, marketID, winningOutcomeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.markets[marketID]
	if !ok {
		return fmt.Errorf("market %s not found", marketID)
	}
	if m.Status == model.StatusResolved {
		return fmt.Errorf("market %s already resolved", marketID)
	}
	o, ok := s.outcomes[winningOutcomeID]
	if !ok || o.MarketID != marketID {
		return fmt.Errorf("outcome %s not found in market %s", winningOutcomeID, marketID)
	}

	o.Winner = true
	m.Status = model.StatusResolved
	return nil
}

// --- Stakes ---

func (s *MemoryStore) InsertBet(_ context.Context, bet *model.Bet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *bet
	s.bets[bet.ID] = &cp
	return nil
}

func (s *MemoryStore) GetBetsByUser(_ context.Context, userID string) ([]model.Bet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.Bet
	for _, b := range s.bets {
		if b.UserID == userID {
			result = append(result, *b)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (s *MemoryStore) GetBetsByMarket(_ context.Context, marketID string) ([]model.Bet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.Bet
	for _, b := range s.bets {
		if b.MarketID == marketID {
			result = append(result, *b)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (s *MemoryStore) GetOpenStakes(_ context.Context, userID string) (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stakes := make(map[string]int64)
	for _, b := range s.bets {
		if b.UserID == userID && b.Status == model.BetPending {
			stakes[b.MarketID] += b.Amount
		}
	}
	return stakes, nil
}

func (s *MemoryStore) SettleBet(_ context.Context, betID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bets[betID]
	if !ok {
		return fmt.Errorf("bet %s not found", betID)
	}
	b.Status = status
	return nil
}

// --- Seasons and leaderboards ---

func (s *MemoryStore) CreateSeason(_ context.Context, season *model.Season) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seasons[season.ID]; ok {
		return fmt.Errorf("season %s already exists", season.ID)
	}
	cp := *season
	s.seasons[season.ID] = &cp
	return nil
}

func (s *MemoryStore) GetSeason(_ context.Context, id string) (*model.Season, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	season, ok := s.seasons[id]
	if !ok {
		return nil, fmt.Errorf("season %s not found", id)
	}
	cp := *season
	return &cp, nil
}

func (s *MemoryStore) ListEndedSeasons(_ context.Context, before time.Time) ([]model.Season, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.Season
	for _, season := range s.seasons {
		if season.EndsAt.Before(before) {
			result = append(result, *season)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].EndsAt.Before(result[j].EndsAt)
	})
	return result, nil
}

func (s *MemoryStore) GetSeasonLeaderboard(_ context.Context, seasonID string) ([]model.SeasonLeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []model.SeasonLeaderboardEntry
	for _, e := range s.board[seasonID] {
		entries = append(entries, *e)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Points > entries[j].Points
	})
	return entries, nil
}

func (s *MemoryStore) ApplyLeaderboardDelta(_ context.Context, seasonID, userID string, pointsDelta int64, won bool, betAmount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, ok := s.board[seasonID]
	if !ok {
		rows = make(map[string]*model.SeasonLeaderboardEntry)
		s.board[seasonID] = rows
	}
	e, ok := rows[userID]
	if !ok {
		e = &model.SeasonLeaderboardEntry{SeasonID: seasonID, UserID: userID}
		rows[userID] = e
	}

	e.Points += pointsDelta
	e.TotalBetAmount += betAmount
	if won {
		e.Wins++
	} else {
		e.Losses++
	}
	return nil
}

// --- Season cards ---

func (s *MemoryStore) GetSeasonCard(_ context.Context, seasonID, userID string) (*model.UserSeasonCard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	card, ok := s.cards[cardKey(seasonID, userID)]
	if !ok {
		return nil, nil
	}
	cp := *card
	return &cp, nil
}

func (s *MemoryStore) UpsertSeasonCard(_ context.Context, card *model.UserSeasonCard) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *card
	s.cards[cardKey(card.SeasonID, card.UserID)] = &cp
	return nil
}

func (s *MemoryStore) CreateSeasonCardIfAbsent(_ context.Context, card *model.UserSeasonCard) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := cardKey(card.SeasonID, card.UserID)
	if _, ok := s.cards[key]; ok {
		return false, nil
	}
	cp := *card
	s.cards[key] = &cp
	return true, nil
}

// --- Daily reward ---

func (s *MemoryStore) GetDailyRewardState(_ context.Context, userID string) (*model.DailyRewardState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.daily[userID]
	if !ok {
		return &model.DailyRewardState{UserID: userID}, nil
	}
	cp := *st
	return &cp, nil
}

// ClaimDailyReward is a compare-and-set on last_claim_at: of two racing
// claims that observed the same state, only one advances it.
func (s *MemoryStore) ClaimDailyReward(_ context.Context, userID string, prevLastClaim, newLastClaim time.Time, newDay int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.daily[userID]
	if !ok {
		if !prevLastClaim.IsZero() {
			return false, nil
		}
		s.daily[userID] = &model.DailyRewardState{
			UserID:      userID,
			LastClaimAt: newLastClaim,
			StreakDay:   newDay,
		}
		return true, nil
	}

	if !st.LastClaimAt.Equal(prevLastClaim) {
		return false, nil
	}
	st.LastClaimAt = newLastClaim
	st.StreakDay = newDay
	return true, nil
}
