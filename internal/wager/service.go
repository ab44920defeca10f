// Package wager provides the HTTP handlers and business logic for creating
// markets, placing stakes, and resolving outcomes.
//
// Pool allocation happens once at market creation; a stake's payout is fixed
// by the price snapshot captured when it is placed. Neither is ever
// recomputed afterwards.
package wager

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stakecraft/econ-engine/internal/exposure"
	"github.com/stakecraft/econ-engine/internal/liquidity"
	"github.com/stakecraft/econ-engine/internal/metrics"
	"github.com/stakecraft/econ-engine/internal/model"
	"github.com/stakecraft/econ-engine/internal/payout"
	"github.com/stakecraft/econ-engine/internal/store"
)

// DefaultLiquidity is the pool budget used when market creation does not
// supply one.
const DefaultLiquidity int64 = 1000

// Service handles market and stake operations. Uses a mutex to serialize
// stake placement against resolution (single-instance). For horizontal
// scaling, replace with database-level optimistic concurrency.
type Service struct {
	store   store.Store
	limiter *exposure.StakeLimiter
	mu      sync.Mutex
	wsHub   *WSHub // optional WebSocket hub for real-time broadcasts
}

// NewService creates a new wager service.
// Pass nil for hub if WebSocket broadcasting is not needed.
func NewService(st store.Store, limiter *exposure.StakeLimiter, hub *WSHub) *Service {
	return &Service{
		store:   st,
		limiter: limiter,
		wsHub:   hub,
	}
}

// --- Request/Response types ---

// OutcomeSpec describes one outcome in a market creation request.
type OutcomeSpec struct {
	Name        string          `json:"name"`
	Color       string          `json:"color"`
	Probability decimal.Decimal `json:"probability"` // percent
}

// CreateMarketRequest is the JSON body for market creation.
type CreateMarketRequest struct {
	Question       string          `json:"question"`
	Kind           string          `json:"kind"`            // "binary" or "multi-outcome"
	TotalLiquidity int64           `json:"total_liquidity"` // 0 → DefaultLiquidity
	// DesiredProbability is the target starting implied probability for the
	// YES side of a binary market, as a percent. Omitted → even split.
	DesiredProbability *decimal.Decimal `json:"desired_probability,omitempty"`
	Outcomes           []OutcomeSpec    `json:"outcomes"`
}

// PlaceBetRequest is the JSON body for POST /bets.
type PlaceBetRequest struct {
	UserID    string `json:"user_id"`
	MarketID  string `json:"market_id"`
	OutcomeID string `json:"outcome_id"`
	Side      string `json:"side"` // "yes" or "no"
	Amount    int64  `json:"amount"`
}

// ResolveMarketRequest is the JSON body for POST /markets/{id}/resolve.
type ResolveMarketRequest struct {
	WinningOutcomeID string `json:"winning_outcome_id"`
	// SeasonID attributes settlement results to a season leaderboard.
	// Empty skips leaderboard updates.
	SeasonID string `json:"season_id"`
}

// ResolveMarketResponse summarizes a settlement run.
type ResolveMarketResponse struct {
	MarketID  string `json:"market_id"`
	BetsWon   int    `json:"bets_won"`
	BetsLost  int    `json:"bets_lost"`
	CoinsPaid int64  `json:"coins_paid"`
}

// --- HTTP Handlers ---

// CreateMarket handles POST /api/v1/markets
func (s *Service) CreateMarket(w http.ResponseWriter, r *http.Request) {
	var req CreateMarketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Question == "" {
		writeError(w, "question is required", http.StatusBadRequest)
		return
	}
	if req.Kind != model.KindBinary && req.Kind != model.KindMulti {
		writeError(w, "kind must be binary or multi-outcome", http.StatusBadRequest)
		return
	}
	if req.Kind == model.KindMulti && len(req.Outcomes) < 2 {
		writeError(w, "multi-outcome markets need at least two outcomes", http.StatusBadRequest)
		return
	}

	total := req.TotalLiquidity
	if total <= 0 {
		total = DefaultLiquidity
	}

	var poolYes, poolNo int64
	if req.Kind == model.KindBinary && req.DesiredProbability != nil {
		poolYes, poolNo = liquidity.Split(*req.DesiredProbability, total)
	} else {
		poolYes, poolNo = liquidity.SplitEven(total)
	}

	marketID := uuid.New().String()
	specs := req.Outcomes
	if req.Kind == model.KindBinary && len(specs) == 0 {
		yesProb := liquidity.ImpliedPercent(poolYes, poolNo).Round(2)
		specs = []OutcomeSpec{
			{Name: "Yes", Color: "#22c55e", Probability: yesProb},
			{Name: "No", Color: "#ef4444", Probability: decimal.NewFromInt(100).Sub(yesProb)},
		}
	}

	market := &model.Market{
		ID:        marketID,
		Question:  req.Question,
		Kind:      req.Kind,
		PoolYes:   poolYes,
		PoolNo:    poolNo,
		Status:    model.StatusOpen,
		CreatedAt: time.Now().UTC(),
	}
	for _, spec := range specs {
		market.Outcomes = append(market.Outcomes, model.Outcome{
			ID:          uuid.New().String(),
			MarketID:    marketID,
			Name:        spec.Name,
			Color:       spec.Color,
			Probability: spec.Probability,
		})
	}

	if err := s.store.CreateMarket(r.Context(), market); err != nil {
		writeError(w, err.Error(), http.StatusConflict)
		return
	}

	slog.Info("market created",
		"id", market.ID,
		"kind", market.Kind,
		"pool_yes", poolYes,
		"pool_no", poolNo,
		"outcomes", len(market.Outcomes),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(market)
}

// GetMarket handles GET /api/v1/markets/{marketID}
func (s *Service) GetMarket(w http.ResponseWriter, r *http.Request) {
	marketID := chi.URLParam(r, "marketID")

	market, err := s.store.GetMarket(r.Context(), marketID)
	if err != nil {
		writeError(w, "market not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(market)
}

// ListMarkets handles GET /api/v1/markets
func (s *Service) ListMarkets(w http.ResponseWriter, r *http.Request) {
	markets, err := s.store.ListMarkets(r.Context())
	if err != nil {
		writeError(w, "failed to list markets", http.StatusInternalServerError)
		return
	}
	if markets == nil {
		markets = []model.Market{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(markets)
}

// PlaceBet handles POST /api/v1/bets
// Snapshots the implied probability for the chosen side and fixes the
// potential payout from it.
func (s *Service) PlaceBet(w http.ResponseWriter, r *http.Request) {
	var req PlaceBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	// --- Input validation ---
	if req.UserID == "" {
		writeError(w, "user_id is required", http.StatusBadRequest)
		return
	}
	if req.Side != model.SideYes && req.Side != model.SideNo {
		writeError(w, "side must be yes or no", http.StatusBadRequest)
		return
	}
	if req.Amount <= 0 {
		writeError(w, "amount must be positive", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	// Serialize stake placement against resolution.
	s.mu.Lock()
	defer s.mu.Unlock()

	market, err := s.store.GetMarket(ctx, req.MarketID)
	if err != nil {
		writeError(w, "market not found: "+req.MarketID, http.StatusNotFound)
		return
	}
	if market.Status != model.StatusOpen {
		writeError(w, "market is not open for staking", http.StatusConflict)
		return
	}

	outcome, err := s.store.GetOutcome(ctx, req.OutcomeID)
	if err != nil || outcome.MarketID != market.ID {
		writeError(w, "outcome not found in market", http.StatusNotFound)
		return
	}

	// --- Price snapshot ---
	// Binary markets price a side from the pool shares; multi-outcome
	// markets price it from the outcome's own probability.
	var implied decimal.Decimal
	if market.Kind == model.KindBinary {
		if req.Side == model.SideYes {
			implied = liquidity.ImpliedPercent(market.PoolYes, market.PoolNo)
		} else {
			implied = liquidity.ImpliedPercent(market.PoolNo, market.PoolYes)
		}
	} else {
		implied = payout.ImpliedForOutcome(outcome.Probability, req.Side)
	}
	if implied.LessThanOrEqual(decimal.Zero) {
		writeError(w, "side has no implied probability at this time", http.StatusConflict)
		return
	}

	// --- Exposure limit check ---
	openStakes, err := s.store.GetOpenStakes(ctx, req.UserID)
	if err != nil {
		writeError(w, "failed to check stake limits", http.StatusInternalServerError)
		return
	}
	if err := s.limiter.CheckLimit(market.ID, req.Amount, openStakes); err != nil {
		metrics.StakeLimitRejections.Inc()
		writeError(w, err.Error(), http.StatusConflict)
		return
	}

	bet := &model.Bet{
		ID:              uuid.New().String(),
		UserID:          req.UserID,
		MarketID:        market.ID,
		OutcomeID:       outcome.ID,
		Side:            req.Side,
		Amount:          req.Amount,
		OddsAtBet:       implied,
		PotentialPayout: payout.Potential(req.Amount, implied),
		Status:          model.BetPending,
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.store.InsertBet(ctx, bet); err != nil {
		writeError(w, "failed to record stake", http.StatusInternalServerError)
		return
	}

	metrics.BetsTotal.WithLabelValues(req.Side).Inc()
	metrics.BetAmount.WithLabelValues(req.Side).Observe(float64(req.Amount))

	slog.Info("stake placed",
		"bet_id", bet.ID,
		"user", req.UserID,
		"market", market.ID,
		"outcome", outcome.ID,
		"side", req.Side,
		"amount", req.Amount,
		"odds_at_bet", implied.String(),
		"potential_payout", bet.PotentialPayout,
	)

	if s.wsHub != nil {
		s.wsHub.Broadcast(WSMessage{
			Type:      "bet_placed",
			MarketID:  market.ID,
			OutcomeID: outcome.ID,
			Side:      req.Side,
			Amount:    req.Amount,
			OddsAtBet: implied.String(),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(bet)
}

// ListUserBets handles GET /api/v1/bets/user/{userID}
func (s *Service) ListUserBets(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	bets, err := s.store.GetBetsByUser(r.Context(), userID)
	if err != nil {
		writeError(w, "failed to list stakes", http.StatusInternalServerError)
		return
	}
	if bets == nil {
		bets = []model.Bet{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(bets)
}

// CloseMarket handles POST /api/v1/markets/{marketID}/close
// Stops further staking without resolving. Pending stakes stay pending and
// settle when the market later resolves.
func (s *Service) CloseMarket(w http.ResponseWriter, r *http.Request) {
	marketID := chi.URLParam(r, "marketID")

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.CloseMarket(r.Context(), marketID); err != nil {
		writeError(w, err.Error(), http.StatusConflict)
		return
	}

	slog.Info("market closed", "market", marketID)

	if s.wsHub != nil {
		s.wsHub.Broadcast(WSMessage{
			Type:     "market_closed",
			MarketID: marketID,
			Status:   model.StatusClosed,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"market_id": marketID,
		"status":    model.StatusClosed,
	})
}

// ResolveMarket handles POST /api/v1/markets/{marketID}/resolve
// Marks the winning outcome and settles every pending stake: a YES stake
// wins when its outcome won, a NO stake wins when its outcome did not.
// Settled results are folded into the season leaderboard when a season is
// named.
func (s *Service) ResolveMarket(w http.ResponseWriter, r *http.Request) {
	marketID := chi.URLParam(r, "marketID")

	var req ResolveMarketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.WinningOutcomeID == "" {
		writeError(w, "winning_outcome_id is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.ResolveMarket(ctx, marketID, req.WinningOutcomeID); err != nil {
		writeError(w, err.Error(), http.StatusConflict)
		return
	}

	bets, err := s.store.GetBetsByMarket(ctx, marketID)
	if err != nil {
		writeError(w, "failed to load stakes for settlement", http.StatusInternalServerError)
		return
	}

	resp := ResolveMarketResponse{MarketID: marketID}
	for _, bet := range bets {
		if bet.Status != model.BetPending {
			continue
		}

		won := (bet.OutcomeID == req.WinningOutcomeID) == (bet.Side == model.SideYes)
		status := model.BetLost
		pointsDelta := -bet.Amount
		if won {
			status = model.BetWon
			pointsDelta = bet.PotentialPayout - bet.Amount
			resp.BetsWon++
			resp.CoinsPaid += bet.PotentialPayout
		} else {
			resp.BetsLost++
		}

		if err := s.store.SettleBet(ctx, bet.ID, status); err != nil {
			writeError(w, "failed to settle stake "+bet.ID, http.StatusInternalServerError)
			return
		}
		if req.SeasonID != "" {
			if err := s.store.ApplyLeaderboardDelta(ctx, req.SeasonID, bet.UserID, pointsDelta, won, bet.Amount); err != nil {
				writeError(w, "failed to update leaderboard", http.StatusInternalServerError)
				return
			}
		}
	}

	metrics.MarketsResolved.Inc()

	slog.Info("market resolved",
		"market", marketID,
		"winning_outcome", req.WinningOutcomeID,
		"bets_won", resp.BetsWon,
		"bets_lost", resp.BetsLost,
		"coins_paid", resp.CoinsPaid,
	)

	if s.wsHub != nil {
		s.wsHub.Broadcast(WSMessage{
			Type:      "market_resolved",
			MarketID:  marketID,
			OutcomeID: req.WinningOutcomeID,
			Status:    model.StatusResolved,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
