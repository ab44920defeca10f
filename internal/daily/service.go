// Package daily exposes the login-reward claim over HTTP, bridging the pure
// streak scheduler to the persisted per-user state.
package daily

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stakecraft/econ-engine/internal/metrics"
	"github.com/stakecraft/econ-engine/internal/store"
	"github.com/stakecraft/econ-engine/internal/streak"
)

// Service handles daily reward claims.
type Service struct {
	store  store.Store
	drawer streak.Drawer
	now    func() time.Time
}

// NewService creates a daily reward service. now may be nil for wall-clock
// time; tests inject a fixed clock.
func NewService(st store.Store, drawer streak.Drawer, now func() time.Time) *Service {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Service{store: st, drawer: drawer, now: now}
}

// StatusResponse is the JSON body for GET /daily/{userID}.
type StatusResponse struct {
	UserID      string    `json:"user_id"`
	CanClaim    bool      `json:"can_claim"`
	StreakDay   int       `json:"current_streak_day"`
	NextClaimAt time.Time `json:"next_claim_at"`
}

// Status handles GET /api/v1/daily/{userID}
// Read-only eligibility and countdown without touching state.
func (s *Service) Status(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	st, err := s.store.GetDailyRewardState(r.Context(), userID)
	if err != nil {
		writeError(w, "failed to load reward state", http.StatusInternalServerError)
		return
	}

	now := s.now()
	resp := StatusResponse{
		UserID:    userID,
		CanClaim:  streak.CanClaim(now, st.LastClaimAt),
		StreakDay: st.StreakDay,
	}
	if !st.LastClaimAt.IsZero() {
		resp.NextClaimAt = streak.NextClaimAt(st.LastClaimAt)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// Claim handles POST /api/v1/daily/{userID}/claim
// Runs the scheduler and advances the stored state with a conditional
// update: when two claims race on the same window, exactly one is accepted
// and the other gets 409.
func (s *Service) Claim(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	ctx := r.Context()

	st, err := s.store.GetDailyRewardState(ctx, userID)
	if err != nil {
		writeError(w, "failed to load reward state", http.StatusInternalServerError)
		return
	}

	now := s.now()
	res := streak.Evaluate(now, st.LastClaimAt, st.StreakDay, s.drawer)
	if !res.CanClaim {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(res)
		return
	}

	accepted, err := s.store.ClaimDailyReward(ctx, userID, st.LastClaimAt, now, res.StreakDay)
	if err != nil {
		writeError(w, "failed to record claim", http.StatusInternalServerError)
		return
	}
	if !accepted {
		writeError(w, "claim already taken for this window", http.StatusConflict)
		return
	}

	jackpotLabel := "no"
	if res.IsJackpot {
		jackpotLabel = "yes"
		metrics.JackpotDraws.WithLabelValues(res.Jackpot.Rarity).Inc()
	}
	metrics.DailyClaims.WithLabelValues(jackpotLabel).Inc()

	slog.Info("daily reward claimed",
		"user", userID,
		"streak_day", res.StreakDay,
		"reward", res.Reward,
		"jackpot", res.IsJackpot,
	)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
