// Package season wires the tier classifier to seasonal leaderboards: the
// per-user ratcheted recomputation, the one-shot retroactive distribution,
// and the administrative beta grant.
package season

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/stakecraft/econ-engine/internal/metrics"
	"github.com/stakecraft/econ-engine/internal/model"
	"github.com/stakecraft/econ-engine/internal/store"
	"github.com/stakecraft/econ-engine/internal/tier"
)

// distributeConcurrency bounds the card writes in flight during a
// retroactive distribution.
const distributeConcurrency = 8

// Service computes and persists season tier cards.
type Service struct {
	store store.Store
}

// NewService creates a new season service.
func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// CardResult is the outcome of one per-user recomputation.
type CardResult struct {
	UserID      string    `json:"user_id"`
	SeasonID    string    `json:"season_id"`
	Rank        int       `json:"rank"` // 0 when absent from the leaderboard
	Tier        tier.Tier `json:"tier"`
	HighestTier tier.Tier `json:"highest_tier_achieved"`
	IsNewTier   bool      `json:"is_new_tier"`
}

// RecomputeCard reclassifies one user against the season's current
// leaderboard and applies the highest-tier ratchet to their card. Users
// absent from the leaderboard classify as iron.
func (s *Service) RecomputeCard(ctx context.Context, seasonID, userID string) (*CardResult, error) {
	entries, err := s.store.GetSeasonLeaderboard(ctx, seasonID)
	if err != nil {
		return nil, fmt.Errorf("load leaderboard for season %s: %w", seasonID, err)
	}

	rank := tier.RankOf(entries, userID)
	var points int64
	for _, e := range entries {
		if e.UserID == userID {
			points = e.Points
			break
		}
	}
	newTier := tier.Classify(rank, points)

	card, err := s.store.GetSeasonCard(ctx, seasonID, userID)
	if err != nil {
		return nil, fmt.Errorf("load card for %s/%s: %w", seasonID, userID, err)
	}

	// Beta is an administrative grant outside the ordered set. It never
	// enters the ratchet, so a beta card is left exactly as granted.
	if card != nil && tier.Tier(card.HighestTier) == tier.Beta {
		return &CardResult{
			UserID:      userID,
			SeasonID:    seasonID,
			Rank:        rank,
			Tier:        tier.Tier(card.Tier),
			HighestTier: tier.Beta,
		}, nil
	}

	var prev tier.Tier
	hasPrev := false
	if card != nil && card.HighestTier != "" {
		prev = tier.Tier(card.HighestTier)
		hasPrev = true
	}
	highest, isNew := tier.Ratchet(prev, hasPrev, newTier)

	updated := &model.UserSeasonCard{
		UserID:      userID,
		SeasonID:    seasonID,
		Tier:        string(newTier),
		HighestTier: string(highest),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := s.store.UpsertSeasonCard(ctx, updated); err != nil {
		return nil, fmt.Errorf("upsert card for %s/%s: %w", seasonID, userID, err)
	}

	metrics.TiersAssigned.WithLabelValues(string(newTier)).Inc()

	return &CardResult{
		UserID:      userID,
		SeasonID:    seasonID,
		Rank:        rank,
		Tier:        newTier,
		HighestTier: highest,
		IsNewTier:   isNew,
	}, nil
}

// DistributeResult summarizes a retroactive distribution run.
type DistributeResult struct {
	SeasonID     string `json:"season_id"`
	Participants int    `json:"participants"`
	CardsCreated int    `json:"cards_created"`
	Skipped      int    `json:"skipped"`
}

// Distribute runs the one-shot retroactive tier award over a season's full
// leaderboard. Card creation skips (user, season) pairs that already hold a
// card, so re-running is a no-op for processed pairs. Writes fan out with
// bounded concurrency instead of one serial round trip per participant.
//
// Cross-user writes go through the explicit admin capability.
func (s *Service) Distribute(ctx context.Context, admin store.AdminWriter, seasonID string) (*DistributeResult, error) {
	entries, err := s.store.GetSeasonLeaderboard(ctx, seasonID)
	if err != nil {
		return nil, fmt.Errorf("load leaderboard for season %s: %w", seasonID, err)
	}

	assignments := tier.AssignRanks(entries)
	now := time.Now().UTC()

	created := make([]bool, len(assignments))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(distributeConcurrency)

	for i, a := range assignments {
		i, a := i, a
		g.Go(func() error {
			ok, err := admin.CreateSeasonCardIfAbsent(gctx, &model.UserSeasonCard{
				UserID:      a.UserID,
				SeasonID:    seasonID,
				Tier:        string(a.Tier),
				HighestTier: string(a.Tier),
				UpdatedAt:   now,
			})
			if err != nil {
				return fmt.Errorf("create card for %s/%s: %w", seasonID, a.UserID, err)
			}
			created[i] = ok
			if ok {
				metrics.TiersAssigned.WithLabelValues(string(a.Tier)).Inc()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &DistributeResult{SeasonID: seasonID, Participants: len(assignments)}
	for _, ok := range created {
		if ok {
			res.CardsCreated++
		} else {
			res.Skipped++
		}
	}

	slog.Info("season distributed",
		"season", seasonID,
		"participants", res.Participants,
		"cards_created", res.CardsCreated,
		"skipped", res.Skipped,
	)
	return res, nil
}

// GrantBeta issues the out-of-band beta tier card to each user for the
// given season. Beta never participates in the ordered set, so the grant
// is a plain idempotent card creation, not a classification.
func (s *Service) GrantBeta(ctx context.Context, admin store.AdminWriter, seasonID string, userIDs []string) (int, error) {
	now := time.Now().UTC()
	granted := 0
	for _, userID := range userIDs {
		ok, err := admin.CreateSeasonCardIfAbsent(ctx, &model.UserSeasonCard{
			UserID:      userID,
			SeasonID:    seasonID,
			Tier:        string(tier.Beta),
			HighestTier: string(tier.Beta),
			UpdatedAt:   now,
		})
		if err != nil {
			return granted, fmt.Errorf("grant beta card for %s/%s: %w", seasonID, userID, err)
		}
		if ok {
			granted++
		}
	}

	slog.Info("beta cards granted", "season", seasonID, "requested", len(userIDs), "granted", granted)
	return granted, nil
}

// --- HTTP Handlers ---

// CreateSeasonRequest is the JSON body for season creation.
type CreateSeasonRequest struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
}

// GrantBetaRequest is the JSON body for the beta grant.
type GrantBetaRequest struct {
	UserIDs []string `json:"user_ids"`
}

// CreateSeason handles POST /api/v1/seasons
func (s *Service) CreateSeason(w http.ResponseWriter, r *http.Request) {
	var req CreateSeasonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, "id and name are required", http.StatusBadRequest)
		return
	}
	if !req.EndsAt.After(req.StartsAt) {
		writeError(w, "ends_at must be after starts_at", http.StatusBadRequest)
		return
	}

	season := &model.Season{
		ID:       req.ID,
		Name:     req.Name,
		StartsAt: req.StartsAt,
		EndsAt:   req.EndsAt,
	}
	if err := s.store.CreateSeason(r.Context(), season); err != nil {
		writeError(w, err.Error(), http.StatusConflict)
		return
	}

	slog.Info("season created", "id", season.ID, "name", season.Name)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(season)
}

// GetLeaderboard handles GET /api/v1/seasons/{seasonID}/leaderboard
func (s *Service) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	seasonID := chi.URLParam(r, "seasonID")

	entries, err := s.store.GetSeasonLeaderboard(r.Context(), seasonID)
	if err != nil {
		writeError(w, "failed to load leaderboard", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []model.SeasonLeaderboardEntry{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

// GetCard handles GET /api/v1/seasons/{seasonID}/cards/{userID}
func (s *Service) GetCard(w http.ResponseWriter, r *http.Request) {
	seasonID := chi.URLParam(r, "seasonID")
	userID := chi.URLParam(r, "userID")

	card, err := s.store.GetSeasonCard(r.Context(), seasonID, userID)
	if err != nil {
		writeError(w, "failed to load card", http.StatusInternalServerError)
		return
	}
	if card == nil {
		writeError(w, "card not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(card)
}

// RecomputeCardHandler handles POST /api/v1/seasons/{seasonID}/cards/{userID}/recompute
func (s *Service) RecomputeCardHandler(w http.ResponseWriter, r *http.Request) {
	seasonID := chi.URLParam(r, "seasonID")
	userID := chi.URLParam(r, "userID")

	res, err := s.RecomputeCard(r.Context(), seasonID, userID)
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}

// DistributeHandler handles POST /api/v1/admin/seasons/{seasonID}/distribute
// admin is the elevated write capability owned by the admin route group.
func (s *Service) DistributeHandler(admin store.AdminWriter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		seasonID := chi.URLParam(r, "seasonID")

		if _, err := s.store.GetSeason(r.Context(), seasonID); err != nil {
			writeError(w, "season not found", http.StatusNotFound)
			return
		}

		res, err := s.Distribute(r.Context(), admin, seasonID)
		if err != nil {
			writeError(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(res)
	}
}

// GrantBetaHandler handles POST /api/v1/admin/seasons/{seasonID}/beta
func (s *Service) GrantBetaHandler(admin store.AdminWriter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		seasonID := chi.URLParam(r, "seasonID")

		var req GrantBetaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if len(req.UserIDs) == 0 {
			writeError(w, "user_ids is required", http.StatusBadRequest)
			return
		}

		granted, err := s.GrantBeta(r.Context(), admin, seasonID, req.UserIDs)
		if err != nil {
			writeError(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int{"granted": granted})
	}
}

// DistributeEnded distributes every season whose window closed before now.
// Safe to run repeatedly; processed (user, season) pairs are skipped.
// Called from the scheduled job in cmd/server.
func (s *Service) DistributeEnded(ctx context.Context, admin store.AdminWriter, now time.Time) error {
	seasons, err := s.store.ListEndedSeasons(ctx, now)
	if err != nil {
		return fmt.Errorf("list ended seasons: %w", err)
	}
	for _, season := range seasons {
		if _, err := s.Distribute(ctx, admin, season.ID); err != nil {
			return err
		}
	}
	return nil
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
