// Package store defines the persistence interface for the economics engine.
// Implementations include PostgreSQL (source of truth), Redis (read-through
// cache), and in-memory (for testing).
package store

import (
	"context"
	"time"

	"github.com/stakecraft/econ-engine/internal/model"
)

// Store is the persistence interface. PostgreSQL is the source of truth;
// Redis provides a read-through cache layer.
type Store interface {
	// --- Market operations ---

	// CreateMarket persists a new market together with its outcomes.
	CreateMarket(ctx context.Context, market *model.Market) error

	// GetMarket retrieves a market (with outcomes) by its ID.
	GetMarket(ctx context.Context, id string) (*model.Market, error)

	// ListMarkets returns all markets without their outcomes.
	ListMarkets(ctx context.Context) ([]model.Market, error)

	// GetOutcome retrieves a single outcome by its ID.
	GetOutcome(ctx context.Context, id string) (*model.Outcome, error)

	// CloseMarket moves an open market to closed, refusing further stakes
	// while resolution is still pending. Only an open market can close.
	CloseMarket(ctx context.Context, marketID string) error

	// ResolveMarket marks the winning outcome and moves the market to
	// resolved. The market must not already be resolved.
	ResolveMarket(ctx context.Context, marketID, winningOutcomeID string) error

	// --- Stakes ---

	// InsertBet appends an immutable stake record.
	InsertBet(ctx context.Context, bet *model.Bet) error

	// GetBetsByUser returns all stakes for a user.
	GetBetsByUser(ctx context.Context, userID string) ([]model.Bet, error)

	// GetBetsByMarket returns all stakes against a market.
	GetBetsByMarket(ctx context.Context, marketID string) ([]model.Bet, error)

	// GetOpenStakes returns the user's pending stake totals keyed by market.
	GetOpenStakes(ctx context.Context, userID string) (map[string]int64, error)

	// SettleBet transitions a stake's status at resolution.
	SettleBet(ctx context.Context, betID, status string) error

	// --- Seasons and leaderboards ---

	// CreateSeason persists a new season.
	CreateSeason(ctx context.Context, season *model.Season) error

	// GetSeason retrieves a season by its ID.
	GetSeason(ctx context.Context, id string) (*model.Season, error)

	// ListEndedSeasons returns seasons whose window closed before the cutoff.
	ListEndedSeasons(ctx context.Context, before time.Time) ([]model.Season, error)

	// GetSeasonLeaderboard returns a season's entries ordered by points
	// descending. An empty slice means nobody has a standing yet.
	GetSeasonLeaderboard(ctx context.Context, seasonID string) ([]model.SeasonLeaderboardEntry, error)

	// ApplyLeaderboardDelta folds one settled stake into a user's seasonal
	// standing, creating the row on first contact.
	ApplyLeaderboardDelta(ctx context.Context, seasonID, userID string, pointsDelta int64, won bool, betAmount int64) error

	// --- Season cards ---

	// GetSeasonCard returns the card for (user, season), or nil with no
	// error when the user has no card yet.
	GetSeasonCard(ctx context.Context, seasonID, userID string) (*model.UserSeasonCard, error)

	// UpsertSeasonCard creates or replaces the card for (user, season).
	UpsertSeasonCard(ctx context.Context, card *model.UserSeasonCard) error

	AdminWriter

	// --- Daily reward ---

	// GetDailyRewardState returns the user's streak state. A user with no
	// recorded claim gets a zero-valued state, not an error.
	GetDailyRewardState(ctx context.Context, userID string) (*model.DailyRewardState, error)

	// ClaimDailyReward advances the streak state if and only if the stored
	// last_claim_at still equals prevLastClaim. Returns false when another
	// claim won the race; at most one claim per window is ever accepted.
	ClaimDailyReward(ctx context.Context, userID string, prevLastClaim, newLastClaim time.Time, newDay int) (bool, error)
}

// AdminWriter is the narrowly scoped capability for cross-user card writes
// (seasonal distribution, beta grants). It is passed explicitly into the
// operations that need it rather than held as an ambient elevated client.
type AdminWriter interface {
	// CreateSeasonCardIfAbsent creates the card only when no card exists
	// for (user, season). Returns whether a row was created, making batch
	// re-runs a no-op for already-processed pairs.
	CreateSeasonCardIfAbsent(ctx context.Context, card *model.UserSeasonCard) (bool, error)
}
