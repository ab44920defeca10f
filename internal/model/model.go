// Package model defines the core domain types shared across the economics
// engine. Coin amounts are integer units; probabilities and price snapshots
// use shopspring/decimal — never float64 for money.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Market kinds.
const (
	KindBinary = "binary"
	KindMulti  = "multi-outcome"
)

// Market lifecycle states.
const (
	StatusOpen     = "open"
	StatusClosed   = "closed"
	StatusResolved = "resolved"
)

// Bet sides and statuses.
const (
	SideYes = "yes"
	SideNo  = "no"

	BetPending   = "pending"
	BetWon       = "won"
	BetLost      = "lost"
	BetCancelled = "cancelled"
)

// Market is a question users stake coins against. Binary markets carry two
// liquidity pools whose relative sizes imply the price of each side; the
// pools are set once at creation and never rebalanced by this engine.
type Market struct {
	ID        string    `json:"id" db:"id"`
	Question  string    `json:"question" db:"question"`
	Kind      string    `json:"kind" db:"kind"` // "binary" or "multi-outcome"
	PoolYes   int64     `json:"pool_yes" db:"pool_yes"`
	PoolNo    int64     `json:"pool_no" db:"pool_no"`
	Status    string    `json:"status" db:"status"`
	Outcomes  []Outcome `json:"outcomes"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Outcome is one selectable answer within a market. Probabilities are
// percentages tracked independently per outcome; multi-outcome markets are
// not required to sum to 100.
type Outcome struct {
	ID          string          `json:"id" db:"id"`
	MarketID    string          `json:"market_id" db:"market_id"`
	Name        string          `json:"name" db:"name"`
	Color       string          `json:"color" db:"color"`
	Probability decimal.Decimal `json:"probability" db:"probability"` // percent
	Winner      bool            `json:"winner" db:"winner"`
}

// Bet is an immutable stake record. OddsAtBet is the implied probability
// snapshot captured at stake time; PotentialPayout is computed from it once
// and never recomputed. Only Status changes afterwards, at resolution.
type Bet struct {
	ID              string          `json:"id" db:"id"`
	UserID          string          `json:"user_id" db:"user_id"`
	MarketID        string          `json:"market_id" db:"market_id"`
	OutcomeID       string          `json:"outcome_id" db:"outcome_id"`
	Side            string          `json:"side" db:"side"` // "yes" or "no"
	Amount          int64           `json:"amount" db:"amount"`
	OddsAtBet       decimal.Decimal `json:"odds_at_bet" db:"odds_at_bet"` // percent
	PotentialPayout int64           `json:"potential_payout" db:"potential_payout"`
	Status          string          `json:"status" db:"status"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}

// Season is a time-boxed competitive period with its own leaderboard.
type Season struct {
	ID       string    `json:"id" db:"id"`
	Name     string    `json:"name" db:"name"`
	StartsAt time.Time `json:"starts_at" db:"starts_at"`
	EndsAt   time.Time `json:"ends_at" db:"ends_at"`
}

// SeasonLeaderboardEntry is one user's cumulative standing within a season.
// Points is net profit/loss from settled bets. Read-only input to the tier
// classifier; updated by bet settlement.
type SeasonLeaderboardEntry struct {
	SeasonID       string `json:"season_id" db:"season_id"`
	UserID         string `json:"user_id" db:"user_id"`
	Points         int64  `json:"points" db:"points"`
	Wins           int    `json:"wins" db:"wins"`
	Losses         int    `json:"losses" db:"losses"`
	TotalBetAmount int64  `json:"total_bet_amount" db:"total_bet_amount"`
}

// UserSeasonCard is the per-(user, season) tier record. HighestTier is the
// ratcheted value; see the tier package for the band-specific rules.
type UserSeasonCard struct {
	UserID      string    `json:"user_id" db:"user_id"`
	SeasonID    string    `json:"season_id" db:"season_id"`
	Tier        string    `json:"tier" db:"tier"`
	HighestTier string    `json:"highest_tier_achieved" db:"highest_tier_achieved"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// DailyRewardState tracks one user's login-reward streak. A zero LastClaimAt
// means no claim has ever been recorded. StreakDay cycles 0..6.
type DailyRewardState struct {
	UserID      string    `json:"user_id" db:"user_id"`
	LastClaimAt time.Time `json:"last_claim_at" db:"last_claim_at"`
	StreakDay   int       `json:"current_streak_day" db:"current_streak_day"`
}
