// Package exposure enforces stake limits at bet placement.
//
// Two independent caps apply: the total pending stake a user may hold in a
// single market, and the aggregate pending stake across all open markets.
// Both are checked against the user's existing open stakes plus the stake
// being placed; limits are inclusive, so a stake that lands exactly on a
// cap is allowed.
package exposure

import (
	"errors"
)

var (
	// ErrMarketLimitExceeded is returned when a stake would push the user's
	// pending total in one market beyond the per-market maximum.
	ErrMarketLimitExceeded = errors.New("exposure: per-market stake limit exceeded")

	// ErrTotalLimitExceeded is returned when a stake would push the user's
	// aggregate pending total across all markets beyond the overall maximum.
	ErrTotalLimitExceeded = errors.New("exposure: total open-stake limit exceeded")
)

// StakeLimiter enforces per-market and aggregate open-stake limits.
type StakeLimiter struct {
	// MaxPerMarket is the maximum pending stake in any single market.
	MaxPerMarket int64

	// MaxTotal is the maximum aggregate pending stake across all markets.
	MaxTotal int64
}

// NewStakeLimiter creates a limiter with the given per-market and aggregate
// caps. Non-positive values disable the corresponding check.
func NewStakeLimiter(maxPerMarket, maxTotal int64) *StakeLimiter {
	return &StakeLimiter{
		MaxPerMarket: maxPerMarket,
		MaxTotal:     maxTotal,
	}
}

// CheckLimit validates whether a stake respects both caps.
//
// Parameters:
//   - marketID: the market being staked against
//   - amount: the stake being placed
//   - openStakes: the user's current pending stake totals keyed by market
//
// Returns nil if the stake is within limits, or an error naming the
// violated cap.
func (l *StakeLimiter) CheckLimit(marketID string, amount int64, openStakes map[string]int64) error {
	if l.MaxPerMarket > 0 && openStakes[marketID]+amount > l.MaxPerMarket {
		return ErrMarketLimitExceeded
	}

	if l.MaxTotal > 0 {
		total := amount
		for _, staked := range openStakes {
			total += staked
		}
		if total > l.MaxTotal {
			return ErrTotalLimitExceeded
		}
	}

	return nil
}
