// Package streak governs the daily login reward: claim eligibility, streak
// continuation and reset, and the reward for the claimed day.
//
// The cycle is seven days, indexed 0..6. Days 0–5 pay a fixed amount from
// the schedule; day 6 pays a weighted jackpot draw supplied by the caller
// as a Drawer capability. Two independent windows drive the state machine:
// a claim needs a 24h gap since the last one, and a gap of 48h or more
// breaks the streak back to day 0.
//
// Everything here is pure: the package performs no I/O and does not guard
// against concurrent claims. At-most-one accepted claim per window is the
// persistence layer's job (conditional update on last_claim_at).
package streak

import (
	"time"
)

// Claim windows.
const (
	ClaimInterval = 24 * time.Hour
	ResetAfter    = 48 * time.Hour
)

// CycleDays is the length of the streak cycle. Day CycleDays-1 is the only
// jackpot day.
const CycleDays = 7

// Schedule is the fixed coin reward for streak days 0–5.
var Schedule = [CycleDays - 1]int64{100, 150, 200, 250, 300, 400}

// Prize is the outcome of a jackpot draw: the coin amount plus the display
// metadata the platform shows for the win.
type Prize struct {
	Amount int64  `json:"amount"`
	Rarity string `json:"rarity"`
	Label  string `json:"label"`
	Color  string `json:"color"`
}

// Drawer produces the day-6 jackpot prize. The draw is not deterministic;
// implementations own their randomness.
type Drawer interface {
	Draw() Prize
}

// Result is everything the caller needs to apply and display one claim.
type Result struct {
	CanClaim    bool      `json:"can_claim"`
	StreakDay   int       `json:"streak_day"` // day awarded by this claim
	Reward      int64     `json:"reward"`
	IsJackpot   bool      `json:"is_jackpot"`
	Jackpot     *Prize    `json:"jackpot,omitempty"`
	NextClaimAt time.Time `json:"next_claim_at"`
}

// CanClaim reports claim eligibility: a 24h gap since the last claim, or no
// recorded claim at all (zero lastClaim).
func CanClaim(now, lastClaim time.Time) bool {
	if lastClaim.IsZero() {
		return true
	}
	return now.Sub(lastClaim) >= ClaimInterval
}

// ShouldReset reports whether the streak is broken: a gap of 48h or more,
// or no recorded claim.
func ShouldReset(now, lastClaim time.Time) bool {
	if lastClaim.IsZero() {
		return true
	}
	return now.Sub(lastClaim) >= ResetAfter
}

// NextClaimAt returns when the next claim opens. Exposed so callers can show
// a countdown without re-deriving the eligibility rule.
func NextClaimAt(lastClaim time.Time) time.Time {
	return lastClaim.Add(ClaimInterval)
}

// NextDay returns the streak day a claim at this moment awards: 0 on a
// broken streak, otherwise one past the last claimed day, wrapping from
// day 6 back to day 0.
func NextDay(currentDay int, reset bool) int {
	if reset {
		return 0
	}
	return (currentDay + 1) % CycleDays
}

// Evaluate runs the full scheduler for one claim attempt. currentDay is the
// last claimed streak day. When the claim window has not opened yet, the
// result carries CanClaim=false and NextClaimAt, with no reward fields set.
// drawer is only invoked when the awarded day is the jackpot day.
func Evaluate(now, lastClaim time.Time, currentDay int, drawer Drawer) Result {
	if !CanClaim(now, lastClaim) {
		return Result{
			CanClaim:    false,
			StreakDay:   currentDay,
			NextClaimAt: NextClaimAt(lastClaim),
		}
	}

	day := NextDay(currentDay, ShouldReset(now, lastClaim))
	res := Result{
		CanClaim:    true,
		StreakDay:   day,
		NextClaimAt: now.Add(ClaimInterval),
	}

	if day == CycleDays-1 {
		prize := drawer.Draw()
		res.Reward = prize.Amount
		res.IsJackpot = true
		res.Jackpot = &prize
	} else {
		res.Reward = Schedule[day]
	}
	return res
}
