// Package payout computes the contractual payout of a winning stake from
// the implied probability snapshot captured at stake time.
//
// The calculation is pure and side-effect free. A zero implied probability
// is a caller precondition violation (the surrounding service must never
// accept a stake at 0%), not a condition this package recovers from.
package payout

import (
	"github.com/shopspring/decimal"

	"github.com/stakecraft/econ-engine/internal/model"
)

var oneHundred = decimal.NewFromInt(100)

// Potential returns the payout owed if the staked side wins:
//
//	payout = round(amount / (p / 100))
//
// impliedProbPercent is the price snapshot for the chosen side, as a
// percentage. The result is a whole number of coins; there are no
// fractional currency units.
func Potential(amount int64, impliedProbPercent decimal.Decimal) int64 {
	return decimal.NewFromInt(amount).
		Div(impliedProbPercent.Div(oneHundred)).
		Round(0).
		IntPart()
}

// ImpliedForOutcome returns the implied probability for betting a specific
// outcome of a multi-outcome market in the given polarity: the outcome's own
// probability for a YES stake, or 100 minus it for a NO stake.
func ImpliedForOutcome(outcomeProbPercent decimal.Decimal, side string) decimal.Decimal {
	if side == model.SideNo {
		return oneHundred.Sub(outcomeProbPercent)
	}
	return outcomeProbPercent
}
