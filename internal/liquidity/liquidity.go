// Package liquidity computes the initial two-sided pool allocation for
// binary markets. Pool sizes are set once at market creation; the relative
// size of each pool implies the starting price of its side.
//
// Both pools are rounded independently from the liquidity budget rather than
// deriving the second by subtraction, so pool_yes + pool_no may deviate from
// the budget by ±1. That drift is an accepted property of the allocation, not
// an error, and is never corrected. Likewise the minimum-pool clamp raises a
// starved side without shrinking the other.
//
// All intermediate math uses shopspring/decimal — never float64 for money.
package liquidity

import (
	"github.com/shopspring/decimal"
)

// MinPool is the smallest allowed pool size. A side computed below this is
// clamped up to it; the opposite side is left as computed.
const MinPool int64 = 10

var (
	oneHundred = decimal.NewFromInt(100)
	fifty      = decimal.NewFromInt(50)
)

// Split allocates a liquidity budget across the two sides of a binary market
// so that the YES pool's share of the budget matches the desired implied
// probability:
//
//	poolYes = round(p/100 * L)
//	poolNo  = round((1 - p/100) * L)
//
// desiredProbPercent is expected in [0, 100]; values outside that range are
// the caller's responsibility and are not validated here.
func Split(desiredProbPercent decimal.Decimal, totalLiquidity int64) (poolYes, poolNo int64) {
	total := decimal.NewFromInt(totalLiquidity)

	poolYes = total.Mul(desiredProbPercent).Div(oneHundred).Round(0).IntPart()
	poolNo = total.Mul(oneHundred.Sub(desiredProbPercent)).Div(oneHundred).Round(0).IntPart()

	if poolYes < MinPool {
		poolYes = MinPool
	}
	if poolNo < MinPool {
		poolNo = MinPool
	}
	return poolYes, poolNo
}

// SplitEven allocates the budget evenly across both sides. Used when the
// creator supplies no desired probability (or for non-binary contexts that
// still carry pools). Equivalent to Split at 50%.
func SplitEven(totalLiquidity int64) (poolYes, poolNo int64) {
	return Split(fifty, totalLiquidity)
}

// ImpliedPercent returns the implied probability, as a percentage, of the
// side whose pool is sidePool given the opposite pool. Used to snapshot the
// price of a binary-market side at stake time.
func ImpliedPercent(sidePool, otherPool int64) decimal.Decimal {
	total := sidePool + otherPool
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(sidePool).
		Mul(oneHundred).
		Div(decimal.NewFromInt(total))
}
