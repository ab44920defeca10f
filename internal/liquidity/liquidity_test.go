package liquidity

import (
	"testing"

	"github.com/shopspring/decimal"
)

// d is a test helper for creating decimals from float64.
func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func TestSplit_FiftyFifty(t *testing.T) {
	yes, no := Split(d(50), 1000)
	if yes != 500 || no != 500 {
		t.Errorf("expected (500, 500), got (%d, %d)", yes, no)
	}
}

func TestSplit_SkewedProbability(t *testing.T) {
	yes, no := Split(d(70), 1000)
	if yes != 700 {
		t.Errorf("expected poolYes=700, got %d", yes)
	}
	if no != 300 {
		t.Errorf("expected poolNo=300, got %d", no)
	}
}

func TestSplit_IndependentRoundingDrift(t *testing.T) {
	// 50% of 1001: both sides are 500.5 and round half away from zero
	// independently, so the sum drifts from the budget by +1. Accepted.
	yes, no := Split(d(50), 1001)
	if yes != 501 {
		t.Errorf("expected poolYes=501, got %d", yes)
	}
	if no != 501 {
		t.Errorf("expected poolNo=501, got %d", no)
	}
	if sum := yes + no; sum != 1002 {
		t.Errorf("expected accepted drift of +1 (sum=1002), got sum=%d", sum)
	}
}

func TestSplit_FloorClampLowSide(t *testing.T) {
	// 1% of 100 = 1 → clamped to MinPool; other side stays as computed.
	yes, no := Split(d(1), 100)
	if yes != MinPool {
		t.Errorf("expected poolYes clamped to %d, got %d", MinPool, yes)
	}
	if no != 99 {
		t.Errorf("expected poolNo=99 (not rebalanced), got %d", no)
	}
}

func TestSplit_FloorClampHighSide(t *testing.T) {
	yes, no := Split(d(99), 100)
	if yes != 99 {
		t.Errorf("expected poolYes=99, got %d", yes)
	}
	if no != MinPool {
		t.Errorf("expected poolNo clamped to %d, got %d", MinPool, no)
	}
}

func TestSplit_ImpliedTracksDesired(t *testing.T) {
	// For unclamped allocations the implied share of the budget should land
	// within a couple of percentage points of the desired probability.
	for p := 10; p <= 90; p += 5 {
		yes, no := Split(decimal.NewFromInt(int64(p)), 5000)
		if yes < MinPool || no < MinPool {
			t.Fatalf("p=%d: pools below floor (%d, %d)", p, yes, no)
		}
		implied := ImpliedPercent(yes, no).Round(0).IntPart()
		diff := implied - int64(p)
		if diff < -2 || diff > 2 {
			t.Errorf("p=%d: implied %d drifted more than 2 points", p, implied)
		}
	}
}

func TestSplitEven(t *testing.T) {
	yes, no := SplitEven(1000)
	if yes != 500 || no != 500 {
		t.Errorf("expected (500, 500), got (%d, %d)", yes, no)
	}
}

func TestImpliedPercent(t *testing.T) {
	p := ImpliedPercent(700, 300)
	if !p.Equal(d(70)) {
		t.Errorf("expected 70, got %s", p)
	}
}

func TestImpliedPercent_EmptyPools(t *testing.T) {
	if !ImpliedPercent(0, 0).IsZero() {
		t.Error("expected zero for empty pools")
	}
}
