package payout

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/stakecraft/econ-engine/internal/model"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func TestPotential(t *testing.T) {
	tests := []struct {
		amount  int64
		implied float64
		want    int64
	}{
		{100, 50, 200},
		{100, 25, 400},
		{100, 100, 100},
		{250, 40, 625},
		{100, 33, 303},  // 100 / 0.33 = 303.03… → 303
		{1, 66.6, 2},    // 1 / 0.666 = 1.501… → 2
		{1000, 12.5, 8000},
	}
	for _, tt := range tests {
		got := Potential(tt.amount, d(tt.implied))
		if got != tt.want {
			t.Errorf("Potential(%d, %v) = %d, want %d",
				tt.amount, tt.implied, got, tt.want)
		}
	}
}

func TestPotential_DecreasesAsProbabilityRises(t *testing.T) {
	prev := Potential(100, d(5))
	for p := 10.0; p <= 100; p += 5 {
		cur := Potential(100, d(p))
		if cur >= prev {
			t.Errorf("payout should strictly decrease: p=%v payout=%d prev=%d",
				p, cur, prev)
		}
		prev = cur
	}
}

func TestImpliedForOutcome(t *testing.T) {
	if got := ImpliedForOutcome(d(30), model.SideYes); !got.Equal(d(30)) {
		t.Errorf("yes side: expected 30, got %s", got)
	}
	if got := ImpliedForOutcome(d(30), model.SideNo); !got.Equal(d(70)) {
		t.Errorf("no side: expected 70, got %s", got)
	}
}
