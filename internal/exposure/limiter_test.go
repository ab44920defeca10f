package exposure

import (
	"testing"
)

func TestCheckLimit_WithinLimits(t *testing.T) {
	l := NewStakeLimiter(1000, 5000)
	if err := l.CheckLimit("m1", 500, nil); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCheckLimit_PerMarketExactlyAtCap(t *testing.T) {
	l := NewStakeLimiter(1000, 5000)
	open := map[string]int64{"m1": 600}
	if err := l.CheckLimit("m1", 400, open); err != nil {
		t.Errorf("stake landing exactly on the cap should pass: %v", err)
	}
}

func TestCheckLimit_PerMarketExceeded(t *testing.T) {
	l := NewStakeLimiter(1000, 5000)
	open := map[string]int64{"m1": 600}
	if err := l.CheckLimit("m1", 401, open); err != ErrMarketLimitExceeded {
		t.Errorf("expected ErrMarketLimitExceeded, got %v", err)
	}
}

func TestCheckLimit_OtherMarketDoesNotCount(t *testing.T) {
	l := NewStakeLimiter(1000, 5000)
	open := map[string]int64{"m2": 900}
	if err := l.CheckLimit("m1", 1000, open); err != nil {
		t.Errorf("per-market cap must only count the target market: %v", err)
	}
}

func TestCheckLimit_TotalExceeded(t *testing.T) {
	l := NewStakeLimiter(1000, 2000)
	open := map[string]int64{"m1": 800, "m2": 800, "m3": 300}
	if err := l.CheckLimit("m4", 200, open); err != ErrTotalLimitExceeded {
		t.Errorf("expected ErrTotalLimitExceeded, got %v", err)
	}
}

func TestCheckLimit_TotalExactlyAtCap(t *testing.T) {
	l := NewStakeLimiter(1000, 2000)
	open := map[string]int64{"m1": 800, "m2": 800}
	if err := l.CheckLimit("m3", 400, open); err != nil {
		t.Errorf("aggregate landing exactly on the cap should pass: %v", err)
	}
}

func TestCheckLimit_DisabledCaps(t *testing.T) {
	l := NewStakeLimiter(0, 0)
	open := map[string]int64{"m1": 1 << 40}
	if err := l.CheckLimit("m1", 1<<40, open); err != nil {
		t.Errorf("non-positive caps should disable checks: %v", err)
	}
}
