// internal/service/feature/domain/upgrade_test.go
package domain

import (
	"testing"
	"time"
)

func TestExtendStacksOnRemainingTime(t *testing.T) {
	now := time.Now()
	u, err := NewUpgrade("up-1", "ad-1", TypePinned, 7, now)
	if err != nil {
		t.Fatalf("NewUpgrade: %v", err)
	}
	firstEnd := u.EndAt

	// 第 3 天续费 7 天：总时长 14 天，而不是从续费时刻重算
	renewAt := now.AddDate(0, 0, 3)
	if err := u.Extend(7, renewAt); err != nil {
		t.Fatalf("Extend: %v", err)
	}
	want := firstEnd.AddDate(0, 0, 7)
	if !u.EndAt.Equal(want) {
		t.Errorf("EndAt = %v, want %v (stacked on remaining time)", u.EndAt, want)
	}
}

func TestExtendAfterLapseStartsFromNow(t *testing.T) {
	start := time.Now().AddDate(0, 0, -30)
	u, _ := NewUpgrade("up-1", "ad-1", TypePinned, 7, start)

	now := time.Now()
	if err := u.Extend(7, now); err != nil {
		t.Fatalf("Extend: %v", err)
	}
	want := now.AddDate(0, 0, 7)
	if !u.EndAt.Equal(want) {
		t.Errorf("EndAt = %v, want %v (lapsed upgrade restarts from now)", u.EndAt, want)
	}
	if !u.IsActive {
		t.Error("extending a lapsed upgrade must reactivate it")
	}
}

func TestIsCurrentlyActiveIgnoresStaleFlag(t *testing.T) {
	start := time.Now().AddDate(0, 0, -10)
	u, _ := NewUpgrade("up-1", "ad-1", TypeTopSearch, 7, start)

	// 清扫还没跑，IsActive 仍为 true，但 EndAt 已过
	if !u.IsActive {
		t.Fatal("setup: flag should still be true")
	}
	if u.IsCurrentlyActive(time.Now()) {
		t.Error("expired upgrade must not count as active while the sweep lags")
	}
}

func TestParseTypeIsClosed(t *testing.T) {
	for _, valid := range []string{"PINNED", "TOP_SEARCH", "FEATURED_SECTION", "VIDEO"} {
		if _, err := ParseType(valid); err != nil {
			t.Errorf("ParseType(%q): %v", valid, err)
		}
	}
	if _, err := ParseType("BLINKING"); err == nil {
		t.Error("unknown feature type must be rejected")
	}
}
