// internal/service/ads/domain/ad_test.go
package domain

import (
	"errors"
	"testing"
	"time"
)

func newDraftAd(t *testing.T) *Ad {
	t.Helper()
	ad, err := NewAd("ad-1", "u1", "cars", "2018 Corolla", 45000, time.Now())
	if err != nil {
		t.Fatalf("NewAd: %v", err)
	}
	return ad
}

func TestPublishSetsExpiry(t *testing.T) {
	ad := newDraftAd(t)
	now := time.Now()

	if err := ad.Publish(now, 30); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if ad.Status != StatusActive {
		t.Errorf("status = %s, want ACTIVE", ad.Status)
	}
	want := now.AddDate(0, 0, 30)
	if !ad.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", ad.ExpiresAt, want)
	}
}

func TestPublishFromPendingAllowed(t *testing.T) {
	ad := newDraftAd(t)
	now := time.Now()
	if err := ad.MarkPending(now); err != nil {
		t.Fatalf("MarkPending: %v", err)
	}
	if err := ad.Publish(now, 30); err != nil {
		t.Fatalf("approve path publish: %v", err)
	}
}

func TestIllegalTransitionsRejected(t *testing.T) {
	now := time.Now()

	sold := newDraftAd(t)
	sold.Publish(now, 30)
	sold.MarkSold(now)
	for name, op := range map[string]func() error{
		"publish sold ad":  func() error { return sold.Publish(now, 30) },
		"reject sold ad":   func() error { return sold.Reject("spam", now) },
		"resell sold ad":   func() error { return sold.MarkSold(now) },
		"pend sold ad":     func() error { return sold.MarkPending(now) },
		"expire sold ad":   func() error { return sold.Expire(now) },
		"reject draft ad":  func() error { return newDraftAd(t).Reject("spam", now) },
		"sell draft ad":    func() error { return newDraftAd(t).MarkSold(now) },
		"expire draft ad":  func() error { return newDraftAd(t).Expire(now) },
	} {
		if err := op(); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("%s: expected ErrInvalidTransition, got %v", name, err)
		}
	}
}

func TestExpireIsIdempotent(t *testing.T) {
	ad := newDraftAd(t)
	past := time.Now().AddDate(0, 0, -60)
	ad.Publish(past, 30)

	now := time.Now()
	if err := ad.Expire(now); err != nil {
		t.Fatalf("first expire: %v", err)
	}
	if ad.Status != StatusExpired {
		t.Fatalf("status = %s, want EXPIRED", ad.Status)
	}
	if err := ad.Expire(now); err != nil {
		t.Errorf("re-expiring must be a no-op, got %v", err)
	}
}

func TestExpireRefusesBeforeDeadline(t *testing.T) {
	ad := newDraftAd(t)
	ad.Publish(time.Now(), 30)
	if err := ad.Expire(time.Now()); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition for premature expiry, got %v", err)
	}
}

func TestIsLiveLooksAtDeadlineNotStatus(t *testing.T) {
	ad := newDraftAd(t)
	past := time.Now().AddDate(0, 0, -60)
	ad.Publish(past, 30)

	// 清扫还没跑，状态仍是 ACTIVE，但语义上已经过期
	if ad.Status != StatusActive {
		t.Fatalf("setup: status = %s", ad.Status)
	}
	if ad.IsLive(time.Now()) {
		t.Error("ad past its deadline must not be live even before the sweep runs")
	}
}
