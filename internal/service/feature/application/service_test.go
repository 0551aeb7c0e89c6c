// internal/service/feature/application/service_test.go
package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"souq/internal/service/feature/domain"

	"go.opentelemetry.io/otel"
)

type fakeUpgradeRepository struct {
	mu       sync.Mutex
	upgrades map[string]*domain.Upgrade
}

func newFakeUpgradeRepository() *fakeUpgradeRepository {
	return &fakeUpgradeRepository{upgrades: make(map[string]*domain.Upgrade)}
}

func (f *fakeUpgradeRepository) Save(ctx context.Context, u *domain.Upgrade) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *u
	f.upgrades[u.ID] = &clone
	return nil
}

func (f *fakeUpgradeRepository) FindActive(ctx context.Context, adID string, featureType domain.Type) (*domain.Upgrade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.upgrades {
		if u.AdID == adID && u.Type == featureType && u.IsActive {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUpgradeNotFound
}

func (f *fakeUpgradeRepository) FindActiveByAd(ctx context.Context, adID string) ([]*domain.Upgrade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Upgrade
	for _, u := range f.upgrades {
		if u.AdID == adID && u.IsActive {
			clone := *u
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (f *fakeUpgradeRepository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, u := range f.upgrades {
		if u.IsActive && u.EndAt.Before(now) {
			u.IsActive = false
			count++
		}
	}
	return count, nil
}

type staticAdChecker struct{ live bool }

func (s staticAdChecker) IsLive(ctx context.Context, adID string) (bool, error) {
	return s.live, nil
}

func newTestFeatureService(repo domain.UpgradeRepository, live bool) *Service {
	return NewService(repo, staticAdChecker{live: live}, nil, otel.Tracer("test"))
}

func TestActivateCreatesUpgrade(t *testing.T) {
	repo := newFakeUpgradeRepository()
	svc := newTestFeatureService(repo, true)

	u, err := svc.Activate(context.Background(), &ActivateRequest{
		AdID: "ad-1", FeatureType: "PINNED", DurationDays: 7,
	})
	if err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if u.Type != domain.TypePinned {
		t.Errorf("type = %s", u.Type)
	}
	if !u.IsCurrentlyActive(time.Now()) {
		t.Error("fresh upgrade must be active")
	}
}

func TestActivateRejectsOfflineAd(t *testing.T) {
	svc := newTestFeatureService(newFakeUpgradeRepository(), false)

	_, err := svc.Activate(context.Background(), &ActivateRequest{
		AdID: "ad-1", FeatureType: "PINNED", DurationDays: 7,
	})
	if !errors.Is(err, domain.ErrAdNotLive) {
		t.Fatalf("expected ErrAdNotLive, got %v", err)
	}
}

func TestActivateRejectsUnknownType(t *testing.T) {
	svc := newTestFeatureService(newFakeUpgradeRepository(), true)

	if _, err := svc.Activate(context.Background(), &ActivateRequest{
		AdID: "ad-1", FeatureType: "BLINKING", DurationDays: 7,
	}); err == nil {
		t.Fatal("unknown feature type must be rejected")
	}
}

func TestRepeatPurchaseExtendsExistingUpgrade(t *testing.T) {
	repo := newFakeUpgradeRepository()
	svc := newTestFeatureService(repo, true)

	req := &ActivateRequest{AdID: "ad-1", FeatureType: "TOP_SEARCH", DurationDays: 7}
	first, err := svc.Activate(context.Background(), req)
	if err != nil {
		t.Fatalf("first activate: %v", err)
	}
	second, err := svc.Activate(context.Background(), req)
	if err != nil {
		t.Fatalf("second activate: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("repeat purchase must extend the same record, got %s and %s", first.ID, second.ID)
	}
	want := first.EndAt.AddDate(0, 0, 7)
	if !second.EndAt.Equal(want) {
		t.Errorf("EndAt = %v, want %v (7 days stacked on the first purchase)", second.EndAt, want)
	}
	all, _ := repo.FindActiveByAd(context.Background(), "ad-1")
	if len(all) != 1 {
		t.Errorf("expected a single upgrade row, got %d", len(all))
	}
}

func TestDifferentTypesAreIndependent(t *testing.T) {
	repo := newFakeUpgradeRepository()
	svc := newTestFeatureService(repo, true)

	if _, err := svc.Activate(context.Background(), &ActivateRequest{AdID: "ad-1", FeatureType: "PINNED", DurationDays: 7}); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if _, err := svc.Activate(context.Background(), &ActivateRequest{AdID: "ad-1", FeatureType: "VIDEO", DurationDays: 14}); err != nil {
		t.Fatalf("Activate: %v", err)
	}

	all, err := svc.ActiveFeatures(context.Background(), "ad-1")
	if err != nil {
		t.Fatalf("ActiveFeatures: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected two independent upgrades, got %d", len(all))
	}
}

func TestIsFeatureActiveSurvivesSweepLag(t *testing.T) {
	repo := newFakeUpgradeRepository()
	svc := newTestFeatureService(repo, true)

	stale, _ := domain.NewUpgrade("up-stale", "ad-1", domain.TypePinned, 7, time.Now().AddDate(0, 0, -30))
	repo.Save(context.Background(), stale)

	active, err := svc.IsFeatureActive(context.Background(), "ad-1", domain.TypePinned)
	if err != nil {
		t.Fatalf("IsFeatureActive: %v", err)
	}
	if active {
		t.Error("lapsed upgrade must read as inactive before the sweep catches up")
	}

	missing, err := svc.IsFeatureActive(context.Background(), "ad-2", domain.TypePinned)
	if err != nil {
		t.Fatalf("IsFeatureActive: %v", err)
	}
	if missing {
		t.Error("ad with no upgrade must read as inactive")
	}
}

func TestFeatureSweepIsIdempotent(t *testing.T) {
	repo := newFakeUpgradeRepository()
	svc := newTestFeatureService(repo, true)

	lapsed, _ := domain.NewUpgrade("up-1", "ad-1", domain.TypePinned, 7, time.Now().AddDate(0, 0, -30))
	current, _ := domain.NewUpgrade("up-2", "ad-2", domain.TypePinned, 7, time.Now())
	repo.Save(context.Background(), lapsed)
	repo.Save(context.Background(), current)

	first, err := svc.ExpireDue(context.Background())
	if err != nil {
		t.Fatalf("first sweep: %v", err)
	}
	if first != 1 {
		t.Errorf("first sweep moved %d rows, want 1", first)
	}
	second, err := svc.ExpireDue(context.Background())
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if second != 0 {
		t.Errorf("repeated sweep must be a no-op, moved %d", second)
	}
}
