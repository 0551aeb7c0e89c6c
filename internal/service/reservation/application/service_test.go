// internal/service/reservation/application/service_test.go
package application

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"souq/internal/service/reservation/domain"
	"souq/internal/service/reservation/port"

	"go.opentelemetry.io/otel"
)

type fakeReservationRepository struct {
	mu           sync.Mutex
	reservations map[string]*domain.Reservation
	saveErr      error

	// beforeExpireOne 在每次 ExpireOne 前执行，
	// 用来在候选集读出之后、条件更新之前插入并发流转。
	beforeExpireOne func()
}

func newFakeReservationRepository() *fakeReservationRepository {
	return &fakeReservationRepository{reservations: make(map[string]*domain.Reservation)}
}

func (f *fakeReservationRepository) Save(ctx context.Context, r *domain.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	clone := *r
	f.reservations[r.ID] = &clone
	return nil
}

func (f *fakeReservationRepository) FindByID(ctx context.Context, id string) (*domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reservations[id]
	if !ok {
		return nil, domain.ErrReservationNotFound
	}
	clone := *r
	return &clone, nil
}

func (f *fakeReservationRepository) FindDuePending(ctx context.Context, now time.Time, limit int) ([]*domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Reservation
	for _, r := range f.reservations {
		if r.Status == domain.StatusPending && r.ExpiresAt.Before(now) {
			clone := *r
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ExpireOne 和 SQL 实现一样，状态判定和流转在同一个临界区内完成。
func (f *fakeReservationRepository) ExpireOne(ctx context.Context, id string, now time.Time) (bool, error) {
	if f.beforeExpireOne != nil {
		f.beforeExpireOne()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reservations[id]
	if !ok || r.Status != domain.StatusPending || r.ExpiresAt.After(now) {
		return false, nil
	}
	r.Status = domain.StatusCancelled
	r.UpdatedAt = now
	return true, nil
}

func (f *fakeReservationRepository) FindByBuyer(ctx context.Context, buyerID string) ([]*domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Reservation
	for _, r := range f.reservations {
		if r.BuyerID == buyerID {
			clone := *r
			out = append(out, &clone)
		}
	}
	return out, nil
}

// fakeAdHold 在内存里复刻 redis 软占用的语义：
// 只有 key 不存在时才能占用，只有持有者能释放。
type fakeAdHold struct {
	mu    sync.Mutex
	holds map[string]string // adID -> reservationID
}

func newFakeAdHold() *fakeAdHold {
	return &fakeAdHold{holds: make(map[string]string)}
}

func (f *fakeAdHold) Acquire(ctx context.Context, adID, reservationID string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, held := f.holds[adID]; held {
		return domain.ErrAdAlreadyHeld
	}
	f.holds[adID] = reservationID
	return nil
}

func (f *fakeAdHold) Release(ctx context.Context, adID, reservationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.holds[adID] == reservationID {
		delete(f.holds, adID)
	}
	return nil
}

func (f *fakeAdHold) heldBy(adID string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.holds[adID]
	return id, ok
}

type staticAdProvider struct {
	price float64
	live  bool
}

func (s staticAdProvider) Snapshot(ctx context.Context, adID string) (*port.AdSnapshot, error) {
	return &port.AdSnapshot{AdID: adID, CategoryID: "cars", Price: s.price, Live: s.live}, nil
}

func cartConfig() domain.CategoryConfig {
	return domain.CategoryConfig{AllowCart: true, ReservationPercentage: 0.1, MinReservationAmount: 150}
}

func newTestReservationService(repo domain.ReservationRepository, hold domain.AdHold, ads port.AdProvider) *Service {
	return NewService(repo, hold, ads, otel.Tracer("test"), 48*time.Hour)
}

func TestCreateReservation(t *testing.T) {
	repo := newFakeReservationRepository()
	hold := newFakeAdHold()
	svc := newTestReservationService(repo, hold, staticAdProvider{price: 1000, live: true})

	r, err := svc.Create(context.Background(), &CreateRequest{AdID: "ad-1", BuyerID: "b1", Quantity: 1}, cartConfig())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	// 1000 × 0.1 = 100，低于下限 150，抬到 150
	if r.ReservationAmount != 150 {
		t.Errorf("ReservationAmount = %v, want 150", r.ReservationAmount)
	}
	if r.Status != domain.StatusPending {
		t.Errorf("status = %s, want PENDING", r.Status)
	}
	if holder, ok := hold.heldBy("ad-1"); !ok || holder != r.ID {
		t.Errorf("ad must be held by the new reservation, got %q held=%v", holder, ok)
	}
}

func TestCreateRejectsNonCartCategory(t *testing.T) {
	svc := newTestReservationService(newFakeReservationRepository(), newFakeAdHold(), staticAdProvider{price: 1000, live: true})

	_, err := svc.Create(context.Background(), &CreateRequest{AdID: "ad-1", BuyerID: "b1", Quantity: 1},
		domain.CategoryConfig{AllowCart: false})
	if !errors.Is(err, domain.ErrCategoryNotCartEnabled) {
		t.Fatalf("expected ErrCategoryNotCartEnabled, got %v", err)
	}
}

func TestCreateRejectsOfflineAd(t *testing.T) {
	svc := newTestReservationService(newFakeReservationRepository(), newFakeAdHold(), staticAdProvider{price: 1000, live: false})

	_, err := svc.Create(context.Background(), &CreateRequest{AdID: "ad-1", BuyerID: "b1", Quantity: 1}, cartConfig())
	if !errors.Is(err, domain.ErrAdNotReservable) {
		t.Fatalf("expected ErrAdNotReservable, got %v", err)
	}
}

func TestSecondPendingReservationIsRejected(t *testing.T) {
	repo := newFakeReservationRepository()
	hold := newFakeAdHold()
	svc := newTestReservationService(repo, hold, staticAdProvider{price: 1000, live: true})

	if _, err := svc.Create(context.Background(), &CreateRequest{AdID: "ad-1", BuyerID: "b1", Quantity: 1}, cartConfig()); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := svc.Create(context.Background(), &CreateRequest{AdID: "ad-1", BuyerID: "b2", Quantity: 1}, cartConfig())
	if !errors.Is(err, domain.ErrAdAlreadyHeld) {
		t.Fatalf("expected ErrAdAlreadyHeld, got %v", err)
	}

	// 另一个广告不受影响
	if _, err := svc.Create(context.Background(), &CreateRequest{AdID: "ad-2", BuyerID: "b2", Quantity: 1}, cartConfig()); err != nil {
		t.Fatalf("unrelated ad must be reservable: %v", err)
	}
}

func TestCreateReleasesHoldWhenPersistenceFails(t *testing.T) {
	repo := newFakeReservationRepository()
	repo.saveErr = errors.New("mysql is down")
	hold := newFakeAdHold()
	svc := newTestReservationService(repo, hold, staticAdProvider{price: 1000, live: true})

	if _, err := svc.Create(context.Background(), &CreateRequest{AdID: "ad-1", BuyerID: "b1", Quantity: 1}, cartConfig()); err == nil {
		t.Fatal("expected persistence error")
	}
	if _, held := hold.heldBy("ad-1"); held {
		t.Error("hold must be released when the reservation row was never written")
	}
}

func TestTransitionReleasesHoldOnLeavingPending(t *testing.T) {
	repo := newFakeReservationRepository()
	hold := newFakeAdHold()
	svc := newTestReservationService(repo, hold, staticAdProvider{price: 1000, live: true})

	r, _ := svc.Create(context.Background(), &CreateRequest{AdID: "ad-1", BuyerID: "b1", Quantity: 1}, cartConfig())

	got, err := svc.Transition(context.Background(), r.ID, domain.StatusConfirmed)
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if got.Status != domain.StatusConfirmed {
		t.Errorf("status = %s, want CONFIRMED", got.Status)
	}
	if _, held := hold.heldBy("ad-1"); held {
		t.Error("confirming a reservation must release the soft hold")
	}
}

func TestTransitionOutOfTerminalRejected(t *testing.T) {
	repo := newFakeReservationRepository()
	hold := newFakeAdHold()
	svc := newTestReservationService(repo, hold, staticAdProvider{price: 1000, live: true})

	r, _ := svc.Create(context.Background(), &CreateRequest{AdID: "ad-1", BuyerID: "b1", Quantity: 1}, cartConfig())
	if _, err := svc.Transition(context.Background(), r.ID, domain.StatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	_, err := svc.Transition(context.Background(), r.ID, domain.StatusConfirmed)
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition out of CANCELLED, got %v", err)
	}
}

func TestExpireDueCancelsAndReleases(t *testing.T) {
	repo := newFakeReservationRepository()
	hold := newFakeAdHold()
	svc := newTestReservationService(repo, hold, staticAdProvider{price: 1000, live: true})

	stale, _ := svc.Create(context.Background(), &CreateRequest{AdID: "ad-1", BuyerID: "b1", Quantity: 1}, cartConfig())
	fresh, _ := svc.Create(context.Background(), &CreateRequest{AdID: "ad-2", BuyerID: "b1", Quantity: 1}, cartConfig())

	// 把第一单的持有期回拨到已过期
	overdue, _ := repo.FindByID(context.Background(), stale.ID)
	overdue.ExpiresAt = time.Now().Add(-time.Hour)
	repo.Save(context.Background(), overdue)

	count, err := svc.ExpireDue(context.Background())
	if err != nil {
		t.Fatalf("ExpireDue: %v", err)
	}
	if count != 1 {
		t.Errorf("expired %d reservations, want 1", count)
	}

	got, _ := repo.FindByID(context.Background(), stale.ID)
	if got.Status != domain.StatusCancelled {
		t.Errorf("stale reservation status = %s, want CANCELLED", got.Status)
	}
	if _, held := hold.heldBy("ad-1"); held {
		t.Error("expired reservation must release its hold")
	}

	kept, _ := repo.FindByID(context.Background(), fresh.ID)
	if kept.Status != domain.StatusPending {
		t.Errorf("fresh reservation must survive the sweep, status = %s", kept.Status)
	}
	if holder, ok := hold.heldBy("ad-2"); !ok || holder != fresh.ID {
		t.Error("fresh reservation must keep its hold")
	}

	again, err := svc.ExpireDue(context.Background())
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if again != 0 {
		t.Errorf("repeated sweep must be a no-op, moved %d", again)
	}
}

func TestExpireDueSkipsConcurrentlyConfirmedReservation(t *testing.T) {
	repo := newFakeReservationRepository()
	hold := newFakeAdHold()
	svc := newTestReservationService(repo, hold, staticAdProvider{price: 1000, live: true})

	r, err := svc.Create(context.Background(), &CreateRequest{AdID: "ad-1", BuyerID: "b1", Quantity: 1}, cartConfig())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	overdue, _ := repo.FindByID(context.Background(), r.ID)
	overdue.ExpiresAt = time.Now().Add(-time.Hour)
	repo.Save(context.Background(), overdue)

	// 候选集读出之后、条件更新落库之前，买家把这单确认掉
	confirmed := false
	repo.beforeExpireOne = func() {
		if confirmed {
			return
		}
		confirmed = true
		if _, err := svc.Transition(context.Background(), r.ID, domain.StatusConfirmed); err != nil {
			t.Errorf("concurrent confirm: %v", err)
		}
	}

	count, err := svc.ExpireDue(context.Background())
	if err != nil {
		t.Fatalf("ExpireDue: %v", err)
	}
	if count != 0 {
		t.Errorf("sweep moved %d reservations, want 0 after the concurrent confirm", count)
	}

	got, _ := repo.FindByID(context.Background(), r.ID)
	if got.Status != domain.StatusConfirmed {
		t.Errorf("status = %s, want CONFIRMED to survive the sweep", got.Status)
	}
	// 占用由确认流转释放，清扫不得二次插手
	if _, held := hold.heldBy("ad-1"); held {
		t.Error("hold must have been released by the confirmation")
	}
}
