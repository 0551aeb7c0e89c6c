// internal/service/credit/application/service_test.go
package application

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"souq/internal/service/credit/domain"

	"go.opentelemetry.io/otel"
)

// fakeBalanceRepository 在内存里复刻仓储的语义，
// 关键是 ConsumeOne / RefundOne 的比较再扣减在锁内完成，
// 和 SQL 条件更新一样是原子的。
type fakeBalanceRepository struct {
	mu       sync.Mutex
	balances map[string]*domain.Balance
}

func newFakeBalanceRepository() *fakeBalanceRepository {
	return &fakeBalanceRepository{balances: make(map[string]*domain.Balance)}
}

func (f *fakeBalanceRepository) Create(ctx context.Context, balance *domain.Balance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.balances {
		if b.UserID == balance.UserID && b.PurchaseEventID == balance.PurchaseEventID &&
			pkgIDEqual(b.PackageID, balance.PackageID) {
			return domain.ErrDuplicatePurchaseEvent
		}
	}
	clone := *balance
	f.balances[balance.ID] = &clone
	return nil
}

func (f *fakeBalanceRepository) FindByID(ctx context.Context, id string) (*domain.Balance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.balances[id]
	if !ok {
		return nil, domain.ErrBalanceNotFound
	}
	clone := *b
	return &clone, nil
}

func (f *fakeBalanceRepository) FindByPurchaseEvent(ctx context.Context, userID string, packageID *string, purchaseEventID string) (*domain.Balance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.balances {
		if b.UserID == userID && b.PurchaseEventID == purchaseEventID && pkgIDEqual(b.PackageID, packageID) {
			clone := *b
			return &clone, nil
		}
	}
	return nil, domain.ErrBalanceNotFound
}

func (f *fakeBalanceRepository) FindEligible(ctx context.Context, userID string, now time.Time) ([]*domain.Balance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Balance
	for _, b := range f.balances {
		if b.UserID == userID && b.IsActive(now) {
			clone := *b
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	return out, nil
}

func (f *fakeBalanceRepository) ConsumeOne(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.balances[id]
	if !ok || b.CreditsRemaining <= 0 {
		return false, nil
	}
	b.CreditsRemaining--
	return true, nil
}

func (f *fakeBalanceRepository) RefundOne(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.balances[id]
	if !ok || b.CreditsRemaining >= b.CreditsTotal {
		return false, nil
	}
	b.CreditsRemaining++
	return true, nil
}

func (f *fakeBalanceRepository) FindByUser(ctx context.Context, userID string) ([]*domain.Balance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Balance
	for _, b := range f.balances {
		if b.UserID == userID {
			clone := *b
			out = append(out, &clone)
		}
	}
	return out, nil
}

func pkgIDEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func newTestService(repo domain.BalanceRepository) *Service {
	return NewService(repo, otel.Tracer("test"))
}

func seedBalance(t *testing.T, repo *fakeBalanceRepository, userID, eventID string, credits, durationDays int) *domain.Balance {
	t.Helper()
	b, err := domain.NewBalance("bal-"+eventID, userID, nil, credits, durationDays, eventID, time.Now())
	if err != nil {
		t.Fatalf("NewBalance: %v", err)
	}
	if err := repo.Create(context.Background(), b); err != nil {
		t.Fatalf("seed create: %v", err)
	}
	return b
}

func TestReserveConsumesEarliestExpiringFirst(t *testing.T) {
	repo := newFakeBalanceRepository()
	svc := newTestService(repo)

	later := seedBalance(t, repo, "u1", "evt-later", 5, 60)
	sooner := seedBalance(t, repo, "u1", "evt-sooner", 5, 10)

	balanceID, err := svc.Reserve(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if balanceID != sooner.ID {
		t.Errorf("expected earliest-expiring balance %s, got %s", sooner.ID, balanceID)
	}
	got, _ := repo.FindByID(context.Background(), later.ID)
	if got.CreditsRemaining != 5 {
		t.Errorf("later balance should be untouched, remaining = %d", got.CreditsRemaining)
	}
}

func TestReserveInsufficientCredit(t *testing.T) {
	repo := newFakeBalanceRepository()
	svc := newTestService(repo)

	_, err := svc.Reserve(context.Background(), "u1")
	if !errors.Is(err, domain.ErrInsufficientCredit) {
		t.Fatalf("expected ErrInsufficientCredit, got %v", err)
	}
}

func TestReserveNeverOverspends(t *testing.T) {
	repo := newFakeBalanceRepository()
	svc := newTestService(repo)

	const credits = 5
	seedBalance(t, repo, "u1", "evt-1", credits, 30)

	// 比剩余积分多 3 个的并发请求同时进来，
	// 成功数必须恰好等于积分数，其余拿到 ErrInsufficientCredit。
	const attempts = credits + 3
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Reserve(context.Background(), "u1")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, insufficient int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domain.ErrInsufficientCredit):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != credits {
		t.Errorf("expected exactly %d successful reservations, got %d", credits, succeeded)
	}
	if insufficient != attempts-credits {
		t.Errorf("expected %d insufficient results, got %d", attempts-credits, insufficient)
	}

	balances, _ := repo.FindByUser(context.Background(), "u1")
	if balances[0].CreditsRemaining != 0 {
		t.Errorf("balance should be fully consumed, remaining = %d", balances[0].CreditsRemaining)
	}
}

func TestReserveSkipsExpiredBalances(t *testing.T) {
	repo := newFakeBalanceRepository()
	svc := newTestService(repo)

	expired, _ := domain.NewBalance("bal-old", "u1", nil, 5, 10, "evt-old", time.Now().AddDate(0, 0, -30))
	if err := repo.Create(context.Background(), expired); err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, err := svc.Reserve(context.Background(), "u1")
	if !errors.Is(err, domain.ErrInsufficientCredit) {
		t.Fatalf("expired balance must not be consumable, got %v", err)
	}
}

func TestGrantIsIdempotentPerPurchaseEvent(t *testing.T) {
	repo := newFakeBalanceRepository()
	svc := newTestService(repo)

	req := GrantRequest{
		UserID:          "u1",
		CreditsTotal:    10,
		DurationDays:    30,
		PurchaseEventID: "pay-123",
	}
	first, err := svc.Grant(context.Background(), req)
	if err != nil {
		t.Fatalf("first grant: %v", err)
	}
	second, err := svc.Grant(context.Background(), req)
	if err != nil {
		t.Fatalf("retried grant must succeed: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("retry must return the existing balance, got %s and %s", first.ID, second.ID)
	}

	balances, _ := repo.FindByUser(context.Background(), "u1")
	if len(balances) != 1 {
		t.Fatalf("expected a single balance after retry, got %d", len(balances))
	}
	if balances[0].CreditsRemaining != 10 {
		t.Errorf("retry must not top up credits, remaining = %d", balances[0].CreditsRemaining)
	}

	// 无套餐（PackageID 为 nil）的发放与带套餐的是不同的幂等键
	pkg := "pkg-1"
	withPkg := req
	withPkg.PackageID = &pkg
	third, err := svc.Grant(context.Background(), withPkg)
	if err != nil {
		t.Fatalf("grant with package: %v", err)
	}
	if third.ID == first.ID {
		t.Error("a packaged grant must not collide with the free grant for the same event")
	}
}

func TestRefundIsCappedAtTotal(t *testing.T) {
	repo := newFakeBalanceRepository()
	svc := newTestService(repo)

	b := seedBalance(t, repo, "u1", "evt-1", 3, 30)

	// 未消费时退款是空操作
	if err := svc.Refund(context.Background(), b.ID); err != nil {
		t.Fatalf("no-op refund must not error: %v", err)
	}
	got, _ := repo.FindByID(context.Background(), b.ID)
	if got.CreditsRemaining != 3 {
		t.Errorf("refund must not exceed total, remaining = %d", got.CreditsRemaining)
	}

	// 正常消费后的退款恢复余额
	if _, err := svc.Reserve(context.Background(), "u1"); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if err := svc.Refund(context.Background(), b.ID); err != nil {
		t.Fatalf("Refund: %v", err)
	}
	got, _ = repo.FindByID(context.Background(), b.ID)
	if got.CreditsRemaining != 3 {
		t.Errorf("expected remaining restored to 3, got %d", got.CreditsRemaining)
	}
}
