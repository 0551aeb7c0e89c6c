// internal/service/credit/domain/repository.go
package domain

import (
	"context"
	"time"
)

// BalanceRepository 定义积分批次的持久化接口，由基础设施层实现。
type BalanceRepository interface {
	// Create 持久化一批新积分。
	// 幂等键冲突时返回 ErrDuplicatePurchaseEvent。
	Create(ctx context.Context, balance *Balance) error

	// FindByID 按主键查找。不存在时返回 ErrBalanceNotFound。
	FindByID(ctx context.Context, id string) (*Balance, error)

	// FindByPurchaseEvent 按幂等键查找已发放的批次。
	FindByPurchaseEvent(ctx context.Context, userID string, packageID *string, purchaseEventID string) (*Balance, error)

	// FindEligible 返回用户当前可扣减的批次，按 expires_at 升序。
	FindEligible(ctx context.Context, userID string, now time.Time) ([]*Balance, error)

	// ConsumeOne 对指定批次做比较再扣减：
	// 仅当 credits_remaining > 0 时减一，返回是否真的扣掉了。
	// 这是整个引擎唯一一处对并发正确性有硬性要求的写操作。
	ConsumeOne(ctx context.Context, id string) (bool, error)

	// RefundOne 把一个积分退回批次，封顶 credits_total。
	// 返回是否真的加回去了。
	RefundOne(ctx context.Context, id string) (bool, error)

	// FindByUser 返回用户的全部批次（含已耗尽/过期的，用于账单页）。
	FindByUser(ctx context.Context, userID string) ([]*Balance, error)
}
