// internal/service/ads/port/credit.go
package port

import "context"

// CreditService 是广告上下文对积分账本的依赖。
// 由 credit 应用服务实现；广告侧只关心"扣一个/退一个"。
type CreditService interface {
	// Reserve 扣掉一个积分，返回被扣的批次 ID。
	// 没有可用积分时返回 credit 领域的 ErrInsufficientCredit。
	Reserve(ctx context.Context, userID string) (string, error)

	// Refund 把一个积分退回指定批次（发布失败的补偿路径）。
	Refund(ctx context.Context, balanceID string) error
}
