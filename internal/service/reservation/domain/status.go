// internal/service/reservation/domain/status.go
package domain

import "fmt"

// Status 是预订单的状态枚举。
type Status string

const (
	StatusPending   Status = "PENDING"   // 已创建，等待买家确认支付
	StatusConfirmed Status = "CONFIRMED" // 定金已付
	StatusCompleted Status = "COMPLETED" // 交易完成
	StatusCancelled Status = "CANCELLED" // 买家取消或持有超时
	StatusRefunded  Status = "REFUNDED"  // 定金已退
)

// ParseStatus 把外部传入的字符串收敛到封闭的枚举集合。
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled, StatusRefunded:
		return st, nil
	default:
		return "", fmt.Errorf("unknown reservation status: %q", s)
	}
}

// IsTerminal 判断状态是否为终态。终态不再接受任何流转。
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// ReleasesHold 判断进入该状态是否应释放广告上的软占用。
// PENDING 之外的任何状态都不再需要锁定广告。
func (s Status) ReleasesHold() bool {
	return s != StatusPending
}
