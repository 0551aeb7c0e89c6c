// internal/service/ads/domain/status.go
package domain

// Status 定义广告的生命周期状态。
type Status string

const (
	StatusDraft    Status = "DRAFT"    // 已录入，尚未提交
	StatusPending  Status = "PENDING"  // 等待人工审核
	StatusActive   Status = "ACTIVE"   // 已发布，对外可见
	StatusExpired  Status = "EXPIRED"  // 展示期结束
	StatusSold     Status = "SOLD"     // 卖家标记已售出（终态）
	StatusRejected Status = "REJECTED" // 审核驳回（本轮终态，可重新提交为新广告）
)

// IsTerminal 判断状态是否为本轮生命周期的终态。
// 过期广告可以由卖家续期重新激活，不算终态。
func (s Status) IsTerminal() bool {
	return s == StatusSold || s == StatusRejected
}
