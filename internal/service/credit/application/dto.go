// internal/service/credit/application/dto.go
package application

// GrantRequest 是发放一批积分的命令载体。
// 来源可能是支付回调消费者，也可能是管理后台的手工发放。
type GrantRequest struct {
	UserID          string  `json:"userId"`
	PackageID       *string `json:"packageId,omitempty"`
	CreditsTotal    int     `json:"creditsTotal"`
	DurationDays    int     `json:"durationDays"`
	PurchaseEventID string  `json:"purchaseEventId"`
}
