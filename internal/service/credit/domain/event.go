// internal/service/credit/domain/event.go
package domain

// PaymentSucceeded 是支付网关回调经校验后投递到 payment-events 主题的事件。
// EventID 即发放积分的幂等键，消费端重复收到同一事件是安全的。
type PaymentSucceeded struct {
	EventID      string  `json:"eventId"`
	UserID       string  `json:"userId"`
	PackageID    *string `json:"packageId,omitempty"`
	Credits      int     `json:"credits"`
	DurationDays int     `json:"durationDays"`
	TraceID      string  `json:"traceId,omitempty"`
}
