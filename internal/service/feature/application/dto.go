// internal/service/feature/application/dto.go
package application

// ActivateRequest 是购买或续费一个可见性升级的入参。
// 支付扣款在上游完成，这里只做排期。
type ActivateRequest struct {
	AdID         string `json:"ad_id"`
	FeatureType  string `json:"feature_type"`
	DurationDays int    `json:"duration_days"`
}
