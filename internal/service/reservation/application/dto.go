// internal/service/reservation/application/dto.go
package application

// CreateRequest 是创建预订单的入参。
// 类目配置由调用方显式带入，而不是引擎去读全局配置。
type CreateRequest struct {
	AdID        string  `json:"ad_id"`
	BuyerID     string  `json:"buyer_id"`
	Quantity    int     `json:"quantity"`
	DeliveryFee float64 `json:"delivery_fee"`
}
