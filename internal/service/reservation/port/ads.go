// internal/service/reservation/port/ads.go
package port

import "context"

// AdSnapshot 是创建预订单时需要的广告快照。
type AdSnapshot struct {
	AdID       string
	CategoryID string
	Price      float64
	Live       bool
}

// AdProvider 是对广告上下文的依赖：
// 预订只能针对当前在线的广告，金额基于广告单价计算。
type AdProvider interface {
	Snapshot(ctx context.Context, adID string) (*AdSnapshot, error)
}
