// internal/service/feature/port/ads.go
package port

import "context"

// AdStatusChecker 是对广告上下文的依赖：
// 升级只能附着在当前在线的广告上。
type AdStatusChecker interface {
	IsLive(ctx context.Context, adID string) (bool, error)
}
