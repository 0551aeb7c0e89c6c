// internal/service/feature/domain/repository.go
package domain

import (
	"context"
	"time"
)

// UpgradeRepository 定义升级记录的持久化接口。
// (ad_id, feature_type) 上的索引支撑同类型去重查询。
type UpgradeRepository interface {
	// Save 保存升级记录（创建或更新）。
	Save(ctx context.Context, upgrade *Upgrade) error

	// FindActive 返回广告上指定类型的激活升级。
	// 不存在时返回 ErrUpgradeNotFound。
	FindActive(ctx context.Context, adID string, featureType Type) (*Upgrade, error)

	// FindActiveByAd 返回广告上所有激活的升级。
	FindActiveByAd(ctx context.Context, adID string) ([]*Upgrade, error)

	// ExpireDue 把 is_active 且已过 end_at 的升级落成非激活，
	// 返回流转行数。幂等，可任意频率执行或整体跳过。
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}
