// internal/service/ads/domain/repository.go
package domain

import (
	"context"
	"time"
)

// AdRepository 定义广告聚合的持久化接口。
type AdRepository interface {
	// Save 保存广告（创建或整体更新）。
	Save(ctx context.Context, ad *Ad) error

	// FindByID 按主键查找。不存在时返回 ErrAdNotFound。
	FindByID(ctx context.Context, id string) (*Ad, error)

	// ExpireDue 把所有 ACTIVE 且已过有效期的广告置为 EXPIRED，
	// 返回本次实际流转的行数。单条条件 UPDATE，
	// 多个清扫实例并发执行或重复执行都是安全的。
	ExpireDue(ctx context.Context, now time.Time) (int64, error)

	// IncrementViews 浏览计数加一，绕过聚合整体写回。
	IncrementViews(ctx context.Context, id string) error
}
