// internal/service/feature/domain/event.go
package domain

import (
	"context"
	"time"
)

// FeatureActivatedEvent 在升级首次激活或叠加续费后发布，
// 供搜索索引、列表页缓存等下游刷新展示位。
type FeatureActivatedEvent struct {
	EventID    string    `json:"event_id"`
	AdID       string    `json:"ad_id"`
	Type       Type      `json:"feature_type"`
	EndAt      time.Time `json:"end_at"`
	Extended   bool      `json:"extended"`
	OccurredAt time.Time `json:"occurred_at"`
}

// FeatureEventProducer 定义升级事件的发布端口。
type FeatureEventProducer interface {
	Produce(ctx context.Context, event *FeatureActivatedEvent) error
}
