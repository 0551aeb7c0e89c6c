// internal/service/ads/domain/event.go
package domain

import (
	"context"
	"time"
)

// AdLifecycleEvent 是广告状态变化时发布到 ad-events 主题的通用事件。
// 搜索索引、通知等下游各取所需；引擎本身不关心谁在消费。
type AdLifecycleEvent struct {
	EventID    string    `json:"eventId"`
	AdID       string    `json:"adId"`
	OwnerID    string    `json:"ownerId"`
	CategoryID string    `json:"categoryId"`
	Status     Status    `json:"status"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// AdEventProducer 定义广告事件的发布接口，由 kafka 适配器实现。
// 事件发布是尽力而为：失败只记日志，不回滚状态变更。
type AdEventProducer interface {
	Produce(ctx context.Context, event *AdLifecycleEvent) error
}
