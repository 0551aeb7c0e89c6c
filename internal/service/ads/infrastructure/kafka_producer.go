// internal/service/ads/infrastructure/kafka_producer.go
package infrastructure

import (
	"context"
	"encoding/json"

	"souq/internal/pkg/mq"
	"souq/internal/service/ads/domain"

	"github.com/segmentio/kafka-go"
)

// AdEventProducerAdapter 把广告生命周期事件写入 ad-events 主题。
// 以 AdID 为 key，同一广告的事件保持分区有序。
type AdEventProducerAdapter struct {
	writer *kafka.Writer
}

func NewAdEventProducerAdapter(writer *kafka.Writer) *AdEventProducerAdapter {
	return &AdEventProducerAdapter{writer: writer}
}

func (p *AdEventProducerAdapter) Produce(ctx context.Context, event *domain.AdLifecycleEvent) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return mq.ProduceMessage(ctx, p.writer, []byte(event.AdID), eventBytes)
}
