// internal/service/feature/infrastructure/kafka_producer.go
package infrastructure

import (
	"context"
	"encoding/json"

	"souq/internal/pkg/mq"
	"souq/internal/service/feature/domain"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

// FeatureEventProducerAdapter 把升级事件发到 Kafka。
// 以 AdID 作 key，同一广告的事件落在同一分区保序。
type FeatureEventProducerAdapter struct {
	writer *kafka.Writer
}

func NewFeatureEventProducerAdapter(writer *kafka.Writer) *FeatureEventProducerAdapter {
	return &FeatureEventProducerAdapter{writer: writer}
}

var _ domain.FeatureEventProducer = (*FeatureEventProducerAdapter)(nil)

func (p *FeatureEventProducerAdapter) Produce(ctx context.Context, event *domain.FeatureActivatedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "failed to marshal feature event")
	}
	return mq.ProduceMessage(ctx, p.writer, []byte(event.AdID), payload)
}
