// internal/service/credit/infrastructure/payment_consumer.go
package infrastructure

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"souq/internal/pkg/logger"
	"souq/internal/pkg/mq"
	"souq/internal/service/credit/application"
	"souq/internal/service/credit/domain"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// PaymentConsumerAdapter 监听 payment-events 主题，
// 把校验过的支付成功事件转成积分发放命令。
// Grant 以 PurchaseEventID 幂等，所以 at-least-once 投递是安全的。
type PaymentConsumerAdapter struct {
	reader  *kafka.Reader
	credits *application.Service
	wg      sync.WaitGroup
	// Stop 在调用方 goroutine 里写，消费循环里读
	stopped atomic.Bool
}

func NewPaymentConsumerAdapter(reader *kafka.Reader, credits *application.Service) *PaymentConsumerAdapter {
	return &PaymentConsumerAdapter{reader: reader, credits: credits}
}

// Start 启动消费循环，长期运行直到 Stop 或 ctx 取消。
func (a *PaymentConsumerAdapter) Start(ctx context.Context) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		logger.Logger.Info().Str("topic", a.reader.Config().Topic).Msg("payment consumer started")
		for {
			if a.stopped.Load() {
				return
			}
			msg, err := a.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					logger.Logger.Info().Msg("payment consumer shutting down")
					return
				}
				logger.Logger.Error().Err(err).Msg("could not read payment message, retrying")
				time.Sleep(time.Second)
				continue
			}

			a.processMessage(ctx, msg)

			// 处理完成后再提交 offset；失败的消息也提交，
			// 反复投递一条坏消息只会刷日志，不会发错积分。
			if err := a.reader.CommitMessages(ctx, msg); err != nil {
				logger.Logger.Error().Err(err).Msg("failed to commit payment message")
			}
		}
	}()
}

// Stop 优雅停止消费者。
func (a *PaymentConsumerAdapter) Stop() {
	a.stopped.Store(true)
	a.reader.Close()
	a.wg.Wait()
	logger.Logger.Info().Msg("payment consumer stopped")
}

func (a *PaymentConsumerAdapter) processMessage(parentCtx context.Context, msg kafka.Message) {
	var event domain.PaymentSucceeded
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		logger.Logger.Error().Err(err).Msg("failed to unmarshal payment event, skipping")
		return
	}

	// 还原上游（支付回调接收器）的链路上下文
	propagator := otel.GetTextMapPropagator()
	carrier := mq.KafkaHeaderCarrier(msg.Headers)
	ctx := propagator.Extract(parentCtx, &carrier)

	tracer := otel.Tracer("credit-payment-consumer")
	ctx, span := tracer.Start(ctx, "credit.HandlePaymentSucceeded", trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()

	_, err := a.credits.Grant(ctx, application.GrantRequest{
		UserID:          event.UserID,
		PackageID:       event.PackageID,
		CreditsTotal:    event.Credits,
		DurationDays:    event.DurationDays,
		PurchaseEventID: event.EventID,
	})
	if err != nil {
		span.RecordError(err)
		logger.Ctx(ctx).Error().Err(err).
			Str("purchase_event_id", event.EventID).
			Msg("failed to grant credits for payment event")
	}
}
