// internal/service/credit/application/service.go
package application

import (
	"context"
	"errors"
	"time"

	"souq/internal/pkg/logger"
	"souq/internal/pkg/metrics"
	"souq/internal/service/credit/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Service 是积分账本的应用服务。
// 它只做编排：批次选择策略在这里，原子扣减的实现在仓储层。
type Service struct {
	repo   domain.BalanceRepository
	tracer trace.Tracer
}

func NewService(repo domain.BalanceRepository, tracer trace.Tracer) *Service {
	return &Service{repo: repo, tracer: tracer}
}

// Reserve 为一次自动发布扣掉一个积分，返回被扣的批次 ID。
//
// 策略：在所有可用批次里优先扣最先过期的（earliest-expiry-first）。
// 扣减本身是仓储层的比较再扣减，两个并发提交抢同一批次的最后一个积分
// 时只有一个会成功，失败的一方顺延到下一个批次；全部落空返回
// ErrInsufficientCredit。不同用户之间不会互相串行。
func (s *Service) Reserve(ctx context.Context, userID string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "credit.Reserve")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	balances, err := s.repo.FindEligible(ctx, userID, time.Now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load eligible balances")
		metrics.CreditReserveTotal.WithLabelValues("error").Inc()
		return "", err
	}

	for _, b := range balances {
		ok, err := s.repo.ConsumeOne(ctx, b.ID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to consume credit")
			metrics.CreditReserveTotal.WithLabelValues("error").Inc()
			return "", err
		}
		if ok {
			span.SetAttributes(attribute.String("credit.balance_id", b.ID))
			metrics.CreditReserveTotal.WithLabelValues("consumed").Inc()
			return b.ID, nil
		}
		// 这一批在读取和扣减之间被并发耗尽了，试下一批
	}

	span.AddEvent("no eligible balance")
	metrics.CreditReserveTotal.WithLabelValues("insufficient").Inc()
	return "", domain.ErrInsufficientCredit
}

// Grant 发放一批积分。对同一个 PurchaseEventID 重复调用是幂等的：
// 第二次调用不再发放，直接返回已存在的批次。
func (s *Service) Grant(ctx context.Context, req GrantRequest) (*domain.Balance, error) {
	ctx, span := s.tracer.Start(ctx, "credit.Grant")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", req.UserID),
		attribute.String("purchase.event_id", req.PurchaseEventID),
		attribute.Int("credits.total", req.CreditsTotal),
	)

	balance, err := domain.NewBalance(
		uuid.New().String(),
		req.UserID,
		req.PackageID,
		req.CreditsTotal,
		req.DurationDays,
		req.PurchaseEventID,
		time.Now(),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid grant request")
		return nil, err
	}

	if err := s.repo.Create(ctx, balance); err != nil {
		if errors.Is(err, domain.ErrDuplicatePurchaseEvent) {
			// 支付回调重试，按成功处理
			span.AddEvent("duplicate purchase event, returning existing balance")
			logger.Ctx(ctx).Info().
				Str("user_id", req.UserID).
				Str("purchase_event_id", req.PurchaseEventID).
				Msg("duplicate grant ignored")
			return s.repo.FindByPurchaseEvent(ctx, req.UserID, req.PackageID, req.PurchaseEventID)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to persist balance")
		return nil, err
	}

	logger.Ctx(ctx).Info().
		Str("user_id", req.UserID).
		Str("balance_id", balance.ID).
		Int("credits", balance.CreditsTotal).
		Msg("credit balance granted")
	return balance, nil
}

// Refund 把一个已扣的积分退回批次。
// 调用场景：Submit 扣完积分后广告落库失败的补偿路径。
// 批次已满（CreditsRemaining == CreditsTotal）时退款是空操作。
func (s *Service) Refund(ctx context.Context, balanceID string) error {
	ctx, span := s.tracer.Start(ctx, "credit.Refund")
	defer span.End()
	span.SetAttributes(attribute.String("credit.balance_id", balanceID))

	ok, err := s.repo.RefundOne(ctx, balanceID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to refund credit")
		return err
	}
	if !ok {
		span.AddEvent("refund was a no-op, balance already full")
	}
	return nil
}

// IsActive 判断一个批次当前是否可消费。
func (s *Service) IsActive(ctx context.Context, balanceID string) (bool, error) {
	balance, err := s.repo.FindByID(ctx, balanceID)
	if err != nil {
		return false, err
	}
	return balance.IsActive(time.Now()), nil
}

// BalancesOf 返回用户的全部批次，供账单页展示。
func (s *Service) BalancesOf(ctx context.Context, userID string) ([]*domain.Balance, error) {
	return s.repo.FindByUser(ctx, userID)
}
