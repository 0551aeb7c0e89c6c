// internal/service/ads/application/service.go
package application

import (
	"context"
	"errors"
	"time"

	"souq/internal/pkg/logger"
	"souq/internal/pkg/metrics"
	"souq/internal/service/ads/domain"
	"souq/internal/service/ads/port"
	creditdomain "souq/internal/service/credit/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Service 是广告生命周期的应用服务。
// 状态机的合法性由领域实体守卫，这里负责编排：
// 信任判定 → 扣积分 → 落库 → 发事件，以及失败路径上的积分补偿。
type Service struct {
	repo      domain.AdRepository
	credits   port.CreditService
	trust     port.TrustEvaluator // 可为 nil，此时只认请求里的 trusted 标记
	producer  domain.AdEventProducer
	tracer    trace.Tracer
	adTTLDays int
}

func NewService(repo domain.AdRepository, credits port.CreditService, trust port.TrustEvaluator, producer domain.AdEventProducer, tracer trace.Tracer, adTTLDays int) *Service {
	return &Service{
		repo:      repo,
		credits:   credits,
		trust:     trust,
		producer:  producer,
		tracer:    tracer,
		adTTLDays: adTTLDays,
	}
}

// Submit 受理一个新广告。
//
// 可信卖家 + 扣到积分 → 直接 ACTIVE；否则进 PENDING 人工审核。
// 积分耗尽只会降级发布速度，绝不会让提交请求失败。
// 扣完积分后落库失败时显式退还积分（见 DESIGN.md 的开放问题决策）。
func (s *Service) Submit(ctx context.Context, req *SubmitRequest) (*SubmitResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ads.Submit")
	defer span.End()

	now := time.Now()
	ad, err := domain.NewAd(uuid.New().String(), req.OwnerID, req.CategoryID, req.Title, req.Price, now)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid submission")
		metrics.AdSubmitTotal.WithLabelValues("rejected_input").Inc()
		return nil, err
	}
	span.SetAttributes(
		attribute.String("ad.id", ad.ID),
		attribute.String("user.id", req.OwnerID),
		attribute.String("ad.category_id", req.CategoryID),
	)

	trusted := s.isTrusted(ctx, req)
	span.SetAttributes(attribute.Bool("owner.trusted", trusted))

	var balanceID string
	if trusted {
		balanceID, err = s.credits.Reserve(ctx, req.OwnerID)
		switch {
		case err == nil:
			// 积分已扣，走自动发布
		case errors.Is(err, creditdomain.ErrInsufficientCredit):
			span.AddEvent("insufficient credit, falling back to manual review")
			balanceID = ""
		default:
			span.RecordError(err)
			span.SetStatus(codes.Error, "credit reservation failed")
			return nil, err
		}
	}

	if balanceID != "" {
		ad.CreditBalanceID = balanceID
		if err := ad.Publish(now, s.adTTLDays); err != nil {
			// DRAFT → ACTIVE 不可能被状态机拒绝，防御性兜底
			s.refundQuietly(ctx, balanceID, ad.ID)
			return nil, err
		}
	} else {
		if err := ad.MarkPending(now); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Save(ctx, ad); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to persist ad")
		if balanceID != "" {
			// 积分已经扣了但广告没落库，退回去
			s.refundQuietly(ctx, balanceID, ad.ID)
		}
		return nil, err
	}

	if ad.Status == domain.StatusActive {
		s.produceEvent(ctx, ad, "")
		metrics.AdSubmitTotal.WithLabelValues("active").Inc()
		logger.Ctx(ctx).Info().Str("ad_id", ad.ID).Str("balance_id", balanceID).Msg("ad auto-published")
		return &SubmitResponse{AdID: ad.ID, Status: ad.Status, Message: "Your ad is live."}, nil
	}

	metrics.AdSubmitTotal.WithLabelValues("pending").Inc()
	logger.Ctx(ctx).Info().Str("ad_id", ad.ID).Msg("ad queued for manual review")
	return &SubmitResponse{AdID: ad.ID, Status: ad.Status, Message: "Your ad is awaiting review."}, nil
}

// Approve 管理员放行一个待审核广告。
// 放行时也尝试扣一个积分；扣不到不阻塞放行，只打上计费跟进标记。
func (s *Service) Approve(ctx context.Context, adID string) (*domain.Ad, error) {
	ctx, span := s.tracer.Start(ctx, "ads.Approve")
	defer span.End()
	span.SetAttributes(attribute.String("ad.id", adID))

	ad, err := s.repo.FindByID(ctx, adID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	now := time.Now()
	balanceID, err := s.credits.Reserve(ctx, ad.OwnerID)
	switch {
	case err == nil:
		ad.CreditBalanceID = balanceID
	case errors.Is(err, creditdomain.ErrInsufficientCredit):
		// 审核放行从不因积分不足被阻塞
		ad.NeedsBillingFollowup = true
		span.AddEvent("approved without credit, flagged for billing followup")
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, "credit reservation failed")
		return nil, err
	}

	if err := ad.Publish(now, s.adTTLDays); err != nil {
		span.RecordError(err)
		if balanceID != "" {
			s.refundQuietly(ctx, balanceID, ad.ID)
		}
		return nil, err
	}

	if err := s.repo.Save(ctx, ad); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to persist approval")
		if balanceID != "" {
			s.refundQuietly(ctx, balanceID, ad.ID)
		}
		return nil, err
	}

	s.produceEvent(ctx, ad, "")
	logger.Ctx(ctx).Info().Str("ad_id", ad.ID).Bool("billing_followup", ad.NeedsBillingFollowup).Msg("ad approved")
	return ad, nil
}

// Reject 驳回一个待审核广告。
func (s *Service) Reject(ctx context.Context, adID, reason string) (*domain.Ad, error) {
	ctx, span := s.tracer.Start(ctx, "ads.Reject")
	defer span.End()
	span.SetAttributes(attribute.String("ad.id", adID))

	ad, err := s.repo.FindByID(ctx, adID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := ad.Reject(reason, time.Now()); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := s.repo.Save(ctx, ad); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to persist rejection")
		return nil, err
	}

	s.produceEvent(ctx, ad, reason)
	logger.Ctx(ctx).Info().Str("ad_id", ad.ID).Str("reason", reason).Msg("ad rejected")
	return ad, nil
}

// MarkSold 卖家标记广告已售出。
func (s *Service) MarkSold(ctx context.Context, adID string) (*domain.Ad, error) {
	ctx, span := s.tracer.Start(ctx, "ads.MarkSold")
	defer span.End()
	span.SetAttributes(attribute.String("ad.id", adID))

	ad, err := s.repo.FindByID(ctx, adID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := ad.MarkSold(time.Now()); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := s.repo.Save(ctx, ad); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to persist sold state")
		return nil, err
	}

	s.produceEvent(ctx, ad, "")
	return ad, nil
}

// ExpireDue 把所有到期的 ACTIVE 广告落成 EXPIRED，返回流转行数。
// 幂等：重复执行第二次流转 0 行。
func (s *Service) ExpireDue(ctx context.Context) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "ads.ExpireDue")
	defer span.End()

	count, err := s.repo.ExpireDue(ctx, time.Now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "ad expiry sweep failed")
		return 0, err
	}
	span.SetAttributes(attribute.Int64("sweep.expired", count))
	metrics.SweepExpiredTotal.WithLabelValues("ad").Add(float64(count))
	if count > 0 {
		logger.Ctx(ctx).Info().Int64("count", count).Msg("ads expired by sweep")
	}
	return count, nil
}

// Get 返回广告详情。
func (s *Service) Get(ctx context.Context, adID string) (*domain.Ad, error) {
	return s.repo.FindByID(ctx, adID)
}

// IncrementViews 浏览计数加一。
func (s *Service) IncrementViews(ctx context.Context, adID string) error {
	return s.repo.IncrementViews(ctx, adID)
}

// IsLive 判断广告当前是否在线（ACTIVE 且未过期），
// 供 feature / reservation 上下文做前置检查。
func (s *Service) IsLive(ctx context.Context, adID string) (bool, error) {
	ad, err := s.repo.FindByID(ctx, adID)
	if err != nil {
		return false, err
	}
	return ad.IsLive(time.Now()), nil
}

// isTrusted 综合请求标记与规则引擎给出信任结论。
// 规则引擎出错时按不可信处理：宁可多审一单，不能放错一单。
func (s *Service) isTrusted(ctx context.Context, req *SubmitRequest) bool {
	if req.OwnerTrusted {
		return true
	}
	if s.trust == nil {
		return false
	}
	trusted, err := s.trust.Evaluate(ctx, req.Facts)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("trust rule evaluation failed, treating owner as untrusted")
		return false
	}
	return trusted
}

// refundQuietly 在补偿路径上退积分，失败只记日志。
// 退不回去意味着用户损失一个积分，需要人工对账，但主流程的错误优先返回。
func (s *Service) refundQuietly(ctx context.Context, balanceID, adID string) {
	if err := s.credits.Refund(ctx, balanceID); err != nil {
		logger.Ctx(ctx).Error().Err(err).
			Str("balance_id", balanceID).
			Str("ad_id", adID).
			Msg("CRITICAL: failed to refund credit after ad persistence failure")
	}
}

// produceEvent 发布生命周期事件，失败不影响主流程。
func (s *Service) produceEvent(ctx context.Context, ad *domain.Ad, reason string) {
	if s.producer == nil {
		return
	}
	event := &domain.AdLifecycleEvent{
		EventID:    uuid.New().String(),
		AdID:       ad.ID,
		OwnerID:    ad.OwnerID,
		CategoryID: ad.CategoryID,
		Status:     ad.Status,
		Reason:     reason,
		OccurredAt: time.Now(),
	}
	if err := s.producer.Produce(ctx, event); err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("ad_id", ad.ID).Msg("failed to produce ad lifecycle event")
	}
}
