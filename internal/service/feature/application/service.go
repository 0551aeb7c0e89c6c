// internal/service/feature/application/service.go
package application

import (
	"context"
	"errors"
	"time"

	"souq/internal/pkg/logger"
	"souq/internal/pkg/metrics"
	"souq/internal/service/feature/domain"
	"souq/internal/service/feature/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Service 是可见性升级的应用服务。
// 同一广告同一类型的重复购买会落到同一条记录上做叠加续费。
type Service struct {
	repo     domain.UpgradeRepository
	ads      port.AdStatusChecker
	producer domain.FeatureEventProducer
	tracer   trace.Tracer
}

func NewService(repo domain.UpgradeRepository, ads port.AdStatusChecker, producer domain.FeatureEventProducer, tracer trace.Tracer) *Service {
	return &Service{
		repo:     repo,
		ads:      ads,
		producer: producer,
		tracer:   tracer,
	}
}

// Activate 在广告上激活（或叠加续费）一个升级。
// 广告必须在线；类型未知或时长非法直接拒绝。
func (s *Service) Activate(ctx context.Context, req *ActivateRequest) (*domain.Upgrade, error) {
	ctx, span := s.tracer.Start(ctx, "feature.Activate")
	defer span.End()
	span.SetAttributes(
		attribute.String("ad.id", req.AdID),
		attribute.String("feature.type", req.FeatureType),
		attribute.Int("feature.duration_days", req.DurationDays),
	)

	featureType, err := domain.ParseType(req.FeatureType)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	live, err := s.ads.IsLive(ctx, req.AdID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "ad status check failed")
		return nil, err
	}
	if !live {
		span.AddEvent("ad is not live, activation rejected")
		return nil, domain.ErrAdNotLive
	}

	now := time.Now()
	extended := false

	upgrade, err := s.repo.FindActive(ctx, req.AdID, featureType)
	switch {
	case err == nil:
		// 已有激活升级，叠加而不是重置
		if err := upgrade.Extend(req.DurationDays, now); err != nil {
			span.RecordError(err)
			return nil, err
		}
		extended = true
	case errors.Is(err, domain.ErrUpgradeNotFound):
		upgrade, err = domain.NewUpgrade(uuid.New().String(), req.AdID, featureType, req.DurationDays, now)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to look up existing upgrade")
		return nil, err
	}

	if err := s.repo.Save(ctx, upgrade); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to persist upgrade")
		return nil, err
	}

	s.produceEvent(ctx, upgrade, extended)
	metrics.FeatureActivateTotal.WithLabelValues(string(featureType)).Inc()
	logger.Ctx(ctx).Info().
		Str("ad_id", upgrade.AdID).
		Str("feature_type", string(upgrade.Type)).
		Time("end_at", upgrade.EndAt).
		Bool("extended", extended).
		Msg("feature upgrade activated")
	return upgrade, nil
}

// IsFeatureActive 判断广告上指定类型的升级当前是否生效。
// 直接比较 end_at，不信任 is_active 缓存位，清扫滞后不影响结论。
func (s *Service) IsFeatureActive(ctx context.Context, adID string, featureType domain.Type) (bool, error) {
	upgrade, err := s.repo.FindActive(ctx, adID, featureType)
	if errors.Is(err, domain.ErrUpgradeNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return upgrade.IsCurrentlyActive(time.Now()), nil
}

// ActiveFeatures 返回广告上当前真正生效的升级列表。
func (s *Service) ActiveFeatures(ctx context.Context, adID string) ([]*domain.Upgrade, error) {
	upgrades, err := s.repo.FindActiveByAd(ctx, adID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	live := make([]*domain.Upgrade, 0, len(upgrades))
	for _, u := range upgrades {
		if u.IsCurrentlyActive(now) {
			live = append(live, u)
		}
	}
	return live, nil
}

// ExpireDue 把所有已过 end_at 的激活升级落成非激活，返回流转行数。
func (s *Service) ExpireDue(ctx context.Context) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "feature.ExpireDue")
	defer span.End()

	count, err := s.repo.ExpireDue(ctx, time.Now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "feature expiry sweep failed")
		return 0, err
	}
	span.SetAttributes(attribute.Int64("sweep.expired", count))
	metrics.SweepExpiredTotal.WithLabelValues("feature").Add(float64(count))
	if count > 0 {
		logger.Ctx(ctx).Info().Int64("count", count).Msg("feature upgrades expired by sweep")
	}
	return count, nil
}

func (s *Service) produceEvent(ctx context.Context, upgrade *domain.Upgrade, extended bool) {
	if s.producer == nil {
		return
	}
	event := &domain.FeatureActivatedEvent{
		EventID:    uuid.New().String(),
		AdID:       upgrade.AdID,
		Type:       upgrade.Type,
		EndAt:      upgrade.EndAt,
		Extended:   extended,
		OccurredAt: time.Now(),
	}
	if err := s.producer.Produce(ctx, event); err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("ad_id", upgrade.AdID).Msg("failed to produce feature event")
	}
}
