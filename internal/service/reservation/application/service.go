// internal/service/reservation/application/service.go
package application

import (
	"context"
	"errors"
	"time"

	"souq/internal/pkg/logger"
	"souq/internal/pkg/metrics"
	"souq/internal/service/reservation/domain"
	"souq/internal/service/reservation/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Service 是预订引擎的应用服务。
// 类目配置由调用方随请求显式传入，服务本身无全局可变状态；
// 软占用放在 redis（带 TTL），预订单行在 MySQL，后者是事实来源。
type Service struct {
	repo         domain.ReservationRepository
	hold         domain.AdHold
	ads          port.AdProvider
	tracer       trace.Tracer
	holdDuration time.Duration
}

func NewService(repo domain.ReservationRepository, hold domain.AdHold, ads port.AdProvider, tracer trace.Tracer, holdDuration time.Duration) *Service {
	return &Service{
		repo:         repo,
		hold:         hold,
		ads:          ads,
		tracer:       tracer,
		holdDuration: holdDuration,
	}
}

// Create 创建一笔预订单。
//
// 前置检查：类目开通在线交易、广告在线。通过后先抢广告的软占用
// （同一广告至多一个进行中的预订），再算金额落库。
// 落库失败时释放占用，避免把广告锁到 TTL 自然过期。
func (s *Service) Create(ctx context.Context, req *CreateRequest, cfg domain.CategoryConfig) (*domain.Reservation, error) {
	ctx, span := s.tracer.Start(ctx, "reservation.Create")
	defer span.End()
	span.SetAttributes(
		attribute.String("ad.id", req.AdID),
		attribute.String("buyer.id", req.BuyerID),
		attribute.Int("reservation.quantity", req.Quantity),
	)

	if !cfg.AllowCart {
		metrics.ReservationCreateTotal.WithLabelValues("rejected").Inc()
		return nil, domain.ErrCategoryNotCartEnabled
	}

	snapshot, err := s.ads.Snapshot(ctx, req.AdID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "ad lookup failed")
		metrics.ReservationCreateTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	if !snapshot.Live {
		span.AddEvent("ad is not live, reservation rejected")
		metrics.ReservationCreateTotal.WithLabelValues("rejected").Inc()
		return nil, domain.ErrAdNotReservable
	}

	now := time.Now()
	reservation, err := domain.NewReservation(
		uuid.New().String(), req.AdID, req.BuyerID,
		snapshot.Price, req.Quantity, req.DeliveryFee,
		cfg, s.holdDuration, now,
	)
	if err != nil {
		span.RecordError(err)
		metrics.ReservationCreateTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	if err := s.hold.Acquire(ctx, req.AdID, reservation.ID, s.holdDuration); err != nil {
		if errors.Is(err, domain.ErrAdAlreadyHeld) {
			span.AddEvent("ad already held by another pending reservation")
			metrics.ReservationCreateTotal.WithLabelValues("rejected").Inc()
			return nil, err
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to acquire ad hold")
		metrics.ReservationCreateTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	if err := s.repo.Save(ctx, reservation); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to persist reservation")
		s.releaseQuietly(ctx, req.AdID, reservation.ID)
		metrics.ReservationCreateTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.ReservationCreateTotal.WithLabelValues("created").Inc()
	logger.Ctx(ctx).Info().
		Str("reservation_id", reservation.ID).
		Str("ad_id", reservation.AdID).
		Float64("amount", reservation.ReservationAmount).
		Time("expires_at", reservation.ExpiresAt).
		Msg("reservation created")
	return reservation, nil
}

// Transition 执行一次调用方驱动的状态流转。
// 离开 PENDING 的流转同时释放广告的软占用。
func (s *Service) Transition(ctx context.Context, reservationID string, newStatus domain.Status) (*domain.Reservation, error) {
	ctx, span := s.tracer.Start(ctx, "reservation.Transition")
	defer span.End()
	span.SetAttributes(
		attribute.String("reservation.id", reservationID),
		attribute.String("reservation.target_status", string(newStatus)),
	)

	reservation, err := s.repo.FindByID(ctx, reservationID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	wasPending := reservation.Status == domain.StatusPending
	if err := reservation.TransitionTo(newStatus, time.Now()); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := s.repo.Save(ctx, reservation); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to persist transition")
		return nil, err
	}

	if wasPending && reservation.Status.ReleasesHold() {
		s.releaseQuietly(ctx, reservation.AdID, reservation.ID)
	}

	logger.Ctx(ctx).Info().
		Str("reservation_id", reservation.ID).
		Str("status", string(reservation.Status)).
		Msg("reservation transitioned")
	return reservation, nil
}

// ExpireDue 把所有超时的 PENDING 预订单落成 CANCELLED 并释放占用。
// 读出来的只是候选集，真正的流转判定在 ExpireOne 的条件更新里：
// 清扫期间买家把单子确认掉的话，那一行 RowsAffected 为 0，原样跳过。
// 单行失败只记日志不中断本轮，下一轮会重试到它。
func (s *Service) ExpireDue(ctx context.Context) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "reservation.ExpireDue")
	defer span.End()

	now := time.Now()
	due, err := s.repo.FindDuePending(ctx, now, 500)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reservation expiry sweep failed")
		return 0, err
	}

	var count int64
	for _, reservation := range due {
		expired, err := s.repo.ExpireOne(ctx, reservation.ID, now)
		if err != nil {
			logger.Ctx(ctx).Error().Err(err).
				Str("reservation_id", reservation.ID).
				Msg("failed to expire reservation, will retry next pass")
			continue
		}
		if !expired {
			// 读取和落库之间被并发流转抢先了，占用由那次流转负责
			continue
		}
		s.releaseQuietly(ctx, reservation.AdID, reservation.ID)
		count++
	}

	span.SetAttributes(attribute.Int64("sweep.expired", count))
	metrics.SweepExpiredTotal.WithLabelValues("reservation").Add(float64(count))
	if count > 0 {
		logger.Ctx(ctx).Info().Int64("count", count).Msg("reservations cancelled by sweep")
	}
	return count, nil
}

// Get 返回预订单详情。
func (s *Service) Get(ctx context.Context, reservationID string) (*domain.Reservation, error) {
	return s.repo.FindByID(ctx, reservationID)
}

// ListByBuyer 返回买家的预订单列表。
func (s *Service) ListByBuyer(ctx context.Context, buyerID string) ([]*domain.Reservation, error) {
	return s.repo.FindByBuyer(ctx, buyerID)
}

// releaseQuietly 释放软占用，失败只记日志。
// 占用带 TTL，释放失败最坏情况是广告被多锁一个保留周期。
func (s *Service) releaseQuietly(ctx context.Context, adID, reservationID string) {
	if err := s.hold.Release(ctx, adID, reservationID); err != nil {
		logger.Ctx(ctx).Warn().Err(err).
			Str("ad_id", adID).
			Str("reservation_id", reservationID).
			Msg("failed to release ad hold")
	}
}
