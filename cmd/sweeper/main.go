// cmd/sweeper/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"souq/internal/pkg/bootstrap"
	"souq/internal/pkg/logger"
	"souq/internal/pkg/metrics"
	pkgredis "souq/internal/pkg/redis"
	adsapp "souq/internal/service/ads/application"
	adsinfra "souq/internal/service/ads/infrastructure"
	featureapp "souq/internal/service/feature/application"
	featureinfra "souq/internal/service/feature/infrastructure"
	reservationapp "souq/internal/service/reservation/application"
	reservationinfra "souq/internal/service/reservation/infrastructure"
	"souq/internal/zookeeper"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
)

const (
	serviceName = "sweeper"
	servicePort = 8082

	leaderLockResource = "sweeper"
)

// sweeper 是唯一的后台计划任务宿主：按固定间隔把到期的
// 广告、升级、预订单落成各自的终结状态。三类清扫都是幂等的，
// 间隔长短只影响状态落库的及时性，不影响正确性。
func main() {
	logger.Init(serviceName)
	bootstrap.Init()
	cfg := bootstrap.GetCurrentConfig()

	db, err := gorm.Open(gormmysql.Open(cfg.Infra.MysqlDSN), &gorm.Config{})
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to connect to mysql")
	}

	redisClient, err := pkgredis.NewClient(cfg.Infra.RedisAddrs)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to initialize redis client")
	}

	zkConn, err := zookeeper.Connect(cfg.Infra.Zookeeper.Servers)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to connect to zookeeper")
	}

	tracer := otel.Tracer(serviceName)

	// 清扫只走仓储路径，不需要事件生产者和跨上下文端口
	adsService := adsapp.NewService(adsinfra.NewGormAdRepository(db), nil, nil, nil, tracer, cfg.App.AdTTLDays)
	featureService := featureapp.NewService(featureinfra.NewGormUpgradeRepository(db), nil, nil, tracer)

	holdAdapter, err := reservationinfra.NewRedisAdHoldAdapter(redisClient)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to initialize ad hold adapter")
	}
	holdDuration := time.Duration(cfg.App.ReservationHoldHours) * time.Hour
	reservationService := reservationapp.NewService(
		reservationinfra.NewGormReservationRepository(db), holdAdapter, nil, tracer, holdDuration)

	loopCtx, stopLoop := context.WithCancel(context.Background())
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		runSweepLoop(loopCtx, zkConn, tracer, adsService, featureService, reservationService)
	}()

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        servicePort,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			appCtx.Mux.Handle("/metrics", promhttp.Handler())
			appCtx.Mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
		},
		OnShutdown: func(ctx context.Context) {
			stopLoop()
			select {
			case <-loopDone:
			case <-ctx.Done():
			}
			zkConn.Close()
			if err := redisClient.Close(); err != nil {
				logger.Logger.Error().Err(err).Msg("error closing redis client")
			}
		},
	})
}

// runSweepLoop 按配置的间隔执行清扫轮次，直到 ctx 取消。
// 间隔每轮重新读取，Nacos 下发新配置后下一轮自动生效。
func runSweepLoop(ctx context.Context, zkConn *zookeeper.Conn, tracer trace.Tracer,
	ads *adsapp.Service, features *featureapp.Service, reservations *reservationapp.Service) {
	for {
		interval := time.Duration(bootstrap.GetCurrentConfig().App.SweepIntervalSeconds) * time.Second
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
		runSweepPass(ctx, zkConn, tracer, ads, features, reservations)
	}
}

// runSweepPass 执行一轮清扫。先抢 leader 锁，抢不到就跳过本轮：
// 多实例部署时同一轮只有一个实例在扫，其余实例只是待命。
func runSweepPass(ctx context.Context, zkConn *zookeeper.Conn, tracer trace.Tracer,
	ads *adsapp.Service, features *featureapp.Service, reservations *reservationapp.Service) {
	ctx, span := tracer.Start(ctx, "sweeper.Pass")
	defer span.End()

	lock, err := zookeeper.NewDistributedLock(zkConn, leaderLockResource)
	if err != nil {
		span.RecordError(err)
		metrics.SweepPassTotal.WithLabelValues("error").Inc()
		logger.Ctx(ctx).Error().Err(err).Msg("could not create sweeper lock")
		return
	}
	if err := lock.TryLock(); err != nil {
		if errors.Is(err, zookeeper.ErrLockHeld) {
			span.AddEvent("another instance is sweeping, skipping pass")
			metrics.SweepPassTotal.WithLabelValues("skipped").Inc()
			return
		}
		span.RecordError(err)
		metrics.SweepPassTotal.WithLabelValues("error").Inc()
		logger.Ctx(ctx).Error().Err(err).Msg("could not acquire sweeper lock")
		return
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Msg("failed to release sweeper lock")
		}
	}()

	var adCount, featureCount, reservationCount int64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		adCount, err = ads.ExpireDue(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		featureCount, err = features.ExpireDue(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		reservationCount, err = reservations.ExpireDue(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		metrics.SweepPassTotal.WithLabelValues("error").Inc()
		logger.Ctx(ctx).Error().Err(err).Msg("sweep pass finished with errors")
		return
	}

	span.SetAttributes(
		attribute.Int64("sweep.ads", adCount),
		attribute.Int64("sweep.features", featureCount),
		attribute.Int64("sweep.reservations", reservationCount),
	)
	metrics.SweepPassTotal.WithLabelValues("ok").Inc()
	logger.Ctx(ctx).Info().
		Int64("ads", adCount).
		Int64("features", featureCount).
		Int64("reservations", reservationCount).
		Msg("sweep pass completed")
}
