// cmd/ad-engine/main.go
package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"souq/internal/pkg/bootstrap"
	"souq/internal/pkg/logger"
	"souq/internal/pkg/mq"
	pkgredis "souq/internal/pkg/redis"
	adsapp "souq/internal/service/ads/application"
	adsinfra "souq/internal/service/ads/infrastructure"
	"souq/internal/service/ads/infrastructure/rule"
	adsiface "souq/internal/service/ads/interfaces"
	adsport "souq/internal/service/ads/port"
	creditapp "souq/internal/service/credit/application"
	creditinfra "souq/internal/service/credit/infrastructure"
	creditiface "souq/internal/service/credit/interfaces"
	featureapp "souq/internal/service/feature/application"
	featureinfra "souq/internal/service/feature/infrastructure"
	featureiface "souq/internal/service/feature/interfaces"
	reservationapp "souq/internal/service/reservation/application"
	reservationdomain "souq/internal/service/reservation/domain"
	reservationinfra "souq/internal/service/reservation/infrastructure"
	reservationiface "souq/internal/service/reservation/interfaces"
	reservationport "souq/internal/service/reservation/port"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
)

const (
	serviceName = "ad-engine"
	servicePort = 8080

	adEventsTopic      = "ad-events"
	featureEventsTopic = "feature-events"
	paymentEventsTopic = "payment-events"
	paymentGroupID     = "credit-ledger-consumer-group"
)

// main 是组装根：创建并连接所有依赖，然后交给 bootstrap 托管生命周期。
func main() {
	logger.Init(serviceName)
	bootstrap.Init()
	cfg := bootstrap.GetCurrentConfig()

	db, err := gorm.Open(gormmysql.Open(cfg.Infra.MysqlDSN), &gorm.Config{})
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to connect to mysql")
	}
	if err := db.AutoMigrate(
		&creditinfra.BalanceModel{},
		&adsinfra.AdModel{},
		&featureinfra.UpgradeModel{},
		&reservationinfra.ReservationModel{},
	); err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to migrate schema")
	}

	redisClient, err := pkgredis.NewClient(cfg.Infra.RedisAddrs)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to initialize redis client")
	}

	brokers := strings.Split(cfg.Infra.KafkaBrokers, ",")
	adEventsWriter := mq.NewKafkaWriter(brokers, adEventsTopic)
	featureEventsWriter := mq.NewKafkaWriter(brokers, featureEventsTopic)
	paymentReader := mq.NewKafkaReader(brokers, paymentEventsTopic, paymentGroupID)

	tracer := otel.Tracer(serviceName)

	// credit
	creditRepo := creditinfra.NewGormBalanceRepository(db)
	creditService := creditapp.NewService(creditRepo, tracer)
	creditHandler := creditiface.NewCreditHandler(creditService)
	paymentConsumer := creditinfra.NewPaymentConsumerAdapter(paymentReader, creditService)

	// ads
	var trust adsport.TrustEvaluator
	if expr := cfg.App.TrustRule; expr != "" {
		celAdapter, err := rule.NewCELTrustAdapter(expr)
		if err != nil {
			logger.Logger.Fatal().Err(err).Str("rule", expr).Msg("invalid trust rule")
		}
		trust = celAdapter
	}
	adRepo := adsinfra.NewGormAdRepository(db)
	adProducer := adsinfra.NewAdEventProducerAdapter(adEventsWriter)
	adsService := adsapp.NewService(adRepo, creditService, trust, adProducer, tracer, cfg.App.AdTTLDays)
	adHandler := adsiface.NewAdHandler(adsService)

	// feature
	featureRepo := featureinfra.NewGormUpgradeRepository(db)
	featureProducer := featureinfra.NewFeatureEventProducerAdapter(featureEventsWriter)
	featureService := featureapp.NewService(featureRepo, adsService, featureProducer, tracer)
	featureHandler := featureiface.NewFeatureHandler(featureService)

	// reservation
	holdAdapter, err := reservationinfra.NewRedisAdHoldAdapter(redisClient)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to initialize ad hold adapter")
	}
	reservationRepo := reservationinfra.NewGormReservationRepository(db)
	adProvider := &adSnapshotAdapter{ads: adsService}
	holdDuration := time.Duration(cfg.App.ReservationHoldHours) * time.Hour
	reservationService := reservationapp.NewService(reservationRepo, holdAdapter, adProvider, tracer, holdDuration)
	reservationHandler := reservationiface.NewReservationHandler(reservationService, adProvider, configCategorySource{})

	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	paymentConsumer.Start(consumerCtx)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        servicePort,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			creditHandler.RegisterRoutes(appCtx.Mux)
			adHandler.RegisterRoutes(appCtx.Mux)
			featureHandler.RegisterRoutes(appCtx.Mux)
			reservationHandler.RegisterRoutes(appCtx.Mux)
			appCtx.Mux.Handle("/metrics", promhttp.Handler())
			appCtx.Mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
		},
		OnShutdown: func(ctx context.Context) {
			stopConsumer()
			paymentConsumer.Stop() // 内部会关闭 reader
			if err := adEventsWriter.Close(); err != nil {
				logger.Logger.Error().Err(err).Msg("error closing ad events writer")
			}
			if err := featureEventsWriter.Close(); err != nil {
				logger.Logger.Error().Err(err).Msg("error closing feature events writer")
			}
			if err := redisClient.Close(); err != nil {
				logger.Logger.Error().Err(err).Msg("error closing redis client")
			}
		},
	})
}

// adSnapshotAdapter 把广告应用服务适配成预订上下文需要的快照端口。
type adSnapshotAdapter struct {
	ads *adsapp.Service
}

var _ reservationport.AdProvider = (*adSnapshotAdapter)(nil)

func (a *adSnapshotAdapter) Snapshot(ctx context.Context, adID string) (*reservationport.AdSnapshot, error) {
	ad, err := a.ads.Get(ctx, adID)
	if err != nil {
		return nil, reservationdomain.ErrAdNotFound
	}
	return &reservationport.AdSnapshot{
		AdID:       ad.ID,
		CategoryID: ad.CategoryID,
		Price:      ad.Price,
		Live:       ad.IsLive(time.Now()),
	}, nil
}

// configCategorySource 从当前配置快照读取类目交易设置。
type configCategorySource struct{}

var _ reservationport.CategoryConfigSource = configCategorySource{}

func (configCategorySource) ConfigFor(categoryID string) (reservationdomain.CategoryConfig, bool) {
	settings, ok := bootstrap.GetCurrentConfig().App.Categories[categoryID]
	if !ok {
		return reservationdomain.CategoryConfig{}, false
	}
	return reservationdomain.CategoryConfig{
		AllowCart:             settings.AllowCart,
		ReservationPercentage: settings.ReservationPercentage,
		MinReservationAmount:  settings.MinReservationAmount,
		MaxReservationAmount:  settings.MaxReservationAmount,
	}, true
}
