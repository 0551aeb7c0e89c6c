// internal/pkg/bootstrap/app.go
package bootstrap

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"souq/internal/pkg/logger"
	"souq/internal/pkg/nacos"
	"souq/internal/pkg/tracing"
)

// AppCtx 是传给各服务路由注册函数的装配上下文。
type AppCtx struct {
	Mux   *http.ServeMux
	Nacos *nacos.Client // 未接入注册中心时为 nil
}

// AppInfo 描述启动一个服务所需的全部信息。
type AppInfo struct {
	ServiceName      string
	Port             int
	RegisterHandlers func(appCtx AppCtx) // 每个服务注册自己的 HTTP 路由
	OnShutdown       func(ctx context.Context)
}

// StartService 封装所有服务共用的启动与优雅关停流程：
// 链路追踪、注册中心、HTTP Server、信号处理。
// 调用方必须先执行 bootstrap.Init()。
func StartService(info AppInfo) {
	logger.Init(info.ServiceName)

	// 1. Tracer
	tp, err := tracing.InitTracerProvider(info.ServiceName, GetCurrentConfig().Infra.Jaeger.Endpoint)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to initialize tracer provider")
	}

	// 2. 注册中心（可选，NACOS_SERVER_ADDRS 为空时跳过）
	var (
		nacosClient *nacos.Client
		ip          string
	)
	if addrs := os.Getenv("NACOS_SERVER_ADDRS"); addrs != "" {
		nacosClient, err = nacos.NewClient(addrs, os.Getenv("NACOS_NAMESPACE"), os.Getenv("NACOS_GROUP"))
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("failed to initialize nacos client")
		}
		watchConfigCenter(nacosClient)

		ip, err = getOutboundIP()
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("failed to get outbound IP address")
		}
		if err := nacosClient.RegisterServiceInstance(info.ServiceName, ip, info.Port); err != nil {
			logger.Logger.Fatal().Err(err).Msg("failed to register service with nacos")
		}
	}

	// 3. HTTP Server
	mux := http.NewServeMux()
	if info.RegisterHandlers != nil {
		info.RegisterHandlers(AppCtx{Mux: mux, Nacos: nacosClient})
	}
	server := &http.Server{Addr: ":" + strconv.Itoa(info.Port), Handler: mux}
	go func() {
		logger.Logger.Info().Int("port", info.Port).Msgf("%s listening", info.ServiceName)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal().Err(err).Str("addr", server.Addr).Msg("could not listen")
		}
	}()

	// 4. 阻塞等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Logger.Info().Msgf("shutting down %s", info.ServiceName)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 5. 清理，后进先出
	if info.OnShutdown != nil {
		info.OnShutdown(ctx)
	}

	if nacosClient != nil {
		if err := nacosClient.DeregisterServiceInstance(info.ServiceName, ip, info.Port); err != nil {
			logger.Logger.Error().Err(err).Msg("error deregistering from nacos")
		}
		nacosClient.Close()
	}

	// 关闭 TracerProvider，把缓冲中的 Span 发送出去
	if err := tp.Shutdown(ctx); err != nil {
		logger.Logger.Error().Err(err).Msg("error shutting down tracer provider")
	}

	if err := server.Shutdown(ctx); err != nil {
		logger.Logger.Error().Err(err).Msg("error shutting down http server")
	}

	logger.Logger.Info().Msgf("%s gracefully shut down", info.ServiceName)
}

// getOutboundIP 通过预连接探测本机对外的 IP，用于服务注册。
func getOutboundIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String(), nil
}
