// internal/pkg/logger/logger.go
package logger

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// Logger 是全局的 zerolog 实例，由 Init 初始化。
var Logger zerolog.Logger

func init() {
	// 在 Init 被调用之前提供一个可用的默认 logger，
	// 避免测试或工具代码拿到零值。
	Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// Init 初始化全局 logger，并附带服务名字段。
func Init(serviceName string) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	Logger = zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", serviceName).
		Logger()
}

// Ctx 返回一个带有当前链路 trace_id / span_id 的 logger。
// 所有业务日志都应该通过它输出，保证日志与 Jaeger 链路可以互相关联。
func Ctx(ctx context.Context) *zerolog.Logger {
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return &Logger
	}
	l := Logger.With().
		Str("trace_id", spanCtx.TraceID().String()).
		Str("span_id", spanCtx.SpanID().String()).
		Logger()
	return &l
}
