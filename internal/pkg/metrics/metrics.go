// internal/pkg/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 引擎的核心业务指标。
// 对外统一通过 /metrics 暴露（promhttp，由各个 main 注册）。
var (
	// CreditReserveTotal 按结果统计积分扣减的次数。
	// result: consumed / insufficient / error
	CreditReserveTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "souq",
		Subsystem: "credit",
		Name:      "reserve_total",
		Help:      "Credit reservation attempts by outcome.",
	}, []string{"result"})

	// AdSubmitTotal 按发布结果统计广告提交。
	// outcome: active / pending / rejected_input
	AdSubmitTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "souq",
		Subsystem: "ads",
		Name:      "submit_total",
		Help:      "Ad submissions by publication outcome.",
	}, []string{"outcome"})

	// FeatureActivateTotal 按类型统计可见性升级的激活（含叠加续费）。
	FeatureActivateTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "souq",
		Subsystem: "feature",
		Name:      "activate_total",
		Help:      "Feature upgrade activations by feature type.",
	}, []string{"feature_type"})

	// ReservationCreateTotal 按结果统计预订请求。
	// result: created / rejected / error
	ReservationCreateTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "souq",
		Subsystem: "reservation",
		Name:      "create_total",
		Help:      "Reservation creation attempts by outcome.",
	}, []string{"result"})

	// SweepExpiredTotal 各实体在清扫中被置为过期的行数。
	// entity: ad / feature / reservation
	SweepExpiredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "souq",
		Subsystem: "sweeper",
		Name:      "expired_total",
		Help:      "Rows transitioned to their expired state by the sweep.",
	}, []string{"entity"})

	// SweepPassTotal 清扫轮次计数，skipped 表示未拿到 leader 锁。
	SweepPassTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "souq",
		Subsystem: "sweeper",
		Name:      "pass_total",
		Help:      "Sweep passes by result (ok / skipped / error).",
	}, []string{"result"})
)
