// internal/service/reservation/domain/config.go
package domain

// CategoryConfig 是类目的交易配置快照。
// 由调用方在每次请求里显式传入，引擎自己不读任何全局配置，
// 这样同一次请求内的计算对同一份配置是确定的。
type CategoryConfig struct {
	AllowCart             bool
	ReservationPercentage float64
	// MinReservationAmount / MaxReservationAmount 为 0 表示该侧无界。
	MinReservationAmount float64
	MaxReservationAmount float64
}

// ComputeAmount 计算定金金额：fullAmount × percentage，
// 再夹进 [min, max]（配置了才生效），最后绝不超过 fullAmount 本身。
func ComputeAmount(fullAmount float64, cfg CategoryConfig) float64 {
	amount := fullAmount * cfg.ReservationPercentage
	if cfg.MinReservationAmount > 0 && amount < cfg.MinReservationAmount {
		amount = cfg.MinReservationAmount
	}
	if cfg.MaxReservationAmount > 0 && amount > cfg.MaxReservationAmount {
		amount = cfg.MaxReservationAmount
	}
	if amount > fullAmount {
		amount = fullAmount
	}
	return amount
}
