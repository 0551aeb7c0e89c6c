// internal/service/feature/domain/errors.go
package domain

import "errors"

var (
	// ErrUpgradeNotFound 表示该广告没有指定类型的激活升级。
	ErrUpgradeNotFound = errors.New("feature upgrade not found")

	// ErrAdNotLive 表示目标广告不在线，不能购买或续费升级。
	ErrAdNotLive = errors.New("ad is not live, cannot attach feature upgrade")
)
