// internal/service/ads/domain/errors.go
package domain

import "errors"

var (
	// ErrInvalidTransition 表示一次不被状态机允许的流转。
	// 永远显式返回，不静默吞掉，调用方可以区分"已经是目标态"和"不允许"。
	ErrInvalidTransition = errors.New("invalid ad state transition")

	// ErrAdNotFound 表示引用的广告不存在。
	ErrAdNotFound = errors.New("ad not found")
)
