// internal/service/credit/domain/errors.go
package domain

import "errors"

var (
	// ErrInsufficientCredit 表示用户名下没有任何可扣减的积分。
	// 不是致命错误：提交方收到后把广告降级为 PENDING 人工审核。
	ErrInsufficientCredit = errors.New("no eligible credit balance")

	// ErrDuplicatePurchaseEvent 表示同一个幂等键已经发放过积分。
	// 应用层把它转化为成功（返回已存在的 Balance），调用方感知不到重试。
	ErrDuplicatePurchaseEvent = errors.New("purchase event already granted")

	// ErrBalanceNotFound 表示引用的 Balance 不存在。
	ErrBalanceNotFound = errors.New("credit balance not found")
)
