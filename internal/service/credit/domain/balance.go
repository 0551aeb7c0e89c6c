// internal/service/credit/domain/balance.go
package domain

import (
	"errors"
	"time"
)

// Balance 是一次购买（或系统赠送）产生的一批发布积分。
// 一个用户可以同时持有多个 Balance，消费时总是优先扣最先过期的那批，
// 避免快要过期的积分被闲置浪费。
type Balance struct {
	ID               string
	UserID           string
	PackageID        *string // nil 表示系统赠送的免费积分
	CreditsTotal     int
	CreditsRemaining int
	PurchasedAt      time.Time
	ExpiresAt        time.Time

	// PurchaseEventID 是支付回调携带的幂等键。
	// (UserID, PackageID, PurchaseEventID) 全局唯一，
	// 网关重试同一笔支付不会重复发放积分。
	PurchaseEventID string
}

// NewBalance 创建一批新积分。
func NewBalance(id, userID string, packageID *string, creditsTotal, durationDays int, purchaseEventID string, now time.Time) (*Balance, error) {
	if id == "" || userID == "" || purchaseEventID == "" {
		return nil, errors.New("cannot create balance with empty required fields")
	}
	if creditsTotal <= 0 {
		return nil, errors.New("credits total must be positive")
	}
	if durationDays <= 0 {
		return nil, errors.New("duration must be positive")
	}

	return &Balance{
		ID:               id,
		UserID:           userID,
		PackageID:        packageID,
		CreditsTotal:     creditsTotal,
		CreditsRemaining: creditsTotal,
		PurchasedAt:      now,
		ExpiresAt:        now.AddDate(0, 0, durationDays),
		PurchaseEventID:  purchaseEventID,
	}, nil
}

// IsActive 判断这批积分当前是否可消费。
// 过期或余额为 0 的 Balance 永远不会被选中扣减。
func (b *Balance) IsActive(now time.Time) bool {
	return b.CreditsRemaining > 0 && !b.ExpiresAt.Before(now)
}
