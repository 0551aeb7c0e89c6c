// internal/service/ads/domain/ad.go
package domain

import (
	"errors"
	"fmt"
	"time"
)

// Ad 是广告聚合的根实体。
// 状态流转只能通过下面的方法进行，保证非法状态不可达；
// 持久化之外的副作用（扣积分、发事件）由应用层编排。
type Ad struct {
	ID         string
	OwnerID    string
	CategoryID string
	Title      string
	Price      float64
	Status     Status

	// ExpiresAt 在发布时刻写入（now + 有效期）。
	// 零值表示还没发布过。ACTIVE 且已过 ExpiresAt 的广告在语义上
	// 已经过期，清扫只是把它落成持久状态。
	ExpiresAt time.Time

	// CreditBalanceID 记录自动发布时扣的是哪一批积分，留作审计。
	CreditBalanceID string

	// NeedsBillingFollowup 表示管理员放行时用户积分已耗尽，
	// 需要计费侧事后跟进。审核放行从不因积分不足被阻塞。
	NeedsBillingFollowup bool

	RejectReason string
	ViewsCount   int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewAd 创建一个 DRAFT 状态的广告。
func NewAd(id, ownerID, categoryID, title string, price float64, now time.Time) (*Ad, error) {
	if id == "" || ownerID == "" || categoryID == "" {
		return nil, errors.New("cannot create ad with empty required fields")
	}
	if price < 0 {
		return nil, errors.New("ad price cannot be negative")
	}

	return &Ad{
		ID:         id,
		OwnerID:    ownerID,
		CategoryID: categoryID,
		Title:      title,
		Price:      price,
		Status:     StatusDraft,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Publish 把广告置为 ACTIVE 并写入有效期。
// 允许的来源：DRAFT（自动发布）、PENDING（审核放行）。
func (a *Ad) Publish(now time.Time, ttlDays int) error {
	if a.Status != StatusDraft && a.Status != StatusPending {
		return fmt.Errorf("%w: cannot publish from %s", ErrInvalidTransition, a.Status)
	}
	a.Status = StatusActive
	a.ExpiresAt = now.AddDate(0, 0, ttlDays)
	a.UpdatedAt = now
	return nil
}

// MarkPending 把 DRAFT 广告送入人工审核队列。
func (a *Ad) MarkPending(now time.Time) error {
	if a.Status != StatusDraft {
		return fmt.Errorf("%w: cannot mark pending from %s", ErrInvalidTransition, a.Status)
	}
	a.Status = StatusPending
	a.UpdatedAt = now
	return nil
}

// Reject 驳回一个待审核的广告。本轮终态，卖家需要重新提交。
func (a *Ad) Reject(reason string, now time.Time) error {
	if a.Status != StatusPending {
		return fmt.Errorf("%w: cannot reject from %s", ErrInvalidTransition, a.Status)
	}
	a.Status = StatusRejected
	a.RejectReason = reason
	a.UpdatedAt = now
	return nil
}

// MarkSold 卖家标记已售出。终态。
func (a *Ad) MarkSold(now time.Time) error {
	if a.Status != StatusActive {
		return fmt.Errorf("%w: cannot mark sold from %s", ErrInvalidTransition, a.Status)
	}
	a.Status = StatusSold
	a.UpdatedAt = now
	return nil
}

// Expire 惰性过期检查：仅当广告 ACTIVE 且确实已过有效期时落成 EXPIRED。
// 对已经 EXPIRED 的广告调用是空操作（返回 nil），方便清扫幂等重入。
func (a *Ad) Expire(now time.Time) error {
	if a.Status == StatusExpired {
		return nil
	}
	if a.Status != StatusActive {
		return fmt.Errorf("%w: cannot expire from %s", ErrInvalidTransition, a.Status)
	}
	if a.ExpiresAt.After(now) {
		return fmt.Errorf("%w: ad has not reached its expiry", ErrInvalidTransition)
	}
	a.Status = StatusExpired
	a.UpdatedAt = now
	return nil
}

// IsLive 判断广告当前是否真的在线：ACTIVE 且未过有效期。
// 清扫滞后时 Status 可能还是 ACTIVE，这里直接看时间。
func (a *Ad) IsLive(now time.Time) bool {
	return a.Status == StatusActive && a.ExpiresAt.After(now)
}
