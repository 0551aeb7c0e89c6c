// internal/service/reservation/domain/repository.go
package domain

import (
	"context"
	"time"
)

// ReservationRepository 定义预订单的持久化接口。
type ReservationRepository interface {
	// Save 保存预订单（创建或更新）。
	Save(ctx context.Context, reservation *Reservation) error

	// FindByID 按 ID 查找，不存在时返回 ErrReservationNotFound。
	FindByID(ctx context.Context, id string) (*Reservation, error)

	// FindDuePending 返回 PENDING 且已过期的预订单。
	// 清扫逐行处理（还要释放软占用），所以这里返回实体而不是批量更新。
	FindDuePending(ctx context.Context, now time.Time, limit int) ([]*Reservation, error)

	// ExpireOne 把一条预订单条件式地落成 CANCELLED：
	// 仅当该行仍是 PENDING 且已过 expires_at 时生效，返回是否真的流转了。
	// 读取快照和落库之间买家可能已经确认，整体覆盖写会吞掉那次流转，
	// 所以判定必须放在这条 UPDATE 里。
	ExpireOne(ctx context.Context, id string, now time.Time) (bool, error)

	// FindByBuyer 返回买家的预订单列表。
	FindByBuyer(ctx context.Context, buyerID string) ([]*Reservation, error)
}

// AdHold 是广告级别的软占用：同一广告任意时刻至多一个
// PENDING 预订单。带 TTL，进程崩溃也不会永久锁死广告。
type AdHold interface {
	// Acquire 尝试占用广告。已被占用时返回 ErrAdAlreadyHeld。
	Acquire(ctx context.Context, adID, reservationID string, ttl time.Duration) error

	// Release 释放占用。只有持有者本人能释放，重复释放是空操作。
	Release(ctx context.Context, adID, reservationID string) error
}
