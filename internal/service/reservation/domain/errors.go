// internal/service/reservation/domain/errors.go
package domain

import "errors"

var (
	// ErrReservationNotFound 表示预订单不存在。
	ErrReservationNotFound = errors.New("reservation not found")

	// ErrInvalidTransition 表示状态流转不被状态机允许。
	ErrInvalidTransition = errors.New("invalid reservation status transition")

	// ErrCategoryNotCartEnabled 表示广告类目未开通在线交易，不能预订。
	ErrCategoryNotCartEnabled = errors.New("category is not cart-enabled")

	// ErrAdNotFound 表示目标广告不存在。
	ErrAdNotFound = errors.New("ad not found")

	// ErrAdNotReservable 表示广告不在线，不能预订。
	ErrAdNotReservable = errors.New("ad is not active, cannot be reserved")

	// ErrAdAlreadyHeld 表示广告已被另一个进行中的预订占用。
	ErrAdAlreadyHeld = errors.New("ad is already held by a pending reservation")
)
