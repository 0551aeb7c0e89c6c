// internal/service/reservation/domain/reservation.go
package domain

import (
	"errors"
	"fmt"
	"time"
)

// Reservation 是一笔针对广告价格的部分支付持有。
// 金额在创建时一次性算定，后续只有状态会变。
type Reservation struct {
	ID                string
	AdID              string
	BuyerID           string
	Quantity          int
	FullAmount        float64
	ReservationAmount float64
	DeliveryFee       float64
	Status            Status

	// ExpiresAt 是 PENDING 状态的持有截止时间，
	// 过了这个点清扫会把预订单落成 CANCELLED 并释放软占用。
	ExpiresAt time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewReservation 创建一笔 PENDING 预订单。
// 金额由 ComputeAmount 从类目配置算出，调用方传入单价与数量。
func NewReservation(id, adID, buyerID string, unitPrice float64, quantity int, deliveryFee float64, cfg CategoryConfig, holdDuration time.Duration, now time.Time) (*Reservation, error) {
	if id == "" || adID == "" || buyerID == "" {
		return nil, errors.New("cannot create reservation with empty required fields")
	}
	if quantity <= 0 {
		return nil, errors.New("reservation quantity must be positive")
	}
	if unitPrice <= 0 {
		return nil, errors.New("reservation requires a positive ad price")
	}
	if deliveryFee < 0 {
		return nil, errors.New("delivery fee cannot be negative")
	}

	fullAmount := unitPrice * float64(quantity)
	amount := ComputeAmount(fullAmount, cfg)
	if amount <= 0 {
		return nil, errors.New("computed reservation amount is not positive")
	}

	return &Reservation{
		ID:                id,
		AdID:              adID,
		BuyerID:           buyerID,
		Quantity:          quantity,
		FullAmount:        fullAmount,
		ReservationAmount: amount,
		DeliveryFee:       deliveryFee,
		Status:            StatusPending,
		ExpiresAt:         now.Add(holdDuration),
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// transitions 是允许的状态流转表。终态没有出边。
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled, StatusRefunded},
}

// TransitionTo 执行一次状态流转，非法流转返回 ErrInvalidTransition。
func (r *Reservation) TransitionTo(newStatus Status, now time.Time) error {
	if r.Status.IsTerminal() {
		return fmt.Errorf("%w: %s is terminal", ErrInvalidTransition, r.Status)
	}
	for _, allowed := range transitions[r.Status] {
		if allowed == newStatus {
			r.Status = newStatus
			r.UpdatedAt = now
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, newStatus)
}

// Expire 把超时的 PENDING 预订单落成 CANCELLED。
// 对非 PENDING 或未到期的单子是空操作，方便清扫幂等重入。
func (r *Reservation) Expire(now time.Time) bool {
	if r.Status != StatusPending || r.ExpiresAt.After(now) {
		return false
	}
	r.Status = StatusCancelled
	r.UpdatedAt = now
	return true
}
