// internal/service/reservation/infrastructure/gorm_model.go
package infrastructure

import "time"

// ReservationModel 是预订单的 GORM 持久化模型。
// (status, expires_at) 索引支撑清扫的到期扫描。
type ReservationModel struct {
	ID                string    `gorm:"primaryKey;type:varchar(64)"`
	AdID              string    `gorm:"type:varchar(64);not null;index"`
	BuyerID           string    `gorm:"type:varchar(64);not null;index"`
	Quantity          int       `gorm:"not null"`
	FullAmount        float64   `gorm:"not null"`
	ReservationAmount float64   `gorm:"not null"`
	DeliveryFee       float64   `gorm:"not null;default:0"`
	Status            string    `gorm:"type:varchar(32);not null;index:idx_status_expiry,priority:1"`
	ExpiresAt         time.Time `gorm:"not null;index:idx_status_expiry,priority:2"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (ReservationModel) TableName() string {
	return "reservations"
}
