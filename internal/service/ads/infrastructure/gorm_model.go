// internal/service/ads/infrastructure/gorm_model.go
package infrastructure

import (
	"database/sql"
	"time"

	"souq/internal/service/ads/domain"
)

// AdModel 对应数据库中的 ads 表。
// (status, expires_at) 索引服务清扫的条件 UPDATE。
type AdModel struct {
	ID                   string        `gorm:"primaryKey;size:36"`
	OwnerID              string        `gorm:"size:36;index"`
	CategoryID           string        `gorm:"size:36;index"`
	Title                string        `gorm:"size:255"`
	Price                float64       `gorm:"type:decimal(12,2)"`
	Status               domain.Status `gorm:"size:16;index:idx_status_expiry,priority:1"`
	ExpiresAt            sql.NullTime  `gorm:"index:idx_status_expiry,priority:2"`
	CreditBalanceID      sql.NullString
	NeedsBillingFollowup bool
	RejectReason         string `gorm:"type:text"`
	ViewsCount           int64
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (AdModel) TableName() string {
	return "ads"
}
