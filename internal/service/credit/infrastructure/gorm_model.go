// internal/service/credit/infrastructure/gorm_model.go
package infrastructure

import (
	"time"
)

// BalanceModel 对应数据库中的 credit_balances 表。
// (user_id, package_id, purchase_event_id) 上的唯一索引
// 是 Grant 幂等性的落地机制；(user_id, expires_at) 支撑
// Reserve 的最先过期优先查询。
// package_id 必须 NOT NULL：MySQL 的唯一索引把 NULL 当作互不相等，
// 可空列会让无套餐的发放绕过幂等键。无套餐在列里存空串，
// 领域层的 nil 由 mapper 翻译。
type BalanceModel struct {
	ID               string `gorm:"primaryKey;size:36"`
	UserID           string `gorm:"size:36;index:idx_user_expiry,priority:1;uniqueIndex:idx_purchase_event,priority:1"`
	PackageID        string `gorm:"size:36;not null;default:'';uniqueIndex:idx_purchase_event,priority:2"`
	PurchaseEventID  string `gorm:"size:64;uniqueIndex:idx_purchase_event,priority:3"`
	CreditsTotal     int
	CreditsRemaining int
	PurchasedAt      time.Time
	ExpiresAt        time.Time `gorm:"index:idx_user_expiry,priority:2"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (BalanceModel) TableName() string {
	return "credit_balances"
}
