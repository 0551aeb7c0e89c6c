// internal/service/feature/infrastructure/gorm_model.go
package infrastructure

import "time"

// UpgradeModel 是升级记录的 GORM 持久化模型。
// (ad_id, feature_type) 索引支撑同类型去重查询，
// (is_active, end_at) 索引支撑清扫的条件更新。
type UpgradeModel struct {
	ID          string    `gorm:"primaryKey;type:varchar(64)"`
	AdID        string    `gorm:"type:varchar(64);not null;index:idx_ad_type,priority:1"`
	FeatureType string    `gorm:"type:varchar(32);not null;index:idx_ad_type,priority:2"`
	StartAt     time.Time `gorm:"not null"`
	EndAt       time.Time `gorm:"not null;index:idx_active_end,priority:2"`
	IsActive    bool      `gorm:"not null;default:true;index:idx_active_end,priority:1"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (UpgradeModel) TableName() string {
	return "feature_upgrades"
}
