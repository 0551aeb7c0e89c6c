// internal/service/feature/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"
	"time"

	"souq/internal/service/feature/domain"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormUpgradeRepository 是 UpgradeRepository 的 MySQL 实现。
type GormUpgradeRepository struct {
	db *gorm.DB
}

func NewGormUpgradeRepository(db *gorm.DB) *GormUpgradeRepository {
	return &GormUpgradeRepository{db: db}
}

var _ domain.UpgradeRepository = (*GormUpgradeRepository)(nil)

func (r *GormUpgradeRepository) Save(ctx context.Context, upgrade *domain.Upgrade) error {
	model := ToUpgradeModel(upgrade)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(model).Error
	if err != nil {
		return errors.Wrap(err, "failed to save feature upgrade")
	}
	return nil
}

func (r *GormUpgradeRepository) FindActive(ctx context.Context, adID string, featureType domain.Type) (*domain.Upgrade, error) {
	var model UpgradeModel
	err := r.db.WithContext(ctx).
		Where("ad_id = ? AND feature_type = ? AND is_active = ?", adID, string(featureType), true).
		Order("end_at DESC").
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrUpgradeNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find active upgrade")
	}
	return ToDomainUpgrade(&model), nil
}

func (r *GormUpgradeRepository) FindActiveByAd(ctx context.Context, adID string) ([]*domain.Upgrade, error) {
	var models []UpgradeModel
	err := r.db.WithContext(ctx).
		Where("ad_id = ? AND is_active = ?", adID, true).
		Find(&models).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list active upgrades")
	}
	upgrades := make([]*domain.Upgrade, 0, len(models))
	for i := range models {
		upgrades = append(upgrades, ToDomainUpgrade(&models[i]))
	}
	return upgrades, nil
}

// ExpireDue 用一条条件更新完成清扫，天然幂等。
func (r *GormUpgradeRepository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&UpgradeModel{}).
		Where("is_active = ? AND end_at < ?", true, now).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": now,
		})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to expire due upgrades")
	}
	return result.RowsAffected, nil
}
