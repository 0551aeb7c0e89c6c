// internal/service/ads/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"
	"time"

	"souq/internal/service/ads/domain"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAdRepository 是 AdRepository 的 GORM 实现。
type GormAdRepository struct {
	db *gorm.DB
}

func NewGormAdRepository(db *gorm.DB) *GormAdRepository {
	return &GormAdRepository{db: db}
}

// Save 以 upsert 方式保存整个聚合。
// 广告状态只由本服务变更（见共享资源约定），整体写回是安全的。
func (r *GormAdRepository) Save(ctx context.Context, ad *domain.Ad) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(ToAdModel(ad)).Error
	return errors.Wrap(err, "save ad")
}

func (r *GormAdRepository) FindByID(ctx context.Context, id string) (*domain.Ad, error) {
	var model AdModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAdNotFound
		}
		return nil, errors.Wrap(err, "find ad")
	}
	return ToDomainAd(&model), nil
}

// ExpireDue 清扫到期广告。
// 一条条件 UPDATE 完成判定和流转，天然幂等，并发执行也不会重复计数：
// 同一行只会被一个清扫实例的 UPDATE 命中。
func (r *GormAdRepository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&AdModel{}).
		Where("status = ? AND expires_at < ?", domain.StatusActive, now).
		Updates(map[string]interface{}{
			"status":     domain.StatusExpired,
			"updated_at": now,
		})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "expire due ads")
	}
	return result.RowsAffected, nil
}

func (r *GormAdRepository) IncrementViews(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&AdModel{}).
		Where("id = ?", id).
		UpdateColumn("views_count", gorm.Expr("views_count + 1"))
	if result.Error != nil {
		return errors.Wrap(result.Error, "increment views")
	}
	if result.RowsAffected == 0 {
		return domain.ErrAdNotFound
	}
	return nil
}
