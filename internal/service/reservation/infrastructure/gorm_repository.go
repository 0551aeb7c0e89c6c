// internal/service/reservation/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"
	"time"

	"souq/internal/service/reservation/domain"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormReservationRepository 是 ReservationRepository 的 MySQL 实现。
type GormReservationRepository struct {
	db *gorm.DB
}

func NewGormReservationRepository(db *gorm.DB) *GormReservationRepository {
	return &GormReservationRepository{db: db}
}

var _ domain.ReservationRepository = (*GormReservationRepository)(nil)

func (r *GormReservationRepository) Save(ctx context.Context, reservation *domain.Reservation) error {
	model := ToReservationModel(reservation)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(model).Error
	if err != nil {
		return errors.Wrap(err, "failed to save reservation")
	}
	return nil
}

func (r *GormReservationRepository) FindByID(ctx context.Context, id string) (*domain.Reservation, error) {
	var model ReservationModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrReservationNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find reservation")
	}
	return ToDomainReservation(&model), nil
}

func (r *GormReservationRepository) FindDuePending(ctx context.Context, now time.Time, limit int) ([]*domain.Reservation, error) {
	var models []ReservationModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at < ?", string(domain.StatusPending), now).
		Order("expires_at ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to find due reservations")
	}
	reservations := make([]*domain.Reservation, 0, len(models))
	for i := range models {
		reservations = append(reservations, ToDomainReservation(&models[i]))
	}
	return reservations, nil
}

// ExpireOne 单条条件 UPDATE：状态判定和流转在同一条语句里完成，
// 和并发的买家流转互不覆盖，输掉竞争的一方 RowsAffected 为 0。
func (r *GormReservationRepository) ExpireOne(ctx context.Context, id string, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&ReservationModel{}).
		Where("id = ? AND status = ? AND expires_at < ?", id, string(domain.StatusPending), now).
		Updates(map[string]interface{}{
			"status":     string(domain.StatusCancelled),
			"updated_at": now,
		})
	if result.Error != nil {
		return false, errors.Wrap(result.Error, "failed to expire reservation")
	}
	return result.RowsAffected > 0, nil
}

func (r *GormReservationRepository) FindByBuyer(ctx context.Context, buyerID string) ([]*domain.Reservation, error) {
	var models []ReservationModel
	err := r.db.WithContext(ctx).
		Where("buyer_id = ?", buyerID).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list buyer reservations")
	}
	reservations := make([]*domain.Reservation, 0, len(models))
	for i := range models {
		reservations = append(reservations, ToDomainReservation(&models[i]))
	}
	return reservations, nil
}
