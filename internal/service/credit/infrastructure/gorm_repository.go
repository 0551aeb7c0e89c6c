// internal/service/credit/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"
	"time"

	"souq/internal/service/credit/domain"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// MySQL 的唯一键冲突错误码。
const mysqlErrDuplicateEntry = 1062

// GormBalanceRepository 是 BalanceRepository 的 GORM 实现。
type GormBalanceRepository struct {
	db *gorm.DB
}

func NewGormBalanceRepository(db *gorm.DB) *GormBalanceRepository {
	return &GormBalanceRepository{db: db}
}

// Create 插入一批新积分。幂等键冲突被翻译成领域错误，
// 让应用层把重试的支付回调按成功处理。
func (r *GormBalanceRepository) Create(ctx context.Context, balance *domain.Balance) error {
	err := r.db.WithContext(ctx).Create(ToBalanceModel(balance)).Error
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrDuplicateEntry {
			return domain.ErrDuplicatePurchaseEvent
		}
		return errors.Wrap(err, "create credit balance")
	}
	return nil
}

func (r *GormBalanceRepository) FindByID(ctx context.Context, id string) (*domain.Balance, error) {
	var model BalanceModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBalanceNotFound
		}
		return nil, errors.Wrap(err, "find credit balance")
	}
	return ToDomainBalance(&model), nil
}

func (r *GormBalanceRepository) FindByPurchaseEvent(ctx context.Context, userID string, packageID *string, purchaseEventID string) (*domain.Balance, error) {
	var model BalanceModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND package_id = ? AND purchase_event_id = ?",
			userID, packageIDColumn(packageID), purchaseEventID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBalanceNotFound
		}
		return nil, errors.Wrap(err, "find balance by purchase event")
	}
	return ToDomainBalance(&model), nil
}

// FindEligible 按最先过期优先返回可扣减的批次。
// 这里只是候选集合，真正的扣减判定在 ConsumeOne 的条件更新里。
func (r *GormBalanceRepository) FindEligible(ctx context.Context, userID string, now time.Time) ([]*domain.Balance, error) {
	var models []BalanceModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND credits_remaining > 0 AND expires_at >= ?", userID, now).
		Order("expires_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, errors.Wrap(err, "find eligible balances")
	}

	balances := make([]*domain.Balance, 0, len(models))
	for i := range models {
		balances = append(balances, ToDomainBalance(&models[i]))
	}
	return balances, nil
}

// ConsumeOne 做比较再扣减：单条条件 UPDATE，不加显式锁。
// RowsAffected 为 0 说明这批积分在读取之后被并发耗尽。
func (r *GormBalanceRepository) ConsumeOne(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&BalanceModel{}).
		Where("id = ? AND credits_remaining > 0", id).
		UpdateColumn("credits_remaining", gorm.Expr("credits_remaining - 1"))
	if result.Error != nil {
		return false, errors.Wrap(result.Error, "consume credit")
	}
	return result.RowsAffected > 0, nil
}

// RefundOne 退回一个积分，封顶 credits_total。
func (r *GormBalanceRepository) RefundOne(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&BalanceModel{}).
		Where("id = ? AND credits_remaining < credits_total", id).
		UpdateColumn("credits_remaining", gorm.Expr("credits_remaining + 1"))
	if result.Error != nil {
		return false, errors.Wrap(result.Error, "refund credit")
	}
	return result.RowsAffected > 0, nil
}

func (r *GormBalanceRepository) FindByUser(ctx context.Context, userID string) ([]*domain.Balance, error) {
	var models []BalanceModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("purchased_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, errors.Wrap(err, "find balances by user")
	}

	balances := make([]*domain.Balance, 0, len(models))
	for i := range models {
		balances = append(balances, ToDomainBalance(&models[i]))
	}
	return balances, nil
}
