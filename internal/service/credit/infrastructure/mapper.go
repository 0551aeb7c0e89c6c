// internal/service/credit/infrastructure/mapper.go
package infrastructure

import "souq/internal/service/credit/domain"

// 领域层的"无套餐"是 nil，列里是空串（列要参与唯一索引，不能可空）。
func packageIDColumn(packageID *string) string {
	if packageID == nil {
		return ""
	}
	return *packageID
}

func packageIDFromColumn(column string) *string {
	if column == "" {
		return nil
	}
	return &column
}

// ToDomainBalance 把数据库模型转换为领域模型。
func ToDomainBalance(m *BalanceModel) *domain.Balance {
	return &domain.Balance{
		ID:               m.ID,
		UserID:           m.UserID,
		PackageID:        packageIDFromColumn(m.PackageID),
		CreditsTotal:     m.CreditsTotal,
		CreditsRemaining: m.CreditsRemaining,
		PurchasedAt:      m.PurchasedAt,
		ExpiresAt:        m.ExpiresAt,
		PurchaseEventID:  m.PurchaseEventID,
	}
}

// ToBalanceModel 把领域模型转换为数据库模型。
func ToBalanceModel(b *domain.Balance) *BalanceModel {
	return &BalanceModel{
		ID:               b.ID,
		UserID:           b.UserID,
		PackageID:        packageIDColumn(b.PackageID),
		PurchaseEventID:  b.PurchaseEventID,
		CreditsTotal:     b.CreditsTotal,
		CreditsRemaining: b.CreditsRemaining,
		PurchasedAt:      b.PurchasedAt,
		ExpiresAt:        b.ExpiresAt,
	}
}
