// internal/service/ads/infrastructure/mapper.go
package infrastructure

import (
	"database/sql"

	"souq/internal/service/ads/domain"
)

// ToDomainAd 把数据库模型转换为领域模型。
func ToDomainAd(m *AdModel) *domain.Ad {
	ad := &domain.Ad{
		ID:                   m.ID,
		OwnerID:              m.OwnerID,
		CategoryID:           m.CategoryID,
		Title:                m.Title,
		Price:                m.Price,
		Status:               m.Status,
		NeedsBillingFollowup: m.NeedsBillingFollowup,
		RejectReason:         m.RejectReason,
		ViewsCount:           m.ViewsCount,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
	if m.ExpiresAt.Valid {
		ad.ExpiresAt = m.ExpiresAt.Time
	}
	if m.CreditBalanceID.Valid {
		ad.CreditBalanceID = m.CreditBalanceID.String
	}
	return ad
}

// ToAdModel 把领域模型转换为数据库模型。
func ToAdModel(ad *domain.Ad) *AdModel {
	m := &AdModel{
		ID:                   ad.ID,
		OwnerID:              ad.OwnerID,
		CategoryID:           ad.CategoryID,
		Title:                ad.Title,
		Price:                ad.Price,
		Status:               ad.Status,
		NeedsBillingFollowup: ad.NeedsBillingFollowup,
		RejectReason:         ad.RejectReason,
		ViewsCount:           ad.ViewsCount,
		CreatedAt:            ad.CreatedAt,
		UpdatedAt:            ad.UpdatedAt,
	}
	if !ad.ExpiresAt.IsZero() {
		m.ExpiresAt = sql.NullTime{Time: ad.ExpiresAt, Valid: true}
	}
	if ad.CreditBalanceID != "" {
		m.CreditBalanceID = sql.NullString{String: ad.CreditBalanceID, Valid: true}
	}
	return m
}
