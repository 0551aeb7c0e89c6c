// internal/service/feature/infrastructure/mapper.go
package infrastructure

import "souq/internal/service/feature/domain"

func ToDomainUpgrade(m *UpgradeModel) *domain.Upgrade {
	return &domain.Upgrade{
		ID:        m.ID,
		AdID:      m.AdID,
		Type:      domain.Type(m.FeatureType),
		StartAt:   m.StartAt,
		EndAt:     m.EndAt,
		IsActive:  m.IsActive,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func ToUpgradeModel(u *domain.Upgrade) *UpgradeModel {
	return &UpgradeModel{
		ID:          u.ID,
		AdID:        u.AdID,
		FeatureType: string(u.Type),
		StartAt:     u.StartAt,
		EndAt:       u.EndAt,
		IsActive:    u.IsActive,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
