// internal/service/reservation/infrastructure/mapper.go
package infrastructure

import "souq/internal/service/reservation/domain"

func ToDomainReservation(m *ReservationModel) *domain.Reservation {
	return &domain.Reservation{
		ID:                m.ID,
		AdID:              m.AdID,
		BuyerID:           m.BuyerID,
		Quantity:          m.Quantity,
		FullAmount:        m.FullAmount,
		ReservationAmount: m.ReservationAmount,
		DeliveryFee:       m.DeliveryFee,
		Status:            domain.Status(m.Status),
		ExpiresAt:         m.ExpiresAt,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func ToReservationModel(r *domain.Reservation) *ReservationModel {
	return &ReservationModel{
		ID:                r.ID,
		AdID:              r.AdID,
		BuyerID:           r.BuyerID,
		Quantity:          r.Quantity,
		FullAmount:        r.FullAmount,
		ReservationAmount: r.ReservationAmount,
		DeliveryFee:       r.DeliveryFee,
		Status:            string(r.Status),
		ExpiresAt:         r.ExpiresAt,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}
