// internal/service/reservation/interfaces/http_handler.go
package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"

	"souq/internal/service/reservation/application"
	"souq/internal/service/reservation/domain"
	"souq/internal/service/reservation/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// ReservationHandler 封装预订引擎的 HTTP 处理器。
// 类目配置在这一层解析成值，显式传给应用服务。
type ReservationHandler struct {
	service    *application.Service
	ads        port.AdProvider
	categories port.CategoryConfigSource
}

func NewReservationHandler(service *application.Service, ads port.AdProvider, categories port.CategoryConfigSource) *ReservationHandler {
	return &ReservationHandler{service: service, ads: ads, categories: categories}
}

func (h *ReservationHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/reservations/create", h.createHandler)
	mux.HandleFunc("/reservations/transition", h.transitionHandler)
	mux.HandleFunc("/reservations/get", h.getHandler)
	mux.HandleFunc("/reservations/list", h.listHandler)
}

func (h *ReservationHandler) createHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	var req application.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	snapshot, err := h.ads.Snapshot(ctx, req.AdID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	cfg, ok := h.categories.ConfigFor(snapshot.CategoryID)
	if !ok {
		http.Error(w, domain.ErrCategoryNotCartEnabled.Error(), http.StatusConflict)
		return
	}

	reservation, err := h.service.Create(ctx, &req, cfg)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(reservation)
}

func (h *ReservationHandler) transitionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	status, err := domain.ParseStatus(r.URL.Query().Get("status"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	reservation, err := h.service.Transition(ctx, r.URL.Query().Get("reservationId"), status)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(reservation)
}

func (h *ReservationHandler) getHandler(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	reservation, err := h.service.Get(ctx, r.URL.Query().Get("reservationId"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(reservation)
}

func (h *ReservationHandler) listHandler(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	reservations, err := h.service.ListByBuyer(ctx, r.URL.Query().Get("buyerId"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(reservations)
}

// writeDomainError 把领域错误映射到合适的 HTTP 状态码。
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrReservationNotFound),
		errors.Is(err, domain.ErrAdNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrCategoryNotCartEnabled),
		errors.Is(err, domain.ErrAdNotReservable),
		errors.Is(err, domain.ErrAdAlreadyHeld):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
