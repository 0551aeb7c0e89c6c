// internal/service/feature/interfaces/http_handler.go
package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"

	"souq/internal/service/feature/application"
	"souq/internal/service/feature/domain"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// FeatureHandler 封装可见性升级的 HTTP 处理器。
type FeatureHandler struct {
	service *application.Service
}

func NewFeatureHandler(service *application.Service) *FeatureHandler {
	return &FeatureHandler{service: service}
}

func (h *FeatureHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/features/activate", h.activateHandler)
	mux.HandleFunc("/features/active", h.activeHandler)
	mux.HandleFunc("/features/check", h.checkHandler)
}

func (h *FeatureHandler) activateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	var req application.ActivateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	upgrade, err := h.service.Activate(ctx, &req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAdNotLive):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(upgrade)
}

func (h *FeatureHandler) activeHandler(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	upgrades, err := h.service.ActiveFeatures(ctx, r.URL.Query().Get("adId"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(upgrades)
}

func (h *FeatureHandler) checkHandler(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	featureType, err := domain.ParseType(r.URL.Query().Get("type"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	active, err := h.service.IsFeatureActive(ctx, r.URL.Query().Get("adId"), featureType)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"active": active})
}
