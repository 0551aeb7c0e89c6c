// internal/service/ads/interfaces/http_handler.go
package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"

	"souq/internal/service/ads/application"
	"souq/internal/service/ads/domain"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// AdHandler 封装广告生命周期的 HTTP 处理器。
// 鉴权、会话、表单校验都在外层网关，这里只接受已经过滤的请求。
type AdHandler struct {
	service *application.Service
}

func NewAdHandler(service *application.Service) *AdHandler {
	return &AdHandler{service: service}
}

// RegisterRoutes 在 ServeMux 上注册所有路由。
func (h *AdHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ads/submit", h.submitHandler)
	mux.HandleFunc("/ads/approve", h.approveHandler)
	mux.HandleFunc("/ads/reject", h.rejectHandler)
	mux.HandleFunc("/ads/mark_sold", h.markSoldHandler)
	mux.HandleFunc("/ads/get", h.getHandler)
}

func (h *AdHandler) submitHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	var req application.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.service.Submit(ctx, &req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// 自动发布和进入审核队列对提交方都是"成功受理"
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}

func (h *AdHandler) approveHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	ad, err := h.service.Approve(ctx, r.URL.Query().Get("adId"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ad)
}

func (h *AdHandler) rejectHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	ad, err := h.service.Reject(ctx, r.URL.Query().Get("adId"), r.URL.Query().Get("reason"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ad)
}

func (h *AdHandler) markSoldHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	ad, err := h.service.MarkSold(ctx, r.URL.Query().Get("adId"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ad)
}

func (h *AdHandler) getHandler(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	adID := r.URL.Query().Get("adId")
	ad, err := h.service.Get(ctx, adID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	// 详情页访问顺带计数，失败不影响响应
	_ = h.service.IncrementViews(ctx, adID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ad)
}

// writeDomainError 把领域错误映射到合适的 HTTP 状态码。
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrAdNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidTransition):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
