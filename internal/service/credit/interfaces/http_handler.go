// internal/service/credit/interfaces/http_handler.go
package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"

	"souq/internal/service/credit/application"
	"souq/internal/service/credit/domain"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// CreditHandler 暴露积分账本的查询与手工发放接口。
// 正常的发放走支付回调消费者，这里的 grant 留给管理后台。
type CreditHandler struct {
	service *application.Service
}

func NewCreditHandler(service *application.Service) *CreditHandler {
	return &CreditHandler{service: service}
}

func (h *CreditHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/credit/balances", h.balancesHandler)
	mux.HandleFunc("/credit/grant", h.grantHandler)
}

func (h *CreditHandler) balancesHandler(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "userId is required", http.StatusBadRequest)
		return
	}

	balances, err := h.service.BalancesOf(ctx, userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(balances)
}

func (h *CreditHandler) grantHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	var req application.GrantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	balance, err := h.service.Grant(ctx, req)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicatePurchaseEvent) {
			// Grant 内部已把重复当成功处理，这里只兜底
			w.WriteHeader(http.StatusOK)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(balance)
}
