package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/inxsource/sales-assistant-go/internal/httputil"
	"github.com/inxsource/sales-assistant-go/internal/middleware"
	"github.com/inxsource/sales-assistant-go/internal/service"
)

const defaultOrderPageSize = 20

// OrdersHandler exposes read and payment-confirmation endpoints for the
// business dashboard.
type OrdersHandler struct {
	orders *service.OrderService
}

func NewOrdersHandler(orders *service.OrderService) *OrdersHandler {
	return &OrdersHandler{orders: orders}
}

// List returns a customer's recent orders with the authenticated business.
func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	business := middleware.GetBusiness(r.Context())
	if business == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	phone := r.URL.Query().Get("phone")
	if phone == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing phone parameter"})
		return
	}

	limit := defaultOrderPageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	orders, err := h.orders.RecentOrders(r.Context(), business.ID, phone, limit)
	if err != nil {
		log.Error().Err(err).Str("businessId", business.ID).Msg("failed to list orders")
		httputil.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

// Get returns one order with its line items.
func (h *OrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	business := middleware.GetBusiness(r.Context())
	if business == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	orderID := chi.URLParam(r, "orderID")
	order, items, err := h.orders.OrderDetails(r.Context(), business.ID, orderID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"order": order, "items": items})
}

// MarkPaid confirms payment for a pending order.
func (h *OrdersHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	if err := h.orders.MarkPaid(r.Context(), orderID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	log.Info().Str("orderId", orderID).Msg("order marked paid")
	writeJSON(w, http.StatusOK, map[string]string{"status": "paid"})
}
