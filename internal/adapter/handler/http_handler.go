package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/OAtef/coffeehouse/internal/core/domain"
	"github.com/OAtef/coffeehouse/internal/core/service"
	"github.com/OAtef/coffeehouse/internal/port"
)

// HTTPHandler is the order-management collaborator: it owns the order status
// field and informs the stock engine after each committed transition.
type HTTPHandler struct {
	orders    port.OrderRepository
	inventory port.InventoryRepository
	policy    *service.TransitionPolicy
	log       *slog.Logger
}

func NewHTTPHandler(orders port.OrderRepository, inventory port.InventoryRepository, policy *service.TransitionPolicy, log *slog.Logger) *HTTPHandler {
	return &HTTPHandler{orders: orders, inventory: inventory, policy: policy, log: log}
}

func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/orders", h.CreateOrder)
	mux.HandleFunc("PATCH /api/orders/{id}/status", h.UpdateOrderStatus)
	mux.HandleFunc("GET /api/ingredients/{id}", h.GetIngredient)
	mux.HandleFunc("GET /api/ingredients/{id}/ledger", h.GetIngredientLedger)
	mux.HandleFunc("GET /health", h.HealthCheck)
}

type createOrderRequest struct {
	CustomerName string `json:"customer_name"`
	Items        []struct {
		MenuItemID int64 `json:"menu_item_id"`
		Quantity   int   `json:"quantity"`
	} `json:"items"`
}

type updateStatusRequest struct {
	Status  string `json:"status"`
	ActorID int64  `json:"actor_id"`
}

type updateStatusResponse struct {
	OrderID         int64  `json:"order_id"`
	OldStatus       string `json:"old_status"`
	NewStatus       string `json:"new_status"`
	StockAdjusted   bool   `json:"stock_adjusted"`
	AdjustmentError string `json:"adjustment_error,omitempty"`
}

func (h *HTTPHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CustomerName == "" || len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "customer_name and items are required")
		return
	}

	order := &domain.Order{CustomerName: req.CustomerName}
	for _, it := range req.Items {
		if it.Quantity <= 0 {
			writeError(w, http.StatusBadRequest, "item quantity must be positive")
			return
		}
		order.Items = append(order.Items, domain.OrderLineItem{
			MenuItemID: it.MenuItemID,
			Quantity:   it.Quantity,
		})
	}

	if err := h.orders.CreateOrder(r.Context(), order); err != nil {
		h.log.Error("create order failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"order_id": order.ID,
		"status":   order.Status,
	})
}

// UpdateOrderStatus persists the status change first, then invokes the stock
// engine. An adjustment failure is reported in the body but does not roll
// the status back: order-flow availability wins over strict stock accuracy.
func (h *HTTPHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Status == "" {
		writeError(w, http.StatusBadRequest, "status is required")
		return
	}

	newStatus := domain.OrderStatus(req.Status)
	oldStatus, err := h.orders.UpdateOrderStatus(r.Context(), orderID, newStatus)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		h.log.Error("status update failed", "order_id", orderID, "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := updateStatusResponse{
		OrderID:       orderID,
		OldStatus:     string(oldStatus),
		NewStatus:     string(newStatus),
		StockAdjusted: service.RequiresAdjustment(oldStatus, newStatus),
	}

	if err := h.policy.OnOrderStatusChanged(r.Context(), orderID, oldStatus, newStatus, req.ActorID); err != nil {
		h.log.Error("stock adjustment failed after status change",
			"order_id", orderID, "from", oldStatus, "to", newStatus, "err", err)
		resp.StockAdjusted = false
		resp.AdjustmentError = "stock adjustment failed; order flagged for reconciliation"
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) GetIngredient(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ingredient id")
		return
	}

	ing, err := h.inventory.GetIngredient(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrIngredientNotFound) {
			writeError(w, http.StatusNotFound, "ingredient not found")
			return
		}
		h.log.Error("get ingredient failed", "ingredient_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":            ing.ID,
		"name":          ing.Name,
		"unit":          ing.Unit,
		"current_stock": ing.CurrentStock,
	})
}

func (h *HTTPHandler) GetIngredientLedger(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ingredient id")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.inventory.ListLedger(r.Context(), id, limit)
	if err != nil {
		h.log.Error("list ledger failed", "ingredient_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	type ledgerRow struct {
		ID        string  `json:"id"`
		Change    float64 `json:"change"`
		Reason    string  `json:"reason"`
		ActorID   int64   `json:"actor_id"`
		CreatedAt string  `json:"created_at"`
	}
	rows := make([]ledgerRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, ledgerRow{
			ID:        e.ID,
			Change:    e.Change,
			Reason:    e.Reason,
			ActorID:   e.ActorID,
			CreatedAt: e.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"ingredient_id": id, "entries": rows})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
