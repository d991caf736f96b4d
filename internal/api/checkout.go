package api

import (
	"net/http"

	"boutique-be/internal/order"
	"boutique-be/internal/utils"

	"github.com/shopspring/decimal"
)

type placeOrderResponse struct {
	OrderID       uint            `json:"orderId"`
	Status        order.Status    `json:"status"`
	Total         decimal.Decimal `json:"total"`
	AmountCharged decimal.Decimal `json:"amountCharged"`
}

type statusRequest struct {
	Status order.Status `json:"status"`
}

func (h *Handler) createPaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req order.IntentInput
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.Orders.CreatePaymentIntent(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, res)
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req order.PlaceOrderInput
	if !decodeJSON(w, r, &req) {
		return
	}

	o, err := h.Orders.PlaceOrder(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, placeOrderResponse{
		OrderID:       o.ID,
		Status:        o.Status,
		Total:         o.Total,
		AmountCharged: o.AmountCharged,
	})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	var filter order.ListFilter
	var err error

	if raw := r.URL.Query().Get("status"); raw != "" {
		status := order.Status(raw)
		filter.Status = &status
	}
	if filter.Limit, err = queryUint(r, "limit", 0); err != nil {
		writeError(w, r, err)
		return
	}
	if filter.Offset, err = queryUint(r, "offset", 0); err != nil {
		writeError(w, r, err)
		return
	}

	orders, err := h.Orders.ListOrders(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, orders)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	o, err := h.Orders.GetOrder(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req statusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	o, err := h.Orders.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) recentOrders(w http.ResponseWriter, r *http.Request) {
	limit, err := queryUint(r, "limit", 5)
	if err != nil {
		writeError(w, r, err)
		return
	}

	orders, err := h.Orders.RecentOrders(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, orders)
}
