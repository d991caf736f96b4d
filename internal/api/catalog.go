package api

import (
	"net/http"
	"strconv"

	"boutique-be/internal/product"
	"boutique-be/internal/utils"
)

type variantResponse struct {
	ProductID uint `json:"productId"`
	Size      int  `json:"size"`
	Quantity  int  `json:"quantity"`
}

type restockRequest struct {
	Amount int `json:"amount"`
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := product.ListOptions{
		Category: q.Get("category"),
		Color:    q.Get("color"),
	}

	if raw := q.Get("featured"); raw != "" {
		featured, err := strconv.ParseBool(raw)
		if err != nil {
			utils.WriteJSONErrorCode(w, "featured must be true or false", "bad_request", http.StatusBadRequest)
			return
		}
		opts.Featured = &featured
	}

	var err error
	if opts.Limit, err = queryUint(r, "limit", 0); err != nil {
		writeError(w, r, err)
		return
	}
	if opts.Offset, err = queryUint(r, "offset", 0); err != nil {
		writeError(w, r, err)
		return
	}

	products, err := h.Products.List(r.Context(), opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, products)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	p, err := h.Products.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) getVariant(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	size, ok := pathInt(w, r, "size")
	if !ok {
		return
	}

	v, err := h.Inventory.Stock(r.Context(), id, size)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, variantResponse{ProductID: v.ProductID, Size: v.Size, Quantity: v.Quantity})
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req product.NewProduct
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.Products.Create(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req product.UpdateProduct
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.Products.Update(r.Context(), id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.Products.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) restock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	size, ok := pathInt(w, r, "size")
	if !ok {
		return
	}
	var req restockRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	v, err := h.Inventory.Restock(r.Context(), id, size, req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, variantResponse{ProductID: v.ProductID, Size: v.Size, Quantity: v.Quantity})
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	variants, err := h.Inventory.LowStock(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]variantResponse, 0, len(variants))
	for _, v := range variants {
		out = append(out, variantResponse{ProductID: v.ProductID, Size: v.Size, Quantity: v.Quantity})
	}
	utils.WriteJSON(w, http.StatusOK, out)
}
