package api

import (
	"net/http"

	"boutique-be/internal/utils"
)

type resolveRequest struct {
	Note string `json:"note"`
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	d, err := h.Admin.Stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) listReconciliations(w http.ResponseWriter, r *http.Request) {
	limit, err := queryUint(r, "limit", 50)
	if err != nil {
		writeError(w, r, err)
		return
	}

	cases, err := h.Reconciliation.ListOpen(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, cases)
}

func (h *Handler) sweepReconciliations(w http.ResponseWriter, r *http.Request) {
	res, err := h.Reconciliation.SweepOrphans(r.Context(), h.ReconcileAfter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) refundReconciliation(w http.ResponseWriter, r *http.Request) {
	c, err := h.Reconciliation.Refund(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) resolveReconciliation(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := h.Reconciliation.Resolve(r.Context(), r.PathValue("id"), req.Note)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, c)
}
