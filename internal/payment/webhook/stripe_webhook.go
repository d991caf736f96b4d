package webhook

import (
	"errors"
	"io"
	"net/http"

	"boutique-be/internal/logger"
	"boutique-be/internal/payment"
	"boutique-be/internal/utils"

	"go.uber.org/zap"
)

const maxPayloadBytes = 64 << 10

// Handler receives Stripe webhook events and keeps the local payment
// status in step with the provider.
type Handler struct {
	Gateway payment.Gateway
	Repo    payment.Repository
}

func NewWebhookHandler(gateway payment.Gateway, repo payment.Repository) *Handler {
	return &Handler{
		Gateway: gateway,
		Repo:    repo,
	}
}

func (h *Handler) StripeWebhookHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "webhook"),
		zap.String("provider", "stripe"),
	)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		log.Warn("failed to read webhook body", zap.Error(err))
		utils.WriteJSONErrorCode(w, "failed to read body", "bad_request", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	event, err := h.Gateway.VerifyWebhook(body, r.Header.Get("Stripe-Signature"))
	if err != nil {
		log.Warn("webhook rejected", zap.Error(err))
		utils.WriteJSONErrorCode(w, "invalid signature", "invalid_signature", http.StatusUnauthorized)
		return
	}

	log = log.With(
		zap.String("event_id", event.ID),
		zap.String("event_type", event.Type),
		zap.String("intent_id", event.Intent.ID),
	)

	var status payment.Status
	switch event.Type {
	case payment.EventIntentSucceeded:
		status = payment.StatusSucceeded
	case payment.EventIntentFailed, payment.EventIntentCanceled:
		status = payment.StatusFailed
	default:
		log.Debug("ignoring webhook event")
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := h.Repo.UpdateStatus(ctx, event.Intent.ID, status); err != nil {
		if errors.Is(err, payment.ErrPaymentNotFound) {
			log.Warn("webhook for unknown payment")
			w.WriteHeader(http.StatusOK)
			return
		}
		log.Error("failed to update payment status", zap.Error(err))
		utils.WriteJSONErrorCode(w, "failed to update payment", "internal", http.StatusInternalServerError)
		return
	}

	log.Info("payment status updated from webhook", zap.String("status", string(status)))
	w.WriteHeader(http.StatusOK)
}
