package api

import (
	"errors"
	"net/http"

	"boutique-be/internal/admin"
	"boutique-be/internal/cart"
	"boutique-be/internal/inventory"
	"boutique-be/internal/logger"
	"boutique-be/internal/order"
	"boutique-be/internal/payment"
	"boutique-be/internal/product"
	"boutique-be/internal/reconciliation"
	"boutique-be/internal/user"
	"boutique-be/internal/utils"

	"go.uber.org/zap"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type stockErrorBody struct {
	errorBody
	Lines    []order.ShortLine `json:"lines"`
	Refunded bool              `json:"refunded"`
}

type reconciliationBody struct {
	errorBody
	PaymentReference string `json:"paymentReference"`
	CaseID           string `json:"caseId,omitempty"`
}

type gatewayErrorBody struct {
	errorBody
	GatewayCode string `json:"gatewayCode,omitempty"`
}

type errorMapping struct {
	err    error
	status int
	code   string
}

var sentinelErrors = []errorMapping{
	{order.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{user.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},

	{order.ErrForbidden, http.StatusForbidden, "forbidden"},
	{product.ErrForbidden, http.StatusForbidden, "forbidden"},
	{inventory.ErrForbidden, http.StatusForbidden, "forbidden"},
	{reconciliation.ErrForbidden, http.StatusForbidden, "forbidden"},
	{admin.ErrForbidden, http.StatusForbidden, "forbidden"},

	{order.ErrOrderNotFound, http.StatusNotFound, "order_not_found"},
	{product.ErrProductNotFound, http.StatusNotFound, "product_not_found"},
	{inventory.ErrProductNotFound, http.StatusNotFound, "product_not_found"},
	{inventory.ErrVariantNotFound, http.StatusNotFound, "variant_not_found"},
	{payment.ErrPaymentNotFound, http.StatusNotFound, "payment_not_found"},
	{reconciliation.ErrCaseNotFound, http.StatusNotFound, "case_not_found"},
	{user.ErrUserNotFound, http.StatusNotFound, "user_not_found"},

	{order.ErrPaymentNotSucceeded, http.StatusPaymentRequired, "payment_not_completed"},
	{order.ErrPaymentMismatch, http.StatusConflict, "payment_mismatch"},
	{order.ErrInvalidStatusTransition, http.StatusConflict, "invalid_status_transition"},
	{user.ErrEmailExists, http.StatusConflict, "email_exists"},
	{reconciliation.ErrCaseClosed, http.StatusConflict, "case_closed"},
	{reconciliation.ErrPaymentConsumed, http.StatusConflict, "payment_consumed"},

	{order.ErrInvalidStatus, http.StatusBadRequest, "validation_error"},
	{user.ErrInvalidEmail, http.StatusBadRequest, "validation_error"},
	{user.ErrInvalidName, http.StatusBadRequest, "validation_error"},
	{user.ErrPasswordTooShort, http.StatusBadRequest, "validation_error"},
	{product.ErrInvalidName, http.StatusBadRequest, "validation_error"},
	{product.ErrInvalidPrice, http.StatusBadRequest, "validation_error"},
	{product.ErrInvalidSize, http.StatusBadRequest, "validation_error"},
	{product.ErrInvalidStock, http.StatusBadRequest, "validation_error"},
	{product.ErrDuplicateSize, http.StatusBadRequest, "validation_error"},
	{product.ErrNothingToUpdate, http.StatusBadRequest, "validation_error"},
	{inventory.ErrInvalidAmount, http.StatusBadRequest, "validation_error"},
	{inventory.ErrInvalidSize, http.StatusBadRequest, "validation_error"},
	{inventory.ErrRestockLimit, http.StatusBadRequest, "validation_error"},
	{cart.ErrCartEmpty, http.StatusBadRequest, "validation_error"},
	{cart.ErrQuantityTooHigh, http.StatusBadRequest, "validation_error"},
	{errBadRequest, http.StatusBadRequest, "bad_request"},
}

// writeError maps a service error to its HTTP status and code. Anything
// unrecognised is a 500 and is logged.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromCtx(r.Context()).With(
		zap.String("layer", "api"),
		zap.String("path", r.URL.Path),
	)

	var (
		validation *order.ValidationError
		stock      *order.InsufficientStockError
		recon      *order.ReconciliationRequiredError
		gateway    *payment.GatewayError
	)

	switch {
	case errors.As(err, &validation):
		utils.WriteJSON(w, http.StatusBadRequest, errorBody{validation.Error(), "validation_error"})
		return

	case errors.As(err, &stock):
		utils.WriteJSON(w, http.StatusConflict, stockErrorBody{
			errorBody: errorBody{stock.Error(), "insufficient_stock"},
			Lines:     stock.Lines,
			Refunded:  stock.Refunded,
		})
		return

	case errors.As(err, &recon):
		utils.WriteJSON(w, http.StatusInternalServerError, reconciliationBody{
			errorBody:        errorBody{"payment received but the order could not be saved; support has been notified", "reconciliation_required"},
			PaymentReference: recon.PaymentReference,
			CaseID:           recon.CaseID,
		})
		return

	case errors.As(err, &gateway):
		log.Warn("payment gateway error", zap.Int("gateway_status", gateway.StatusCode), zap.Error(err))
		status, msg := http.StatusBadGateway, "payment provider unavailable"
		if gateway.StatusCode != 0 && gateway.Reason != "" {
			msg = gateway.Reason
		}
		if gateway.StatusCode == http.StatusPaymentRequired {
			status = http.StatusPaymentRequired
		}
		utils.WriteJSON(w, status, gatewayErrorBody{
			errorBody:   errorBody{msg, "payment_gateway_error"},
			GatewayCode: gateway.Code,
		})
		return
	}

	for _, m := range sentinelErrors {
		if errors.Is(err, m.err) {
			utils.WriteJSON(w, m.status, errorBody{err.Error(), m.code})
			return
		}
	}

	log.Error("unhandled error", zap.Error(err))
	utils.WriteJSON(w, http.StatusInternalServerError, errorBody{"internal server error", "internal_error"})
}
