package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"boutique-be/internal/logger"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
	"go.uber.org/zap"
)

// Signed webhooks older than this are rejected.
const webhookTolerance = 5 * time.Minute

type stripeGateway struct {
	api           *client.API
	webhookSecret string
}

func NewStripeGateway(secretKey, webhookSecret string) Gateway {
	return newStripeGateway(secretKey, webhookSecret, &http.Client{Timeout: 15 * time.Second})
}

func newStripeGateway(secretKey, webhookSecret string, httpClient *http.Client) *stripeGateway {
	if secretKey == "" {
		logger.L().Warn("Stripe secret key is empty")
	}

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		HTTPClient:        httpClient,
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     logger.L().Named("stripe").Sugar(),
	})

	api := &client.API{}
	api.Init(secretKey, &stripe.Backends{API: backend, Connect: backend, Uploads: backend})

	return &stripeGateway{
		api:           api,
		webhookSecret: webhookSecret,
	}
}

// ----------------- CreateIntent -----------------

func (s *stripeGateway) CreateIntent(
	ctx context.Context,
	amountMinor int64,
	currency string,
	metadata map[string]string,
) (*Intent, error) {

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "gateway"),
		zap.String("method", "CreateIntent"),
		zap.Int64("amount_minor", amountMinor),
		zap.String("currency", currency),
	)

	if amountMinor <= 0 {
		return nil, ErrInvalidAmount
	}
	if len(currency) != 3 {
		return nil, ErrInvalidCurrency
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountMinor),
		Currency: stripe.String(strings.ToLower(currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		log.Error("Stripe create intent failed", zap.Error(err))
		return nil, gatewayError(err)
	}

	intent := toIntent(pi)
	log.Info("Stripe payment intent created",
		zap.String("intent_id", intent.ID),
		zap.String("status", string(intent.Status)),
	)
	return intent, nil
}

// ----------------- GetIntent -----------------

func (s *stripeGateway) GetIntent(ctx context.Context, intentID string) (*Intent, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "gateway"),
		zap.String("method", "GetIntent"),
		zap.String("intent_id", intentID),
	)

	if intentID == "" {
		return nil, ErrPaymentNotFound
	}

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := s.api.PaymentIntents.Get(intentID, params)
	if err != nil {
		log.Error("Stripe get intent failed", zap.Error(err))
		return nil, gatewayError(err)
	}

	intent := toIntent(pi)
	log.Debug("Stripe intent fetched", zap.String("status", string(intent.Status)))
	return intent, nil
}

// ----------------- Refund -----------------

func (s *stripeGateway) Refund(ctx context.Context, intentID string, reason string) (*Refund, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "gateway"),
		zap.String("method", "Refund"),
		zap.String("intent_id", intentID),
	)

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(intentID),
		Reason:        stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
	}
	params.Context = ctx
	if reason != "" {
		params.AddMetadata("reason", reason)
	}

	re, err := s.api.Refunds.New(params)
	if err != nil {
		log.Error("Stripe refund failed", zap.Error(err))
		return nil, gatewayError(err)
	}

	refund := &Refund{
		ID:          re.ID,
		IntentID:    intentID,
		AmountMinor: re.Amount,
		Status:      string(re.Status),
	}
	log.Info("Stripe refund created",
		zap.String("refund_id", refund.ID),
		zap.String("status", refund.Status),
	)
	return refund, nil
}

// ----------------- VerifyWebhook -----------------

// VerifyWebhook checks the Stripe-Signature header against the raw payload
// and decodes payment intent events.
func (s *stripeGateway) VerifyWebhook(payload []byte, signatureHeader string) (*Event, error) {
	if s.webhookSecret == "" {
		return nil, ErrMissingSecret
	}

	ev, err := webhook.ConstructEventWithOptions(payload, signatureHeader, s.webhookSecret, webhook.ConstructEventOptions{
		Tolerance:                webhookTolerance,
		IgnoreAPIVersionMismatch: true,
	})
	switch {
	case errors.Is(err, webhook.ErrTooOld):
		return nil, ErrSignatureExpired
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	event := &Event{ID: ev.ID, Type: string(ev.Type)}
	if strings.HasPrefix(event.Type, "payment_intent.") && ev.Data != nil && len(ev.Data.Raw) > 0 {
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(ev.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		event.Intent = *toIntent(&pi)
	}
	return event, nil
}

func toIntent(pi *stripe.PaymentIntent) *Intent {
	return &Intent{
		ID:           pi.ID,
		AmountMinor:  pi.Amount,
		Currency:     string(pi.Currency),
		Status:       IntentStatus(pi.Status),
		ClientSecret: pi.ClientSecret,
		Metadata:     pi.Metadata,
	}
}

// gatewayError keeps the provider's status and code so callers can tell a
// decline from an outage.
func gatewayError(err error) error {
	var se *stripe.Error
	if errors.As(err, &se) {
		code := string(se.Code)
		if se.DeclineCode != "" {
			code = string(se.DeclineCode)
		}
		if code == "" {
			code = string(se.Type)
		}
		reason := se.Msg
		if reason == "" {
			reason = http.StatusText(se.HTTPStatusCode)
		}
		return &GatewayError{StatusCode: se.HTTPStatusCode, Code: code, Reason: reason, Err: err}
	}
	return &GatewayError{Reason: "request failed", Err: err}
}
