package payment

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"
)

// MockRoundTripper allows us to mock the HTTP response
type MockRoundTripper func(req *http.Request) *http.Response

func (f MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req), nil
}

type MockRoundTripperWithError func(req *http.Request) (*http.Response, error)

func (f MockRoundTripperWithError) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}
}

func newTestGateway(rt http.RoundTripper) *stripeGateway {
	return newStripeGateway("sk_test_123", "whsec_test", &http.Client{Transport: rt})
}

func signed(t *testing.T, secret string, at time.Time, payload []byte) string {
	t.Helper()
	sp := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: at,
	})
	return sp.Header
}

func TestStripeGateway_CreateIntent(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		gw := newTestGateway(MockRoundTripper(func(req *http.Request) *http.Response {
			assert.Equal(t, http.MethodPost, req.Method)
			assert.Equal(t, "/v1/payment_intents", req.URL.Path)
			assert.Equal(t, "Bearer sk_test_123", req.Header.Get("Authorization"))

			raw, _ := io.ReadAll(req.Body)
			form, err := url.ParseQuery(string(raw))
			require.NoError(t, err)
			assert.Equal(t, "12499", form.Get("amount"))
			assert.Equal(t, "eur", form.Get("currency"))
			assert.Equal(t, "42", form.Get("metadata[user_id]"))

			return jsonResponse(http.StatusOK, `{
				"id": "pi_123",
				"object": "payment_intent",
				"amount": 12499,
				"currency": "eur",
				"status": "requires_payment_method",
				"client_secret": "pi_123_secret_abc",
				"metadata": {"user_id": "42"}
			}`)
		}))

		intent, err := gw.CreateIntent(ctx, 12499, "EUR", map[string]string{"user_id": "42"})
		require.NoError(t, err)
		assert.Equal(t, "pi_123", intent.ID)
		assert.Equal(t, int64(12499), intent.AmountMinor)
		assert.Equal(t, "pi_123_secret_abc", intent.ClientSecret)
		assert.Equal(t, "42", intent.Metadata["user_id"])
		assert.False(t, intent.Succeeded())
	})

	t.Run("Card declined keeps provider code", func(t *testing.T) {
		gw := newTestGateway(MockRoundTripper(func(req *http.Request) *http.Response {
			return jsonResponse(http.StatusPaymentRequired, `{"error": {"type": "card_error", "code": "card_declined", "decline_code": "insufficient_funds", "message": "Your card has insufficient funds."}}`)
		}))

		_, err := gw.CreateIntent(ctx, 100, "eur", nil)
		var gwErr *GatewayError
		require.True(t, errors.As(err, &gwErr))
		assert.Equal(t, http.StatusPaymentRequired, gwErr.StatusCode)
		assert.Equal(t, "insufficient_funds", gwErr.Code)
		assert.Equal(t, "Your card has insufficient funds.", gwErr.Reason)
	})

	t.Run("NetworkError", func(t *testing.T) {
		gw := newTestGateway(MockRoundTripperWithError(func(req *http.Request) (*http.Response, error) {
			return nil, errors.New("connection refused")
		}))

		_, err := gw.CreateIntent(ctx, 100, "eur", nil)
		var gwErr *GatewayError
		require.True(t, errors.As(err, &gwErr))
		assert.Equal(t, 0, gwErr.StatusCode)
	})

	t.Run("Validation", func(t *testing.T) {
		gw := newTestGateway(nil)
		_, err := gw.CreateIntent(ctx, 0, "eur", nil)
		assert.ErrorIs(t, err, ErrInvalidAmount)
		_, err = gw.CreateIntent(ctx, 100, "euro", nil)
		assert.ErrorIs(t, err, ErrInvalidCurrency)
	})
}

func TestStripeGateway_GetIntent(t *testing.T) {
	gw := newTestGateway(MockRoundTripper(func(req *http.Request) *http.Response {
		assert.Equal(t, http.MethodGet, req.Method)
		assert.Equal(t, "/v1/payment_intents/pi_123", req.URL.Path)
		return jsonResponse(http.StatusOK, `{"id": "pi_123", "object": "payment_intent", "amount": 12499, "currency": "eur", "status": "succeeded"}`)
	}))

	intent, err := gw.GetIntent(context.Background(), "pi_123")
	require.NoError(t, err)
	assert.True(t, intent.Succeeded())
	assert.Equal(t, "eur", intent.Currency)

	_, err = gw.GetIntent(context.Background(), "")
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestStripeGateway_Refund(t *testing.T) {
	gw := newTestGateway(MockRoundTripper(func(req *http.Request) *http.Response {
		assert.Equal(t, "/v1/refunds", req.URL.Path)
		raw, _ := io.ReadAll(req.Body)
		form, _ := url.ParseQuery(string(raw))
		assert.Equal(t, "pi_123", form.Get("payment_intent"))
		assert.Equal(t, "requested_by_customer", form.Get("reason"))
		assert.Equal(t, "insufficient_stock", form.Get("metadata[reason]"))
		return jsonResponse(http.StatusOK, `{"id": "re_1", "object": "refund", "payment_intent": "pi_123", "amount": 12499, "status": "succeeded"}`)
	}))

	refund, err := gw.Refund(context.Background(), "pi_123", "insufficient_stock")
	require.NoError(t, err)
	assert.Equal(t, "re_1", refund.ID)
	assert.Equal(t, "pi_123", refund.IntentID)
	assert.Equal(t, int64(12499), refund.AmountMinor)
}

func TestStripeGateway_VerifyWebhook(t *testing.T) {
	payload := []byte(`{"id": "evt_1", "object": "event", "type": "payment_intent.succeeded", "data": {"object": {"id": "pi_123", "object": "payment_intent", "amount": 12499, "currency": "eur", "status": "succeeded"}}}`)
	gw := newTestGateway(nil)

	t.Run("Valid", func(t *testing.T) {
		event, err := gw.VerifyWebhook(payload, signed(t, "whsec_test", time.Now(), payload))
		require.NoError(t, err)
		assert.Equal(t, EventIntentSucceeded, event.Type)
		assert.Equal(t, "pi_123", event.Intent.ID)
		assert.Equal(t, int64(12499), event.Intent.AmountMinor)
	})

	t.Run("Wrong secret", func(t *testing.T) {
		_, err := gw.VerifyWebhook(payload, signed(t, "whsec_other", time.Now(), payload))
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("Tampered payload", func(t *testing.T) {
		header := signed(t, "whsec_test", time.Now(), payload)
		_, err := gw.VerifyWebhook(append([]byte(" "), payload...), header)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("Stale timestamp", func(t *testing.T) {
		_, err := gw.VerifyWebhook(payload, signed(t, "whsec_test", time.Now().Add(-time.Hour), payload))
		assert.ErrorIs(t, err, ErrSignatureExpired)
	})

	t.Run("Malformed header", func(t *testing.T) {
		_, err := gw.VerifyWebhook(payload, "garbage")
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("No secret configured", func(t *testing.T) {
		bare := newStripeGateway("sk", "", http.DefaultClient)
		_, err := bare.VerifyWebhook(payload, signed(t, "whsec_test", time.Now(), payload))
		assert.ErrorIs(t, err, ErrMissingSecret)
	})
}
