package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paystackRequest() PaymentRequest {
	return PaymentRequest{
		Provider:  ProviderPaystack,
		Amount:    "25.00",
		Currency:  "ZAR",
		Reference: "ORDER-7",
		Customer:  &Customer{Email: "buyer@example.com"},
		Secrets:   Secrets{PaystackSecretKey: "sk_test_abc"},
	}
}

func signPaystack(body []byte, secret string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestPaystackCreatePaymentSendsMinorUnits(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/initialize", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_abc", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]any{
			"status": true,
			"data": map[string]any{
				"authorization_url": "https://checkout.paystack.com/abc123",
				"access_code":       "abc123",
				"reference":         "ORDER-7",
			},
		})
	}))
	defer server.Close()

	adapter := NewPaystackAdapter(server.Client())
	adapter.BaseURL = server.URL

	resp, err := adapter.CreatePayment(context.Background(), paystackRequest())
	require.NoError(t, err)

	// "25.00" major becomes the integer 2500
	assert.Equal(t, float64(2500), got["amount"])
	assert.Equal(t, "buyer@example.com", got["email"])
	assert.Equal(t, "ZAR", got["currency"])

	assert.Equal(t, "https://checkout.paystack.com/abc123", resp.RedirectURL)
	assert.Equal(t, http.MethodGet, resp.Method)
	assert.Equal(t, "ORDER-7", resp.PaymentRequestID)
}

func TestPaystackCreatePaymentMinorUnitPassThrough(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]any{
			"status": true,
			"data": map[string]any{
				"authorization_url": "https://checkout.paystack.com/x",
				"reference":         "ORDER-7",
			},
		})
	}))
	defer server.Close()

	adapter := NewPaystackAdapter(server.Client())
	adapter.BaseURL = server.URL

	req := paystackRequest()
	req.Amount = "2500"
	req.AmountUnit = AmountMinor

	_, err := adapter.CreatePayment(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, float64(2500), got["amount"])
}

func TestPaystackCreatePaymentGuards(t *testing.T) {
	adapter := NewPaystackAdapter(nil)

	req := paystackRequest()
	req.Customer = nil
	_, err := adapter.CreatePayment(context.Background(), req)
	assert.Equal(t, ErrCodeMissingRequiredField, ErrorCodeOf(err))

	req = paystackRequest()
	req.Secrets.PaystackSecretKey = ""
	_, err = adapter.CreatePayment(context.Background(), req)
	assert.Equal(t, ErrCodeMissingRequiredField, ErrorCodeOf(err))

	req = paystackRequest()
	req.Amount = "25.001"
	_, err = adapter.CreatePayment(context.Background(), req)
	assert.Equal(t, ErrCodeInvalidAmount, ErrorCodeOf(err))
}

func TestPaystackCreatePaymentOverlapChecks(t *testing.T) {
	adapter := NewPaystackAdapter(nil)

	req := paystackRequest()
	req.Options.Paystack = &PaystackOptions{Channels: []string{"card"}}
	req.ProviderData = ProviderData{"channels": []string{"bank"}}
	_, err := adapter.CreatePayment(context.Background(), req)
	assert.Equal(t, ErrCodeInvalidProviderData, ErrorCodeOf(err))

	req = paystackRequest()
	req.ProviderData = ProviderData{"email": "other@example.com"}
	_, err = adapter.CreatePayment(context.Background(), req)
	assert.Equal(t, ErrCodeInvalidProviderData, ErrorCodeOf(err))
}

func TestVerifyWebhookSignature(t *testing.T) {
	body := []byte(`{"event":"charge.success","data":{"reference":"ORDER-7"}}`)
	secret := "sk_test_abc"
	signature := signPaystack(body, secret)

	assert.True(t, VerifyWebhookSignature(body, signature, secret))
	assert.False(t, VerifyWebhookSignature(body, "", secret))
	assert.False(t, VerifyWebhookSignature(body, signature, "wrong-key"))

	// a single flipped byte invalidates the digest
	mutated := append([]byte{}, body...)
	mutated[len(mutated)-2] = '8'
	assert.False(t, VerifyWebhookSignature(mutated, signature, secret))
}

func TestPaystackParseWebhook(t *testing.T) {
	adapter := NewPaystackAdapter(nil)
	secrets := Secrets{PaystackSecretKey: "sk_test_abc"}
	body := []byte(`{"event":"charge.success","data":{"id":302961,"reference":"ORDER-7","amount":2500,"currency":"ZAR","status":"success"}}`)

	headers := http.Header{}
	headers.Set("X-Paystack-Signature", signPaystack(body, "sk_test_abc"))

	result, err := adapter.ParseWebhook(WebhookInput{RawBody: body, Headers: headers, Secrets: secrets})
	require.NoError(t, err)

	assert.True(t, result.Valid)
	assert.Equal(t, EventPaymentCompleted, result.Event.Type)
	assert.Equal(t, "ORDER-7", result.Event.Data.Reference)
	require.NotNil(t, result.Event.Data.Amount)
	assert.Equal(t, 25.0, *result.Event.Data.Amount)
}

func TestPaystackParseWebhookRejections(t *testing.T) {
	adapter := NewPaystackAdapter(nil)
	secrets := Secrets{PaystackSecretKey: "sk_test_abc"}
	body := []byte(`{"event":"charge.success","data":{}}`)

	result, err := adapter.ParseWebhook(WebhookInput{RawBody: body, Secrets: secrets})
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, "missing_signature_header", result.Reason)

	headers := http.Header{}
	headers.Set("X-Paystack-Signature", "deadbeef")
	result, err = adapter.ParseWebhook(WebhookInput{RawBody: body, Headers: headers, Secrets: secrets})
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, "signature_mismatch", result.Reason)
}

func TestPaystackParseWebhookLowercaseHeader(t *testing.T) {
	adapter := NewPaystackAdapter(nil)
	secrets := Secrets{PaystackSecretKey: "sk_test_abc"}
	body := []byte(`{"event":"charge.success","data":{"reference":"ORDER-7"}}`)

	// non-canonical header key, as delivered by some proxies
	headers := http.Header{"x-paystack-signature": {signPaystack(body, "sk_test_abc")}}

	result, err := adapter.ParseWebhook(WebhookInput{RawBody: body, Headers: headers, Secrets: secrets})
	require.NoError(t, err)
	assert.True(t, result.Valid)
}

func TestPaystackVerifyPaymentStatusMapping(t *testing.T) {
	tests := []struct {
		providerStatus string
		want           PaymentStatus
	}{
		{"success", StatusPaid},
		{"failed", StatusFailed},
		{"abandoned", StatusPending},
		{"reversed", StatusUnknown},
	}

	for _, tc := range tests {
		t.Run(tc.providerStatus, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/transaction/verify/ORDER-7", r.URL.Path)
				json.NewEncoder(w).Encode(map[string]any{
					"status": true,
					"data":   map[string]any{"id": 302961, "status": tc.providerStatus},
				})
			}))
			defer server.Close()

			adapter := NewPaystackAdapter(server.Client())
			adapter.BaseURL = server.URL

			result, err := adapter.VerifyPayment(context.Background(), VerifyInput{
				Reference: "ORDER-7",
				Secrets:   Secrets{PaystackSecretKey: "sk_test_abc"},
			})
			require.NoError(t, err)
			assert.Equal(t, tc.want, result.Status)
			assert.Equal(t, "302961", result.ProviderRef)
		})
	}
}

func TestPaystackEnvelopeFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"status":  false,
			"message": "Invalid key",
		})
	}))
	defer server.Close()

	adapter := NewPaystackAdapter(server.Client())
	adapter.BaseURL = server.URL

	_, err := adapter.CreatePayment(context.Background(), paystackRequest())
	require.Error(t, err)
	assert.Equal(t, ErrCodeProvider, ErrorCodeOf(err))
	assert.Contains(t, err.Error(), "Invalid key")
}

func TestPaystackCreatePlan(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/plan", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]any{
			"status": true,
			"data": map[string]any{
				"plan_code": "PLN_gx2wn530m0i3w3m",
				"name":      "Monthly Retainer",
				"interval":  "monthly",
				"currency":  "ZAR",
			},
		})
	}))
	defer server.Close()

	adapter := NewPaystackAdapter(server.Client())
	adapter.BaseURL = server.URL

	plan, err := adapter.CreatePlan(context.Background(), PlanCreateInput{
		Name:     "Monthly Retainer",
		Amount:   "500.00",
		Interval: "monthly",
		Currency: "ZAR",
		Secrets:  Secrets{PaystackSecretKey: "sk_test_abc"},
	})
	require.NoError(t, err)

	assert.Equal(t, float64(50000), got["amount"])
	assert.Equal(t, "PLN_gx2wn530m0i3w3m", plan.PlanCode)
	assert.Equal(t, int64(50000), plan.Amount)
}

func TestPaystackCreateSubscription(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/subscription", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"status": true,
			"data": map[string]any{
				"subscription_code": "SUB_vsyqdmlzble3uii",
				"email_token":       "d7gofp6yppn3qz7",
				"status":            "active",
			},
		})
	}))
	defer server.Close()

	adapter := NewPaystackAdapter(server.Client())
	adapter.BaseURL = server.URL

	sub, err := adapter.CreateSubscription(context.Background(), SubscriptionCreateInput{
		Customer: "CUS_xnxdt6s1zg1f4nx",
		PlanCode: "PLN_gx2wn530m0i3w3m",
		Secrets:  Secrets{PaystackSecretKey: "sk_test_abc"},
	})
	require.NoError(t, err)
	assert.Equal(t, "SUB_vsyqdmlzble3uii", sub.SubscriptionCode)
	assert.Equal(t, "active", sub.Status)

	_, err = adapter.CreateSubscription(context.Background(), SubscriptionCreateInput{
		PlanCode: "PLN_x",
		Secrets:  Secrets{PaystackSecretKey: "sk_test_abc"},
	})
	assert.Equal(t, ErrCodeMissingRequiredField, ErrorCodeOf(err))
}
