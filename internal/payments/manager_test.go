package payments

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerUnknownProvider(t *testing.T) {
	m := NewManager(nil, nil)

	_, err := m.CreatePayment(context.Background(), PaymentRequest{Provider: "stripe"})
	require.Error(t, err)
	assert.Equal(t, ErrCodeUnsupportedCapability, ErrorCodeOf(err))
}

func TestManagerParseWebhookEscalatesInvalidSignature(t *testing.T) {
	m := NewManager(nil, nil)

	tampered := payfastITN("test-pass", nil)
	_, err := m.ParseWebhook(ProviderPayfast, WebhookInput{
		RawBody: tampered,
		Secrets: Secrets{Passphrase: "wrong-pass"},
	})
	require.Error(t, err)
	assert.Equal(t, ErrCodeInvalidSignature, ErrorCodeOf(err))
}

func TestManagerParseWebhookValid(t *testing.T) {
	m := NewManager(nil, nil)

	result, err := m.ParseWebhook(ProviderPayfast, WebhookInput{
		RawBody: payfastITN("test-pass", nil),
		Secrets: Secrets{Passphrase: "test-pass"},
	})
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, EventPaymentCompleted, result.Event.Type)
}

func TestManagerVerifyPaymentCapabilityGate(t *testing.T) {
	m := NewManager(nil, nil)

	// Payfast has no reference lookup endpoint
	_, err := m.VerifyPayment(context.Background(), ProviderPayfast, VerifyInput{Reference: "ORDER-100"})
	require.Error(t, err)
	assert.Equal(t, ErrCodeUnsupportedCapability, ErrorCodeOf(err))
}

func TestManagerSubscriptionGates(t *testing.T) {
	m := NewManager(nil, nil)

	_, err := m.CreatePlan(context.Background(), ProviderOzow, PlanCreateInput{})
	assert.Equal(t, ErrCodeUnsupportedCapability, ErrorCodeOf(err))

	_, err = m.CreateSubscription(context.Background(), ProviderPayfast, SubscriptionCreateInput{})
	assert.Equal(t, ErrCodeUnsupportedCapability, ErrorCodeOf(err))
}

func TestManagerRegisterReplacesAdapter(t *testing.T) {
	m := NewManager(nil, nil)

	custom := NewPaystackAdapter(nil)
	custom.BaseURL = "http://localhost:1"
	m.Register(custom)

	adapter, err := m.Adapter(ProviderPaystack)
	require.NoError(t, err)
	assert.Same(t, custom, adapter)
}
