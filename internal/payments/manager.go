package payments

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

// Manager is the central dispatch point: it maps a provider identifier
// to its adapter and routes every operation through one lookup.
type Manager struct {
	adapters map[Provider]ProviderAdapter
	logger   *zap.SugaredLogger
}

// NewManager registers the built-in adapters over the given HTTP
// client. A nil logger disables operation logging.
func NewManager(client *http.Client, logger *zap.SugaredLogger) *Manager {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	m := &Manager{
		adapters: make(map[Provider]ProviderAdapter),
		logger:   logger,
	}
	m.Register(NewOzowAdapter(client))
	m.Register(NewPayfastAdapter(client))
	m.Register(NewPaystackAdapter(client))
	return m
}

// Register adds or replaces an adapter.
func (m *Manager) Register(adapter ProviderAdapter) {
	m.adapters[adapter.ID()] = adapter
}

// Adapter resolves a provider identifier.
func (m *Manager) Adapter(provider Provider) (ProviderAdapter, error) {
	adapter, ok := m.adapters[provider]
	if !ok {
		return nil, unsupportedCapability(provider, "provider")
	}
	return adapter, nil
}

// CreatePayment dispatches a payment-initiation request.
func (m *Manager) CreatePayment(ctx context.Context, req PaymentRequest) (*PaymentResponse, error) {
	adapter, err := m.Adapter(req.Provider)
	if err != nil {
		return nil, err
	}

	m.logger.Infow("creating payment", "provider", req.Provider, "reference", req.Reference)
	resp, err := adapter.CreatePayment(ctx, req)
	if err != nil {
		m.logger.Errorw("payment creation failed", "provider", req.Provider, "reference", req.Reference, "error", err)
		return nil, err
	}
	return resp, nil
}

// ParseWebhook verifies and normalizes an inbound notification. Unlike
// a direct adapter call, dispatch through the Manager escalates an
// invalid verification into an invalid_signature error: callers at
// this level must not be able to ignore a failed check by accident.
func (m *Manager) ParseWebhook(provider Provider, input WebhookInput) (*WebhookResult, error) {
	adapter, err := m.Adapter(provider)
	if err != nil {
		return nil, err
	}

	result, err := adapter.ParseWebhook(input)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		m.logger.Warnw("webhook rejected", "provider", provider, "reason", result.Reason)
		return nil, invalidSignature(provider, result.Reason)
	}

	m.logger.Infow("webhook accepted", "provider", provider, "event", result.Event.Type)
	return result, nil
}

// VerifyPayment performs a reference-based status lookup, gated by the
// capability table before the adapter is even consulted.
func (m *Manager) VerifyPayment(ctx context.Context, provider Provider, input VerifyInput) (*VerificationResult, error) {
	if err := RequireVerifySupport(provider); err != nil {
		return nil, err
	}
	adapter, err := m.Adapter(provider)
	if err != nil {
		return nil, err
	}
	verifier, ok := adapter.(PaymentVerifier)
	if !ok {
		return nil, unsupportedCapability(provider, "payment verification")
	}

	m.logger.Infow("verifying payment", "provider", provider, "reference", input.Reference)
	return verifier.VerifyPayment(ctx, input)
}

// CreatePlan creates a recurring-billing plan on providers that
// support plans.
func (m *Manager) CreatePlan(ctx context.Context, provider Provider, input PlanCreateInput) (*Plan, error) {
	if err := RequirePlanSupport(provider); err != nil {
		return nil, err
	}
	adapter, err := m.Adapter(provider)
	if err != nil {
		return nil, err
	}
	creator, ok := adapter.(PlanCreator)
	if !ok {
		return nil, unsupportedCapability(provider, "subscription plans")
	}
	return creator.CreatePlan(ctx, input)
}

// CreateSubscription subscribes a customer to a plan on providers that
// support subscriptions.
func (m *Manager) CreateSubscription(ctx context.Context, provider Provider, input SubscriptionCreateInput) (*Subscription, error) {
	if err := RequireSubscriptionSupport(provider); err != nil {
		return nil, err
	}
	adapter, err := m.Adapter(provider)
	if err != nil {
		return nil, err
	}
	creator, ok := adapter.(SubscriptionCreator)
	if !ok {
		return nil, unsupportedCapability(provider, "subscriptions")
	}
	return creator.CreateSubscription(ctx, input)
}
