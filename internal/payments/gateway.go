package payments

import "context"

// ProviderAdapter is the contract every payment provider implements:
// build a signed initiation request and verify-and-normalize an
// inbound notification.
type ProviderAdapter interface {
	ID() Provider
	CreatePayment(ctx context.Context, req PaymentRequest) (*PaymentResponse, error)
	ParseWebhook(input WebhookInput) (*WebhookResult, error)
}

// PaymentVerifier is the optional reference-lookup capability. Absence
// is a checked precondition via the capability table, not a crash.
type PaymentVerifier interface {
	VerifyPayment(ctx context.Context, input VerifyInput) (*VerificationResult, error)
}

// PlanCreator is the optional subscription-plan capability.
type PlanCreator interface {
	CreatePlan(ctx context.Context, input PlanCreateInput) (*Plan, error)
}

// SubscriptionCreator is the optional subscription capability.
type SubscriptionCreator interface {
	CreateSubscription(ctx context.Context, input SubscriptionCreateInput) (*Subscription, error)
}
