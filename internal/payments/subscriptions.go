package payments

// PlanCreateInput describes a recurring-billing plan. Amount follows
// the same unit declaration as payments.
type PlanCreateInput struct {
	Name       string
	Amount     string
	AmountUnit AmountUnit
	Interval   string
	Currency   string
	Secrets    Secrets
}

// Plan is the provider's created plan.
type Plan struct {
	PlanCode string `json:"plan_code"`
	Name     string `json:"name"`
	Amount   int64  `json:"amount"`
	Interval string `json:"interval"`
	Currency string `json:"currency"`
	Raw      any    `json:"raw,omitempty"`
}

// SubscriptionCreateInput subscribes a customer to a plan.
type SubscriptionCreateInput struct {
	Customer      string
	PlanCode      string
	Authorization string
	Secrets       Secrets
}

// Subscription is the provider's created subscription.
type Subscription struct {
	SubscriptionCode string `json:"subscription_code"`
	EmailToken       string `json:"email_token"`
	Status           string `json:"status"`
	Raw              any    `json:"raw,omitempty"`
}
