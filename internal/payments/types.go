package payments

import "net/http"

// Provider identifies a supported payment rail.
type Provider string

const (
	ProviderOzow     Provider = "ozow"
	ProviderPayfast  Provider = "payfast"
	ProviderPaystack Provider = "paystack"
)

// AmountUnit declares how PaymentRequest.Amount is expressed.
type AmountUnit string

const (
	// AmountMajor is a decimal string in major units ("25.00").
	AmountMajor AmountUnit = "major"
	// AmountMinor is an integer string already in minor units ("2500").
	AmountMinor AmountUnit = "minor"
)

// PaymentStatus is the normalized status vocabulary shared by all
// providers.
type PaymentStatus string

const (
	StatusPending PaymentStatus = "pending"
	StatusPaid    PaymentStatus = "paid"
	StatusFailed  PaymentStatus = "failed"
	StatusUnknown PaymentStatus = "unknown"
)

// Customer carries the optional buyer details a provider may require.
type Customer struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// FullName joins first and last names, skipping whichever is empty.
func (c Customer) FullName() string {
	switch {
	case c.FirstName != "" && c.LastName != "":
		return c.FirstName + " " + c.LastName
	case c.FirstName != "":
		return c.FirstName
	default:
		return c.LastName
	}
}

// RedirectURLs are the caller-side endpoints a provider sends the
// buyer (or its notification) to.
type RedirectURLs struct {
	ReturnURL string `json:"return_url,omitempty"`
	CancelURL string `json:"cancel_url,omitempty"`
	NotifyURL string `json:"notify_url,omitempty"`
	ErrorURL  string `json:"error_url,omitempty"`
}

// Secrets is the per-call credentials bag. Each adapter reads only the
// fields it requires; unrelated fields are ignored.
type Secrets struct {
	// Ozow
	SiteCode   string
	APIKey     string
	PrivateKey string
	// Payfast
	MerchantID  string
	MerchantKey string
	Passphrase  string
	// Paystack
	PaystackSecretKey string
}

// OzowOptions are Ozow-specific request options.
type OzowOptions struct {
	SelectedBankID         string
	CustomerIdentityNumber string
	AllowVariableAmount    bool
	VariableAmountMin      string
	VariableAmountMax      string
}

// PayfastOptions are Payfast-specific request options.
type PayfastOptions struct {
	PaymentMethod       string
	EmailConfirmation   bool
	ConfirmationAddress string
	MPaymentID          string
	ItemName            string
	ItemDescription     string
}

// PaystackOptions are Paystack-specific request options.
type PaystackOptions struct {
	Channels []string
}

// ProviderOptions holds the typed per-provider option blocks. Only the
// block matching the request's provider is consulted.
type ProviderOptions struct {
	Ozow     *OzowOptions
	Payfast  *PayfastOptions
	Paystack *PaystackOptions
}

// ProviderData is a raw field override bag merged into the outgoing
// request after validation. Keys must belong to the provider's field
// vocabulary and must not collide with structurally-managed fields.
type ProviderData map[string]any

// PaymentRequest is the provider-agnostic payment-initiation input.
type PaymentRequest struct {
	Provider     Provider
	Amount       string
	AmountUnit   AmountUnit
	Currency     string
	Reference    string
	Description  string
	Customer     *Customer
	URLs         *RedirectURLs
	Metadata     map[string]string
	Options      ProviderOptions
	ProviderData ProviderData
	Secrets      Secrets
	TestMode     bool
}

// PaymentResponse tells the caller how to send the buyer to the
// provider: a GET redirect, or a POST form submission when FormFields
// is populated.
type PaymentResponse struct {
	Provider         Provider          `json:"provider"`
	RedirectURL      string            `json:"redirect_url"`
	Method           string            `json:"method"`
	FormFields       map[string]string `json:"form_fields,omitempty"`
	PaymentRequestID string            `json:"payment_request_id,omitempty"`
	Raw              any               `json:"raw,omitempty"`
}

// WebhookInput is an inbound provider notification: the untouched body
// bytes plus the transport headers for signature-header providers.
type WebhookInput struct {
	RawBody []byte
	Headers http.Header
	Secrets Secrets
}

// WebhookVerifyResult reports signature verification without deciding
// what the caller should do about a failure.
type WebhookVerifyResult struct {
	Provider Provider `json:"provider"`
	Valid    bool     `json:"valid"`
	Reason   string   `json:"reason,omitempty"`
}

// WebhookResult couples verification with the normalized event and the
// decoded payload for forensic use.
type WebhookResult struct {
	Provider Provider `json:"provider"`
	Valid    bool     `json:"valid"`
	Reason   string   `json:"reason,omitempty"`
	Event    Event    `json:"event"`
	Raw      any      `json:"raw"`
}

// VerifyInput requests a reference-based status lookup.
type VerifyInput struct {
	Reference string
	Secrets   Secrets
	TestMode  bool
}

// VerificationResult is the outcome of a reference-based lookup.
type VerificationResult struct {
	Provider    Provider      `json:"provider"`
	Status      PaymentStatus `json:"status"`
	ProviderRef string        `json:"provider_ref,omitempty"`
	Raw         any           `json:"raw,omitempty"`
}

// Payment is the canonical client-facing payment returned by the
// Service wrapper.
type Payment struct {
	ID          string        `json:"id"`
	Provider    Provider      `json:"provider"`
	Status      PaymentStatus `json:"status"`
	Amount      float64       `json:"amount"`
	Currency    string        `json:"currency"`
	RedirectURL string        `json:"redirect_url,omitempty"`
	Method      string        `json:"method"`
	FormFields  map[string]string `json:"form_fields,omitempty"`
	ProviderRef string        `json:"provider_ref,omitempty"`
	Raw         any           `json:"raw,omitempty"`
}
