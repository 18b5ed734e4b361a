package payments

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"stash/internal/money"
)

// Service binds a provider, its credentials and a default currency
// once, so call sites pass only per-payment data. It assigns a client
// request ID to every payment and returns the canonical Payment shape.
type Service struct {
	manager         *Manager
	provider        Provider
	secrets         Secrets
	testMode        bool
	defaultCurrency string
}

// ServiceConfig configures a bound Service.
type ServiceConfig struct {
	Provider        Provider
	Secrets         Secrets
	TestMode        bool
	DefaultCurrency string
}

func NewService(manager *Manager, cfg ServiceConfig) *Service {
	return &Service{
		manager:         manager,
		provider:        cfg.Provider,
		secrets:         cfg.Secrets,
		testMode:        cfg.TestMode,
		defaultCurrency: cfg.DefaultCurrency,
	}
}

// CreateInput is the per-payment subset of PaymentRequest; provider,
// secrets and test mode come from the Service binding.
type CreateInput struct {
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
}

// CreatePayment initiates a payment and wraps the provider response in
// a canonical pending Payment.
func (s *Service) CreatePayment(ctx context.Context, input CreateInput) (*Payment, error) {
	currency := NormalizeCurrency(input.Currency, s.defaultCurrency)

	req := PaymentRequest{
		Provider:     s.provider,
		Amount:       input.Amount,
		AmountUnit:   input.AmountUnit,
		Currency:     currency,
		Reference:    input.Reference,
		Description:  input.Description,
		Customer:     input.Customer,
		URLs:         input.URLs,
		Metadata:     input.Metadata,
		Options:      input.Options,
		ProviderData: input.ProviderData,
		Secrets:      s.secrets,
		TestMode:     s.testMode,
	}

	resp, err := s.manager.CreatePayment(ctx, req)
	if err != nil {
		return nil, err
	}

	amount, err := majorAmount(input.Amount, input.AmountUnit, currency)
	if err != nil {
		return nil, err
	}

	return &Payment{
		ID:          uuid.NewString(),
		Provider:    s.provider,
		Status:      StatusPending,
		Amount:      amount,
		Currency:    currency,
		RedirectURL: resp.RedirectURL,
		Method:      resp.Method,
		FormFields:  resp.FormFields,
		ProviderRef: resp.PaymentRequestID,
		Raw:         resp.Raw,
	}, nil
}

// ParseWebhook verifies and normalizes a notification for the bound
// provider; an invalid signature surfaces as an error, per Manager
// semantics.
func (s *Service) ParseWebhook(rawBody []byte, headers http.Header) (*WebhookResult, error) {
	return s.manager.ParseWebhook(s.provider, WebhookInput{
		RawBody: rawBody,
		Headers: headers,
		Secrets: s.secrets,
	})
}

// VerifyPayment looks a payment up by merchant reference.
func (s *Service) VerifyPayment(ctx context.Context, reference string) (*VerificationResult, error) {
	return s.manager.VerifyPayment(ctx, s.provider, VerifyInput{
		Reference: reference,
		Secrets:   s.secrets,
		TestMode:  s.testMode,
	})
}

func majorAmount(amount string, unit AmountUnit, currency string) (float64, error) {
	if unit == AmountMinor {
		minor, err := money.ParseMinorUnits(amount)
		if err != nil {
			return 0, invalidAmount(err)
		}
		return money.FromMinorUnits(minor, currency), nil
	}
	minor, err := money.ToMinorUnits(amount, currency)
	if err != nil {
		return 0, invalidAmount(err)
	}
	return money.FromMinorUnits(minor, currency), nil
}
