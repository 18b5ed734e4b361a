package main

import (
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"stash/internal/payments"
)

type ozowOptionsPayload struct {
	SelectedBankID         string `json:"selected_bank_id"`
	CustomerIdentityNumber string `json:"customer_identity_number"`
	AllowVariableAmount    bool   `json:"allow_variable_amount"`
	VariableAmountMin      string `json:"variable_amount_min"`
	VariableAmountMax      string `json:"variable_amount_max"`
}

type payfastOptionsPayload struct {
	PaymentMethod       string `json:"payment_method"`
	EmailConfirmation   bool   `json:"email_confirmation"`
	ConfirmationAddress string `json:"confirmation_address"`
	MPaymentID          string `json:"m_payment_id"`
	ItemName            string `json:"item_name"`
	ItemDescription     string `json:"item_description"`
}

type paystackOptionsPayload struct {
	Channels []string `json:"channels"`
}

type createPaymentPayload struct {
	Provider     string                  `json:"provider" validate:"required,oneof=ozow payfast paystack"`
	Amount       string                  `json:"amount" validate:"required"`
	AmountUnit   string                  `json:"amount_unit" validate:"omitempty,oneof=major minor"`
	Currency     string                  `json:"currency" validate:"omitempty,currencycode"`
	Reference    string                  `json:"reference" validate:"required,max=100"`
	Description  string                  `json:"description" validate:"omitempty,max=255"`
	Customer     *payments.Customer      `json:"customer"`
	URLs         *payments.RedirectURLs  `json:"urls"`
	Metadata     map[string]string       `json:"metadata"`
	Ozow         *ozowOptionsPayload     `json:"ozow"`
	Payfast      *payfastOptionsPayload  `json:"payfast"`
	Paystack     *paystackOptionsPayload `json:"paystack"`
	ProviderData map[string]any          `json:"provider_data"`
}

// POST /v1/payments
func (app *application) createPaymentHandler(w http.ResponseWriter, r *http.Request) {
	var payload createPaymentPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	provider := payments.Provider(payload.Provider)

	unit := payments.AmountMajor
	if payload.AmountUnit == string(payments.AmountMinor) {
		unit = payments.AmountMinor
	}

	var options payments.ProviderOptions
	if payload.Ozow != nil {
		options.Ozow = &payments.OzowOptions{
			SelectedBankID:         payload.Ozow.SelectedBankID,
			CustomerIdentityNumber: payload.Ozow.CustomerIdentityNumber,
			AllowVariableAmount:    payload.Ozow.AllowVariableAmount,
			VariableAmountMin:      payload.Ozow.VariableAmountMin,
			VariableAmountMax:      payload.Ozow.VariableAmountMax,
		}
	}
	if payload.Payfast != nil {
		options.Payfast = &payments.PayfastOptions{
			PaymentMethod:       payload.Payfast.PaymentMethod,
			EmailConfirmation:   payload.Payfast.EmailConfirmation,
			ConfirmationAddress: payload.Payfast.ConfirmationAddress,
			MPaymentID:          payload.Payfast.MPaymentID,
			ItemName:            payload.Payfast.ItemName,
			ItemDescription:     payload.Payfast.ItemDescription,
		}
	}
	if payload.Paystack != nil {
		options.Paystack = &payments.PaystackOptions{
			Channels: payload.Paystack.Channels,
		}
	}

	service := payments.NewService(app.payments, payments.ServiceConfig{
		Provider:        provider,
		Secrets:         app.secretsFor(provider),
		TestMode:        app.config.testMode,
		DefaultCurrency: app.config.currency,
	})

	payment, err := service.CreatePayment(r.Context(), payments.CreateInput{
		Amount:       payload.Amount,
		AmountUnit:   unit,
		Currency:     payload.Currency,
		Reference:    payload.Reference,
		Description:  payload.Description,
		Customer:     payload.Customer,
		URLs:         payload.URLs,
		Metadata:     payload.Metadata,
		Options:      options,
		ProviderData: payload.ProviderData,
	})
	if err != nil {
		app.paymentErrorResponse(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusCreated, payment)
}

// POST /v1/webhooks/{provider}
//
// The body must reach the adapter untouched: Payfast signs the exact
// encoded pair order and Paystack HMACs the raw bytes, so the handler
// never parses before reading.
func (app *application) webhookHandler(w http.ResponseWriter, r *http.Request) {
	provider := payments.Provider(chi.URLParam(r, "provider"))
	if _, err := app.payments.Adapter(provider); err != nil {
		app.notFoundResponse(w, r, fmt.Errorf("unknown provider: %s", provider))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_578)
	rawBody, err := io.ReadAll(r.Body)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("reading webhook body: %w", err))
		return
	}

	result, err := app.payments.ParseWebhook(provider, payments.WebhookInput{
		RawBody: rawBody,
		Headers: r.Header,
		Secrets: app.secretsFor(provider),
	})
	if err != nil {
		app.paymentErrorResponse(w, r, err)
		return
	}

	app.logger.Infow("webhook processed", "provider", provider, "event", result.Event.Type)

	// Acknowledge provider with 200 OK
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// GET /v1/payments/{provider}/{reference}
func (app *application) verifyPaymentHandler(w http.ResponseWriter, r *http.Request) {
	provider := payments.Provider(chi.URLParam(r, "provider"))
	reference := chi.URLParam(r, "reference")
	if reference == "" {
		app.badRequestResponse(w, r, fmt.Errorf("missing reference"))
		return
	}

	result, err := app.payments.VerifyPayment(r.Context(), provider, payments.VerifyInput{
		Reference: reference,
		Secrets:   app.secretsFor(provider),
		TestMode:  app.config.testMode,
	})
	if err != nil {
		app.paymentErrorResponse(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, result)
}
