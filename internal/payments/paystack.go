package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"stash/internal/money"
)

const paystackBaseURL = "https://api.paystack.co"

// PaystackAdapter implements the hosted-checkout flow: a JSON
// initialize call returns an authorization URL the buyer is redirected
// to. Webhooks are authenticated by an HMAC header rather than an
// in-body hash.
type PaystackAdapter struct {
	client *http.Client

	// BaseURL override for tests. Paystack has no separate sandbox
	// host; test keys select test mode.
	BaseURL string
}

func NewPaystackAdapter(client *http.Client) *PaystackAdapter {
	if client == nil {
		client = http.DefaultClient
	}
	return &PaystackAdapter{client: client}
}

func (a *PaystackAdapter) ID() Provider { return ProviderPaystack }

func (a *PaystackAdapter) baseURL() string {
	if a.BaseURL != "" {
		return a.BaseURL
	}
	return paystackBaseURL
}

// resolvePaystackAmount returns the integer minor-unit amount the API
// expects, honouring the caller's declared unit.
func resolvePaystackAmount(req PaymentRequest) (int64, error) {
	if req.AmountUnit == AmountMinor {
		minor, err := money.ParseMinorUnits(req.Amount)
		if err != nil {
			return 0, invalidAmount(err)
		}
		return minor, nil
	}
	minor, err := money.ToMinorUnits(req.Amount, req.Currency)
	if err != nil {
		return 0, invalidAmount(err)
	}
	return minor, nil
}

func (a *PaystackAdapter) CreatePayment(ctx context.Context, req PaymentRequest) (*PaymentResponse, error) {
	if req.Secrets.PaystackSecretKey == "" {
		return nil, missingRequiredField("secrets.paystackSecretKey")
	}
	if err := RequireCustomerEmail(ProviderPaystack, req.Customer); err != nil {
		return nil, err
	}
	if req.Reference == "" {
		return nil, missingRequiredField("reference")
	}

	amount, err := resolvePaystackAmount(req)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"email":     req.Customer.Email,
		"amount":    amount,
		"currency":  NormalizeCurrency(req.Currency, DefaultCurrency),
		"reference": req.Reference,
	}

	if req.URLs != nil && req.URLs.ReturnURL != "" {
		payload["callback_url"] = req.URLs.ReturnURL
	}

	options := req.Options.Paystack
	if options != nil && len(options.Channels) > 0 {
		payload["channels"] = options.Channels
	}
	if len(req.Metadata) > 0 {
		payload["metadata"] = req.Metadata
	}

	if options != nil && len(options.Channels) > 0 {
		if _, ok := req.ProviderData["channels"]; ok {
			return nil, invalidProviderData("providerData overlaps providerOptions: channels")
		}
	}
	for key, value := range req.ProviderData {
		if value == nil {
			continue
		}
		if _, ok := payload[key]; ok {
			return nil, invalidProviderData("providerData overlaps core fields: " + key)
		}
		payload[key] = value
	}

	data, raw, err := a.call(ctx, http.MethodPost, "/transaction/initialize", payload, req.Secrets.PaystackSecretKey, "initialize")
	if err != nil {
		return nil, err
	}

	authURL := stringField(data, "authorization_url")
	reference := stringField(data, "reference")
	if authURL == "" || reference == "" {
		return nil, providerError(ProviderPaystack, "response missing authorization_url or reference")
	}

	return &PaymentResponse{
		Provider:         ProviderPaystack,
		RedirectURL:      authURL,
		Method:           http.MethodGet,
		PaymentRequestID: reference,
		Raw:              raw,
	}, nil
}

// VerifyWebhookSignature computes HMAC-SHA512 over the exact raw body
// bytes and compares hex digests. No case folding, no normalization:
// Paystack sends lowercase hex and anything else is a forgery.
func VerifyWebhookSignature(rawBody []byte, signatureHeader, secretKey string) bool {
	if signatureHeader == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(secretKey))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signatureHeader))
}

func (a *PaystackAdapter) ParseWebhook(input WebhookInput) (*WebhookResult, error) {
	signature := headerValue(input.Headers, "x-paystack-signature")

	valid := VerifyWebhookSignature(input.RawBody, signature, input.Secrets.PaystackSecretKey)
	reason := ""
	if !valid {
		if signature == "" {
			reason = "missing_signature_header"
		} else {
			reason = "signature_mismatch"
		}
	}

	var payload map[string]any
	if err := json.Unmarshal(input.RawBody, &payload); err != nil {
		return nil, providerError(ProviderPaystack, "webhook body is not JSON")
	}

	return &WebhookResult{
		Provider: ProviderPaystack,
		Valid:    valid,
		Reason:   reason,
		Event:    mapPaystackEvent(payload),
		Raw:      payload,
	}, nil
}

func (a *PaystackAdapter) VerifyPayment(ctx context.Context, input VerifyInput) (*VerificationResult, error) {
	if input.Secrets.PaystackSecretKey == "" {
		return nil, missingRequiredField("secrets.paystackSecretKey")
	}
	if input.Reference == "" {
		return nil, missingRequiredField("reference")
	}

	path := "/transaction/verify/" + url.PathEscape(input.Reference)
	data, raw, err := a.call(ctx, http.MethodGet, path, nil, input.Secrets.PaystackSecretKey, "verify")
	if err != nil {
		return nil, err
	}

	result := &VerificationResult{
		Provider:    ProviderPaystack,
		ProviderRef: stringField(data, "id"),
		Raw:         raw,
	}
	switch strings.ToLower(stringField(data, "status")) {
	case "success":
		result.Status = StatusPaid
	case "failed":
		result.Status = StatusFailed
	case "abandoned":
		result.Status = StatusPending
	default:
		result.Status = StatusUnknown
	}
	return result, nil
}

func (a *PaystackAdapter) CreatePlan(ctx context.Context, input PlanCreateInput) (*Plan, error) {
	if input.Secrets.PaystackSecretKey == "" {
		return nil, missingRequiredField("secrets.paystackSecretKey")
	}
	if input.Name == "" {
		return nil, missingRequiredField("name")
	}
	if input.Interval == "" {
		return nil, missingRequiredField("interval")
	}

	var amount int64
	var err error
	if input.AmountUnit == AmountMinor {
		amount, err = money.ParseMinorUnits(input.Amount)
	} else {
		amount, err = money.ToMinorUnits(input.Amount, input.Currency)
	}
	if err != nil {
		return nil, invalidAmount(err)
	}

	payload := map[string]any{
		"name":     input.Name,
		"amount":   amount,
		"interval": input.Interval,
	}
	if input.Currency != "" {
		payload["currency"] = NormalizeCurrency(input.Currency, "")
	}

	data, raw, err := a.call(ctx, http.MethodPost, "/plan", payload, input.Secrets.PaystackSecretKey, "plan create")
	if err != nil {
		return nil, err
	}

	return &Plan{
		PlanCode: stringField(data, "plan_code"),
		Name:     stringField(data, "name"),
		Amount:   amount,
		Interval: stringField(data, "interval"),
		Currency: stringField(data, "currency"),
		Raw:      raw,
	}, nil
}

func (a *PaystackAdapter) CreateSubscription(ctx context.Context, input SubscriptionCreateInput) (*Subscription, error) {
	if input.Secrets.PaystackSecretKey == "" {
		return nil, missingRequiredField("secrets.paystackSecretKey")
	}
	if input.Customer == "" {
		return nil, missingRequiredField("customer")
	}
	if input.PlanCode == "" {
		return nil, missingRequiredField("plan")
	}

	payload := map[string]any{
		"customer": input.Customer,
		"plan":     input.PlanCode,
	}
	if input.Authorization != "" {
		payload["authorization"] = input.Authorization
	}

	data, raw, err := a.call(ctx, http.MethodPost, "/subscription", payload, input.Secrets.PaystackSecretKey, "subscription create")
	if err != nil {
		return nil, err
	}

	return &Subscription{
		SubscriptionCode: stringField(data, "subscription_code"),
		EmailToken:       stringField(data, "email_token"),
		Status:           stringField(data, "status"),
		Raw:              raw,
	}, nil
}

// headerValue reads a header case-insensitively even when the map was
// built without canonical keys (proxies and test fixtures often
// lowercase them).
func headerValue(h http.Header, key string) string {
	if h == nil {
		return ""
	}
	if v := h.Get(key); v != "" {
		return v
	}
	for k, vs := range h {
		if strings.EqualFold(k, key) && len(vs) > 0 {
			return vs[0]
		}
	}
	return ""
}

// call performs an authorized JSON round trip and unwraps Paystack's
// {status, message, data} envelope.
func (a *PaystackAdapter) call(ctx context.Context, method, path string, payload any, secretKey, operation string) (map[string]any, map[string]any, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, nil, fmt.Errorf("paystack payload encode: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, a.baseURL()+path, body)
	if err != nil {
		return nil, nil, fmt.Errorf("paystack request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+secretKey)
	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, nil, fmt.Errorf("paystack %s: %w", operation, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	var envelope struct {
		Status  bool           `json:"status"`
		Message string         `json:"message"`
		Data    map[string]any `json:"data"`
	}
	decodeErr := json.Unmarshal(raw, &envelope)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || decodeErr != nil || !envelope.Status {
		message := envelope.Message
		if message == "" {
			message = resp.Status
		}
		return nil, nil, providerError(ProviderPaystack, operation+" failed: "+message)
	}

	var decoded map[string]any
	_ = json.Unmarshal(raw, &decoded)
	return envelope.Data, decoded, nil
}
