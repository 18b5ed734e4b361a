package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// ozowFieldOrder is Ozow's canonical request field order. HashCheck is
// computed by concatenating the values of present fields in exactly
// this order, so the list is part of the wire contract.
var ozowFieldOrder = []string{
	"SiteCode",
	"CountryCode",
	"CurrencyCode",
	"Amount",
	"TransactionReference",
	"BankReference",
	"Optional1",
	"Optional2",
	"Optional3",
	"Optional4",
	"Optional5",
	"Customer",
	"CancelUrl",
	"ErrorUrl",
	"SuccessUrl",
	"NotifyUrl",
	"IsTest",
	"SelectedBankId",
	"BankAccountNumber",
	"BankAccountBranchCode",
	"BankAccountName",
	"BankName",
	"ExpiryDateUtc",
	"AllowVariableAmount",
	"VariableAmountMin",
	"VariableAmountMax",
	"CustomerIdentityNumber",
	"CustomerCellphoneNumber",
	"HashCheck",
	"Token",
	"GenerateShortUrl",
}

// ozowResponseOrder is the separate fixed order for notification
// hashes.
var ozowResponseOrder = []string{
	"SiteCode",
	"TransactionId",
	"TransactionReference",
	"Amount",
	"Status",
	"Optional1",
	"Optional2",
	"Optional3",
	"Optional4",
	"Optional5",
	"CurrencyCode",
	"IsTest",
	"StatusMessage",
}

var ozowAllowedFields = func() map[string]bool {
	allowed := make(map[string]bool, len(ozowFieldOrder))
	for _, field := range ozowFieldOrder {
		allowed[field] = true
	}
	return allowed
}()

// ozowOptionFields are managed by OzowOptions; providerData must not
// set them too.
var ozowOptionFields = []string{
	"SelectedBankId",
	"CustomerIdentityNumber",
	"AllowVariableAmount",
	"VariableAmountMin",
	"VariableAmountMax",
}

const (
	ozowLiveURL    = "https://api.ozow.com"
	ozowSandboxURL = "https://stagingapi.ozow.com"
)

// OzowAdapter implements the bank-redirect flow: a server-side POST of
// the signed payload, then a GET redirect to the returned payment URL.
type OzowAdapter struct {
	client *http.Client

	// Endpoint overrides for tests. Empty means the public endpoints.
	LiveURL    string
	SandboxURL string
}

func NewOzowAdapter(client *http.Client) *OzowAdapter {
	if client == nil {
		client = http.DefaultClient
	}
	return &OzowAdapter{client: client}
}

func (a *OzowAdapter) ID() Provider { return ProviderOzow }

func (a *OzowAdapter) baseURL(testMode bool) string {
	if testMode {
		if a.SandboxURL != "" {
			return a.SandboxURL
		}
		return ozowSandboxURL
	}
	if a.LiveURL != "" {
		return a.LiveURL
	}
	return ozowLiveURL
}

func buildOzowPayload(req PaymentRequest) (map[string]string, error) {
	if req.Secrets.SiteCode == "" {
		return nil, missingRequiredField("secrets.siteCode")
	}
	if req.Reference == "" {
		return nil, missingRequiredField("reference")
	}

	currency := NormalizeCurrency(req.Currency, DefaultCurrency)
	if err := RequireSupportedCurrency(ProviderOzow, currency); err != nil {
		return nil, err
	}

	amount, err := formatRequestAmount(req)
	if err != nil {
		return nil, err
	}

	payload := map[string]string{
		"SiteCode":             req.Secrets.SiteCode,
		"CountryCode":          "ZA",
		"CurrencyCode":         currency,
		"Amount":               amount,
		"TransactionReference": req.Reference,
	}

	// Bank statement reference falls back through providerData,
	// description, then the merchant reference.
	switch {
	case req.ProviderData["BankReference"] != nil:
		payload["BankReference"] = toStringValue(req.ProviderData["BankReference"])
	case req.Description != "":
		payload["BankReference"] = req.Description
	default:
		payload["BankReference"] = req.Reference
	}

	if err := applyOzowOptions(payload, req.Options.Ozow, req.ProviderData); err != nil {
		return nil, err
	}

	applyMetadataSlots(payload, req.Metadata, "Optional")

	if req.Customer != nil {
		if name := req.Customer.FullName(); name != "" {
			payload["Customer"] = name
		}
		if req.Customer.Phone != "" {
			payload["CustomerCellphoneNumber"] = req.Customer.Phone
		}
	}

	if req.URLs != nil {
		if req.URLs.CancelURL != "" {
			payload["CancelUrl"] = req.URLs.CancelURL
		}
		if req.URLs.ErrorURL != "" {
			payload["ErrorUrl"] = req.URLs.ErrorURL
		}
		if req.URLs.ReturnURL != "" {
			payload["SuccessUrl"] = req.URLs.ReturnURL
		}
		if req.URLs.NotifyURL != "" {
			payload["NotifyUrl"] = req.URLs.NotifyURL
		}
	}

	if req.TestMode {
		payload["IsTest"] = "true"
	} else {
		payload["IsTest"] = "false"
	}

	if err := mergeOzowProviderData(payload, req.Options.Ozow, req.ProviderData); err != nil {
		return nil, err
	}

	return payload, nil
}

func applyOzowOptions(payload map[string]string, options *OzowOptions, data ProviderData) error {
	if options == nil {
		return nil
	}

	for _, field := range ozowOptionFields {
		if _, ok := data[field]; ok {
			return invalidProviderData("providerData overlaps providerOptions: " + field)
		}
	}

	if options.SelectedBankID != "" {
		payload["SelectedBankId"] = options.SelectedBankID
	}
	if options.CustomerIdentityNumber != "" {
		payload["CustomerIdentityNumber"] = options.CustomerIdentityNumber
	}
	if options.AllowVariableAmount {
		payload["AllowVariableAmount"] = "true"
		if options.VariableAmountMin == "" {
			return missingRequiredField("providerOptions.variableAmountMin")
		}
		if options.VariableAmountMax == "" {
			return missingRequiredField("providerOptions.variableAmountMax")
		}
		payload["VariableAmountMin"] = options.VariableAmountMin
		payload["VariableAmountMax"] = options.VariableAmountMax
	}
	return nil
}

func mergeOzowProviderData(payload map[string]string, options *OzowOptions, data ProviderData) error {
	for key, value := range data {
		if !ozowAllowedFields[key] {
			return invalidProviderData("unsupported Ozow field: " + key)
		}
		if value == nil {
			continue
		}
		if key == "HashCheck" {
			continue
		}
		payload[key] = toStringValue(value)
	}
	return nil
}

// applyMetadataSlots copies up to five metadata values into the
// provider's numbered custom-field slots, in sorted key order so the
// slot assignment is deterministic.
func applyMetadataSlots(payload map[string]string, metadata map[string]string, prefix string) {
	if len(metadata) == 0 {
		return
	}
	keys := make([]string, 0, len(metadata))
	for key := range metadata {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for i, key := range keys {
		if i == 5 {
			break
		}
		payload[fmt.Sprintf("%s%d", prefix, i+1)] = metadata[key]
	}
}

// buildOzowHashCheck concatenates the request field values in canonical
// order, skipping HashCheck, Token, the cellphone field, GenerateShortUrl
// and a literal-"false" AllowVariableAmount, appends the private key,
// lowercases the whole string and takes its SHA-512 hex digest.
func buildOzowHashCheck(payload map[string]string, privateKey string) string {
	var b strings.Builder
	for _, key := range ozowFieldOrder {
		switch key {
		case "HashCheck", "Token", "CustomerCellphoneNumber", "GenerateShortUrl":
			continue
		}
		value := payload[key]
		if value == "" {
			continue
		}
		if key == "AllowVariableAmount" && strings.EqualFold(value, "false") {
			continue
		}
		b.WriteString(value)
	}
	b.WriteString(privateKey)
	return sha512Hex(strings.ToLower(b.String()))
}

func (a *OzowAdapter) CreatePayment(ctx context.Context, req PaymentRequest) (*PaymentResponse, error) {
	if req.Secrets.APIKey == "" {
		return nil, missingRequiredField("secrets.apiKey")
	}
	if req.Secrets.PrivateKey == "" {
		return nil, missingRequiredField("secrets.privateKey")
	}

	payload, err := buildOzowPayload(req)
	if err != nil {
		return nil, err
	}
	payload["HashCheck"] = buildOzowHashCheck(payload, req.Secrets.PrivateKey)

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("ozow payload encode: %w", err)
	}

	endpoint := a.baseURL(req.TestMode) + "/PostPaymentRequest"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ozow request: %w", err)
	}
	httpReq.Header.Set("ApiKey", req.Secrets.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ozow payment request: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	var decoded map[string]any
	_ = json.Unmarshal(raw, &decoded)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := firstStringField(decoded, "ErrorMessage", "errorMessage")
		if message == "" {
			message = resp.Status
		}
		return nil, providerError(ProviderOzow, "payment request failed: "+message)
	}

	paymentURL := firstStringField(decoded, "PaymentUrl", "paymentUrl")
	if paymentURL == "" {
		return nil, providerError(ProviderOzow, "payment response missing PaymentUrl")
	}

	return &PaymentResponse{
		Provider:         ProviderOzow,
		RedirectURL:      paymentURL,
		Method:           http.MethodGet,
		PaymentRequestID: firstStringField(decoded, "PaymentRequestId", "paymentRequestId"),
		Raw:              decoded,
	}, nil
}

// VerifyWebhook recomputes the notification hash over the response
// field order and compares it to the received HashCheck. Both sides are
// compared lowercased with leading zeros stripped; Ozow's own samples
// validate that way, so this stays as a compatibility requirement.
func (a *OzowAdapter) VerifyWebhook(input WebhookInput) WebhookVerifyResult {
	if input.Secrets.PrivateKey == "" {
		return WebhookVerifyResult{Provider: ProviderOzow, Reason: "missing_private_key"}
	}

	payload, err := decodeWebhookForm(input.RawBody)
	if err != nil || len(payload) == 0 {
		return WebhookVerifyResult{Provider: ProviderOzow, Reason: "missing_payload"}
	}

	received := payload["HashCheck"]
	if received == "" {
		received = payload["hashCheck"]
	}
	if received == "" {
		return WebhookVerifyResult{Provider: ProviderOzow, Reason: "missing_hash_check"}
	}

	var b strings.Builder
	for _, key := range ozowResponseOrder {
		b.WriteString(payload[key])
	}
	b.WriteString(input.Secrets.PrivateKey)
	computed := sha512Hex(strings.ToLower(b.String()))

	if normalizeHash(received) != normalizeHash(computed) {
		return WebhookVerifyResult{Provider: ProviderOzow, Reason: "hash_mismatch"}
	}
	return WebhookVerifyResult{Provider: ProviderOzow, Valid: true}
}

func normalizeHash(value string) string {
	return strings.ToLower(strings.TrimLeft(value, "0"))
}

func (a *OzowAdapter) ParseWebhook(input WebhookInput) (*WebhookResult, error) {
	verified := a.VerifyWebhook(input)

	payload, err := decodeWebhookForm(input.RawBody)
	if err != nil {
		return nil, providerError(ProviderOzow, "webhook body is not form-encoded")
	}
	event := mapOzowEvent(payload)

	return &WebhookResult{
		Provider: ProviderOzow,
		Valid:    verified.Valid,
		Reason:   verified.Reason,
		Event:    event,
		Raw:      payload,
	}, nil
}

// VerifyPayment looks a transaction up by merchant reference.
func (a *OzowAdapter) VerifyPayment(ctx context.Context, input VerifyInput) (*VerificationResult, error) {
	if input.Reference == "" {
		return nil, missingRequiredField("reference")
	}
	params := url.Values{}
	params.Set("transactionReference", input.Reference)
	return a.fetchTransaction(ctx, "/GetTransactionByReference", params, input.Secrets, input.TestMode)
}

// GetTransaction looks a transaction up by Ozow's own transaction id.
func (a *OzowAdapter) GetTransaction(ctx context.Context, transactionID string, secrets Secrets, testMode bool) (*VerificationResult, error) {
	if transactionID == "" {
		return nil, missingRequiredField("transactionId")
	}
	params := url.Values{}
	params.Set("transactionId", transactionID)
	return a.fetchTransaction(ctx, "/GetTransaction", params, secrets, testMode)
}

func (a *OzowAdapter) fetchTransaction(ctx context.Context, path string, params url.Values, secrets Secrets, testMode bool) (*VerificationResult, error) {
	if secrets.SiteCode == "" {
		return nil, missingRequiredField("secrets.siteCode")
	}
	if secrets.APIKey == "" {
		return nil, missingRequiredField("secrets.apiKey")
	}

	query := url.Values{}
	query.Set("siteCode", secrets.SiteCode)
	for key, values := range params {
		query.Set(key, values[0])
	}
	if testMode {
		query.Set("isTest", "true")
	}

	endpoint := a.baseURL(testMode) + path + "?" + query.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("ozow request: %w", err)
	}
	httpReq.Header.Set("ApiKey", secrets.APIKey)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ozow transaction lookup: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, providerError(ProviderOzow, "verify failed: "+resp.Status)
	}

	var transactions []map[string]any
	if err := json.Unmarshal(raw, &transactions); err != nil {
		// A single-object response still counts; the reference
		// endpoint returns an array, GetTransaction an object.
		var single map[string]any
		if err := json.Unmarshal(raw, &single); err != nil {
			return nil, providerError(ProviderOzow, "verify response is not JSON")
		}
		transactions = []map[string]any{single}
	}

	result := &VerificationResult{Provider: ProviderOzow, Status: StatusUnknown, Raw: transactions}
	if len(transactions) == 0 || transactions[0] == nil {
		return result, nil
	}

	transaction := transactions[0]
	result.ProviderRef = firstStringField(transaction, "TransactionId", "transactionId")

	switch strings.ToLower(firstStringField(transaction, "Status", "status")) {
	case "complete":
		result.Status = StatusPaid
	case "cancelled", "error":
		result.Status = StatusFailed
	case "":
		result.Status = StatusUnknown
	default:
		result.Status = StatusPending
	}
	return result, nil
}

func firstStringField(data map[string]any, keys ...string) string {
	for _, key := range keys {
		if value := stringField(data, key); value != "" {
			return value
		}
	}
	return ""
}
