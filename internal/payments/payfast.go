package payments

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"stash/internal/form"
)

// payfastFieldOrder is the fixed Payfast field vocabulary. Signatures
// traverse it in exactly this order.
var payfastFieldOrder = []string{
	"merchant_id",
	"merchant_key",
	"return_url",
	"cancel_url",
	"notify_url",
	"fica_id_number",
	"name_first",
	"name_last",
	"email_address",
	"cell_number",
	"m_payment_id",
	"amount",
	"item_name",
	"item_description",
	"custom_int1",
	"custom_int2",
	"custom_int3",
	"custom_int4",
	"custom_int5",
	"custom_str1",
	"custom_str2",
	"custom_str3",
	"custom_str4",
	"custom_str5",
	"email_confirmation",
	"confirmation_address",
	"payment_method",
	"subscription_type",
	"billing_date",
	"recurring_amount",
	"frequency",
	"cycles",
	"subscription_notify_email",
	"subscription_notify_webhook",
	"subscription_notify_buyer",
	"setup",
	"token",
	"return",
}

var payfastAllowedFields = func() map[string]bool {
	allowed := make(map[string]bool, len(payfastFieldOrder)+1)
	for _, field := range payfastFieldOrder {
		allowed[field] = true
	}
	allowed["signature"] = true
	return allowed
}()

// signature is never signed; setup is excluded by Payfast's spec.
var payfastSignatureExclusions = map[string]bool{
	"signature": true,
	"setup":     true,
}

// payfastValidHosts is Payfast's published ITN source host set.
var payfastValidHosts = []string{
	"www.payfast.co.za",
	"sandbox.payfast.co.za",
	"w1w.payfast.co.za",
	"w2w.payfast.co.za",
}

const (
	payfastLiveURL    = "https://www.payfast.co.za"
	payfastSandboxURL = "https://sandbox.payfast.co.za"
)

// PayfastAdapter implements the form-submission flow: the signed field
// set is returned to the caller, which POSTs it from the buyer's
// browser. Building is pure; only ITN server validation touches the
// network.
type PayfastAdapter struct {
	client *http.Client

	// Endpoint and DNS overrides for tests.
	LiveURL    string
	SandboxURL string
	LookupHost func(host string) ([]string, error)
}

func NewPayfastAdapter(client *http.Client) *PayfastAdapter {
	if client == nil {
		client = http.DefaultClient
	}
	return &PayfastAdapter{client: client, LookupHost: net.LookupHost}
}

func (a *PayfastAdapter) ID() Provider { return ProviderPayfast }

func (a *PayfastAdapter) baseURL(testMode bool) string {
	if testMode {
		if a.SandboxURL != "" {
			return a.SandboxURL
		}
		return payfastSandboxURL
	}
	if a.LiveURL != "" {
		return a.LiveURL
	}
	return payfastLiveURL
}

func buildPayfastFields(req PaymentRequest) (map[string]string, error) {
	if req.Secrets.MerchantID == "" {
		return nil, missingRequiredField("secrets.merchantId")
	}
	if req.Secrets.MerchantKey == "" {
		return nil, missingRequiredField("secrets.merchantKey")
	}
	if req.Reference == "" {
		return nil, missingRequiredField("reference")
	}

	currency := NormalizeCurrency(req.Currency, DefaultCurrency)
	if err := RequireSupportedCurrency(ProviderPayfast, currency); err != nil {
		return nil, err
	}

	amount, err := formatRequestAmount(req)
	if err != nil {
		return nil, err
	}

	fields := map[string]string{
		"merchant_id":  req.Secrets.MerchantID,
		"merchant_key": req.Secrets.MerchantKey,
	}

	if req.URLs != nil {
		if req.URLs.ReturnURL != "" {
			fields["return_url"] = req.URLs.ReturnURL
		}
		if req.URLs.CancelURL != "" {
			fields["cancel_url"] = req.URLs.CancelURL
		}
		if req.URLs.NotifyURL != "" {
			fields["notify_url"] = req.URLs.NotifyURL
		}
	}

	if req.Customer != nil {
		if req.Customer.FirstName != "" {
			fields["name_first"] = req.Customer.FirstName
		}
		if req.Customer.LastName != "" {
			fields["name_last"] = req.Customer.LastName
		}
		if req.Customer.Email != "" {
			fields["email_address"] = req.Customer.Email
		}
		if req.Customer.Phone != "" {
			fields["cell_number"] = req.Customer.Phone
		}
	}

	fields["m_payment_id"] = req.Reference
	fields["amount"] = amount

	// item_name falls back through providerData, description, then the
	// merchant reference; providerOptions win over all of them.
	switch {
	case req.ProviderData["item_name"] != nil:
		fields["item_name"] = toStringValue(req.ProviderData["item_name"])
	case req.Description != "":
		fields["item_name"] = req.Description
	default:
		fields["item_name"] = req.Reference
	}
	if req.ProviderData["item_description"] != nil {
		fields["item_description"] = toStringValue(req.ProviderData["item_description"])
	}

	applyMetadataSlots(fields, req.Metadata, "custom_str")

	managed, err := applyPayfastOptions(fields, req.Options.Payfast, req.ProviderData)
	if err != nil {
		return nil, err
	}

	for key, value := range req.ProviderData {
		if !payfastAllowedFields[key] {
			return nil, invalidProviderData("unsupported Payfast field: " + key)
		}
		if value == nil {
			continue
		}
		if key == "signature" {
			continue
		}
		if managed[key] {
			return nil, invalidProviderData("providerData overlaps providerOptions: " + key)
		}
		fields[key] = toStringValue(value)
	}

	return fields, nil
}

func applyPayfastOptions(fields map[string]string, options *PayfastOptions, data ProviderData) (map[string]bool, error) {
	managed := map[string]bool{}
	if options == nil {
		return managed, nil
	}

	set := func(key, value string) {
		fields[key] = value
		managed[key] = true
	}

	if options.PaymentMethod != "" {
		set("payment_method", options.PaymentMethod)
	}
	if options.EmailConfirmation {
		set("email_confirmation", "1")
	}
	if options.ConfirmationAddress != "" {
		set("confirmation_address", options.ConfirmationAddress)
	}
	if options.MPaymentID != "" {
		set("m_payment_id", options.MPaymentID)
	}
	if options.ItemName != "" {
		set("item_name", options.ItemName)
	}
	if options.ItemDescription != "" {
		set("item_description", options.ItemDescription)
	}
	return managed, nil
}

// buildPayfastSignature joins the present fields in canonical order as
// encoded key=value pairs, appends the passphrase when set, and takes
// the MD5 hex digest. The signature travels inside the form, not as a
// header.
func buildPayfastSignature(fields map[string]string, passphrase string) string {
	var pairs []string
	for _, key := range payfastFieldOrder {
		if payfastSignatureExclusions[key] {
			continue
		}
		value := fields[key]
		if value == "" {
			continue
		}
		pairs = append(pairs, key+"="+form.EncodeValue(strings.TrimSpace(value)))
	}

	paramString := strings.Join(pairs, "&")
	if passphrase != "" {
		paramString += "&passphrase=" + form.EncodeValue(strings.TrimSpace(passphrase))
	}
	return md5Hex(paramString)
}

func (a *PayfastAdapter) CreatePayment(_ context.Context, req PaymentRequest) (*PaymentResponse, error) {
	fields, err := buildPayfastFields(req)
	if err != nil {
		return nil, err
	}
	fields["signature"] = buildPayfastSignature(fields, req.Secrets.Passphrase)

	return &PaymentResponse{
		Provider:    ProviderPayfast,
		RedirectURL: a.baseURL(req.TestMode) + "/eng/process",
		Method:      http.MethodPost,
		FormFields:  fields,
	}, nil
}

// payfastParamString reconstructs the signed parameter string from the
// received body pairs in arrival order, up to but excluding the
// signature field. Values are re-encoded from their decoded form
// rather than reusing whatever encoding the sender chose.
func payfastParamString(pairs []form.Pair, passphrase string) string {
	var params []string
	for _, p := range pairs {
		if p.Key == "signature" {
			break
		}
		params = append(params, p.Key+"="+form.EncodeValue(p.Value))
	}
	paramString := strings.Join(params, "&")
	if passphrase != "" {
		paramString += "&passphrase=" + form.EncodeValue(passphrase)
	}
	return paramString
}

// VerifyWebhook checks the ITN signature against the raw body.
func (a *PayfastAdapter) VerifyWebhook(input WebhookInput) WebhookVerifyResult {
	if len(input.RawBody) == 0 {
		return WebhookVerifyResult{Provider: ProviderPayfast, Reason: "raw_body_required"}
	}

	pairs, err := form.Decode(string(input.RawBody))
	if err != nil {
		return WebhookVerifyResult{Provider: ProviderPayfast, Reason: "malformed_body"}
	}

	signature := form.ToMap(pairs)["signature"]
	if signature == "" {
		return WebhookVerifyResult{Provider: ProviderPayfast, Reason: "missing_signature"}
	}

	computed := md5Hex(payfastParamString(pairs, input.Secrets.Passphrase))
	if !strings.EqualFold(signature, computed) {
		return WebhookVerifyResult{Provider: ProviderPayfast, Reason: "signature_mismatch"}
	}
	return WebhookVerifyResult{Provider: ProviderPayfast, Valid: true}
}

// PayfastValidateOptions toggles the independent ITN checks. Zero
// value runs the signature check only.
type PayfastValidateOptions struct {
	CheckSignature bool
	CheckSource    bool
	SourceIP       string
	// AllowedIPs replaces DNS resolution of Payfast's published hosts
	// when set.
	AllowedIPs  []string
	CheckServer bool
	TestMode    bool
}

// PayfastValidateResult reports the overall verdict and, on failure,
// which check rejected the notification.
type PayfastValidateResult struct {
	Valid       bool   `json:"valid"`
	FailedCheck string `json:"failed_check,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// ValidateWebhook runs the hardened ITN validation path: signature,
// source-IP, and server confirmation, each independently togglable.
func (a *PayfastAdapter) ValidateWebhook(ctx context.Context, input WebhookInput, opts PayfastValidateOptions) (*PayfastValidateResult, error) {
	if opts.CheckSignature {
		verified := a.VerifyWebhook(input)
		if !verified.Valid {
			return &PayfastValidateResult{FailedCheck: "signature", Reason: verified.Reason}, nil
		}
	}

	if opts.CheckSource {
		ok, err := a.sourceAllowed(opts)
		if err != nil {
			return nil, err
		}
		if !ok {
			return &PayfastValidateResult{FailedCheck: "source_ip", Reason: "source address not in Payfast host set"}, nil
		}
	}

	if opts.CheckServer {
		ok, err := a.confirmWithServer(ctx, input, opts.TestMode)
		if err != nil {
			return nil, err
		}
		if !ok {
			return &PayfastValidateResult{FailedCheck: "server", Reason: "Payfast validation endpoint did not answer VALID"}, nil
		}
	}

	return &PayfastValidateResult{Valid: true}, nil
}

func (a *PayfastAdapter) sourceAllowed(opts PayfastValidateOptions) (bool, error) {
	if opts.SourceIP == "" {
		return false, missingRequiredField("sourceIP")
	}

	allowed := opts.AllowedIPs
	if len(allowed) == 0 {
		lookup := a.LookupHost
		if lookup == nil {
			lookup = net.LookupHost
		}
		for _, host := range payfastValidHosts {
			addrs, err := lookup(host)
			if err != nil {
				// A host that fails to resolve narrows the set; it
				// does not abort validation.
				continue
			}
			allowed = append(allowed, addrs...)
		}
	}

	for _, addr := range allowed {
		if addr == opts.SourceIP {
			return true, nil
		}
	}
	return false, nil
}

func (a *PayfastAdapter) confirmWithServer(ctx context.Context, input WebhookInput, testMode bool) (bool, error) {
	pairs, err := form.Decode(string(input.RawBody))
	if err != nil {
		return false, providerError(ProviderPayfast, "webhook body is not form-encoded")
	}
	paramString := payfastParamString(pairs, "")

	endpoint := a.baseURL(testMode) + "/eng/query/validate"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(paramString))
	if err != nil {
		return false, fmt.Errorf("payfast validate request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return false, fmt.Errorf("payfast server validation: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	return strings.TrimSpace(string(body)) == "VALID", nil
}

func (a *PayfastAdapter) ParseWebhook(input WebhookInput) (*WebhookResult, error) {
	verified := a.VerifyWebhook(input)

	payload, err := decodeWebhookForm(input.RawBody)
	if err != nil {
		return nil, providerError(ProviderPayfast, "webhook body is not form-encoded")
	}
	event := mapPayfastEvent(payload)

	return &WebhookResult{
		Provider: ProviderPayfast,
		Valid:    verified.Valid,
		Reason:   verified.Reason,
		Event:    event,
		Raw:      payload,
	}, nil
}
