package payments

import (
	"strconv"
	"strings"

	"stash/internal/form"
	"stash/internal/money"
)

// EventType is the canonical webhook event taxonomy. Provider-native
// vocabularies are mapped onto it literally, never passed through.
type EventType string

const (
	EventPaymentCompleted        EventType = "payment.completed"
	EventPaymentFailed           EventType = "payment.failed"
	EventPaymentCancelled        EventType = "payment.cancelled"
	EventSubscriptionCreated     EventType = "subscription.created"
	EventSubscriptionDisabled    EventType = "subscription.disabled"
	EventSubscriptionNotRenewing EventType = "subscription.not_renewing"
	EventInvoiceCreated          EventType = "invoice.created"
	EventInvoiceUpdated          EventType = "invoice.updated"
	EventInvoicePaymentFailed    EventType = "invoice.payment_failed"
)

// Event is the provider-agnostic representation of a notification.
type Event struct {
	Type EventType `json:"type"`
	Data EventData `json:"data"`
}

// EventData carries consistent field names across providers. Amount,
// when present, is always in major units.
type EventData struct {
	Provider         Provider `json:"provider"`
	Reference        string   `json:"reference,omitempty"`
	ProviderRef      string   `json:"provider_ref,omitempty"`
	Amount           *float64 `json:"amount,omitempty"`
	Currency         string   `json:"currency,omitempty"`
	SubscriptionCode string   `json:"subscription_code,omitempty"`
	CustomerCode     string   `json:"customer_code,omitempty"`
	PlanCode         string   `json:"plan_code,omitempty"`
	InvoiceCode      string   `json:"invoice_code,omitempty"`
	Status           string   `json:"status,omitempty"`
	Raw              any      `json:"raw"`
}

func decodeWebhookForm(rawBody []byte) (map[string]string, error) {
	pairs, err := form.Decode(string(rawBody))
	if err != nil {
		return nil, err
	}
	return form.ToMap(pairs), nil
}

func mapPayfastEvent(payload map[string]string) Event {
	var eventType EventType
	switch strings.ToUpper(payload["payment_status"]) {
	case "COMPLETE":
		eventType = EventPaymentCompleted
	case "CANCELLED":
		eventType = EventPaymentCancelled
	default:
		eventType = EventPaymentFailed
	}

	data := EventData{
		Provider:    ProviderPayfast,
		Reference:   payload["m_payment_id"],
		ProviderRef: payload["pf_payment_id"],
		Raw:         payload,
	}
	if gross := payload["amount_gross"]; gross != "" {
		if amount, err := strconv.ParseFloat(gross, 64); err == nil {
			data.Amount = &amount
			data.Currency = "ZAR"
		}
	}

	return Event{Type: eventType, Data: data}
}

func mapOzowEvent(payload map[string]string) Event {
	var eventType EventType
	switch strings.ToLower(payload["Status"]) {
	case "complete":
		eventType = EventPaymentCompleted
	case "cancelled":
		eventType = EventPaymentCancelled
	default:
		eventType = EventPaymentFailed
	}

	data := EventData{
		Provider:    ProviderOzow,
		Reference:   payload["TransactionReference"],
		ProviderRef: payload["TransactionId"],
		Currency:    payload["CurrencyCode"],
		Raw:         payload,
	}
	if raw := payload["Amount"]; raw != "" {
		if amount, err := strconv.ParseFloat(raw, 64); err == nil {
			data.Amount = &amount
		}
	}

	return Event{Type: eventType, Data: data}
}

// paystackSubscriptionEvents maps Paystack's native event names onto
// the canonical subscription/invoice taxonomy.
var paystackSubscriptionEvents = map[string]EventType{
	"subscription.create":    EventSubscriptionCreated,
	"subscription.disable":   EventSubscriptionDisabled,
	"subscription.not_renew": EventSubscriptionNotRenewing,
	"invoice.create":         EventInvoiceCreated,
	"invoice.update":         EventInvoiceUpdated,
	"invoice.payment_failed": EventInvoicePaymentFailed,
}

func mapPaystackEvent(payload map[string]any) Event {
	eventName := strings.ToLower(stringField(payload, "event"))
	data, _ := payload["data"].(map[string]any)
	currency := stringField(data, "currency")
	amount := paystackMajorAmount(data["amount"], currency)

	if eventType, ok := paystackSubscriptionEvents[eventName]; ok {
		return Event{
			Type: eventType,
			Data: EventData{
				Provider:         ProviderPaystack,
				SubscriptionCode: nestedCode(data, "subscription", "subscription_code"),
				CustomerCode:     nestedCode(data, "customer", "customer_code"),
				PlanCode:         nestedCode(data, "plan", "plan_code"),
				InvoiceCode:      nestedCode(data, "invoice", "invoice_code"),
				Status:           stringField(data, "status"),
				Amount:           amount,
				Currency:         currency,
				Raw:              payload,
			},
		}
	}

	eventType := EventPaymentFailed
	if eventName == "charge.success" {
		eventType = EventPaymentCompleted
	}

	return Event{
		Type: eventType,
		Data: EventData{
			Provider:    ProviderPaystack,
			Reference:   stringField(data, "reference"),
			ProviderRef: stringField(data, "id"),
			Amount:      amount,
			Currency:    currency,
			Raw:         payload,
		},
	}
}

// paystackMajorAmount converts a raw JSON amount (native minor units,
// number or string) to major units.
func paystackMajorAmount(raw any, currency string) *float64 {
	if raw == nil {
		return nil
	}
	minor, err := money.ParseMinorUnits(toStringValue(raw))
	if err != nil {
		return nil
	}
	major := money.FromMinorUnits(minor, currency)
	return &major
}

// nestedCode reads data[object][key] when the provider expands the
// object, falling back to the flat data[key] form.
func nestedCode(data map[string]any, object, key string) string {
	if nested, ok := data[object].(map[string]any); ok {
		if code := stringField(nested, key); code != "" {
			return code
		}
	}
	return stringField(data, key)
}

func stringField(data map[string]any, key string) string {
	if data == nil {
		return ""
	}
	value, ok := data[key]
	if !ok || value == nil {
		return ""
	}
	return toStringValue(value)
}
