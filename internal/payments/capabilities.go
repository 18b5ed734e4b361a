package payments

import "strings"

// Capabilities is the static per-provider metadata consulted before a
// request is built. An empty Currencies slice means the provider takes
// any currency.
type Capabilities struct {
	Currencies            []string
	RequiresCustomerEmail bool
	SupportsVerify        bool
	SupportsWebhooks      bool
	SupportsSubscriptions bool
	SupportsPlans         bool
}

var providerCapabilities = map[Provider]Capabilities{
	ProviderOzow: {
		Currencies:       []string{"ZAR"},
		SupportsVerify:   true,
		SupportsWebhooks: true,
	},
	ProviderPayfast: {
		Currencies:       []string{"ZAR"},
		SupportsWebhooks: true,
	},
	ProviderPaystack: {
		RequiresCustomerEmail: true,
		SupportsVerify:        true,
		SupportsWebhooks:      true,
		SupportsSubscriptions: true,
		SupportsPlans:         true,
	},
}

// CapabilitiesFor returns the capability record for provider. The
// second result is false for unknown providers.
func CapabilitiesFor(provider Provider) (Capabilities, bool) {
	caps, ok := providerCapabilities[provider]
	return caps, ok
}

// RequireSupportedCurrency rejects a currency outside the provider's
// fixed set. Comparison is case-insensitive and the error names the
// supported set so the caller can fix the request without a docs trip.
func RequireSupportedCurrency(provider Provider, currency string) error {
	caps := providerCapabilities[provider]
	if len(caps.Currencies) == 0 {
		return nil
	}
	normalized := strings.ToUpper(currency)
	for _, supported := range caps.Currencies {
		if strings.ToUpper(supported) == normalized {
			return nil
		}
	}
	return unsupportedCurrency(provider, currency, caps.Currencies)
}

// RequireCustomerEmail enforces the provider's email requirement before
// any network call.
func RequireCustomerEmail(provider Provider, customer *Customer) error {
	if !providerCapabilities[provider].RequiresCustomerEmail {
		return nil
	}
	if customer == nil || customer.Email == "" {
		return missingRequiredField("customer.email")
	}
	return nil
}

// RequireVerifySupport gates reference-based verification.
func RequireVerifySupport(provider Provider) error {
	if providerCapabilities[provider].SupportsVerify {
		return nil
	}
	return unsupportedCapability(provider, "payment verification")
}

// RequireSubscriptionSupport gates subscription creation.
func RequireSubscriptionSupport(provider Provider) error {
	if providerCapabilities[provider].SupportsSubscriptions {
		return nil
	}
	return unsupportedCapability(provider, "subscriptions")
}

// RequirePlanSupport gates subscription-plan creation.
func RequirePlanSupport(provider Provider) error {
	if providerCapabilities[provider].SupportsPlans {
		return nil
	}
	return unsupportedCapability(provider, "subscription plans")
}
