package payments

import (
	"fmt"
	"strings"
)

// ErrorCode classifies adapter failures so callers can branch on kind
// instead of matching message text.
type ErrorCode string

const (
	ErrCodeMissingRequiredField  ErrorCode = "missing_required_field"
	ErrCodeUnsupportedCurrency   ErrorCode = "unsupported_currency"
	ErrCodeInvalidProviderData   ErrorCode = "invalid_provider_data"
	ErrCodeInvalidSignature      ErrorCode = "invalid_signature"
	ErrCodeUnsupportedCapability ErrorCode = "unsupported_capability"
	ErrCodeInvalidAmount         ErrorCode = "invalid_amount"
	ErrCodeProvider              ErrorCode = "provider_error"
)

// Error is the typed failure shape for validation and provider errors.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ErrorCodeOf extracts the code from err, or "" for untyped errors.
func ErrorCodeOf(err error) ErrorCode {
	if pe, ok := err.(*Error); ok {
		return pe.Code
	}
	return ""
}

func missingRequiredField(name string) *Error {
	return &Error{
		Code:    ErrCodeMissingRequiredField,
		Message: fmt.Sprintf("%s is required", name),
	}
}

func unsupportedCurrency(provider Provider, currency string, supported []string) *Error {
	return &Error{
		Code: ErrCodeUnsupportedCurrency,
		Message: fmt.Sprintf("%s only supports %s. Received: %s",
			provider, strings.Join(supported, ", "), currency),
	}
}

func invalidProviderData(message string) *Error {
	return &Error{Code: ErrCodeInvalidProviderData, Message: message}
}

func invalidSignature(provider Provider, reason string) *Error {
	msg := fmt.Sprintf("%s webhook signature verification failed", provider)
	if reason != "" {
		msg = fmt.Sprintf("%s: %s", msg, reason)
	}
	return &Error{Code: ErrCodeInvalidSignature, Message: msg}
}

func unsupportedCapability(provider Provider, capability string) *Error {
	return &Error{
		Code:    ErrCodeUnsupportedCapability,
		Message: fmt.Sprintf("%s is not supported for %s", capability, provider),
	}
}

func invalidAmount(err error) *Error {
	return &Error{Code: ErrCodeInvalidAmount, Message: err.Error()}
}

func providerError(provider Provider, message string) *Error {
	return &Error{
		Code:    ErrCodeProvider,
		Message: fmt.Sprintf("%s: %s", provider, message),
	}
}
