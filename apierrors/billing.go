package apierrors

import (
	"encoding/json"
	"log/slog"
)

// BillingParams holds everything needed to build a billing failure.
type BillingParams struct {
	Message   string
	ErrorData any // shape owned by the billing subsystem
}

// BillingError reports a failed billing subscription operation. ErrorData is
// opaque here; the billing helpers decide what it contains.
type BillingError struct {
	base
	errorData any
}

// NewBilling builds a billing failure.
func NewBilling(p BillingParams) *BillingError {
	return &BillingError{base: newBase(KindBilling, p.Message), errorData: cloneValue(p.ErrorData)}
}

// ErrorData returns a copy of the billing payload.
func (e *BillingError) ErrorData() any { return cloneValue(e.errorData) }

// WithCause returns a copy of e wrapping cause.
func (e *BillingError) WithCause(cause error) *BillingError {
	c := *e
	c.cause = cause
	return &c
}

// LogValue implements slog.LogValuer. The payload is left out.
func (e *BillingError) LogValue() slog.Value {
	return slog.GroupValue(e.logAttrs()...)
}

// MarshalJSON implements json.Marshaler.
func (e *BillingError) MarshalJSON() ([]byte, error) {
	env := e.envelope()
	env.ErrorData = e.errorData
	return json.Marshal(env)
}
