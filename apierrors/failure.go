package apierrors

import (
	"encoding/json"
	"log/slog"

	"git.home.luguber.info/inful/commerceapi/internal/logfields"
)

// Error is the root of the taxonomy. Only this package implements it; every
// value returned by a constructor here satisfies it.
type Error interface {
	error

	// Kind returns the variant tag.
	Kind() Kind

	// Category returns the category of the variant.
	Category() Category

	// Message returns the message given at construction.
	Message() string

	failure()
}

// base carries what every variant has: its tag, its message and an optional cause.
type base struct {
	kind    Kind
	message string
	cause   error
}

func newBase(kind Kind, message string) base {
	if message == "" {
		d, _ := Describe(kind)
		message = d.Message
	}
	return base{kind: kind, message: message}
}

func (base) failure() {}

// Kind returns the variant tag.
func (b base) Kind() Kind { return b.kind }

// Category returns the category of the variant.
func (b base) Category() Category { return b.kind.Category() }

// Message returns the message given at construction.
func (b base) Message() string { return b.message }

// Error implements the error interface.
func (b base) Error() string {
	if b.cause != nil {
		return b.message + ": " + b.cause.Error()
	}
	return b.message
}

// Unwrap returns the cause, if any.
func (b base) Unwrap() error { return b.cause }

// Is reports whether target is a Kind this failure belongs to.
func (b base) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && b.kind.IsA(k)
}

func (b base) logAttrs() []slog.Attr {
	attrs := []slog.Attr{
		logfields.Kind(string(b.kind)),
		logfields.Category(string(b.kind.Category())),
		slog.String("message", b.message),
	}
	if b.cause != nil {
		attrs = append(attrs, logfields.Cause(b.cause))
	}
	return attrs
}

// envelope is the JSON shape shared by all variants.
type envelope struct {
	Kind      Kind     `json:"kind"`
	Category  Category `json:"category"`
	Message   string   `json:"message"`
	Retryable bool     `json:"retryable"`
	Cause     string   `json:"cause,omitempty"`
	Response  any      `json:"response,omitempty"`
	Headers   Payload  `json:"headers,omitempty"`
	Body      Payload  `json:"body,omitempty"`
	ErrorData any      `json:"error_data,omitempty"`
}

func (b base) envelope() envelope {
	env := envelope{
		Kind:      b.kind,
		Category:  b.kind.Category(),
		Message:   b.message,
		Retryable: b.kind.IsA(KindHTTPRetriable),
	}
	if b.cause != nil {
		env.Cause = b.cause.Error()
	}
	return env
}

// Failure is a variant without payload.
type Failure struct {
	base
}

// WithCause returns a copy of f wrapping cause.
func (f *Failure) WithCause(cause error) *Failure {
	c := *f
	c.cause = cause
	return &c
}

// LogValue implements slog.LogValuer.
func (f *Failure) LogValue() slog.Value {
	return slog.GroupValue(f.logAttrs()...)
}

// MarshalJSON implements json.Marshaler.
func (f *Failure) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.envelope())
}

func newFailure(kind Kind, message string) *Failure {
	return &Failure{base: newBase(kind, message)}
}

// NewInvalidHMAC reports a request whose HMAC signature did not validate.
func NewInvalidHMAC(message string) *Failure { return newFailure(KindInvalidHMAC, message) }

// NewInvalidShop reports a shop domain that failed validation.
func NewInvalidShop(message string) *Failure { return newFailure(KindInvalidShop, message) }

// NewInvalidHost reports a host parameter that failed validation.
func NewInvalidHost(message string) *Failure { return newFailure(KindInvalidHost, message) }

// NewInvalidJWT reports a session token that failed validation.
func NewInvalidJWT(message string) *Failure { return newFailure(KindInvalidJWT, message) }

// NewMissingJWTToken reports a request without the expected session token.
func NewMissingJWTToken(message string) *Failure { return newFailure(KindMissingJWTToken, message) }

// NewInvalidDeliveryMethod reports a webhook delivery method that is not supported.
func NewInvalidDeliveryMethod(message string) *Failure {
	return newFailure(KindInvalidDeliveryMethod, message)
}

// NewSafeCompare reports a constant-time comparison called with incompatible inputs.
func NewSafeCompare(message string) *Failure { return newFailure(KindSafeCompare, message) }

// NewPrivateApp reports an operation that is invalid for a private app installation.
func NewPrivateApp(message string) *Failure { return newFailure(KindPrivateApp, message) }

// NewHTTPRequest reports a request that never produced a response.
func NewHTTPRequest(message string) *Failure { return newFailure(KindHTTPRequest, message) }

// NewHTTPMaxRetries reports an exhausted retry budget. It is terminal.
func NewHTTPMaxRetries(message string) *Failure { return newFailure(KindHTTPMaxRetries, message) }

// NewRestResource reports a REST resource model operation that failed.
func NewRestResource(message string) *Failure { return newFailure(KindRestResource, message) }

// NewInvalidOAuth reports an OAuth handshake that failed validation.
func NewInvalidOAuth(message string) *Failure { return newFailure(KindInvalidOAuth, message) }

// NewBotActivityDetected reports traffic flagged as automated.
func NewBotActivityDetected(message string) *Failure {
	return newFailure(KindBotActivityDetected, message)
}

// NewCookieNotFound reports a missing session cookie.
func NewCookieNotFound(message string) *Failure { return newFailure(KindCookieNotFound, message) }

// NewInvalidSession reports a session that could not be validated.
func NewInvalidSession(message string) *Failure { return newFailure(KindInvalidSession, message) }

// NewSessionStorage reports a failed read or write in a session storage backend.
func NewSessionStorage(message string) *Failure { return newFailure(KindSessionStorage, message) }

// NewMissingRequiredArgument reports a required input the caller did not supply.
func NewMissingRequiredArgument(message string) *Failure {
	return newFailure(KindMissingRequiredArgument, message)
}

// NewInvalidRequest reports a malformed request built by the caller.
func NewInvalidRequest(message string) *Failure { return newFailure(KindInvalidRequest, message) }

// NewUnsupportedClientType reports an operation invoked on an incompatible client.
func NewUnsupportedClientType(message string) *Failure {
	return newFailure(KindUnsupportedClientType, message)
}

// NewFeatureDeprecated reports use of a removed capability.
func NewFeatureDeprecated(message string) *Failure {
	return newFailure(KindFeatureDeprecated, message)
}
