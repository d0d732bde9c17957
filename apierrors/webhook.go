package apierrors

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"git.home.luguber.info/inful/commerceapi/internal/logfields"
)

// WebhookResponse is the reply the webhook validator prepared for the
// platform. It is adapter neutral: any HTTP framework can replay it.
type WebhookResponse struct {
	StatusCode int         `json:"status_code"`
	StatusText string      `json:"status_text,omitempty"`
	Headers    http.Header `json:"headers,omitempty"`
	Body       string      `json:"body,omitempty"`
}

func (r WebhookResponse) clone() WebhookResponse {
	r.Headers = r.Headers.Clone()
	return r
}

// InvalidWebhookParams holds everything needed to build a webhook failure.
type InvalidWebhookParams struct {
	Message  string
	Response WebhookResponse
}

// InvalidWebhookError reports an inbound webhook that failed validation. Its
// kind is KindInvalidWebhook or KindMissingWebhookCallback.
type InvalidWebhookError struct {
	base
	response WebhookResponse
}

// NewInvalidWebhook reports a webhook that failed signature or shape validation.
func NewInvalidWebhook(p InvalidWebhookParams) *InvalidWebhookError {
	return &InvalidWebhookError{base: newBase(KindInvalidWebhook, p.Message), response: p.Response.clone()}
}

// NewMissingWebhookCallback reports a webhook topic without a registered handler.
func NewMissingWebhookCallback(p InvalidWebhookParams) *InvalidWebhookError {
	return &InvalidWebhookError{base: newBase(KindMissingWebhookCallback, p.Message), response: p.Response.clone()}
}

// Response returns a copy of the prepared reply.
func (e *InvalidWebhookError) Response() WebhookResponse { return e.response.clone() }

// Reply writes the prepared reply to w.
func (e *InvalidWebhookError) Reply(w http.ResponseWriter) error {
	for key, values := range e.response.Headers {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}
	w.WriteHeader(e.replyStatus())
	if e.response.Body == "" {
		return nil
	}
	_, err := w.Write([]byte(e.response.Body))
	return err
}

// replyStatus is the prepared status when net/http accepts it, and the
// kind's catalog status otherwise.
func (e *InvalidWebhookError) replyStatus() int {
	if code := e.response.StatusCode; code >= 100 && code <= 999 {
		return code
	}
	d, _ := Describe(e.kind)
	return d.Status
}

// WithCause returns a copy of e wrapping cause.
func (e *InvalidWebhookError) WithCause(cause error) *InvalidWebhookError {
	c := *e
	c.cause = cause
	return &c
}

// LogValue implements slog.LogValuer.
func (e *InvalidWebhookError) LogValue() slog.Value {
	attrs := append(e.logAttrs(), logfields.Status(e.response.StatusCode))
	return slog.GroupValue(attrs...)
}

// MarshalJSON implements json.Marshaler.
func (e *InvalidWebhookError) MarshalJSON() ([]byte, error) {
	env := e.envelope()
	env.Response = e.response
	return json.Marshal(env)
}
