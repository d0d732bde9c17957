package apierrors

import (
	"encoding/json"
	"log/slog"
	"math"
	"time"

	"git.home.luguber.info/inful/commerceapi/internal/logfields"
)

// ResponseData describes the response behind an HTTP-family failure. Body and
// Headers are nil when the producer could not obtain them.
type ResponseData struct {
	Code       int     `json:"code"`
	StatusText string  `json:"status_text"`
	Body       Payload `json:"body,omitempty"`
	Headers    Payload `json:"headers,omitempty"`
}

func (r ResponseData) clone() ResponseData {
	r.Body = r.Body.Clone()
	r.Headers = r.Headers.Clone()
	return r
}

// ThrottlingData is ResponseData plus the server's retry hint in seconds.
type ThrottlingData struct {
	ResponseData
	RetryAfter *float64 `json:"retry_after,omitempty"`
}

// Seconds returns a pointer to v, for HTTPThrottlingParams.RetryAfter.
func Seconds(v float64) *float64 { return &v }

// HTTPResponseParams holds everything needed to build an HTTP-family failure.
type HTTPResponseParams struct {
	Message    string
	Code       int
	StatusText string
	Body       Payload
	Headers    Payload
}

// HTTPThrottlingParams holds everything needed to build a throttling failure.
type HTTPThrottlingParams struct {
	Message    string
	Code       int
	StatusText string
	Body       Payload
	Headers    Payload
	RetryAfter *float64 // seconds; nil when the server sent no hint
}

// HTTPResponseError is a failure backed by a non-success HTTP response. Its
// kind is one of KindHTTPResponse, KindHTTPRetriable, KindHTTPInternal or
// KindHTTPThrottling.
type HTTPResponseError struct {
	base
	response   ResponseData
	retryAfter *float64
}

func newHTTPResponse(kind Kind, p HTTPResponseParams, retryAfter *float64) *HTTPResponseError {
	e := &HTTPResponseError{
		base: newBase(kind, p.Message),
		response: ResponseData{
			Code:       p.Code,
			StatusText: p.StatusText,
			Body:       p.Body.Clone(),
			Headers:    p.Headers.Clone(),
		},
	}
	e.retryAfter = clampRetryAfter(retryAfter)
	return e
}

// NewHTTPResponse reports a non-success response that is not retry-eligible.
func NewHTTPResponse(p HTTPResponseParams) *HTTPResponseError {
	return newHTTPResponse(KindHTTPResponse, p, nil)
}

// NewHTTPRetriable reports a non-success response the caller may retry.
func NewHTTPRetriable(p HTTPResponseParams) *HTTPResponseError {
	return newHTTPResponse(KindHTTPRetriable, p, nil)
}

// NewHTTPInternal reports a 5xx response.
func NewHTTPInternal(p HTTPResponseParams) *HTTPResponseError {
	return newHTTPResponse(KindHTTPInternal, p, nil)
}

// NewHTTPThrottling reports a 429 response with an optional retry hint.
func NewHTTPThrottling(p HTTPThrottlingParams) *HTTPResponseError {
	return newHTTPResponse(KindHTTPThrottling, HTTPResponseParams{
		Message:    p.Message,
		Code:       p.Code,
		StatusText: p.StatusText,
		Body:       p.Body,
		Headers:    p.Headers,
	}, p.RetryAfter)
}

// Response returns a copy of the response data.
func (e *HTTPResponseError) Response() ResponseData {
	return e.response.clone()
}

// Throttling returns a copy of the response data with the retry hint. The hint
// is nil for every kind other than KindHTTPThrottling.
func (e *HTTPResponseError) Throttling() ThrottlingData {
	td := ThrottlingData{ResponseData: e.response.clone()}
	if e.retryAfter != nil {
		v := *e.retryAfter
		td.RetryAfter = &v
	}
	return td
}

// StatusCode returns the HTTP status code of the response.
func (e *HTTPResponseError) StatusCode() int { return e.response.Code }

// RetryAfter returns the server's retry hint as a duration.
func (e *HTTPResponseError) RetryAfter() (time.Duration, bool) {
	v := clampRetryAfter(e.retryAfter)
	if v == nil {
		return 0, false
	}
	return time.Duration(*v * float64(time.Second)), true
}

// maxRetryAfterSeconds is the longest hint that still fits a time.Duration.
var maxRetryAfterSeconds = math.Floor(float64(math.MaxInt64) / float64(time.Second))

// clampRetryAfter returns a copy of v bounded to [0, maxRetryAfterSeconds].
// NaN and infinite hints count as absent.
func clampRetryAfter(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	secs := min(max(*v, 0), maxRetryAfterSeconds)
	return &secs
}

// WithCause returns a copy of e wrapping cause.
func (e *HTTPResponseError) WithCause(cause error) *HTTPResponseError {
	c := *e
	c.cause = cause
	return &c
}

// LogValue implements slog.LogValuer. Bodies and headers are left out.
func (e *HTTPResponseError) LogValue() slog.Value {
	attrs := append(e.logAttrs(),
		logfields.Status(e.response.Code),
		slog.String("status_text", e.response.StatusText),
	)
	if e.retryAfter != nil {
		attrs = append(attrs, logfields.RetryAfter(*e.retryAfter))
	}
	return slog.GroupValue(attrs...)
}

// MarshalJSON implements json.Marshaler.
func (e *HTTPResponseError) MarshalJSON() ([]byte, error) {
	env := e.envelope()
	if e.kind == KindHTTPThrottling {
		env.Response = e.Throttling()
	} else {
		env.Response = e.response
	}
	return json.Marshal(env)
}
