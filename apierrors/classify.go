package apierrors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"
)

// DefaultBodyLimit bounds how much of an error response body is kept.
const DefaultBodyLimit int64 = 64 << 10

// ResponseDescriptor is a materialized HTTP response as handed over by a
// transport.
type ResponseDescriptor struct {
	Code       int
	StatusText string
	Headers    http.Header
	Body       []byte
}

// ClassifierOptions configures a Classifier.
type ClassifierOptions struct {
	// BodyLimit caps the bytes read from a response body. Zero means DefaultBodyLimit.
	BodyLimit int64

	// RetriableStatuses are non-5xx statuses reported as KindHTTPRetriable.
	RetriableStatuses []int

	// Now is used to resolve HTTP-date Retry-After values. Defaults to time.Now.
	Now func() time.Time
}

// Classifier turns non-success responses into HTTP-family failures.
type Classifier struct {
	bodyLimit int64
	retriable []int
	now       func() time.Time
}

// NewClassifier creates a Classifier.
func NewClassifier(opts ClassifierOptions) *Classifier {
	c := &Classifier{
		bodyLimit: opts.BodyLimit,
		retriable: slices.Clone(opts.RetriableStatuses),
		now:       opts.Now,
	}
	if c.bodyLimit <= 0 {
		c.bodyLimit = DefaultBodyLimit
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Classify returns nil for responses below 400 and an HTTP-family failure
// otherwise. The body is read up to the configured limit; closing it stays
// with the caller.
func (c *Classifier) Classify(resp *http.Response) error {
	if resp == nil {
		return NewHTTPRequest("no response received")
	}
	if resp.StatusCode < http.StatusBadRequest {
		return nil
	}

	var raw []byte
	var readErr error
	if resp.Body != nil {
		raw, readErr = io.ReadAll(io.LimitReader(resp.Body, c.bodyLimit))
	}

	err := c.classify(ResponseDescriptor{
		Code:       resp.StatusCode,
		StatusText: statusText(resp),
		Headers:    resp.Header,
		Body:       raw,
	})
	if readErr != nil {
		err = err.WithCause(fmt.Errorf("read response body: %w", readErr))
	}
	return err
}

// ClassifyDescriptor is Classify for an already buffered response.
func (c *Classifier) ClassifyDescriptor(d ResponseDescriptor) error {
	if d.Code < http.StatusBadRequest {
		return nil
	}
	if int64(len(d.Body)) > c.bodyLimit {
		d.Body = d.Body[:c.bodyLimit]
	}
	if d.StatusText == "" {
		d.StatusText = http.StatusText(d.Code)
	}
	return c.classify(d)
}

func (c *Classifier) classify(d ResponseDescriptor) *HTTPResponseError {
	body := decodeBody(d.Body)
	p := HTTPResponseParams{
		Message:    responseMessage(d.Code, d.StatusText, body, d.Headers),
		Code:       d.Code,
		StatusText: d.StatusText,
		Body:       body,
		Headers:    flattenHeaders(d.Headers),
	}

	switch {
	case d.Code == http.StatusTooManyRequests:
		return NewHTTPThrottling(HTTPThrottlingParams{
			Message:    p.Message,
			Code:       p.Code,
			StatusText: p.StatusText,
			Body:       p.Body,
			Headers:    p.Headers,
			RetryAfter: ParseRetryAfter(d.Headers.Get("Retry-After"), c.now()),
		})
	case d.Code >= http.StatusInternalServerError:
		return NewHTTPInternal(p)
	case slices.Contains(c.retriable, d.Code):
		return NewHTTPRetriable(p)
	default:
		return NewHTTPResponse(p)
	}
}

// ParseRetryAfter parses a Retry-After header value, given either as seconds
// or as an HTTP date. It returns nil for empty or unparsable values.
func ParseRetryAfter(value string, now time.Time) *float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		if secs < 0 || math.IsNaN(secs) || math.IsInf(secs, 0) {
			return nil
		}
		return Seconds(secs)
	}
	if at, err := http.ParseTime(value); err == nil {
		return Seconds(max(at.Sub(now).Seconds(), 0))
	}
	return nil
}

func statusText(resp *http.Response) string {
	if text, ok := strings.CutPrefix(resp.Status, strconv.Itoa(resp.StatusCode)); ok {
		if text = strings.TrimSpace(text); text != "" {
			return text
		}
	}
	return http.StatusText(resp.StatusCode)
}

// decodeBody keeps JSON objects as-is and stores anything else under "raw".
// HTML pages also get their title under "title".
func decodeBody(raw []byte) Payload {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil && obj != nil {
		return Payload(obj)
	}
	body := Payload{"raw": string(raw)}
	if looksLikeHTML(raw) {
		if title := htmlTitle(raw); title != "" {
			body["title"] = title
		}
	}
	return body
}

func flattenHeaders(h http.Header) Payload {
	if len(h) == 0 {
		return nil
	}
	out := make(Payload, len(h))
	for key, values := range h {
		out[http.CanonicalHeaderKey(key)] = slices.Clone(values)
	}
	return out
}

func responseMessage(code int, text string, body Payload, headers http.Header) string {
	var b strings.Builder
	fmt.Fprintf(&b, "received an error response (%d %s) from the platform", code, text)
	if summary := errorSummary(body); summary != "" {
		b.WriteString(": ")
		b.WriteString(summary)
	}
	if id := headers.Get("X-Request-Id"); id != "" {
		fmt.Fprintf(&b, " (request id: %s)", id)
	}
	return b.String()
}

// errorSummary extracts the platform's error messages from a response body.
func errorSummary(body Payload) string {
	for _, key := range []string{"errors", "error_description", "error", "title"} {
		v, ok := body.Get(key)
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			return t
		case []any:
			parts := make([]string, 0, len(t))
			for _, e := range t {
				parts = append(parts, summarize(e))
			}
			return strings.Join(parts, "; ")
		default:
			return summarize(t)
		}
	}
	return ""
}

func summarize(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		if msg, ok := t["message"].(string); ok {
			return msg
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
