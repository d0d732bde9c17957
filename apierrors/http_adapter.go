package apierrors

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/commerceapi/internal/logfields"
)

// Recorder receives one call per failure presented by an adapter.
type Recorder interface {
	IncFailure(kind, category string, status int)
}

type noopRecorder struct{}

func (noopRecorder) IncFailure(string, string, int) {}

// FailureEvent describes one failure written by the HTTP adapter.
type FailureEvent struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Category  string    `json:"category"`
	Message   string    `json:"message"`
	Status    int       `json:"status"`
	Retryable bool      `json:"retryable"`
	Method    string    `json:"method,omitempty"`
	Path      string    `json:"path,omitempty"`
	Time      time.Time `json:"time"`
}

// Sink receives every failure written by the HTTP adapter, after the reply.
type Sink interface {
	RecordFailure(ctx context.Context, ev FailureEvent) error
}

// HTTPErrorAdapter handles failure presentation and status code determination
// for HTTP handlers that sit in front of the platform client.
type HTTPErrorAdapter struct {
	logger        *slog.Logger
	recorder      Recorder
	sinks         []Sink
	exposeDetails bool
	newID         func() string
	now           func() time.Time
}

// HTTPAdapterOption configures an HTTPErrorAdapter.
type HTTPAdapterOption func(*HTTPErrorAdapter)

// WithRecorder makes the adapter report every failure it writes.
func WithRecorder(r Recorder) HTTPAdapterOption {
	return func(a *HTTPErrorAdapter) {
		if r != nil {
			a.recorder = r
		}
	}
}

// WithSink adds a sink that receives every written failure.
func WithSink(s Sink) HTTPAdapterOption {
	return func(a *HTTPErrorAdapter) {
		if s != nil {
			a.sinks = append(a.sinks, s)
		}
	}
}

// WithDetails includes status, retry hint and payloads in JSON replies.
func WithDetails(expose bool) HTTPAdapterOption {
	return func(a *HTTPErrorAdapter) { a.exposeDetails = expose }
}

// WithIDGenerator replaces the uuid based error id generator.
func WithIDGenerator(fn func() string) HTTPAdapterOption {
	return func(a *HTTPErrorAdapter) {
		if fn != nil {
			a.newID = fn
		}
	}
}

// WithClock replaces time.Now for event timestamps.
func WithClock(now func() time.Time) HTTPAdapterOption {
	return func(a *HTTPErrorAdapter) {
		if now != nil {
			a.now = now
		}
	}
}

// NewHTTPErrorAdapter creates a new HTTP error adapter with an optional slog logger.
// If logger is nil, the default logger is used.
func NewHTTPErrorAdapter(logger *slog.Logger, opts ...HTTPAdapterOption) *HTTPErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	a := &HTTPErrorAdapter{
		logger:   logger,
		recorder: noopRecorder{},
		newID:    uuid.NewString,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// HTTPErrorResponse is the JSON payload written for a failure.
type HTTPErrorResponse struct {
	Error     string         `json:"error"`
	ID        string         `json:"id,omitempty"`
	Kind      string         `json:"kind,omitempty"`
	Category  string         `json:"category,omitempty"`
	Retryable bool           `json:"retryable,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// StatusCodeFor determines the HTTP status code for err. Webhook failures use
// the status of their prepared reply when it is valid, throttling maps to 429, the rest of the
// HTTP family to 502 and every other failure to its catalog status.
// Unclassified errors map to 500.
func (a *HTTPErrorAdapter) StatusCodeFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	f, ok := AsFailure(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch e := f.(type) {
	case *InvalidWebhookError:
		return e.replyStatus()
	case *HTTPResponseError:
		if e.kind == KindHTTPThrottling {
			return http.StatusTooManyRequests
		}
		return http.StatusBadGateway
	}
	d, _ := Describe(f.Kind())
	return d.Status
}

// FormatErrorResponse converts err into the canonical JSON payload.
func (a *HTTPErrorAdapter) FormatErrorResponse(err error) HTTPErrorResponse {
	if err == nil {
		return HTTPErrorResponse{}
	}
	f, ok := AsFailure(err)
	if !ok {
		return HTTPErrorResponse{Error: err.Error()}
	}

	resp := HTTPErrorResponse{
		Error:     f.Message(),
		Kind:      string(f.Kind()),
		Category:  string(f.Category()),
		Retryable: f.Kind().IsA(KindHTTPRetriable),
	}

	details := make(map[string]any)
	switch e := f.(type) {
	case *HTTPResponseError:
		if secs, ok := retryAfterSeconds(e); ok {
			details["retry_after"] = secs
		}
		if a.exposeDetails {
			details["status"] = e.response.Code
			details["status_text"] = e.response.StatusText
			if e.response.Body != nil {
				details["body"] = e.response.Body.Clone()
			}
		}
	case *GraphQLQueryError:
		if a.exposeDetails {
			details["response"] = e.Response()
		}
	case *BillingError:
		if a.exposeDetails && e.errorData != nil {
			details["error_data"] = e.ErrorData()
		}
	}
	if len(details) > 0 {
		resp.Details = details
	}
	return resp
}

// WriteErrorResponse writes the reply for err and logs it. Webhook failures
// replay their prepared reply; everything else gets a JSON payload.
func (a *HTTPErrorAdapter) WriteErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	id := a.newID()
	status := a.StatusCodeFor(err)
	a.recorder.IncFailure(string(KindOf(err)), string(CategoryOf(err)), status)
	defer a.notify(r, err, id, status)
	defer a.log(r, err, id, status)

	if f, ok := AsFailure(err); ok {
		if wh, ok := f.(*InvalidWebhookError); ok {
			if werr := wh.Reply(w); werr != nil {
				a.logger.Warn("Failed to write webhook reply", logfields.ErrorID(id), logfields.Error(werr))
			}
			return
		}
		if h, ok := f.(*HTTPResponseError); ok {
			if secs, ok := retryAfterSeconds(h); ok {
				w.Header().Set("Retry-After", strconv.FormatInt(int64(secs), 10))
			}
		}
	}

	payload := a.FormatErrorResponse(err)
	payload.ID = id
	b, jerr := json.Marshal(payload)
	if jerr != nil {
		w.WriteHeader(status)
		_, _ = w.Write([]byte("{\"error\":\"internal error\"}"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

func (a *HTTPErrorAdapter) log(r *http.Request, err error, id string, status int) {
	attrs := []slog.Attr{
		logfields.ErrorID(id),
		logfields.Status(status),
		logfields.Failure(err),
	}
	ctx := context.Background()
	if r != nil {
		ctx = r.Context()
		attrs = append(attrs, logfields.Method(r.Method), logfields.Path(r.URL.Path))
	}
	if f, ok := AsFailure(err); ok {
		a.logger.LogAttrs(ctx, levelFor(f.Category()), f.Message(), attrs...)
		return
	}
	a.logger.LogAttrs(ctx, slog.LevelError, "Unclassified error", attrs...)
}

func (a *HTTPErrorAdapter) notify(r *http.Request, err error, id string, status int) {
	if len(a.sinks) == 0 {
		return
	}
	ev := FailureEvent{
		ID:        id,
		Kind:      string(KindOf(err)),
		Category:  string(CategoryOf(err)),
		Message:   err.Error(),
		Status:    status,
		Retryable: IsRetriable(err),
		Time:      a.now().UTC(),
	}
	ctx := context.Background()
	if f, ok := AsFailure(err); ok {
		ev.Message = f.Message()
	}
	if r != nil {
		ctx = r.Context()
		ev.Method, ev.Path = r.Method, r.URL.Path
	}
	for _, s := range a.sinks {
		if serr := s.RecordFailure(ctx, ev); serr != nil {
			a.logger.Warn("Failed to record failure event", logfields.ErrorID(id), logfields.Error(serr))
		}
	}
}

// levelFor maps categories to log levels: faults caused by the peer are
// informational, upstream faults are warnings, local faults are errors.
func levelFor(c Category) slog.Level {
	switch c {
	case CategoryIntegrity, CategoryOAuth, CategoryBotDetection, CategorySession, CategoryWebhook:
		return slog.LevelInfo
	case CategoryTransport, CategoryHTTPResponse, CategoryREST, CategoryGraphQL, CategoryBilling:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// retryAfterSeconds rounds the retry hint up to whole seconds.
func retryAfterSeconds(e *HTTPResponseError) (float64, bool) {
	v := clampRetryAfter(e.retryAfter)
	if v == nil {
		return 0, false
	}
	return math.Ceil(*v), true
}
