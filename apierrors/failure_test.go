package apierrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThrottlingScenario(t *testing.T) {
	e := NewHTTPThrottling(HTTPThrottlingParams{
		Message:    "rate limited",
		Code:       429,
		StatusText: "Too Many Requests",
		RetryAfter: Seconds(2),
	})

	var root Error
	require.ErrorAs(t, e, &root)
	assert.ErrorIs(t, e, KindFailure)
	assert.ErrorIs(t, e, KindHTTPResponse)
	assert.ErrorIs(t, e, KindHTTPRetriable)
	assert.True(t, IsHTTPResponse(e))
	assert.True(t, IsRetriable(e))
	assert.True(t, IsThrottling(e))

	td := e.Throttling()
	assert.Equal(t, 429, td.Code)
	assert.Equal(t, "Too Many Requests", td.StatusText)
	assert.Nil(t, td.Body)
	assert.Nil(t, td.Headers)
	require.NotNil(t, td.RetryAfter)
	assert.InDelta(t, 2.0, *td.RetryAfter, 0)
}

func TestHTTPFamilyStoresExactResponse(t *testing.T) {
	p := HTTPResponseParams{Message: "nope", Code: 418, StatusText: "I'm a teapot"}
	constructors := map[Kind]func(HTTPResponseParams) *HTTPResponseError{
		KindHTTPResponse:  NewHTTPResponse,
		KindHTTPRetriable: NewHTTPRetriable,
		KindHTTPInternal:  NewHTTPInternal,
	}
	for kind, build := range constructors {
		t.Run(string(kind), func(t *testing.T) {
			e := build(p)
			assert.Equal(t, kind, e.Kind())
			r := e.Response()
			assert.Equal(t, 418, r.Code)
			assert.Equal(t, "I'm a teapot", r.StatusText)
			assert.Nil(t, r.Body)
			assert.Nil(t, r.Headers)
			assert.Equal(t, 418, e.StatusCode())
			_, ok := e.RetryAfter()
			assert.False(t, ok)
		})
	}
}

func TestThrottlingRetryAfter(t *testing.T) {
	without := NewHTTPThrottling(HTTPThrottlingParams{Message: "slow", Code: 429, StatusText: "Too Many Requests"})
	assert.Nil(t, without.Throttling().RetryAfter)

	with := NewHTTPThrottling(HTTPThrottlingParams{
		Message:    "slow",
		Code:       429,
		StatusText: "Too Many Requests",
		Headers:    Payload{"Retry-After": []string{"30"}},
		RetryAfter: Seconds(30),
	})
	td := with.Throttling()
	require.NotNil(t, td.RetryAfter)
	assert.InDelta(t, 30.0, *td.RetryAfter, 0)
	assert.Equal(t, 429, td.Code)
	assert.Equal(t, "Too Many Requests", td.StatusText)
	d, ok := with.RetryAfter()
	assert.True(t, ok)
	assert.Equal(t, "30s", d.String())

	// Only throttling carries a hint.
	assert.Nil(t, NewHTTPInternal(HTTPResponseParams{Code: 500}).Throttling().RetryAfter)
}

func TestRetriableLattice(t *testing.T) {
	internal := NewHTTPInternal(HTTPResponseParams{Message: "boom", Code: 500, StatusText: "Internal Server Error"})
	throttling := NewHTTPThrottling(HTTPThrottlingParams{Message: "slow", Code: 429, StatusText: "Too Many Requests"})
	plain := NewHTTPResponse(HTTPResponseParams{Message: "missing", Code: 404, StatusText: "Not Found"})

	for _, e := range []*HTTPResponseError{internal, throttling} {
		assert.True(t, IsRetriable(e), e.Kind())
		assert.True(t, IsHTTPResponse(e), e.Kind())
		assert.ErrorIs(t, e, KindHTTPRetriable)
	}
	assert.True(t, IsHTTPResponse(plain))
	assert.False(t, IsRetriable(plain))
	assert.NotErrorIs(t, plain, KindHTTPRetriable)
	assert.False(t, IsInternal(throttling))
	assert.False(t, IsThrottling(internal))
}

func TestMissingWebhookCallbackIsInvalidWebhook(t *testing.T) {
	resp := WebhookResponse{
		StatusCode: 404,
		StatusText: "Not Found",
		Headers:    http.Header{"X-Reason": []string{"no handler"}},
		Body:       "no callback for orders/create",
	}
	e := NewMissingWebhookCallback(InvalidWebhookParams{Message: "no callback", Response: resp})

	assert.True(t, IsInvalidWebhook(e))
	assert.ErrorIs(t, e, KindInvalidWebhook)
	assert.Equal(t, resp, e.Response())

	sibling := NewInvalidWebhook(InvalidWebhookParams{Message: "bad hmac", Response: resp})
	assert.Equal(t, sibling.Response(), e.Response())
	assert.False(t, IsKind(sibling, KindMissingWebhookCallback))
}

func TestMessagesAreKeptVerbatim(t *testing.T) {
	msg := "  odd message: with spacing\tand symbols %d  "
	failures := []Error{
		NewInvalidHMAC(msg), NewInvalidShop(msg), NewInvalidHost(msg), NewInvalidJWT(msg),
		NewMissingJWTToken(msg), NewInvalidDeliveryMethod(msg), NewSafeCompare(msg), NewPrivateApp(msg),
		NewHTTPRequest(msg), NewHTTPMaxRetries(msg), NewRestResource(msg), NewInvalidOAuth(msg),
		NewBotActivityDetected(msg), NewCookieNotFound(msg), NewInvalidSession(msg), NewSessionStorage(msg),
		NewMissingRequiredArgument(msg), NewInvalidRequest(msg), NewUnsupportedClientType(msg),
		NewFeatureDeprecated(msg),
		NewHTTPResponse(HTTPResponseParams{Message: msg}),
		NewHTTPRetriable(HTTPResponseParams{Message: msg}),
		NewHTTPInternal(HTTPResponseParams{Message: msg}),
		NewHTTPThrottling(HTTPThrottlingParams{Message: msg}),
		NewGraphQLQuery(GraphQLQueryParams{Message: msg}),
		NewInvalidWebhook(InvalidWebhookParams{Message: msg}),
		NewMissingWebhookCallback(InvalidWebhookParams{Message: msg}),
		NewBilling(BillingParams{Message: msg}),
	}

	seen := make(map[Kind]bool)
	for _, f := range failures {
		assert.Equal(t, msg, f.Message(), f.Kind())
		assert.Equal(t, msg, f.Error(), f.Kind())
		seen[f.Kind()] = true
	}
	// Every concrete kind has a constructor.
	for _, d := range Catalog() {
		if d.Kind == KindFailure {
			continue
		}
		assert.True(t, seen[d.Kind], "no constructor exercised for %s", d.Kind)
	}
}

func TestEmptyMessageUsesCatalogDefault(t *testing.T) {
	assert.Equal(t, "invalid hmac", NewInvalidHMAC("").Message())
	assert.Equal(t, "request throttled", NewHTTPThrottling(HTTPThrottlingParams{Code: 429}).Message())
}

func TestGraphQLBodyOmitted(t *testing.T) {
	response := Payload{"errors": []any{map[string]any{"message": "Field 'x' doesn't exist"}}}
	headers := Payload{"X-Request-Id": []string{"r-1"}}
	e := NewGraphQLQuery(GraphQLQueryParams{Message: "query failed", Response: response, Headers: headers})

	assert.Nil(t, e.Body())
	assert.Equal(t, response, e.Response())
	assert.Equal(t, headers, e.Headers())
	require.Len(t, e.Errors(), 1)

	empty := NewGraphQLQuery(GraphQLQueryParams{Message: "query failed"})
	assert.Equal(t, Payload{}, empty.Response())
	assert.Nil(t, empty.Headers())
	assert.Nil(t, empty.Errors())
}

func TestBillingErrorData(t *testing.T) {
	data := map[string]any{"userErrors": []any{map[string]any{"field": "price"}}}
	e := NewBilling(BillingParams{Message: "charge failed", ErrorData: data})

	got, ok := e.ErrorData().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, data, got)

	got["userErrors"] = nil
	assert.NotNil(t, e.ErrorData().(map[string]any)["userErrors"], "callers cannot mutate the payload")

	b, ok := AsBilling(fmt.Errorf("wrap: %w", e))
	require.True(t, ok)
	assert.Same(t, e, b)
}

func TestWithCause(t *testing.T) {
	netErr := errors.New("connection reset by peer")
	orig := NewHTTPRequest("request failed")
	wrapped := orig.WithCause(netErr)

	assert.NotSame(t, orig, wrapped)
	assert.NoError(t, errors.Unwrap(orig))
	assert.ErrorIs(t, wrapped, netErr)
	assert.Equal(t, "request failed", wrapped.Message())
	assert.Equal(t, "request failed: connection reset by peer", wrapped.Error())

	h := NewHTTPInternal(HTTPResponseParams{Message: "boom", Code: 500}).WithCause(netErr)
	assert.ErrorIs(t, h, netErr)
	assert.Equal(t, 500, h.StatusCode())
}

func TestOutermostFailureClassification(t *testing.T) {
	throttled := NewHTTPThrottling(HTTPThrottlingParams{Message: "slow", Code: 429, RetryAfter: Seconds(1)})
	exhausted := NewHTTPMaxRetries("gave up").WithCause(throttled)

	assert.True(t, IsTerminal(exhausted))
	assert.False(t, IsRetriable(exhausted))
	assert.Equal(t, KindHTTPMaxRetries, KindOf(exhausted))
	assert.Equal(t, CategoryTransport, CategoryOf(exhausted))
	assert.Equal(t, RetryNever, RetryStrategyOf(exhausted))
	assert.ErrorIs(t, exhausted, KindHTTPThrottling, "the chain still contains the cause")

	h, ok := AsHTTPResponse(exhausted)
	require.True(t, ok)
	assert.Same(t, throttled, h)

	wrapped := fmt.Errorf("sync products: %w", throttled)
	assert.True(t, IsThrottling(wrapped))
	assert.Equal(t, RetryRateLimit, RetryStrategyOf(wrapped))

	plain := errors.New("plain")
	assert.Equal(t, Kind(""), KindOf(plain))
	assert.Equal(t, CategoryUnclassified, CategoryOf(plain))
	assert.Equal(t, RetryNever, RetryStrategyOf(plain))
	assert.False(t, IsKind(plain, KindFailure))
	_, ok = AsFailure(nil)
	assert.False(t, ok)
}

func TestKindIsNotMatchedByOtherFamilies(t *testing.T) {
	e := NewInvalidSession("expired")
	assert.ErrorIs(t, e, KindInvalidSession)
	assert.ErrorIs(t, e, KindFailure)
	assert.NotErrorIs(t, e, KindCookieNotFound)
	assert.NotErrorIs(t, e, KindHTTPResponse)
}

func TestMarshalJSON(t *testing.T) {
	e := NewHTTPThrottling(HTTPThrottlingParams{
		Message:    "rate limited",
		Code:       429,
		StatusText: "Too Many Requests",
		RetryAfter: Seconds(2),
	})
	b, err := json.Marshal(e)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"kind": "http_throttling",
		"category": "http_response",
		"message": "rate limited",
		"retryable": true,
		"response": {"code": 429, "status_text": "Too Many Requests", "retry_after": 2}
	}`, string(b))

	wh := NewMissingWebhookCallback(InvalidWebhookParams{Message: "no callback", Response: WebhookResponse{StatusCode: 404}})
	b, err = json.Marshal(wh)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"kind": "missing_webhook_callback",
		"category": "webhook",
		"message": "no callback",
		"retryable": false,
		"response": {"status_code": 404}
	}`, string(b))

	f := NewSessionStorage("disk full").WithCause(errors.New("ENOSPC"))
	b, err = json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"session_storage","category":"storage","message":"disk full","retryable":false,"cause":"ENOSPC"}`, string(b))
}
