package apierrors

import "net/http"

// FromKind builds a failure of the given kind with an empty payload. HTTP
// family variants get the kind's catalog status as response code. It reports
// false for unknown kinds and for the abstract root.
func FromKind(kind Kind, message string) (Error, bool) {
	d, ok := Describe(kind)
	if !ok || kind == KindFailure {
		return nil, false
	}

	rp := HTTPResponseParams{Message: message, Code: d.Status, StatusText: http.StatusText(d.Status)}
	wp := InvalidWebhookParams{Message: message, Response: WebhookResponse{StatusCode: d.Status, StatusText: http.StatusText(d.Status)}}

	switch kind {
	case KindHTTPResponse:
		return NewHTTPResponse(rp), true
	case KindHTTPRetriable:
		return NewHTTPRetriable(rp), true
	case KindHTTPInternal:
		return NewHTTPInternal(rp), true
	case KindHTTPThrottling:
		return NewHTTPThrottling(HTTPThrottlingParams{Message: message, Code: rp.Code, StatusText: rp.StatusText}), true
	case KindGraphQLQuery:
		return NewGraphQLQuery(GraphQLQueryParams{Message: message}), true
	case KindInvalidWebhook:
		return NewInvalidWebhook(wp), true
	case KindMissingWebhookCallback:
		return NewMissingWebhookCallback(wp), true
	case KindBilling:
		return NewBilling(BillingParams{Message: message}), true
	default:
		return newFailure(kind, message), true
	}
}
