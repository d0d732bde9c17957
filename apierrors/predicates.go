package apierrors

import "errors"

// Helper functions for failure detection and extraction.
//
// The Is* predicates classify the outermost failure of err's chain. Use
// errors.Is(err, kind) to ask whether any failure in the chain belongs to kind.

// AsFailure returns the outermost failure in err's chain.
func AsFailure(err error) (Error, bool) {
	var f Error
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// KindOf returns the kind of the outermost failure in err's chain, or "" when
// err carries no failure.
func KindOf(err error) Kind {
	if f, ok := AsFailure(err); ok {
		return f.Kind()
	}
	return ""
}

// CategoryOf returns the category of the outermost failure, or
// CategoryUnclassified.
func CategoryOf(err error) Category {
	if f, ok := AsFailure(err); ok {
		return f.Category()
	}
	return CategoryUnclassified
}

// RetryStrategyOf returns the retry strategy of the outermost failure, or
// RetryNever.
func RetryStrategyOf(err error) RetryStrategy {
	if f, ok := AsFailure(err); ok {
		return f.Kind().RetryStrategy()
	}
	return RetryNever
}

// IsKind reports whether the outermost failure is-a kind.
func IsKind(err error, kind Kind) bool {
	k := KindOf(err)
	return k != "" && k.IsA(kind)
}

// IsHTTPResponse reports whether the outermost failure belongs to the
// HTTP response family.
func IsHTTPResponse(err error) bool { return IsKind(err, KindHTTPResponse) }

// IsRetriable reports whether the outermost failure is retry-eligible.
func IsRetriable(err error) bool { return IsKind(err, KindHTTPRetriable) }

// IsInternal reports whether the outermost failure is a 5xx response.
func IsInternal(err error) bool { return IsKind(err, KindHTTPInternal) }

// IsThrottling reports whether the outermost failure is a throttled response.
func IsThrottling(err error) bool { return IsKind(err, KindHTTPThrottling) }

// IsInvalidWebhook reports whether the outermost failure belongs to the
// webhook validation family.
func IsInvalidWebhook(err error) bool { return IsKind(err, KindInvalidWebhook) }

// IsTerminal reports whether the outermost failure says retries are exhausted.
func IsTerminal(err error) bool { return IsKind(err, KindHTTPMaxRetries) }

// AsHTTPResponse returns the first HTTP-family failure in err's chain.
func AsHTTPResponse(err error) (*HTTPResponseError, bool) {
	var e *HTTPResponseError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// AsGraphQLQuery returns the first GraphQL query failure in err's chain.
func AsGraphQLQuery(err error) (*GraphQLQueryError, bool) {
	var e *GraphQLQueryError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// AsInvalidWebhook returns the first webhook failure in err's chain.
func AsInvalidWebhook(err error) (*InvalidWebhookError, bool) {
	var e *InvalidWebhookError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// AsBilling returns the first billing failure in err's chain.
func AsBilling(err error) (*BillingError, bool) {
	var e *BillingError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
