// Package apierrors defines the failure taxonomy of the commerce platform client.
//
// Every failure reported by the REST and GraphQL clients, the OAuth and session
// helpers, the webhook validator, the session storage backends and the billing
// helpers is one of the variants declared here. All variants satisfy Error, the
// root of the taxonomy, and are identified by their Kind rather than by their
// message.
//
// Variants form a small lattice:
//
//	failure
//	├── invalid_hmac, invalid_shop, invalid_host, invalid_jwt, ...
//	├── http_response
//	│   └── http_retriable
//	│       ├── http_internal
//	│       └── http_throttling
//	└── invalid_webhook
//	    └── missing_webhook_callback
//
// A Kind is also an error value, so errors.Is reports whether any failure in a
// chain belongs to a family:
//
//	if errors.Is(err, apierrors.KindHTTPRetriable) {
//		// some failure in the chain may succeed on retry
//	}
//
// The predicates (IsRetriable, IsHTTPResponse, IsTerminal, ...) classify the
// outermost failure of a chain only. An http_max_retries failure wrapping the
// last http_throttling failure is terminal, not retry-eligible.
//
// Payload-bearing variants copy their payload at construction and hand out
// copies on read, so instances are immutable and safe to share between
// goroutines.
//
// Example usage:
//
//	err := apierrors.NewHTTPThrottling(apierrors.HTTPThrottlingParams{
//		Message:    "rate limited",
//		Code:       429,
//		StatusText: "Too Many Requests",
//		RetryAfter: apierrors.Seconds(2),
//	})
//	if resp, ok := apierrors.AsHTTPResponse(err); ok {
//		wait, _ := resp.RetryAfter()
//		_ = wait
//	}
package apierrors
