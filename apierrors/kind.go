package apierrors

import "net/http"

// Kind tags a variant of the taxonomy. A Kind is an error value so it can be
// used as an errors.Is target; a failure matches its own kind and every
// ancestor of it.
type Kind string

// Error implements the error interface.
func (k Kind) Error() string { return string(k) }

// String returns the tag.
func (k Kind) String() string { return string(k) }

const (
	// KindFailure is the root of the taxonomy. Every failure is-a KindFailure.
	KindFailure Kind = "failure"

	// Integrity and validation.
	KindInvalidHMAC           Kind = "invalid_hmac"
	KindInvalidShop           Kind = "invalid_shop"
	KindInvalidHost           Kind = "invalid_host"
	KindInvalidJWT            Kind = "invalid_jwt"
	KindMissingJWTToken       Kind = "missing_jwt_token"
	KindInvalidDeliveryMethod Kind = "invalid_delivery_method"

	KindSafeCompare Kind = "safe_compare"
	KindPrivateApp  Kind = "private_app"

	// Transport.
	KindHTTPRequest    Kind = "http_request"
	KindHTTPMaxRetries Kind = "http_max_retries"

	// HTTP responses.
	KindHTTPResponse   Kind = "http_response"
	KindHTTPRetriable  Kind = "http_retriable"
	KindHTTPInternal   Kind = "http_internal"
	KindHTTPThrottling Kind = "http_throttling"

	KindRestResource Kind = "rest_resource"
	KindGraphQLQuery Kind = "graphql_query"

	// OAuth and sessions.
	KindInvalidOAuth        Kind = "invalid_oauth"
	KindBotActivityDetected Kind = "bot_activity_detected"
	KindCookieNotFound      Kind = "cookie_not_found"
	KindInvalidSession      Kind = "invalid_session"
	KindSessionStorage      Kind = "session_storage"

	// Inbound webhooks.
	KindInvalidWebhook         Kind = "invalid_webhook"
	KindMissingWebhookCallback Kind = "missing_webhook_callback"

	// Caller-side programming errors.
	KindMissingRequiredArgument Kind = "missing_required_argument"
	KindInvalidRequest          Kind = "invalid_request"
	KindUnsupportedClientType   Kind = "unsupported_client_type"

	KindBilling           Kind = "billing"
	KindFeatureDeprecated Kind = "feature_deprecated"
)

// Category groups kinds by the kind of fault they report.
type Category string

const (
	CategoryIntegrity    Category = "integrity"
	CategoryComparison   Category = "comparison"
	CategoryAppMode      Category = "app_mode"
	CategoryTransport    Category = "transport"
	CategoryHTTPResponse Category = "http_response"
	CategoryREST         Category = "rest"
	CategoryGraphQL      Category = "graphql"
	CategoryOAuth        Category = "oauth"
	CategoryBotDetection Category = "bot_detection"
	CategorySession      Category = "session"
	CategoryWebhook      Category = "webhook"
	CategoryStorage      Category = "storage"
	CategoryArgument     Category = "argument"
	CategoryClientConfig Category = "client_config"
	CategoryBilling      Category = "billing"
	CategoryDeprecation  Category = "deprecation"

	// CategoryUnclassified is reported for errors outside the taxonomy.
	CategoryUnclassified Category = "unclassified"
)

// RetryStrategy indicates how a caller should treat a failure in retry scenarios.
type RetryStrategy string

const (
	RetryNever      RetryStrategy = "never"      // Permanent failure, don't retry
	RetryBackoff    RetryStrategy = "backoff"    // Retry with backoff
	RetryRateLimit  RetryStrategy = "rate_limit" // Retry after the rate limit window
	RetryUserAction RetryStrategy = "user"       // Requires user intervention
)

// Descriptor is the static description of a kind.
type Descriptor struct {
	Kind     Kind          `json:"kind" yaml:"kind"`
	Parent   Kind          `json:"parent,omitempty" yaml:"parent,omitempty"`
	Category Category      `json:"category" yaml:"category"`
	Retry    RetryStrategy `json:"retry" yaml:"retry"`
	Message  string        `json:"message" yaml:"message"` // used when a constructor receives ""
	Status   int           `json:"status" yaml:"status"`   // suggested status when presented over HTTP
	ExitCode int           `json:"exit_code" yaml:"exit_code"`
}

// Exit codes, shared with the CLI adapter.
const (
	exitGeneral  = 1
	exitUsage    = 2
	exitAuth     = 5
	exitConfig   = 7
	exitExternal = 8
	exitInternal = 10
	exitRuntime  = 12
)

var catalog = []Descriptor{
	{KindFailure, "", CategoryUnclassified, RetryNever, "platform client failure", http.StatusInternalServerError, exitGeneral},

	{KindInvalidHMAC, KindFailure, CategoryIntegrity, RetryNever, "invalid hmac", http.StatusUnauthorized, exitAuth},
	{KindInvalidShop, KindFailure, CategoryIntegrity, RetryNever, "invalid shop", http.StatusBadRequest, exitAuth},
	{KindInvalidHost, KindFailure, CategoryIntegrity, RetryNever, "invalid host", http.StatusBadRequest, exitAuth},
	{KindInvalidJWT, KindFailure, CategoryIntegrity, RetryNever, "invalid jwt", http.StatusUnauthorized, exitAuth},
	{KindMissingJWTToken, KindFailure, CategoryIntegrity, RetryNever, "missing jwt token", http.StatusUnauthorized, exitAuth},
	{KindInvalidDeliveryMethod, KindFailure, CategoryIntegrity, RetryNever, "invalid delivery method", http.StatusBadRequest, exitUsage},

	{KindSafeCompare, KindFailure, CategoryComparison, RetryNever, "safe compare precondition violated", http.StatusInternalServerError, exitInternal},
	{KindPrivateApp, KindFailure, CategoryAppMode, RetryNever, "operation not available to private apps", http.StatusBadRequest, exitConfig},

	{KindHTTPRequest, KindFailure, CategoryTransport, RetryNever, "http request failed", http.StatusBadGateway, exitExternal},
	{KindHTTPMaxRetries, KindFailure, CategoryTransport, RetryNever, "maximum retry count exceeded", http.StatusBadGateway, exitExternal},

	{KindHTTPResponse, KindFailure, CategoryHTTPResponse, RetryNever, "error response received", http.StatusBadGateway, exitExternal},
	{KindHTTPRetriable, KindHTTPResponse, CategoryHTTPResponse, RetryBackoff, "retriable error response received", http.StatusBadGateway, exitExternal},
	{KindHTTPInternal, KindHTTPRetriable, CategoryHTTPResponse, RetryBackoff, "internal server error received", http.StatusBadGateway, exitExternal},
	{KindHTTPThrottling, KindHTTPRetriable, CategoryHTTPResponse, RetryRateLimit, "request throttled", http.StatusTooManyRequests, exitExternal},

	{KindRestResource, KindFailure, CategoryREST, RetryNever, "rest resource error", http.StatusUnprocessableEntity, exitExternal},
	{KindGraphQLQuery, KindFailure, CategoryGraphQL, RetryNever, "graphql query error", http.StatusBadGateway, exitExternal},

	{KindInvalidOAuth, KindFailure, CategoryOAuth, RetryUserAction, "invalid oauth callback", http.StatusBadRequest, exitAuth},
	{KindBotActivityDetected, KindFailure, CategoryBotDetection, RetryNever, "bot activity detected", http.StatusForbidden, exitAuth},
	{KindCookieNotFound, KindFailure, CategorySession, RetryUserAction, "cookie not found", http.StatusUnauthorized, exitAuth},
	{KindInvalidSession, KindFailure, CategorySession, RetryUserAction, "invalid session", http.StatusUnauthorized, exitAuth},

	{KindInvalidWebhook, KindFailure, CategoryWebhook, RetryNever, "invalid webhook", http.StatusUnauthorized, exitExternal},
	{KindMissingWebhookCallback, KindInvalidWebhook, CategoryWebhook, RetryNever, "no callback registered for webhook topic", http.StatusNotFound, exitExternal},

	{KindSessionStorage, KindFailure, CategoryStorage, RetryNever, "session storage failure", http.StatusInternalServerError, exitRuntime},

	{KindMissingRequiredArgument, KindFailure, CategoryArgument, RetryNever, "missing required argument", http.StatusBadRequest, exitUsage},
	{KindInvalidRequest, KindFailure, CategoryArgument, RetryNever, "invalid request", http.StatusBadRequest, exitUsage},
	{KindUnsupportedClientType, KindFailure, CategoryClientConfig, RetryNever, "unsupported client type", http.StatusInternalServerError, exitConfig},

	{KindBilling, KindFailure, CategoryBilling, RetryNever, "billing error", http.StatusUnprocessableEntity, exitExternal},
	{KindFeatureDeprecated, KindFailure, CategoryDeprecation, RetryNever, "feature deprecated", http.StatusGone, exitConfig},
}

var byKind = func() map[Kind]int {
	idx := make(map[Kind]int, len(catalog))
	for i, d := range catalog {
		idx[d.Kind] = i
	}
	return idx
}()

// Catalog returns the descriptors of every kind in declaration order.
func Catalog() []Descriptor {
	out := make([]Descriptor, len(catalog))
	copy(out, catalog)
	return out
}

// Describe returns the descriptor of kind. Unknown kinds report false and the
// root descriptor.
func Describe(kind Kind) (Descriptor, bool) {
	if i, ok := byKind[kind]; ok {
		return catalog[i], true
	}
	return catalog[0], false
}

// Known reports whether k is declared by this package.
func (k Kind) Known() bool {
	_, ok := byKind[k]
	return ok
}

// Parent returns the direct ancestor of k, or "" for the root and unknown kinds.
func (k Kind) Parent() Kind {
	if i, ok := byKind[k]; ok {
		return catalog[i].Parent
	}
	return ""
}

// IsA reports whether k equals ancestor or descends from it.
func (k Kind) IsA(ancestor Kind) bool {
	for cur := k; cur != ""; cur = cur.Parent() {
		if cur == ancestor {
			return true
		}
	}
	return false
}

// Lineage returns k followed by its ancestors up to the root.
func (k Kind) Lineage() []Kind {
	var out []Kind
	for cur := k; cur != ""; cur = cur.Parent() {
		out = append(out, cur)
	}
	return out
}

// Category returns the category of k.
func (k Kind) Category() Category {
	d, _ := Describe(k)
	return d.Category
}

// RetryStrategy returns the retry strategy of k.
func (k Kind) RetryStrategy() RetryStrategy {
	d, _ := Describe(k)
	return d.Retry
}
