package apierrors

import (
	"encoding/json"
	"log/slog"
)

// GraphQLQueryParams holds everything needed to build a GraphQL query failure.
type GraphQLQueryParams struct {
	Message  string
	Response Payload // raw GraphQL error envelope
	Headers  Payload
	Body     Payload
}

// GraphQLQueryError reports a query-level error envelope returned by the
// GraphQL endpoint. Transport failures of the same request are reported as
// HTTP-family failures instead.
type GraphQLQueryError struct {
	base
	response Payload
	headers  Payload
	body     Payload
}

// NewGraphQLQuery builds a GraphQL query failure. A nil Response is stored as
// an empty envelope.
func NewGraphQLQuery(p GraphQLQueryParams) *GraphQLQueryError {
	resp := p.Response.Clone()
	if resp == nil {
		resp = Payload{}
	}
	return &GraphQLQueryError{
		base:     newBase(KindGraphQLQuery, p.Message),
		response: resp,
		headers:  p.Headers.Clone(),
		body:     p.Body.Clone(),
	}
}

// Response returns a copy of the GraphQL error envelope.
func (e *GraphQLQueryError) Response() Payload { return e.response.Clone() }

// Headers returns a copy of the response headers, or nil.
func (e *GraphQLQueryError) Headers() Payload { return e.headers.Clone() }

// Body returns a copy of the response body, or nil.
func (e *GraphQLQueryError) Body() Payload { return e.body.Clone() }

// Errors returns the entries of the envelope's "errors" list.
func (e *GraphQLQueryError) Errors() []any {
	v, ok := e.response.Get("errors")
	if !ok {
		return nil
	}
	list, ok := v.([]any)
	if !ok {
		return []any{cloneValue(v)}
	}
	return cloneValue(list).([]any)
}

// WithCause returns a copy of e wrapping cause.
func (e *GraphQLQueryError) WithCause(cause error) *GraphQLQueryError {
	c := *e
	c.cause = cause
	return &c
}

// LogValue implements slog.LogValuer.
func (e *GraphQLQueryError) LogValue() slog.Value {
	attrs := append(e.logAttrs(), slog.Int("graphql_errors", len(e.Errors())))
	return slog.GroupValue(attrs...)
}

// MarshalJSON implements json.Marshaler.
func (e *GraphQLQueryError) MarshalJSON() ([]byte, error) {
	env := e.envelope()
	env.Response = e.response
	env.Headers = e.headers
	env.Body = e.body
	return json.Marshal(env)
}
