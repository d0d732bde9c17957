package apierrors

import (
	"bytes"
	"encoding/json"
	"slices"
)

// Payload is a JSON-like structured value carried by a failure: a response
// body, a header set or a GraphQL error envelope. Its shape is owned by the
// producer; this package never validates it.
type Payload map[string]any

// Get returns the value stored under key.
func (p Payload) Get(key string) (any, bool) {
	if p == nil {
		return nil, false
	}
	v, ok := p[key]
	return v, ok
}

// GetString returns the string stored under key.
func (p Payload) GetString(key string) (string, bool) {
	if v, ok := p.Get(key); ok {
		if s, ok := v.(string); ok {
			return s, true
		}
	}
	return "", false
}

// Clone returns a deep copy of p. Nested maps and slices are copied; other
// values are shared.
func (p Payload) Clone() Payload {
	if p == nil {
		return nil
	}
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Payload:
		return t.Clone()
	case map[string]any:
		if t == nil {
			return t
		}
		return map[string]any(Payload(t).Clone())
	case []any:
		if t == nil {
			return t
		}
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		return slices.Clone(t)
	case json.RawMessage:
		return json.RawMessage(bytes.Clone(t))
	case []byte:
		return bytes.Clone(t)
	default:
		return v
	}
}
