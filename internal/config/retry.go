package config

import (
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// RetryBackoffMode selects how the retry advisor spaces attempts for
// retry-eligible failures. Throttled responses that carry a Retry-After hint
// use the hint instead, capped at retry.max.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"       // every attempt waits retry.initial
	RetryBackoffLinear      RetryBackoffMode = "linear"      // attempt n waits n*retry.initial
	RetryBackoffExponential RetryBackoffMode = "exponential" // attempt n waits retry.initial*2^(n-1)
)

var retryBackoffModes = []RetryBackoffMode{RetryBackoffFixed, RetryBackoffLinear, RetryBackoffExponential}

// NormalizeRetryBackoff maps case-insensitive input onto a known mode, or ""
// when the input names none.
func NormalizeRetryBackoff(raw string) RetryBackoffMode {
	m := RetryBackoffMode(strings.ToLower(strings.TrimSpace(raw)))
	if slices.Contains(retryBackoffModes, m) {
		return m
	}
	return ""
}

// Valid reports whether m is one of the known modes, as written.
func (m RetryBackoffMode) Valid() bool {
	return slices.Contains(retryBackoffModes, m)
}

// UnmarshalYAML normalizes the mode while decoding. Unknown values are kept
// verbatim so Validate can name them.
func (m *RetryBackoffMode) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if n := NormalizeRetryBackoff(raw); n != "" {
		*m = n
		return nil
	}
	*m = RetryBackoffMode(raw)
	return nil
}
