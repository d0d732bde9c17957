package metrics

import "time"

// DecisionLabel values for retry decisions.
const (
	DecisionRetry  = "retry"
	DecisionGiveUp = "give_up"
)

// UnclassifiedKind labels errors that carry no failure kind.
const UnclassifiedKind = "unclassified"

// Recorder defines the observability hooks of the failure handling stack.
// Implementations may forward to Prometheus or anything else.
type Recorder interface {
	IncFailure(kind, category string, status int)
	IncRetryDecision(kind string, retry bool)
	ObserveRetryDelay(kind string, d time.Duration)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncFailure(string, string, int)          {}
func (NoopRecorder) IncRetryDecision(string, bool)           {}
func (NoopRecorder) ObserveRetryDelay(string, time.Duration) {}

func kindLabel(kind string) string {
	if kind == "" {
		return UnclassifiedKind
	}
	return kind
}

func decisionLabel(retry bool) string {
	if retry {
		return DecisionRetry
	}
	return DecisionGiveUp
}
