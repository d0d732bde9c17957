package retry

import (
	"fmt"
	"time"

	"git.home.luguber.info/inful/commerceapi/apierrors"
)

// Recorder receives retry decisions. metrics.Recorder satisfies it.
type Recorder interface {
	IncRetryDecision(kind string, retry bool)
	ObserveRetryDelay(kind string, d time.Duration)
}

type noopRecorder struct{}

func (noopRecorder) IncRetryDecision(string, bool)           {}
func (noopRecorder) ObserveRetryDelay(string, time.Duration) {}

// Decision is the advice for one failed attempt.
type Decision struct {
	Retry  bool
	Delay  time.Duration
	Reason string
}

// Advisor turns failures into retry decisions. It never sleeps or performs
// the call itself; that stays with the transport.
type Advisor struct {
	policy   Policy
	recorder Recorder
}

// NewAdvisor creates an Advisor. A nil recorder disables recording.
func NewAdvisor(p Policy, r Recorder) *Advisor {
	if r == nil {
		r = noopRecorder{}
	}
	return &Advisor{policy: p, recorder: r}
}

// Policy returns the policy the advisor applies.
func (a *Advisor) Policy() Policy { return a.policy }

// Advise decides whether the call that failed with err should be retried.
// attempt is the 1-based number of the retry under consideration. Only
// failures whose outermost kind is retry-eligible are retried. A throttling
// hint takes precedence over the policy delay but never exceeds Policy.Max.
func (a *Advisor) Advise(err error, attempt int) Decision {
	kind := string(apierrors.KindOf(err))
	d := a.decide(err, attempt)
	a.recorder.IncRetryDecision(kind, d.Retry)
	if d.Retry {
		a.recorder.ObserveRetryDelay(kind, d.Delay)
	}
	return d
}

func (a *Advisor) decide(err error, attempt int) Decision {
	switch {
	case err == nil:
		return Decision{Reason: "no failure"}
	case !apierrors.IsRetriable(err):
		return Decision{Reason: fmt.Sprintf("%s is not retry-eligible", kindLabel(err))}
	case attempt > a.policy.MaxRetries:
		return Decision{Reason: fmt.Sprintf("retry budget of %d exhausted", a.policy.MaxRetries)}
	}

	if h, ok := apierrors.AsHTTPResponse(err); ok && apierrors.IsThrottling(err) {
		if hint, ok := h.RetryAfter(); ok {
			return Decision{Retry: true, Delay: min(max(hint, 0), a.policy.Max), Reason: "throttled; honouring retry-after"}
		}
	}
	return Decision{Retry: true, Delay: a.policy.Delay(max(attempt, 1)), Reason: string(a.policy.Mode) + " backoff"}
}

// Exhausted builds the terminal failure reported after attempts tries, all
// of which failed. The last failure is kept as cause, so Error() ends with its
// text.
func (a *Advisor) Exhausted(lastErr error, attempts int) *apierrors.Failure {
	f := apierrors.NewHTTPMaxRetries(fmt.Sprintf("exceeded maximum retry count of %d after %d attempts", a.policy.MaxRetries, attempts))
	if lastErr != nil {
		f = f.WithCause(lastErr)
	}
	return f
}

func kindLabel(err error) string {
	if k := apierrors.KindOf(err); k != "" {
		return string(k)
	}
	return "unclassified error"
}
