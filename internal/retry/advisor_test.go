package retry

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/commerceapi/apierrors"
	"git.home.luguber.info/inful/commerceapi/internal/config"
)

type recordedDecision struct {
	kind  string
	retry bool
}

type fakeRecorder struct {
	decisions []recordedDecision
	delays    []time.Duration
}

func (f *fakeRecorder) IncRetryDecision(kind string, retry bool) {
	f.decisions = append(f.decisions, recordedDecision{kind, retry})
}

func (f *fakeRecorder) ObserveRetryDelay(_ string, d time.Duration) {
	f.delays = append(f.delays, d)
}

func testPolicy() Policy {
	return NewPolicy(config.RetryBackoffLinear, 100*time.Millisecond, 5*time.Second, 2)
}

func throttled(retryAfter *float64) *apierrors.HTTPResponseError {
	return apierrors.NewHTTPThrottling(apierrors.HTTPThrottlingParams{
		Message:    "throttled",
		Code:       429,
		StatusText: "Too Many Requests",
		RetryAfter: retryAfter,
	})
}

func TestAdviseRetriesEligibleFailures(t *testing.T) {
	rec := &fakeRecorder{}
	a := NewAdvisor(testPolicy(), rec)

	internal := apierrors.NewHTTPInternal(apierrors.HTTPResponseParams{Message: "boom", Code: 503, StatusText: "Service Unavailable"})
	d := a.Advise(internal, 1)
	assert.True(t, d.Retry)
	assert.Equal(t, 100*time.Millisecond, d.Delay)
	assert.Equal(t, "linear backoff", d.Reason)

	d = a.Advise(internal, 2)
	assert.True(t, d.Retry)
	assert.Equal(t, 200*time.Millisecond, d.Delay)

	require.Len(t, rec.decisions, 2)
	assert.Equal(t, recordedDecision{"http_internal", true}, rec.decisions[0])
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, rec.delays)
}

func TestAdviseStopsWhenBudgetSpent(t *testing.T) {
	a := NewAdvisor(testPolicy(), nil)
	retriable := apierrors.NewHTTPRetriable(apierrors.HTTPResponseParams{Message: "conflict", Code: 409, StatusText: "Conflict"})

	d := a.Advise(retriable, 3)
	assert.False(t, d.Retry)
	assert.Contains(t, d.Reason, "retry budget of 2 exhausted")
}

func TestAdviseRefusesNonEligible(t *testing.T) {
	rec := &fakeRecorder{}
	a := NewAdvisor(testPolicy(), rec)

	cases := []error{
		apierrors.NewHTTPResponse(apierrors.HTTPResponseParams{Message: "not found", Code: 404, StatusText: "Not Found"}),
		apierrors.NewInvalidSession("session expired"),
		errors.New("plain"),
		nil,
	}
	for _, err := range cases {
		d := a.Advise(err, 1)
		assert.False(t, d.Retry, "%v", err)
		assert.Zero(t, d.Delay)
		assert.NotEmpty(t, d.Reason)
	}
	assert.Empty(t, rec.delays)
	assert.Equal(t, recordedDecision{"http_response", false}, rec.decisions[0])
	assert.Equal(t, recordedDecision{"", false}, rec.decisions[2])
}

func TestAdviseHonoursThrottlingHint(t *testing.T) {
	a := NewAdvisor(testPolicy(), nil)

	d := a.Advise(throttled(apierrors.Seconds(2)), 1)
	assert.True(t, d.Retry)
	assert.Equal(t, 2*time.Second, d.Delay)

	d = a.Advise(throttled(apierrors.Seconds(120)), 1)
	assert.Equal(t, 5*time.Second, d.Delay, "hint is capped at the policy maximum")

	d = a.Advise(throttled(nil), 2)
	assert.Equal(t, 200*time.Millisecond, d.Delay, "missing hint falls back to the policy")
}

func TestAdviseClassifiesOutermostFailure(t *testing.T) {
	a := NewAdvisor(testPolicy(), nil)

	wrapped := fmt.Errorf("list products: %w", throttled(apierrors.Seconds(1)))
	assert.True(t, a.Advise(wrapped, 1).Retry, "plain wrappers are transparent")

	terminal := a.Exhausted(throttled(apierrors.Seconds(1)), 3)
	assert.False(t, a.Advise(terminal, 1).Retry, "max retries wrapping a throttling cause is terminal")
}

func TestExhausted(t *testing.T) {
	a := NewAdvisor(testPolicy(), nil)
	last := throttled(apierrors.Seconds(2))

	f := a.Exhausted(last, 3)
	assert.Equal(t, apierrors.KindHTTPMaxRetries, f.Kind())
	assert.Equal(t, "exceeded maximum retry count of 2 after 3 attempts", f.Message())
	assert.Equal(t, "exceeded maximum retry count of 2 after 3 attempts: throttled", f.Error())
	assert.True(t, apierrors.IsTerminal(f))
	assert.False(t, apierrors.IsRetriable(f))
	assert.ErrorIs(t, f, apierrors.KindHTTPThrottling)

	var cause *apierrors.HTTPResponseError
	require.ErrorAs(t, f, &cause)
	assert.Same(t, last, cause)

	bare := a.Exhausted(nil, 1)
	assert.Equal(t, "exceeded maximum retry count of 2 after 1 attempts", bare.Message())
	assert.NoError(t, errors.Unwrap(bare))
}

func TestAdviseBoundsOutOfRangeRetryAfter(t *testing.T) {
	a := NewAdvisor(testPolicy(), nil)

	d := a.Advise(throttled(apierrors.Seconds(1e30)), 1)
	assert.True(t, d.Retry)
	assert.Equal(t, 5*time.Second, d.Delay)

	for _, v := range []float64{math.NaN(), math.Inf(1)} {
		d = a.Advise(throttled(apierrors.Seconds(v)), 1)
		assert.True(t, d.Retry)
		assert.Equal(t, 100*time.Millisecond, d.Delay)
		assert.Equal(t, "linear backoff", d.Reason)
	}
}
