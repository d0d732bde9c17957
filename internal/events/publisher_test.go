package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/commerceapi/apierrors"
)

type message struct {
	subject string
	data    []byte
}

type fakePublisher struct {
	sent []message
	err  error
}

func (f *fakePublisher) Publish(subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, message{subject: subject, data: data})
	return nil
}

func newTestPublisher(f *fakePublisher) *Publisher {
	return &Publisher{
		pub:    f,
		prefix: "shop.failures",
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestPublisherRecordFailure(t *testing.T) {
	f := &fakePublisher{}
	p := newTestPublisher(f)
	ev := apierrors.FailureEvent{
		ID:        "abc",
		Kind:      "http_throttling",
		Category:  "http_response",
		Message:   "slow down",
		Status:    429,
		Retryable: true,
		Time:      time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	require.NoError(t, p.RecordFailure(context.Background(), ev))
	require.Len(t, f.sent, 1)
	assert.Equal(t, "shop.failures.http_throttling", f.sent[0].subject)

	var got apierrors.FailureEvent
	require.NoError(t, json.Unmarshal(f.sent[0].data, &got))
	assert.Equal(t, ev, got)
}

func TestPublisherSubjectForUnclassified(t *testing.T) {
	p := newTestPublisher(&fakePublisher{})
	assert.Equal(t, "shop.failures.unclassified", p.Subject(""))
	assert.Equal(t, "shop.failures.billing", p.Subject("billing"))
}

func TestPublisherPropagatesPublishError(t *testing.T) {
	f := &fakePublisher{err: errors.New("connection closed")}
	p := newTestPublisher(f)

	err := p.RecordFailure(context.Background(), apierrors.FailureEvent{Kind: "session"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection closed")
}

func TestPublisherCloseWithoutConnection(t *testing.T) {
	p := newTestPublisher(&fakePublisher{})
	assert.NoError(t, p.Close())
}
