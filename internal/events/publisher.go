// Package events publishes failures written by the HTTP adapter to NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/commerceapi/apierrors"
	"git.home.luguber.info/inful/commerceapi/internal/logfields"
)

// unclassifiedToken replaces the empty kind of unclassified errors in subjects.
const unclassifiedToken = "unclassified"

type publisher interface {
	Publish(subject string, data []byte) error
}

// Publisher sends one message per failure on <prefix>.<kind>. It implements
// apierrors.Sink.
type Publisher struct {
	pub    publisher
	conn   *nats.Conn
	prefix string
	logger *slog.Logger
}

var _ apierrors.Sink = (*Publisher)(nil)

// Connect dials the NATS server at url.
func Connect(url, prefix string, logger *slog.Logger) (*Publisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := nats.Connect(url, nats.Name("commerceapi-failures"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	logger.Info("NATS failure publisher connected", "url", url, "subject_prefix", prefix)
	return &Publisher{pub: conn, conn: conn, prefix: prefix, logger: logger}, nil
}

// Subject returns the subject a failure of kind is published on.
func (p *Publisher) Subject(kind string) string {
	if kind == "" {
		kind = unclassifiedToken
	}
	return p.prefix + "." + kind
}

// RecordFailure publishes ev as JSON.
func (p *Publisher) RecordFailure(_ context.Context, ev apierrors.FailureEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal failure event: %w", err)
	}
	subject := p.Subject(ev.Kind)
	if err := p.pub.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish failure event: %w", err)
	}
	p.logger.Debug("Published failure event", "subject", subject, logfields.ErrorID(ev.ID), logfields.Kind(ev.Kind))
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *Publisher) Close() error {
	if p.conn == nil {
		return nil
	}
	err := p.conn.Drain()
	if err != nil {
		p.conn.Close()
	}
	return err
}
