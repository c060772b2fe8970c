package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/alexvidal/safewalk/internal/core/domain"
)

// Subjects used by the dashboard.
const (
	SubjectAssessment   = "safewalk.assessment.updated"
	SubjectViewCommands = "safewalk.view.commands"
)

// Publisher implements ports.EventPublisher using NATS. Assessment events
// go through JetStream so a reconnecting dashboard can catch up; view
// commands are plain publishes because only the live view cares about them.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and ensures the assessment stream exists.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := nats.StreamConfig{
		Name:      "SAFEWALK_ASSESSMENT",
		Subjects:  []string{"safewalk.assessment.>"},
		Retention: nats.LimitsPolicy,
		MaxAge:    1 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(&cfg); err != nil {
		// Stream may already exist — try update
		if _, err := js.UpdateStream(&cfg); err != nil {
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishAssessment publishes the full state snapshot after a run.
func (p *Publisher) PublishAssessment(ctx context.Context, snap *domain.AssessmentSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectAssessment, data)
	return err
}

// PublishViewCommand broadcasts one pre-encoded view command.
func (p *Publisher) PublishViewCommand(ctx context.Context, data []byte) error {
	return p.conn.Publish(SubjectViewCommands, data)
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
