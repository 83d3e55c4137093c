// Package events publishes domain events to the message bus.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// ResultSubmittedType identifies the event emitted after a submission is graded.
const ResultSubmittedType = "result.submitted"

// ResultSubmitted is the payload of a result.submitted event.
type ResultSubmitted struct {
	Type        string    `json:"type"`
	ResultID    uint      `json:"resultId"`
	ExamID      uint      `json:"examId"`
	UserID      uint      `json:"userId"`
	Score       int       `json:"score"`
	TotalPoints int       `json:"totalPoints"`
	Percentage  int       `json:"percentage"`
	Passed      bool      `json:"passed"`
	Attempt     int       `json:"attempt"`
	CompletedAt time.Time `json:"completedAt"`
}

// Publisher delivers result events.
type Publisher interface {
	PublishResultSubmitted(ctx context.Context, event ResultSubmitted) error
}

// NATSPublisher publishes events on a single subject. A nil connection makes it a no-op.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewNATSPublisher constructs a publisher bound to subject.
func NewNATSPublisher(conn *nats.Conn, subject string, logger zerolog.Logger) *NATSPublisher {
	return &NATSPublisher{
		conn:    conn,
		subject: subject,
		logger:  logger.With().Str("component", "result_events").Logger(),
	}
}

// Enabled reports whether events will actually leave the process.
func (p *NATSPublisher) Enabled() bool {
	return p != nil && p.conn != nil && p.subject != ""
}

// PublishResultSubmitted encodes the event and publishes it.
func (p *NATSPublisher) PublishResultSubmitted(ctx context.Context, event ResultSubmitted) error {
	if !p.Enabled() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	event.Type = ResultSubmittedType
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := nats.NewMsg(p.subject)
	msg.Header.Set("Event-Type", ResultSubmittedType)
	msg.Data = payload
	if err := p.conn.PublishMsg(msg); err != nil {
		return err
	}

	p.logger.Debug().Uint("result_id", event.ResultID).Str("subject", p.subject).Msg("result event published")
	return nil
}
