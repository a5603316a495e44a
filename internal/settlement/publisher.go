package settlement

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

const (
	// StreamName is the JetStream stream holding vault intents.
	StreamName    = "VAULT_INTENTS"
	subjectPrefix = "vault.intents"
)

// JetStreamPublisher is the subset of jetstream.JetStream used by Publisher.
type JetStreamPublisher interface {
	Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// Publisher delivers intents to NATS JetStream, one message per intent on
// vault.intents.<kind>. The intent ID is used as the message ID so redelivery
// after a retry is deduplicated by the stream.
type Publisher struct {
	js JetStreamPublisher
}

// NewPublisher constructs a JetStream-backed executor.
func NewPublisher(js JetStreamPublisher) *Publisher {
	return &Publisher{js: js}
}

// Subject returns the subject an intent is published on.
func Subject(in Intent) string {
	return fmt.Sprintf("%s.%s", subjectPrefix, in.Kind)
}

// Execute publishes intents in order and stops at the first failure.
func (p *Publisher) Execute(ctx context.Context, intents []Intent) error {
	for _, in := range intents {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal intent %s: %w", in.ID, err)
		}
		if _, err := p.js.Publish(ctx, Subject(in), data, jetstream.WithMsgID(in.ID)); err != nil {
			return fmt.Errorf("publish intent %s: %w", in.ID, err)
		}
	}
	return nil
}

// EnsureStream creates the intents stream when missing.
func EnsureStream(ctx context.Context, js jetstream.JetStream) error {
	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:       StreamName,
		Subjects:   []string{subjectPrefix + ".>"},
		Storage:    jetstream.FileStorage,
		Retention:  jetstream.LimitsPolicy,
		MaxAge:     72 * time.Hour,
		Duplicates: 10 * time.Minute,
		Replicas:   1,
	})
	if err != nil {
		return fmt.Errorf("create stream %s: %w", StreamName, err)
	}
	return nil
}
