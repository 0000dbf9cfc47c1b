package mail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	// StreamName is the JetStream stream backing the mail queue.
	StreamName = "MAIL"
	// Subject carries queued Message payloads.
	Subject = "mail.send"
)

// Message is one queued email.
type Message struct {
	Recipients []string `json:"recipients"`
	Subject    string   `json:"subject"`
	HTMLBody   string   `json:"html_body"`
}

// Dispatcher queues outbound mail. Dispatch returns once the message is
// accepted by the queue, not when it is delivered.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg Message) error
}

type publisher interface {
	Publish(subj string, data []byte, opts ...nats.PubOpt) (*nats.PubAck, error)
}

// NATSDispatcher publishes messages to a JetStream stream so they survive a
// restart of the mail worker.
type NATSDispatcher struct {
	js publisher
}

// NewNATSDispatcher makes sure the mail stream exists and returns a dispatcher
// publishing into it.
func NewNATSDispatcher(nc *nats.Conn) (*NATSDispatcher, error) {
	js, err := EnsureStream(nc)
	if err != nil {
		return nil, err
	}
	return &NATSDispatcher{js: js}, nil
}

// EnsureStream creates the mail stream on first use.
func EnsureStream(nc *nats.Conn) (nats.JetStreamContext, error) {
	js, err := nc.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	_, err = js.StreamInfo(StreamName)
	if errors.Is(err, nats.ErrStreamNotFound) {
		_, err = js.AddStream(&nats.StreamConfig{
			Name:      StreamName,
			Subjects:  []string{Subject},
			Retention: nats.WorkQueuePolicy,
			MaxAge:    24 * time.Hour,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("mail stream: %w", err)
	}
	return js, nil
}

func (d *NATSDispatcher) Dispatch(ctx context.Context, msg Message) error {
	if len(msg.Recipients) == 0 {
		return errors.New("mail: no recipients")
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode mail: %w", err)
	}
	if _, err := d.js.Publish(Subject, data, nats.Context(ctx)); err != nil {
		return fmt.Errorf("publish mail: %w", err)
	}
	return nil
}
