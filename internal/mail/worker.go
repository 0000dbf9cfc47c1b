package mail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/bookly/bookly-api/internal/metrics"
)

// QueueGroup is the durable consumer shared by all mail workers.
const QueueGroup = "mailer"

// errPoison marks a payload that can never be delivered.
var errPoison = errors.New("undeliverable mail payload")

// Worker drains the mail stream and hands each message to a Sender.
type Worker struct {
	sender      Sender
	sendTimeout time.Duration
}

func NewWorker(sender Sender) *Worker {
	return &Worker{sender: sender, sendTimeout: 30 * time.Second}
}

// Subscribe attaches the worker to the mail stream. Failed deliveries are
// redelivered by JetStream up to five times.
func (w *Worker) Subscribe(js nats.JetStreamContext) (*nats.Subscription, error) {
	return js.QueueSubscribe(Subject, QueueGroup, w.handle,
		nats.Durable(QueueGroup),
		nats.ManualAck(),
		nats.AckWait(2*w.sendTimeout),
		nats.MaxDeliver(5),
	)
}

func (w *Worker) handle(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), w.sendTimeout)
	defer cancel()

	err := w.process(ctx, msg.Data)
	switch {
	case err == nil:
		metrics.MailDeliveries.WithLabelValues("sent").Inc()
		if err := msg.Ack(); err != nil {
			log.Printf("WARN: ack mail: %v", err)
		}
	case errors.Is(err, errPoison):
		metrics.MailDeliveries.WithLabelValues("dropped").Inc()
		log.Printf("ERROR: drop mail: %v", err)
		_ = msg.Term()
	default:
		metrics.MailDeliveries.WithLabelValues("failed").Inc()
		log.Printf("ERROR: send mail: %v", err)
		_ = msg.Nak()
	}
}

func (w *Worker) process(ctx context.Context, data []byte) error {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("%w: %v", errPoison, err)
	}
	if len(m.Recipients) == 0 {
		return fmt.Errorf("%w: no recipients", errPoison)
	}
	return w.sender.Send(ctx, m)
}
