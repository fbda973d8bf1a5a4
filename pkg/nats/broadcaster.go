package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

// QuotaSubject carries AI quota-state changes between instances. It is a core
// NATS subject: a late subscriber has no use for old state changes.
const QuotaSubject = "ai.quota.state"

type Broadcast struct {
	Origin string `json:"origin"`
	Action string `json:"action"` // "exceeded" or "reset"
	Code   string `json:"code,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Broadcaster is fire-and-forget fan-out over a core NATS subject.
type Broadcaster struct {
	nc      *nats.Conn
	subject string
}

func NewBroadcaster(nc *nats.Conn, subject string) *Broadcaster {
	return &Broadcaster{nc: nc, subject: subject}
}

func (b *Broadcaster) Broadcast(ctx context.Context, msg Broadcast) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal broadcast: %w", err)
	}
	if err := b.nc.Publish(b.subject, data); err != nil {
		return fmt.Errorf("failed to broadcast on %s: %w", b.subject, err)
	}
	return nil
}

// Listen calls handler for every broadcast until the returned stop func runs.
func (b *Broadcaster) Listen(handler func(Broadcast)) (func(), error) {
	sub, err := b.nc.Subscribe(b.subject, func(m *nats.Msg) {
		var msg Broadcast
		if err := json.Unmarshal(m.Data, &msg); err != nil {
			return
		}
		handler(msg)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", b.subject, err)
	}
	return func() { _ = sub.Unsubscribe() }, nil
}
