package live

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/brewdesk/pkg/models"
)

// Reconnect backoff shared by the broker subscribers.
const (
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
)

// Handler receives every decoded order event.
type Handler func(models.OrderEvent)

// Subscriber delivers live order events until ctx is cancelled.
type Subscriber interface {
	Run(ctx context.Context, handle Handler) error
	Close() error
}

// Decode parses an event. A bare order object is accepted as an update.
func Decode(body []byte) (models.OrderEvent, error) {
	var ev models.OrderEvent
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return ev, fmt.Errorf("decode order event: %w", err)
	}

	if raw, ok := fields["order"]; ok && !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		if err := json.Unmarshal(body, &ev); err != nil {
			return ev, fmt.Errorf("decode order event: %w", err)
		}
	} else {
		if err := json.Unmarshal(body, &ev.Order); err != nil {
			return ev, fmt.Errorf("decode order: %w", err)
		}
		ev.Type = models.EventOrderUpdated
	}

	switch ev.Type {
	case models.EventOrderCreated, models.EventOrderUpdated:
	case "":
		ev.Type = models.EventOrderUpdated
	default:
		return ev, fmt.Errorf("unknown event type %q", ev.Type)
	}
	if ev.Order.ID == "" {
		return ev, errors.New("order event without order id")
	}
	return ev, nil
}

// Nop never delivers anything.
type Nop struct{}

func (Nop) Run(ctx context.Context, _ Handler) error {
	<-ctx.Done()
	return nil
}

func (Nop) Close() error { return nil }
