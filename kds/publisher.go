package kds

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Event names pushed to the kitchen display and the other sinks.
const (
	EventNewOrder      = "newOrder"
	EventOrderUpdated  = "orderUpdated"
	EventTableCreated  = "tableCreated"
	EventTableUpdated  = "tableUpdated"
	EventTableDeleted  = "tableDeleted"
	EventStockMovement = "stockMovement"
	EventLowStock      = "lowStock"
	EventStockDrift    = "stockDrift"
)

type Message struct {
	Event  string      `json:"event"`
	Data   interface{} `json:"data"`
	SentAt time.Time   `json:"sent_at"`
}

func NewMessage(event string, payload interface{}) Message {
	return Message{Event: event, Data: payload, SentAt: time.Now().UTC()}
}

func (m Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// Publisher delivers an event to whoever is listening. Callers publish
// after commit and treat errors as non-fatal.
type Publisher interface {
	Publish(ctx context.Context, event string, payload interface{}) error
}

// Fanout publishes to every sink and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, event string, payload interface{}) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, event, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type Nop struct{}

func (Nop) Publish(context.Context, string, interface{}) error { return nil }
