package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type DomainEvent interface {
	EventName() string
	AggregateID() string
	OccurredAt() time.Time
}

// Source is implemented by results that carry events to publish once the
// operation that produced them has succeeded.
type Source interface {
	DomainEvents() []DomainEvent
}

// Record is the wire form of an event handed to a notifier.
type Record struct {
	ID         string
	Name       string
	Payload    []byte
	OccurredAt time.Time
	Aggregate  string
	Headers    map[string]string
}

type Encoder interface {
	Encode(ev DomainEvent) (Record, error)
}

type JSONEncoder struct {
	IDGenerator func() string
}

func (e JSONEncoder) Encode(ev DomainEvent) (Record, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return Record{}, err
	}
	idGen := e.IDGenerator
	if idGen == nil {
		idGen = uuid.NewString
	}
	return Record{
		ID:         idGen(),
		Name:       ev.EventName(),
		Payload:    payload,
		OccurredAt: ev.OccurredAt(),
		Aggregate:  ev.AggregateID(),
		Headers:    map[string]string{},
	}, nil
}

// EncodeAll encodes evs in order, stopping at the first failure.
func EncodeAll(encoder Encoder, evs []DomainEvent) ([]Record, error) {
	if encoder == nil {
		encoder = JSONEncoder{}
	}
	out := make([]Record, 0, len(evs))
	for _, ev := range evs {
		if ev == nil {
			continue
		}
		rec, err := encoder.Encode(ev)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
