package dto

import (
	"encoding/json"

	"lajuana/internal/domain/shared/events"
)

// MutationResult reports a write forwarded to the provider. Upstream is the
// provider's response body when it is JSON.
type MutationResult struct {
	OK       bool            `json:"ok"`
	Status   int             `json:"status"`
	Upstream json.RawMessage `json:"upstream,omitempty"`

	events []events.DomainEvent
}

func NewMutationResult(status int, body []byte, evs ...events.DomainEvent) MutationResult {
	res := MutationResult{OK: true, Status: status, events: evs}
	if len(body) > 0 && json.Valid(body) {
		res.Upstream = json.RawMessage(body)
	}
	return res
}

// DomainEvents is empty for results replayed from the idempotency store.
func (r MutationResult) DomainEvents() []events.DomainEvent {
	return r.events
}
