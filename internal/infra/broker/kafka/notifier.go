package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"lajuana/internal/app/policies"
	"lajuana/internal/domain/shared/events"
)

// Publisher is the part of Producer the notifier needs.
type Publisher interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// Notifier wraps change records in CloudEvents envelopes and publishes them to
// one topic per event family, keyed by property.
type Notifier struct {
	Publisher   Publisher
	TopicPrefix string
	Source      string
}

func (n *Notifier) Notify(ctx context.Context, records []events.Record) error {
	if n == nil || n.Publisher == nil {
		return errors.New("kafka: notifier missing publisher")
	}
	var errs []error
	for _, rec := range records {
		payload, headers, err := n.formatPayload(rec)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", rec.Name, err))
			continue
		}
		if err := n.Publisher.Publish(ctx, n.topicFor(rec.Name), rec.Aggregate, payload, headers); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", rec.Name, err))
		}
	}
	return errors.Join(errs...)
}

func (n *Notifier) formatPayload(rec events.Record) ([]byte, map[string]string, error) {
	data := map[string]any{}
	if err := json.Unmarshal(rec.Payload, &data); err != nil {
		return nil, nil, err
	}
	evt := map[string]any{
		"specversion":     "1.0",
		"id":              rec.ID,
		"type":            rec.Name + ".v1",
		"source":          n.source(),
		"subject":         rec.Aggregate,
		"time":            rec.OccurredAt,
		"datacontenttype": "application/json",
		"data":            data,
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, nil, err
	}
	headers := map[string]string{
		"content-type": "application/cloudevents+json",
	}
	for k, v := range rec.Headers {
		headers[k] = v
	}
	return payload, headers, nil
}

// topicFor maps "calendar.day_updated" to "<prefix>calendar.events.v1".
func (n *Notifier) topicFor(name string) string {
	base := name
	if idx := strings.IndexRune(name, '.'); idx > 0 {
		base = name[:idx]
	}
	return n.TopicPrefix + base + ".events.v1"
}

func (n *Notifier) source() string {
	if n.Source != "" {
		return n.Source
	}
	return "app://lajuana"
}

var _ policies.ChangeNotifier = (*Notifier)(nil)
