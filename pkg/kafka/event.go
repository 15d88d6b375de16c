package kafka

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// EnvelopeVersion is bumped whenever the envelope layout changes.
const EnvelopeVersion = 1

const metadataHeaderPrefix = "x-meta-"

// Event is the envelope for every message the storefront publishes. Data
// carries the domain payload; the remaining fields let consumers route and
// deduplicate without decoding it.
type Event struct {
	EventID       string            `json:"event_id"`
	EventType     string            `json:"event_type"`
	AggregateID   string            `json:"aggregate_id"`
	AggregateType string            `json:"aggregate_type"`
	Version       int               `json:"version"`
	Timestamp     time.Time         `json:"timestamp"`
	Source        string            `json:"source"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	Data          json.RawMessage   `json:"data"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// NewEvent wraps data in an envelope stamped with a fresh ID and UTC time.
func NewEvent(eventType, aggregateID, aggregateType, source string, data any) (*Event, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	e := &Event{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		Version:       EnvelopeVersion,
		Timestamp:     time.Now().UTC(),
		Source:        source,
		Data:          payload,
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// Validate reports envelopes that consumers could not route.
func (e *Event) Validate() error {
	var errs []error
	if e.EventType == "" {
		errs = append(errs, errors.New("event type is empty"))
	}
	if e.AggregateID == "" {
		errs = append(errs, errors.New("aggregate id is empty"))
	}
	if e.Source == "" {
		errs = append(errs, errors.New("source is empty"))
	}
	return errors.Join(errs...)
}

func (e *Event) WithCorrelationID(id string) *Event {
	e.CorrelationID = id
	return e
}

// WithMetadata attaches a key that is also exposed as an x-meta-* header.
func (e *Event) WithMetadata(key, value string) *Event {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string, 1)
	}
	e.Metadata[key] = value
	return e
}

// Headers returns the routing headers written alongside the message body.
func (e *Event) Headers() []kafka.Header {
	headers := make([]kafka.Header, 0, 3+len(e.Metadata))
	headers = append(headers,
		kafka.Header{Key: "event_type", Value: []byte(e.EventType)},
		kafka.Header{Key: "source", Value: []byte(e.Source)},
	)
	if e.CorrelationID != "" {
		headers = append(headers, kafka.Header{Key: "correlation_id", Value: []byte(e.CorrelationID)})
	}
	for k, v := range e.Metadata {
		headers = append(headers, kafka.Header{Key: metadataHeaderPrefix + k, Value: []byte(v)})
	}
	return headers
}

func (e *Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalData decodes the payload into target.
func (e *Event) UnmarshalData(target any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("event %s has no payload", e.EventID)
	}
	return json.Unmarshal(e.Data, target)
}
