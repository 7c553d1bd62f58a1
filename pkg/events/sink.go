package events

import (
	"encoding/json"
	"strconv"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog/log"
)

// DefaultTopic is where sessions publish unless told otherwise.
const DefaultTopic = "coach.session"

// CorrelationIDMetadataKey carries the exchange ID, which is also sent to the
// reply service as the request ID.
const CorrelationIDMetadataKey = "correlation_id"

// EventSink is a destination for session events.
type EventSink interface {
	PublishEvent(event Event) error
}

// NullSink discards all events.
type NullSink struct{}

func NewNullSink() *NullSink {
	return &NullSink{}
}

func (n *NullSink) PublishEvent(Event) error {
	return nil
}

var _ EventSink = (*NullSink)(nil)

// SinkFunc adapts a plain function, handy in tests.
type SinkFunc func(event Event) error

func (f SinkFunc) PublishEvent(event Event) error {
	return f(event)
}

var _ EventSink = SinkFunc(nil)

// WatermillSink publishes JSON encoded events to a watermill Publisher.
// Each message carries a monotonically increasing sequence_number in its metadata.
type WatermillSink struct {
	publisher message.Publisher
	topic     string

	mu             sync.Mutex
	sequenceNumber uint64
}

func NewWatermillSink(publisher message.Publisher, topic string) *WatermillSink {
	if topic == "" {
		topic = DefaultTopic
	}
	return &WatermillSink{
		publisher: publisher,
		topic:     topic,
	}
}

func (w *WatermillSink) PublishEvent(event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal event to JSON")
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("session_id", event.SessionID)
	msg.Metadata.Set("event_type", string(event.Type))
	if event.ExchangeID != "" {
		msg.Metadata.Set(CorrelationIDMetadataKey, event.ExchangeID)
	}

	// the lock also keeps publish order equal to sequence order
	w.mu.Lock()
	defer w.mu.Unlock()
	msg.Metadata.Set("sequence_number", strconv.FormatUint(w.sequenceNumber, 10))
	w.sequenceNumber++

	if err := w.publisher.Publish(w.topic, msg); err != nil {
		log.Error().Err(err).Str("topic", w.topic).Msg("Failed to publish event to watermill")
		return err
	}

	log.Trace().Str("topic", w.topic).Str("event_type", string(event.Type)).Msg("Published event to watermill")
	return nil
}

var _ EventSink = (*WatermillSink)(nil)
