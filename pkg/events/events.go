package events

import (
	"encoding/json"

	"github.com/go-go-golems/coach/pkg/conversation"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

type EventType string

const (
	// EventTypeUserTurn: a submission was accepted and its user turn appended.
	EventTypeUserTurn EventType = "user-turn"
	// EventTypeAwaitingReply: the awaiting-reply flag changed.
	EventTypeAwaitingReply EventType = "awaiting-reply"
	// EventTypeAssistantTurn: a reply (or the fallback text) was appended.
	EventTypeAssistantTurn EventType = "assistant-turn"
	// EventTypeReplySettled: the exchange is over, the composer may take input again.
	EventTypeReplySettled EventType = "reply-settled"
)

// Event is the single envelope for everything a session publishes.
// Fields that do not apply to a given type are left empty.
//
// ExchangeID correlates the events of one submission with its reply request.
// FailureKind is set on assistant-turn and reply-settled when the fallback
// text was used.
type Event struct {
	Type          EventType          `json:"type"`
	SessionID     string             `json:"session_id"`
	ExchangeID    string             `json:"exchange_id,omitempty"`
	Turn          *conversation.Turn `json:"turn,omitempty"`
	AwaitingReply bool               `json:"awaiting_reply"`
	FailureKind   string             `json:"failure_kind,omitempty"`
}

func (e Event) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("type", string(e.Type)).
		Str("session_id", e.SessionID).
		Bool("awaiting_reply", e.AwaitingReply)
	if e.ExchangeID != "" {
		ev.Str("exchange_id", e.ExchangeID)
	}
	if e.Turn != nil {
		ev.Str("speaker", e.Turn.Speaker.String()).
			Str("turn_id", e.Turn.ID.String())
	}
	if e.FailureKind != "" {
		ev.Str("failure_kind", e.FailureKind)
	}
}

func NewUserTurnEvent(sessionID string, turn conversation.Turn) Event {
	return Event{
		Type:          EventTypeUserTurn,
		SessionID:     sessionID,
		Turn:          &turn,
		AwaitingReply: true,
	}
}

func NewAwaitingReplyEvent(sessionID string, awaiting bool) Event {
	return Event{
		Type:          EventTypeAwaitingReply,
		SessionID:     sessionID,
		AwaitingReply: awaiting,
	}
}

func NewAssistantTurnEvent(sessionID string, turn conversation.Turn, failureKind string) Event {
	return Event{
		Type:        EventTypeAssistantTurn,
		SessionID:   sessionID,
		Turn:        &turn,
		FailureKind: failureKind,
	}
}

func NewReplySettledEvent(sessionID string, failureKind string) Event {
	return Event{
		Type:        EventTypeReplySettled,
		SessionID:   sessionID,
		FailureKind: failureKind,
	}
}

func NewEventFromJson(b []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(b, &e); err != nil {
		return Event{}, errors.Wrap(err, "could not unmarshal event")
	}

	switch e.Type {
	case EventTypeUserTurn, EventTypeAssistantTurn:
		if e.Turn == nil {
			return Event{}, errors.Errorf("event %s has no turn", e.Type)
		}
	case EventTypeAwaitingReply, EventTypeReplySettled:
	default:
		return Event{}, errors.Errorf("unknown event type %q", e.Type)
	}

	return e, nil
}
