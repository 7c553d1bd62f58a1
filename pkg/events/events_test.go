package events

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/coach/pkg/conversation"
)

func TestNewEventFromJson(t *testing.T) {
	turn, err := conversation.NewTurn(conversation.SpeakerUser, "hi")
	require.NoError(t, err)

	b, err := json.Marshal(NewUserTurnEvent("s1", turn))
	require.NoError(t, err)

	ev, err := NewEventFromJson(b)
	require.NoError(t, err)
	assert.Equal(t, EventTypeUserTurn, ev.Type)
	assert.Equal(t, "s1", ev.SessionID)
	require.NotNil(t, ev.Turn)
	assert.Equal(t, turn.ID, ev.Turn.ID)
	assert.Equal(t, "hi", ev.Turn.Text)
	assert.True(t, ev.AwaitingReply)
}

func TestNewEventFromJson_Invalid(t *testing.T) {
	_, err := NewEventFromJson([]byte(`not json`))
	assert.Error(t, err)

	_, err = NewEventFromJson([]byte(`{"type":"bogus"}`))
	assert.Error(t, err)

	_, err = NewEventFromJson([]byte(`{"type":"assistant-turn","session_id":"s"}`))
	assert.Error(t, err)

	ev, err := NewEventFromJson([]byte(`{"type":"reply-settled","session_id":"s","failure_kind":"status"}`))
	require.NoError(t, err)
	assert.Equal(t, "status", ev.FailureKind)
}

func TestWatermillSink_SequenceNumbers(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer func() { _ = pubSub.Close() }()

	msgs, err := pubSub.Subscribe(context.Background(), "test-topic")
	require.NoError(t, err)

	sink := NewWatermillSink(pubSub, "test-topic")
	awaiting := NewAwaitingReplyEvent("s1", true)
	awaiting.ExchangeID = "ex-1"
	require.NoError(t, sink.PublishEvent(awaiting))
	require.NoError(t, sink.PublishEvent(NewReplySettledEvent("s1", "")))

	for i, expected := range []EventType{EventTypeAwaitingReply, EventTypeReplySettled} {
		select {
		case msg := <-msgs:
			assert.Equal(t, string(expected), msg.Metadata.Get("event_type"))
			assert.Equal(t, "s1", msg.Metadata.Get("session_id"))
			assert.Equal(t, []string{"0", "1"}[i], msg.Metadata.Get("sequence_number"))
			assert.Equal(t, []string{"ex-1", ""}[i], msg.Metadata.Get(CorrelationIDMetadataKey))
			msg.Ack()
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for message")
		}
	}
}

func TestWatermillSink_DefaultTopic(t *testing.T) {
	sink := NewWatermillSink(nil, "")
	assert.Equal(t, DefaultTopic, sink.topic)
}

func TestEventRouter_RoundTrip(t *testing.T) {
	router, err := NewEventRouter()
	require.NoError(t, err)

	var mu sync.Mutex
	var received []Event
	router.AddEventHandler("collect", DefaultTopic, func(ctx context.Context, ev Event) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, ev)
		return nil
	})
	router.AddHandler("raw", "other", func(msg *message.Message) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = router.Run(ctx) }()
	<-router.Running()
	assert.True(t, router.IsRunning())

	sink := router.Sink(DefaultTopic)
	turn, _ := conversation.NewTurn(conversation.SpeakerAssistant, "reply")
	require.NoError(t, sink.PublishEvent(NewAssistantTurnEvent("s1", turn, "")))
	// undecodable payloads are dropped, not retried
	require.NoError(t, router.Publisher.Publish(DefaultTopic, message.NewMessage(watermill.NewUUID(), []byte("junk"))))
	require.NoError(t, sink.PublishEvent(NewReplySettledEvent("s1", "")))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 2
	}, 2*time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.Equal(t, EventTypeAssistantTurn, received[0].Type)
	assert.Equal(t, "reply", received[0].Turn.Text)
	assert.Equal(t, EventTypeReplySettled, received[1].Type)
	mu.Unlock()

	require.NoError(t, router.Close())
}

func TestSinkFunc(t *testing.T) {
	var got []EventType
	sink := SinkFunc(func(ev Event) error {
		got = append(got, ev.Type)
		return nil
	})
	require.NoError(t, sink.PublishEvent(NewAwaitingReplyEvent("s", false)))
	require.NoError(t, NewNullSink().PublishEvent(NewAwaitingReplyEvent("s", false)))
	assert.Equal(t, []EventType{EventTypeAwaitingReply}, got)
}
