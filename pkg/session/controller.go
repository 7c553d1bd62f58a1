package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/coach/pkg/conversation"
	"github.com/go-go-golems/coach/pkg/events"
	"github.com/go-go-golems/coach/pkg/replyclient"
)

// DefaultFallbackText replaces the reply whenever the reply service fails, whatever the reason.
const DefaultFallbackText = "Sorry, I encountered an error. Please make sure the backend server is running and try again."

// Replier is the one outbound call the controller makes.
type Replier interface {
	GenerateReply(ctx context.Context, message string) (string, error)
}

type ReplierFunc func(ctx context.Context, message string) (string, error)

func (f ReplierFunc) GenerateReply(ctx context.Context, message string) (string, error) {
	return f(ctx, message)
}

var _ Replier = (*replyclient.Client)(nil)

// Controller owns a conversation session.
//
// It owns:
// - the session state (transcript, draft, awaiting-reply flag); nothing else mutates it
// - the invariant that at most one reply request is in flight
// - the invariant that every user turn is followed by exactly one assistant turn
//
// Failures of the reply service never leave the controller: they become a
// fallback assistant turn and a log line.
type Controller struct {
	SessionID string

	replier      Replier
	sink         events.EventSink
	now          func() time.Time
	logger       zerolog.Logger
	greeting     string
	fallbackText string

	mu     sync.Mutex
	state  conversation.State
	active *Exchange
	closed bool
}

type Option func(*Controller)

func WithGreeting(greeting string) Option {
	return func(c *Controller) {
		c.greeting = greeting
	}
}

func WithFallbackText(text string) Option {
	return func(c *Controller) {
		c.fallbackText = text
	}
}

func WithSink(sink events.EventSink) Option {
	return func(c *Controller) {
		c.sink = sink
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

func WithSessionID(id string) Option {
	return func(c *Controller) {
		c.SessionID = id
	}
}

// New creates a controller whose transcript holds the greeting as its only turn.
func New(replier Replier, options ...Option) *Controller {
	ret := &Controller{
		replier:      replier,
		sink:         events.NewNullSink(),
		now:          time.Now,
		logger:       log.Logger,
		greeting:     conversation.DefaultGreeting,
		fallbackText: DefaultFallbackText,
	}
	for _, o := range options {
		o(ret)
	}
	if ret.SessionID == "" {
		ret.SessionID = uuid.NewString()
	}
	if ret.fallbackText == "" {
		ret.fallbackText = DefaultFallbackText
	}
	ret.logger = ret.logger.With().Str("session_id", ret.SessionID).Logger()
	ret.state = conversation.NewState(ret.greeting, ret.now())

	return ret
}

func (c *Controller) FallbackText() string {
	return c.fallbackText
}

// Snapshot returns a deep copy of the current state for rendering.
func (c *Controller) Snapshot() conversation.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

func (c *Controller) Transcript() conversation.Transcript {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Transcript
}

func (c *Controller) AwaitingReply() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.AwaitingReply
}

// Active returns the in-flight exchange, or nil.
func (c *Controller) Active() *Exchange {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// SetDraft mirrors the composer content into the session state.
func (c *Controller) SetDraft(draft string) {
	c.mu.Lock()
	c.state = c.state.WithDraft(draft)
	c.mu.Unlock()
}

// Submit appends draft as a user turn and sends it to the reply service.
//
// Blank drafts, submissions while a reply is pending and submissions after
// Close are silently ignored: Submit returns (nil, false) and nothing else
// happens. On acceptance the draft is already cleared and AwaitingReply set
// when Submit returns; the request itself runs in the background and the
// returned Exchange settles once the assistant turn is appended.
//
// ctx is handed to the reply request unchanged. No deadline is added, so a
// service that never answers keeps the session awaiting its reply.
func (c *Controller) Submit(ctx context.Context, draft string) (*Exchange, bool) {
	if ctx == nil {
		ctx = context.Background()
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.logger.Debug().Msg("Ignoring submission on closed session")
		return nil, false
	}
	next, turn, ok := c.state.Submit(draft, c.now())
	if !ok {
		awaiting := c.state.AwaitingReply
		c.mu.Unlock()
		c.logger.Debug().Bool("awaiting_reply", awaiting).Msg("Ignoring submission")
		return nil, false
	}
	c.state = next
	ex := newExchange(c.SessionID, shortuuid.New(), turn)
	c.active = ex
	c.mu.Unlock()

	go c.run(replyclient.WithRequestID(ctx, ex.ID), ex)

	return ex, true
}

func (c *Controller) run(ctx context.Context, ex *Exchange) {
	c.publish(ex, events.NewUserTurnEvent(c.SessionID, ex.UserTurn))
	c.publish(ex, events.NewAwaitingReplyEvent(c.SessionID, true))

	text, err := c.generateReply(ctx, ex.UserTurn.Text)
	failureKind := ""
	if err != nil {
		failureKind = FailureKind(err)
		ev := c.logger.Error().
			Err(err).
			Str("exchange_id", ex.ID).
			Str("kind", failureKind)
		if code := statusCode(err); code != 0 {
			ev = ev.Int("status", code)
		}
		ev.Msg("Reply request failed, using fallback text")
		text = c.fallbackText
	}

	c.mu.Lock()
	next, reply, ok := c.state.Resolve(text, c.now())
	c.state = next
	if c.active == ex {
		c.active = nil
	}
	closed := c.closed
	c.mu.Unlock()

	if !ok {
		// unreachable as long as Submit is the only way to raise AwaitingReply
		c.logger.Error().Str("exchange_id", ex.ID).Msg("Reply settled while no reply was awaited")
	}

	if !closed {
		c.publish(ex, events.NewAssistantTurnEvent(c.SessionID, reply, failureKind))
		c.publish(ex, events.NewAwaitingReplyEvent(c.SessionID, false))
		c.publish(ex, events.NewReplySettledEvent(c.SessionID, failureKind))
	}

	ex.settle(reply, err)
}

// generateReply turns a panicking replier into an ordinary failure, so the
// exchange still ends with an assistant turn.
func (c *Controller) generateReply(ctx context.Context, message string) (reply string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reply service call panicked: %v", r)
		}
	}()
	return c.replier.GenerateReply(ctx, message)
}

func (c *Controller) publish(ex *Exchange, ev events.Event) {
	if c.sink == nil {
		return
	}
	ev.ExchangeID = ex.ID
	if err := c.sink.PublishEvent(ev); err != nil {
		c.logger.Warn().Err(err).Object("event", ev).Msg("Failed to publish session event")
	}
}

// Close tears the session down. Later submissions are ignored. A reply still
// in flight is not canceled; when it arrives it is recorded in the transcript
// but no event is published for it.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *Controller) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
