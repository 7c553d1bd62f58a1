package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/go-go-golems/coach/pkg/events"
	"github.com/go-go-golems/coach/pkg/session"
)

// SessionEventMsg carries a session event into the bubbletea loop.
type SessionEventMsg struct {
	Event events.Event
}

// exchangeSettledMsg is produced by waiting on the Exchange directly, so the
// model settles even when no event router is wired.
type exchangeSettledMsg struct {
	ExchangeID string
}

type exportedMsg struct {
	Path string
}

type errMsg error

// Sender is the part of *tea.Program the forwarder needs.
type Sender interface {
	Send(msg tea.Msg)
}

var _ Sender = (*tea.Program)(nil)

// ForwardFunc returns an event handler for events.EventRouter.AddEventHandler
// that hands every session event to p.
func ForwardFunc(p Sender) func(ctx context.Context, ev events.Event) error {
	return func(ctx context.Context, ev events.Event) error {
		p.Send(SessionEventMsg{Event: ev})
		return nil
	}
}

func waitForExchange(ex *session.Exchange) tea.Cmd {
	return func() tea.Msg {
		<-ex.Done()
		return exchangeSettledMsg{ExchangeID: ex.ID}
	}
}
