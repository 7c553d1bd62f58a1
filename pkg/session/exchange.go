package session

import (
	"context"
	"errors"
	"sync"

	"github.com/go-go-golems/coach/pkg/conversation"
)

var ErrExchangeNil = errors.New("exchange is nil")

// Exchange is one accepted submission: the user turn and, once settled, the
// assistant turn that answered it.
//
// It is waitable but not cancelable; the only way out of the sending state is
// the reply service answering (or failing).
type Exchange struct {
	SessionID string
	ID        string
	UserTurn  conversation.Turn

	done chan struct{}

	mu    sync.Mutex
	reply conversation.Turn
	err   error
}

func newExchange(sessionID, id string, userTurn conversation.Turn) *Exchange {
	return &Exchange{
		SessionID: sessionID,
		ID:        id,
		UserTurn:  userTurn,
		done:      make(chan struct{}),
	}
}

func (e *Exchange) settle(reply conversation.Turn, err error) {
	e.mu.Lock()
	e.reply = reply
	e.err = err
	close(e.done)
	e.mu.Unlock()
}

// Done is closed once the assistant turn has been appended.
func (e *Exchange) Done() <-chan struct{} {
	return e.done
}

// Wait blocks until the exchange settles. It returns the assistant turn that
// was appended and, for diagnostics only, the classified failure if the
// fallback text was used.
func (e *Exchange) Wait() (conversation.Turn, error) {
	if e == nil {
		return conversation.Turn{}, ErrExchangeNil
	}
	<-e.done
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reply, e.err
}

// WaitContext is Wait bounded by ctx. Giving up waiting does not affect the
// exchange itself, which keeps running until the service answers.
func (e *Exchange) WaitContext(ctx context.Context) (conversation.Turn, error) {
	if e == nil {
		return conversation.Turn{}, ErrExchangeNil
	}
	select {
	case <-e.done:
		return e.Wait()
	case <-ctx.Done():
		return conversation.Turn{}, ctx.Err()
	}
}

func (e *Exchange) Settled() bool {
	if e == nil {
		return false
	}
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}
