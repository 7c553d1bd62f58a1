package conversation

import (
	"strings"
	"time"

	"github.com/huandu/go-clone"
)

// DefaultGreeting seeds every new session.
const DefaultGreeting = "Hello! I'm your supportive mental coach. I'm here to help you with stress, " +
	"motivation, habits, and confidence. What's on your mind today?"

// State is the whole session state as seen by the presentation layer.
//
// All transitions are value-receiver methods returning a new State; a State
// handed out as a snapshot never changes underneath its holder.
type State struct {
	Transcript    Transcript
	Draft         string
	AwaitingReply bool
	// Version is bumped by every transition that changes the state.
	Version int64
}

// NewState returns a session holding exactly one seed assistant turn.
func NewState(greeting string, now time.Time) State {
	if greeting == "" {
		greeting = DefaultGreeting
	}
	seed, _ := NewTurn(SpeakerAssistant, greeting, WithCreatedAt(now))
	return State{
		Transcript: NewTranscript(seed),
	}
}

// Idle reports whether a new submission would be accepted, ignoring the draft.
func (s State) Idle() bool {
	return !s.AwaitingReply
}

func (s State) WithDraft(draft string) State {
	if s.Draft == draft {
		return s
	}
	s.Draft = draft
	s.Version++
	return s
}

// CanSubmit reports whether Submit(draft) would be accepted.
func (s State) CanSubmit(draft string) bool {
	return !s.AwaitingReply && strings.TrimSpace(draft) != ""
}

// Submit moves Idle -> Sending. It appends the trimmed draft as a user turn,
// clears the draft and raises AwaitingReply.
//
// Blank drafts and submissions while a reply is pending are no-ops: the
// unchanged state is returned with ok == false.
func (s State) Submit(draft string, now time.Time) (State, Turn, bool) {
	if !s.CanSubmit(draft) {
		return s, Turn{}, false
	}

	turn, err := NewTurn(SpeakerUser, strings.TrimSpace(draft), WithCreatedAt(now))
	if err != nil {
		return s, Turn{}, false
	}

	s.Transcript = s.Transcript.Append(turn)
	s.Draft = ""
	s.AwaitingReply = true
	s.Version++

	return s, turn, true
}

// Resolve moves Sending -> Idle, appending exactly one assistant turn.
// Resolving while idle is a no-op so a reply can never be recorded twice.
func (s State) Resolve(text string, now time.Time) (State, Turn, bool) {
	if !s.AwaitingReply {
		return s, Turn{}, false
	}

	turn, err := NewTurn(SpeakerAssistant, text, WithCreatedAt(now))
	if err != nil {
		return s, Turn{}, false
	}

	s.Transcript = s.Transcript.Append(turn)
	s.AwaitingReply = false
	s.Version++

	return s, turn, true
}

// Clone returns a deep copy.
func (s State) Clone() State {
	return clone.Clone(s).(State)
}
