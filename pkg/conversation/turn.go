package conversation

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// TimeFormat is the layout used when a turn's creation time is shown to the user.
const TimeFormat = "15:04"

var (
	ErrInvalidSpeaker = errors.New("invalid speaker")
	ErrEmptyUserText  = errors.New("user turn text is empty")
)

func (s Speaker) Valid() bool {
	switch s {
	case SpeakerUser, SpeakerAssistant:
		return true
	default:
		return false
	}
}

func (s Speaker) String() string {
	return string(s)
}

// Turn is a single entry of the transcript.
type Turn struct {
	ID        uuid.UUID `json:"id" yaml:"id"`
	Speaker   Speaker   `json:"speaker" yaml:"speaker"`
	Text      string    `json:"text" yaml:"text"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
}

type TurnOption func(*Turn)

func WithID(id uuid.UUID) TurnOption {
	return func(t *Turn) {
		t.ID = id
	}
}

func WithCreatedAt(createdAt time.Time) TurnOption {
	return func(t *Turn) {
		t.CreatedAt = createdAt
	}
}

// NewTurn builds a turn, rejecting unknown speakers and blank user text.
// Assistant turns may carry any text.
func NewTurn(speaker Speaker, text string, options ...TurnOption) (Turn, error) {
	if !speaker.Valid() {
		return Turn{}, errors.Wrapf(ErrInvalidSpeaker, "speaker %q", speaker)
	}
	if speaker == SpeakerUser && strings.TrimSpace(text) == "" {
		return Turn{}, ErrEmptyUserText
	}

	ret := Turn{
		Speaker:   speaker,
		Text:      text,
		CreatedAt: time.Now(),
	}
	for _, o := range options {
		o(&ret)
	}
	if ret.ID == uuid.Nil {
		ret.ID = uuid.New()
	}

	return ret, nil
}

func (t Turn) IsUser() bool {
	return t.Speaker == SpeakerUser
}

func (t Turn) IsAssistant() bool {
	return t.Speaker == SpeakerAssistant
}

// FormattedTime is the display form of CreatedAt. It plays no part in ordering.
func (t Turn) FormattedTime() string {
	return FormatTime(t.CreatedAt)
}

func FormatTime(t time.Time) string {
	return t.Format(TimeFormat)
}
