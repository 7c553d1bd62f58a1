package ui

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/coach/pkg/conversation"
	"github.com/go-go-golems/coach/pkg/events"
	"github.com/go-go-golems/coach/pkg/session"
)

type gate struct {
	release chan struct{}
	once    sync.Once
}

func (g *gate) Open() {
	g.once.Do(func() { close(g.release) })
}

func (g *gate) GenerateReply(ctx context.Context, message string) (string, error) {
	<-g.release
	return "reply to " + message, nil
}

func newTestModel(t *testing.T, options ...ModelOption) (Model, *session.Controller, *gate) {
	t.Helper()
	g := &gate{release: make(chan struct{})}
	t.Cleanup(g.Open)
	c := session.New(g)
	options = append([]ModelOption{WithMarkdown(false)}, options...)
	m := NewModel(c, options...)
	m = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 30})
	return m, c, g
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	ret, _ := m.Update(msg)
	model, ok := ret.(Model)
	require.True(t, ok)
	return model
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	return update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

func TestComposerActionFor(t *testing.T) {
	cases := []struct {
		msg      tea.KeyMsg
		expected ComposerAction
	}{
		{tea.KeyMsg{Type: tea.KeyEnter}, ActionSubmit},
		{tea.KeyMsg{Type: tea.KeyEnter, Alt: true}, ActionNewline},
		{tea.KeyMsg{Type: tea.KeyCtrlJ}, ActionNewline},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")}, ActionEdit},
		{tea.KeyMsg{Type: tea.KeyBackspace}, ActionEdit},
	}

	for _, tc := range cases {
		t.Run(tc.msg.String(), func(t *testing.T) {
			assert.Equal(t, tc.expected, ComposerActionFor(tc.msg, DefaultKeyMap))
		})
	}
}

func TestModel_InitialView(t *testing.T) {
	m, _, _ := newTestModel(t)

	require.Equal(t, 1, m.State().Transcript.Len())
	view := m.View()
	assert.Contains(t, view, "Coach")
	assert.Contains(t, view, "supportive mental coach")
	assert.NotContains(t, view, typingText)
}

func TestModel_TypingMirrorsDraft(t *testing.T) {
	m, c, _ := newTestModel(t)

	m = typeText(t, m, "a")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter, Alt: true})
	m = typeText(t, m, "b")

	assert.Equal(t, "a\nb", m.Draft())
	assert.Equal(t, "a\nb", c.Snapshot().Draft)
	assert.Equal(t, 1, c.Transcript().Len())
}

func TestModel_BlankSubmitIsIgnored(t *testing.T) {
	m, c, _ := newTestModel(t)

	m = typeText(t, m, "   ")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, 1, c.Transcript().Len())
	assert.False(t, c.AwaitingReply())
	assert.Nil(t, m.exchange)
}

func TestModel_SubmitAndSettle(t *testing.T) {
	m, c, g := newTestModel(t)

	m = typeText(t, m, "  I feel anxious about my exam  ")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, m.exchange)
	assert.Empty(t, m.Draft())
	assert.True(t, m.State().AwaitingReply)
	assert.False(t, m.textArea.Focused())
	assert.Contains(t, m.View(), typingText)
	assert.Contains(t, m.View(), "I feel anxious about my exam")

	// composer is disabled while awaiting
	m = typeText(t, m, "more")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Empty(t, m.Draft())
	assert.Equal(t, 2, c.Transcript().Len())

	ex := m.exchange
	g.Open()
	_, err := ex.Wait()
	require.NoError(t, err)

	m = update(t, m, exchangeSettledMsg{ExchangeID: ex.ID})
	assert.Nil(t, m.exchange)
	assert.False(t, m.State().AwaitingReply)
	assert.True(t, m.textArea.Focused())
	assert.Equal(t, 3, m.State().Transcript.Len())
	assert.Contains(t, m.View(), "reply to I feel anxious about my exam")
	assert.NotContains(t, m.View(), typingText)
}

func TestModel_SessionEventRefreshes(t *testing.T) {
	m, c, g := newTestModel(t)
	g.Open()

	ex, ok := c.Submit(context.Background(), "from elsewhere")
	require.True(t, ok)
	_, _ = ex.Wait()

	m = update(t, m, SessionEventMsg{Event: events.NewReplySettledEvent(c.SessionID, "")})
	assert.Equal(t, 3, m.State().Transcript.Len())
	assert.Contains(t, m.View(), "You")
}

func TestModel_Export(t *testing.T) {
	dir := t.TempDir()
	m, _, _ := newTestModel(t, WithExport(dir, conversation.ExportFormatJSON))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NotNil(t, cmd)
	msg := cmd()
	exported, ok := msg.(exportedMsg)
	require.True(t, ok, "unexpected message %#v", msg)
	assert.True(t, strings.HasSuffix(exported.Path, ".json"))

	b, err := os.ReadFile(exported.Path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "supportive mental coach")

	m = update(t, m, msg)
	assert.Contains(t, m.View(), "Transcript saved to")
}

func TestModel_QuitClosesController(t *testing.T) {
	m, c, _ := newTestModel(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, c.Closed())
}

type recordingSender struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (r *recordingSender) Send(msg tea.Msg) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func TestForwardFunc(t *testing.T) {
	s := &recordingSender{}
	f := ForwardFunc(s)

	ev := events.NewAwaitingReplyEvent("s1", true)
	require.NoError(t, f(context.Background(), ev))

	require.Len(t, s.msgs, 1)
	assert.Equal(t, SessionEventMsg{Event: ev}, s.msgs[0])
}

func TestMarkdownRenderer_FallsBackToWrapping(t *testing.T) {
	r := newMarkdownRenderer("no-such-style")
	out := r.Render("some words that will need wrapping", 10)
	assert.Equal(t, wrapWords("some words that will need wrapping", 10), out)
	assert.Equal(t, "unchanged", r.Render("unchanged", 0))
}
