package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/coach/pkg/conversation"
	"github.com/go-go-golems/coach/pkg/events"
	"github.com/go-go-golems/coach/pkg/session"
)

const (
	defaultTitle = "Mental Coach"
	typingText   = "Coach is typing..."
)

// Model is the bubbletea front-end of a session.Controller.
//
// It never mutates the conversation itself: key presses become controller
// calls, and the transcript is re-read from a controller snapshot whenever a
// session event or a settled exchange arrives.
type Model struct {
	controller *session.Controller
	// last snapshot taken from the controller
	state conversation.State

	viewport viewport.Model
	textArea textarea.Model
	spinner  spinner.Model
	help     help.Model

	keyMap   KeyMap
	style    *Style
	markdown *markdownRenderer
	title    string

	exportDir    string
	exportFormat conversation.ExportFormat

	width  int
	height int

	// the exchange this model submitted and has not yet seen settle
	exchange *session.Exchange
	status   string
	err      error
}

type ModelOption func(*Model)

func WithKeyMap(km KeyMap) ModelOption {
	return func(m *Model) {
		m.keyMap = km
	}
}

func WithStyle(style *Style) ModelOption {
	return func(m *Model) {
		m.style = style
	}
}

// WithMarkdown toggles glamour rendering of assistant turns. When off they are
// word wrapped like user turns.
func WithMarkdown(enabled bool) ModelOption {
	return func(m *Model) {
		if !enabled {
			m.markdown = nil
		}
	}
}

func WithMarkdownStyle(stylePath string) ModelOption {
	return func(m *Model) {
		m.markdown = newMarkdownRenderer(stylePath)
	}
}

func WithExport(dir string, format conversation.ExportFormat) ModelOption {
	return func(m *Model) {
		m.exportDir = dir
		m.exportFormat = format
	}
}

func WithTitle(title string) ModelOption {
	return func(m *Model) {
		m.title = title
	}
}

func NewModel(controller *session.Controller, options ...ModelOption) Model {
	ret := Model{
		controller:   controller,
		state:        controller.Snapshot(),
		keyMap:       DefaultKeyMap,
		style:        DefaultStyles(),
		markdown:     newMarkdownRenderer("dark"),
		title:        defaultTitle,
		exportDir:    ".",
		exportFormat: conversation.ExportFormatYAML,
		viewport:     viewport.New(0, 0),
		help:         help.New(),
		spinner:      spinner.New(spinner.WithSpinner(spinner.Dot)),
	}

	for _, o := range options {
		o(&ret)
	}

	ret.textArea = textarea.New()
	ret.textArea.Placeholder = "What's on your mind?"
	ret.textArea.ShowLineNumbers = false
	ret.textArea.CharLimit = 0
	ret.textArea.SetHeight(3)
	// enter is handled by the model, line breaks are inserted explicitly
	ret.textArea.KeyMap.InsertNewline.SetEnabled(false)
	ret.textArea.SetValue(ret.state.Draft)
	ret.textArea.Focus()

	ret.viewport.SetContent(ret.messageView())
	ret.viewport.GotoBottom()

	return ret
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keyMap.Quit):
			m.controller.Close()
			return m, tea.Quit

		case key.Matches(msg, m.keyMap.Export):
			return m, m.export()

		case key.Matches(msg, m.keyMap.Help):
			m.help.ShowAll = !m.help.ShowAll
			m.recomputeSize()
			return m, nil

		case key.Matches(msg, m.keyMap.ScrollUp):
			m.viewport.ViewUp()
			return m, nil

		case key.Matches(msg, m.keyMap.ScrollDown):
			m.viewport.ViewDown()
			return m, nil
		}

		// the composer is disabled while a reply is pending
		if m.state.AwaitingReply {
			return m, nil
		}

		switch ComposerActionFor(msg, m.keyMap) {
		case ActionSubmit:
			cmd = m.submit()
			cmds = append(cmds, cmd)
		case ActionNewline:
			m.textArea.InsertString("\n")
			m.controller.SetDraft(m.textArea.Value())
		case ActionEdit:
			m.textArea, cmd = m.textArea.Update(msg)
			cmds = append(cmds, cmd)
			m.controller.SetDraft(m.textArea.Value())
		}
		return m, tea.Batch(cmds...)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.recomputeSize()

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
		if m.state.AwaitingReply {
			m.recomputeSize()
		}
		return m, tea.Batch(cmds...)

	case SessionEventMsg:
		log.Trace().Object("event", msg.Event).Msg("UI received session event")
		cmd = m.refresh()
		cmds = append(cmds, cmd)
		if msg.Event.Type == events.EventTypeReplySettled {
			m.exchange = nil
		}

	case exchangeSettledMsg:
		cmd = m.refresh()
		cmds = append(cmds, cmd)
		if m.exchange != nil && m.exchange.ID == msg.ExchangeID {
			m.exchange = nil
		}

	case exportedMsg:
		m.err = nil
		m.status = fmt.Sprintf("Transcript saved to %s", msg.Path)
		m.recomputeSize()

	case errMsg:
		m.err = msg
		m.recomputeSize()
		return m, nil
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// submit hands the composer content to the controller. Blank drafts never
// reach it.
func (m *Model) submit() tea.Cmd {
	draft := m.textArea.Value()
	if strings.TrimSpace(draft) == "" {
		return nil
	}

	ex, ok := m.controller.Submit(context.Background(), draft)
	if !ok {
		return nil
	}

	m.exchange = ex
	m.textArea.Reset()
	m.err = nil
	m.status = ""

	return tea.Batch(m.refresh(), waitForExchange(ex))
}

// refresh re-reads the controller state and syncs the composer with it.
func (m *Model) refresh() tea.Cmd {
	m.state = m.controller.Snapshot()

	var cmd tea.Cmd
	if m.state.AwaitingReply {
		m.textArea.Blur()
	} else if !m.textArea.Focused() {
		cmd = m.textArea.Focus()
	}

	m.recomputeSize()
	m.viewport.GotoBottom()

	return cmd
}

func (m *Model) export() tea.Cmd {
	transcript := m.controller.Transcript()
	sessionID := m.controller.SessionID
	dir, format := m.exportDir, m.exportFormat

	return func() tea.Msg {
		path, err := conversation.ExportToDir(dir, sessionID, transcript, format)
		if err != nil {
			log.Error().Err(err).Str("dir", dir).Msg("Could not export transcript")
			return errMsg(err)
		}
		log.Info().Str("path", path).Msg("Exported transcript")
		return exportedMsg{Path: path}
	}
}

func (m *Model) recomputeSize() {
	headerHeight := lipgloss.Height(m.headerView())
	composerHeight := lipgloss.Height(m.composerView())
	helpHeight := lipgloss.Height(m.help.View(m.keyMap))

	newHeight := m.height - headerHeight - composerHeight - helpHeight
	if newHeight < 0 {
		newHeight = 0
	}
	m.viewport.Width = m.width
	m.viewport.Height = newHeight
	m.viewport.YPosition = headerHeight + 1

	w, _ := m.style.FocusedComposer.GetFrameSize()
	m.textArea.SetWidth(m.width - w)

	m.viewport.SetContent(m.messageView())
	m.viewport.GotoBottom()
}

func (m Model) headerView() string {
	return m.style.Header.Render(m.title)
}

func (m Model) messageView() string {
	turns := m.state.Transcript.Turns()
	views := make([]string, 0, len(turns)+1)

	for _, turn := range turns {
		views = append(views, m.turnView(turn))
	}

	if m.state.AwaitingReply {
		views = append(views, m.style.Typing.Render(m.spinner.View()+" "+typingText))
	}

	return strings.Join(views, "\n")
}

func (m Model) turnView(turn conversation.Turn) string {
	box := m.style.UserMessage
	label := m.style.UserLabel.Render("You")
	if turn.IsAssistant() {
		box = m.style.AssistantMessage
		label = m.style.AssistantLabel.Render("Coach")
	}

	w, _ := box.GetFrameSize()
	textWidth := m.width - w

	var body string
	if turn.IsAssistant() && m.markdown != nil {
		body = m.markdown.Render(turn.Text, textWidth)
	} else {
		body = wrapWords(turn.Text, textWidth)
	}

	header := label + " " + m.style.Timestamp.Render(turn.FormattedTime())
	content := header + "\n" + body
	if m.width > 0 {
		box = box.Width(m.width - box.GetHorizontalBorderSize())
	}
	return box.Render(content)
}

func (m Model) composerView() string {
	v := m.textArea.View()
	if m.textArea.Focused() {
		v = m.style.FocusedComposer.Render(v)
	} else {
		v = m.style.BlurredComposer.Render(v)
	}

	switch {
	case m.err != nil:
		v += "\n" + m.style.Error.Render(wrapWords(m.err.Error(), m.width))
	case m.status != "":
		v += "\n" + m.style.Status.Render(m.status)
	}

	return v
}

func (m Model) View() string {
	return m.headerView() + "\n" +
		m.viewport.View() + "\n" +
		m.composerView() + "\n" +
		m.help.View(m.keyMap)
}

// State returns the snapshot the model last rendered.
func (m Model) State() conversation.State {
	return m.state
}

// Draft returns the composer content.
func (m Model) Draft() string {
	return m.textArea.Value()
}
