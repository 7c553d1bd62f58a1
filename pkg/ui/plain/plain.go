// Package plain is the line-oriented front-end used when the terminal cannot
// host the full-screen UI (pipes, dumb terminals, --plain).
package plain

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/tcnksm/go-input"

	"github.com/go-go-golems/coach/pkg/conversation"
	"github.com/go-go-golems/coach/pkg/session"
)

// A line ending in continuationSuffix is joined with the next one, which is
// how a line break gets into a draft here.
const continuationSuffix = `\`

type Frontend struct {
	controller *session.Controller
	reader     *eofReader
	out        io.Writer
	ui         *input.UI

	userLabel      *color.Color
	assistantLabel *color.Color
	faint          *color.Color
}

type Option func(*Frontend)

// WithColor forces colored output on or off. By default fatih/color decides
// from the output file descriptor.
func WithColor(enabled bool) Option {
	return func(f *Frontend) {
		for _, c := range []*color.Color{f.userLabel, f.assistantLabel, f.faint} {
			if enabled {
				c.EnableColor()
			} else {
				c.DisableColor()
			}
		}
	}
}

func New(controller *session.Controller, in io.Reader, out io.Writer, options ...Option) *Frontend {
	r := &eofReader{r: in}
	ret := &Frontend{
		controller:     controller,
		reader:         r,
		out:            out,
		ui:             &input.UI{Reader: r, Writer: out},
		userLabel:      color.New(color.FgCyan, color.Bold),
		assistantLabel: color.New(color.FgGreen, color.Bold),
		faint:          color.New(color.Faint),
	}
	for _, o := range options {
		o(ret)
	}
	return ret
}

// Run prints the transcript and then alternates between reading a draft and
// printing the reply, until the input ends or ctx is canceled. Reads never
// overlap a pending reply.
func (f *Frontend) Run(ctx context.Context) error {
	for _, turn := range f.controller.Transcript().Turns() {
		f.printTurn(turn)
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		draft, done, err := f.readDraft()
		if err != nil {
			return err
		}

		if strings.TrimSpace(draft) != "" {
			ex, ok := f.controller.Submit(ctx, draft)
			if ok {
				fmt.Fprintln(f.out, f.faint.Sprint("Coach is typing..."))
				reply, err := ex.WaitContext(ctx)
				if err != nil && !ex.Settled() {
					// ctx is done, the reply will never be shown
					return nil
				}
				f.printTurn(reply)
			}
		}

		if done {
			return nil
		}
	}
}

// readDraft reads one draft, joining continued lines. done reports that the
// input is exhausted.
func (f *Frontend) readDraft() (draft string, done bool, err error) {
	var lines []string
	prompt := f.userLabel.Sprint("You") + ": "

	for {
		line, err := f.ui.Ask(prompt, &input.Options{HideOrder: true})
		if err != nil {
			if errors.Is(err, input.ErrInterrupted) || f.reader.EOF() {
				log.Debug().Err(err).Msg("Input ended")
				return strings.Join(append(lines, line), "\n"), true, nil
			}
			return "", false, errors.Wrap(err, "could not read input")
		}

		if strings.HasSuffix(line, continuationSuffix) && !f.reader.EOF() {
			lines = append(lines, strings.TrimSuffix(line, continuationSuffix))
			prompt = "... "
			continue
		}

		lines = append(lines, line)
		return strings.Join(lines, "\n"), f.reader.EOF(), nil
	}
}

func (f *Frontend) printTurn(turn conversation.Turn) {
	label := f.userLabel.Sprint("You")
	if turn.IsAssistant() {
		label = f.assistantLabel.Sprint("Coach")
	}
	fmt.Fprintf(f.out, "%s %s: %s\n", f.faint.Sprintf("[%s]", turn.FormattedTime()), label, turn.Text)
}

// eofReader remembers whether the wrapped reader has been drained.
type eofReader struct {
	r io.Reader

	mu  sync.Mutex
	eof bool
}

func (e *eofReader) Read(p []byte) (int, error) {
	n, err := e.r.Read(p)
	if err == io.EOF {
		e.mu.Lock()
		e.eof = true
		e.mu.Unlock()
	}
	return n, err
}

func (e *eofReader) EOF() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.eof
}
