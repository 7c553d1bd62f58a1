package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/reflow/wordwrap"
	"github.com/rs/zerolog/log"
)

func wrapWords(text string, width int) string {
	if width <= 0 {
		return text
	}
	return wordwrap.String(text, width)
}

// markdownRenderer renders assistant turns. It rebuilds the glamour renderer
// only when the width changes.
type markdownRenderer struct {
	stylePath string
	width     int
	renderer  *glamour.TermRenderer
}

func newMarkdownRenderer(stylePath string) *markdownRenderer {
	if stylePath == "" {
		stylePath = "dark"
	}
	return &markdownRenderer{stylePath: stylePath}
}

// Render falls back to plain word wrapping if glamour fails.
func (r *markdownRenderer) Render(text string, width int) string {
	if width <= 0 {
		return text
	}
	if r.renderer == nil || r.width != width {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStylePath(r.stylePath),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			log.Debug().Err(err).Msg("Could not create markdown renderer")
			return wrapWords(text, width)
		}
		r.renderer = renderer
		r.width = width
	}

	out, err := r.renderer.Render(text)
	if err != nil {
		log.Debug().Err(err).Msg("Could not render markdown")
		return wrapWords(text, width)
	}
	return strings.Trim(out, "\n")
}
