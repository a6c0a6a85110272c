package tui

import (
	"github.com/aretw0/tendril/pkg/runner"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a markdown renderer for final responses.
// width <= 0 keeps glamour's default wrapping. If glamour cannot be set up the
// content is passed through unchanged.
func NewRenderer(width int) runner.ContentRenderer {
	opts := []glamour.TermRendererOption{
		glamour.WithAutoStyle(), // Automatically detect light/dark background
	}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return func(markdown string) (string, error) {
			return markdown, nil
		}
	}
	return r.Render
}
