// Package render turns chat exchanges into terminal output.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
)

// MarkdownRenderer renders markdown to ANSI terminal output using Glamour.
type MarkdownRenderer struct {
	renderer *glamour.TermRenderer
}

// NewMarkdownRenderer builds a renderer for the given Glamour style
// ("auto", "dark", "light", "notty", "ascii") and wrap width.
func NewMarkdownRenderer(style string, wordWrap int) (*MarkdownRenderer, error) {
	if wordWrap <= 0 {
		wordWrap = 80
	}
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(wordWrap)}
	if style == "" || style == "auto" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStylePath(style))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	return &MarkdownRenderer{renderer: r}, nil
}

func (m *MarkdownRenderer) Render(markdown string) (string, error) {
	if strings.TrimSpace(markdown) == "" {
		return "", nil
	}
	out, err := m.renderer.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return out, nil
}

// Exchange formats one question and its answer the way the chat window
// shows them.
func Exchange(prompt, answer string) string {
	return fmt.Sprintf("**You**: %s\n\n**Answer**: %s\n\n", prompt, answer)
}

// RenderExchange renders Exchange(prompt, answer).
func (m *MarkdownRenderer) RenderExchange(prompt, answer string) (string, error) {
	return m.Render(Exchange(prompt, answer))
}
