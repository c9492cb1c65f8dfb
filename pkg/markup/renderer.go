// Package markup renders a Collection's expanded contents to HTML,
// implementing propagator.MarkupRenderer.
package markup

import (
	"fmt"
	"html"

	"github.com/russross/blackfriday/v2"

	"github.com/dativebase/old/pkg/domain"
)

// Renderer dispatches to a renderer by domain.MarkupLanguage.
type Renderer struct{}

// NewRenderer builds a Renderer.
func NewRenderer() *Renderer { return &Renderer{} }

// Render renders text per language. Markdown uses blackfriday.
// reStructuredText has no pack-available Go renderer, so its text is
// HTML-escaped and wrapped in a <pre> block rather than left unrendered.
func (r *Renderer) Render(language domain.MarkupLanguage, text string) (string, error) {
	switch language {
	case domain.MarkupLanguageMarkdown:
		return string(blackfriday.Run([]byte(text))), nil
	case domain.MarkupLanguageReST:
		return fmt.Sprintf("<pre>%s</pre>", html.EscapeString(text)), nil
	case "":
		return html.EscapeString(text), nil
	default:
		return "", fmt.Errorf("markup: unknown markup language %q", language)
	}
}
