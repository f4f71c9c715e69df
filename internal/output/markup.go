package output

import (
	"html"
	"regexp"
	"strings"

	"github.com/temirov/repotree/internal/tree"
)

// Markup understood by the embedding presentation layer.
const (
	markupIconOpen     = `<span class="t-icon" name="icons">`
	markupSpanClose    = `</span>`
	markupBoldOpen     = "<bold>"
	markupBoldClose    = "</bold>"
	markupCommentOpen  = `<span class="comment">`
	markupLineBreak    = "<br>"
	plainLineTerminate = "\n"
)

var (
	iconSpanWithGlyphPattern = regexp.MustCompile(`<span class="t-icon" name="icons"[^>]*>(` + RootIcon + `|` + DirectoryIcon + `|` + FileIcon + `)</span>`)
	iconSpanPattern          = regexp.MustCompile(`<span class="t-icon" name="icons"[^>]*>.*?</span>`)
	commentSpanPattern       = regexp.MustCompile(`<span class="comment">(.*?)</span>`)
	anySpanPattern           = regexp.MustCompile(`<span.*?>(.*?)</span>`)
)

// RenderMarkup returns the tree in the markup consumed by an embedding UI:
// icons and annotations wrapped in spans, the root in bold, <br> line ends.
func RenderMarkup(document tree.Document) string {
	var builder strings.Builder
	builder.WriteString(markupBoldOpen)
	builder.WriteString(iconMarkup(RootIcon))
	builder.WriteString(html.EscapeString(document.RootName))
	builder.WriteString(markupBoldClose)
	builder.WriteString(markupLineBreak)

	for _, line := range document.Lines {
		builder.WriteString(line.Prefix)
		builder.WriteString(line.Glyph)
		builder.WriteString(iconMarkup(iconFor(line)))
		builder.WriteString(html.EscapeString(line.Name))
		if line.Annotation != "" {
			builder.WriteString(markupCommentOpen)
			builder.WriteString(strings.Repeat(" ", line.Padding))
			builder.WriteString(html.EscapeString(line.Annotation))
			builder.WriteString(markupSpanClose)
		}
		builder.WriteString(markupLineBreak)
	}
	return builder.String()
}

func iconMarkup(icon string) string {
	return markupIconOpen + icon + markupSpanClose
}

// ConvertMarkupToPlain turns markup into plain text. Icons are kept as their
// glyphs when includeIcons is set and dropped otherwise; line breaks become
// newlines and every other wrapper is removed.
func ConvertMarkupToPlain(markup string, includeIcons bool) string {
	plain := markup
	if includeIcons {
		plain = iconSpanWithGlyphPattern.ReplaceAllString(plain, "$1")
	} else {
		plain = iconSpanPattern.ReplaceAllString(plain, "")
	}
	plain = strings.ReplaceAll(plain, markupLineBreak, plainLineTerminate)
	plain = strings.ReplaceAll(plain, markupBoldOpen, "")
	plain = strings.ReplaceAll(plain, markupBoldClose, "")
	plain = commentSpanPattern.ReplaceAllString(plain, "$1")
	plain = anySpanPattern.ReplaceAllString(plain, "$1")
	return html.UnescapeString(plain)
}
