package parser

import (
	"bytes"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Excerpt renders the markdown body and returns the first maxLen runes of
// the resulting plain text, truncated at a word boundary with an ellipsis.
// The excerpt is what note nodes display on the canvas.
func Excerpt(body string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}

	var buf bytes.Buffer
	if err := md.Convert([]byte(body), &buf); err != nil {
		// Render failure falls back to the raw body.
		buf.Reset()
		buf.WriteString(body)
	}

	text := collapseWhitespace(stripTags(buf.String()))
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}

	cut := maxLen
	for cut > 0 && !unicode.IsSpace(runes[cut-1]) {
		cut--
	}
	if cut == 0 {
		cut = maxLen
	}
	return strings.TrimRight(string(runes[:cut]), " ") + "…"
}

// stripTags removes HTML tags produced by the renderer.
func stripTags(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteRune(' ')
		case !inTag:
			b.WriteRune(r)
		}
	}
	out := b.String()
	out = strings.ReplaceAll(out, "&amp;", "&")
	out = strings.ReplaceAll(out, "&lt;", "<")
	out = strings.ReplaceAll(out, "&gt;", ">")
	out = strings.ReplaceAll(out, "&quot;", `"`)
	out = strings.ReplaceAll(out, "&#39;", "'")
	return out
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
