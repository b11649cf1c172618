package notify

import (
	"bytes"
	"fmt"
	stdhtml "html"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Markdown renders note text, which customers and staff write as Markdown,
// into HTML safe to embed in an email.
type Markdown struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
	strict *bluemonday.Policy
}

// NewMarkdown constructs the renderer.
func NewMarkdown() *Markdown {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Linkify,
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)
	return &Markdown{
		md:     md,
		policy: bluemonday.UGCPolicy(),
		strict: bluemonday.StrictPolicy(),
	}
}

// ToHTML converts markdown and strips anything the UGC policy disallows.
func (m *Markdown) ToHTML(text string) (string, error) {
	var buf bytes.Buffer
	if err := m.md.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return m.policy.Sanitize(buf.String()), nil
}

// PlainText removes every tag, for subjects and text/plain bodies. The
// result is unescaped text; callers embedding it in HTML escape it again.
func (m *Markdown) PlainText(text string) string {
	return stdhtml.UnescapeString(m.strict.Sanitize(text))
}
