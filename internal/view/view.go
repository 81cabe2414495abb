// Package view holds the rendering helpers shared by the storefront templates.
package view

import (
	"bytes"
	"html"
	"html/template"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/Nixjoyer/Jump-Ship/internal/price"
	"github.com/Nixjoyer/Jump-Ship/internal/search"
)

var (
	highlightPolicy = newHighlightPolicy()
	markdownPolicy  = newMarkdownPolicy()

	mdOnce     sync.Once
	mdRenderer goldmark.Markdown
)

func newHighlightPolicy() *bluemonday.Policy {
	policy := bluemonday.NewPolicy()
	policy.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("span")
	policy.AllowElements("span")
	return policy
}

func newMarkdownPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.RequireNoFollowOnLinks(true)
	return policy
}

func markdown() goldmark.Markdown {
	mdOnce.Do(func() {
		mdRenderer = goldmark.New(goldmark.WithExtensions(extension.Linkify, extension.Strikethrough))
	})
	return mdRenderer
}

// HighlightHTML escapes text and wraps every case-insensitive match of query
// in the search highlight span.
func HighlightHTML(text, query string) template.HTML {
	spans := search.Spans(text, strings.TrimSpace(query))
	if len(spans) == 0 {
		return template.HTML(html.EscapeString(text))
	}

	var b strings.Builder
	last := 0
	for _, s := range spans {
		b.WriteString(html.EscapeString(text[last:s.Start]))
		b.WriteString(`<span class="` + search.HighlightClass + `">`)
		b.WriteString(html.EscapeString(text[s.Start:s.End]))
		b.WriteString(`</span>`)
		last = s.End
	}
	b.WriteString(html.EscapeString(text[last:]))
	return template.HTML(highlightPolicy.Sanitize(b.String()))
}

// Markdown renders src as sanitised HTML. Failures fall back to escaped text.
func Markdown(src string) template.HTML {
	if strings.TrimSpace(src) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := markdown().Convert([]byte(src), &buf); err != nil {
		return template.HTML(html.EscapeString(src))
	}
	return template.HTML(markdownPolicy.SanitizeBytes(buf.Bytes()))
}

// Money formats an amount with the currency glyph.
func Money(amount float64) string {
	return price.FormatTotal(amount)
}

// FuncMap exposes the helpers to html/template.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"highlight": HighlightHTML,
		"markdown":  Markdown,
		"money":     Money,
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		"add": func(a, b int) int { return a + b },
	}
}
