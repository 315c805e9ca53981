package parser

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// ToHTML renders Markdown source to HTML. Raw HTML in the source is omitted.
func ToHTML(markdown string) (string, error) {
	if markdown == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var plainTextRules = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile("(?s)```.*?```"), ""},
	{regexp.MustCompile(`\*\*(.+?)\*\*`), "$1"},
	{regexp.MustCompile(`__(.+?)__`), "$1"},
	{regexp.MustCompile(`\*(.+?)\*`), "$1"},
	{regexp.MustCompile(`\b_(.+?)_\b`), "$1"},
	{regexp.MustCompile(`(?m)^#+\s+`), ""},
	{regexp.MustCompile(`!?\[([^\]]*)\]\([^)]+\)`), "$1"},
	{regexp.MustCompile("`([^`]+)`"), "$1"},
}

// ToPlainText strips common Markdown formatting, keeping the readable text.
// Wiki-links are reduced to their labels.
func ToPlainText(markdown string) string {
	if markdown == "" {
		return ""
	}
	plain := RenderLinks(markdown, func(l WikiLink) (string, bool) {
		return l.Label(), true
	})
	for _, r := range plainTextRules {
		plain = r.re.ReplaceAllString(plain, r.repl)
	}
	return strings.TrimSpace(plain)
}

const unresolvedOpen = `<span class="wiki-link unresolved">`

// RenderHTML renders markdown to HTML after replacing resolved wiki-links via
// resolve. Links left unresolved come out as a span with class
// "wiki-link unresolved" instead of bare brackets.
func RenderHTML(markdown string, resolve Resolver) (string, error) {
	out, err := ToHTML(RenderLinks(markdown, resolve))
	if err != nil {
		return "", err
	}
	return wikilinkRe.ReplaceAllStringFunc(out, func(tok string) string {
		l, ok := newWikiLink(tok[2 : len(tok)-2])
		if !ok {
			return tok
		}
		return unresolvedOpen + l.Label() + "</span>"
	}), nil
}

var linkLabelEscaper = strings.NewReplacer(`[`, `\[`, `]`, `\]`)

// MarkdownLink formats a markdown inline link, escaping brackets in label.
func MarkdownLink(label, href string) string {
	return "[" + linkLabelEscaper.Replace(label) + "](" + href + ")"
}
