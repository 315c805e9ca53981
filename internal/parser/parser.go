// Package parser extracts frontmatter, wiki-links and hashtags from Markdown
// source and renders it. Everything here is a pure function over text.
package parser

import (
	"bytes"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/lumina/internal/models"
)

var (
	// Targets never contain ']' and links never span lines.
	wikilinkRe = regexp.MustCompile(`\[\[([^\]\n]+)\]\]`)

	// A hashtag may not follow a word character, '&' (entities), '/' (URL
	// fragments) or another '#'.
	hashtagRe = regexp.MustCompile(`(?:^|[^\p{L}\p{N}_&/#-])#([\p{L}\p{N}_-]+)`)
)

// Result holds the output of parsing a Markdown file.
type Result struct {
	Frontmatter map[string]interface{}
	Body        string
	Links       []string
	Hashtags    []string
	Tags        []string // from frontmatter only
	Title       string
}

// Parse extracts frontmatter, body, wiki-links, hashtags and a title from raw
// Markdown bytes.
func Parse(data []byte) (*Result, error) {
	fm, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, err
	}

	return &Result{
		Frontmatter: fm,
		Body:        body,
		Links:       ExtractWikiLinks(body),
		Hashtags:    ExtractHashtags(body),
		Tags:        frontmatterTags(fm),
		Title:       deriveTitle(fm, body),
	}, nil
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the Markdown body. If no frontmatter is found the entire content is body.
func splitFrontmatter(data []byte) (map[string]interface{}, string, error) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data), nil
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data), nil
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var fm map[string]interface{}
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		// Invalid YAML: keep the whole file as body.
		return nil, string(data), nil
	}

	return fm, body, nil
}

// WikiLink is one [[Target|Alias]] occurrence. Start and End are byte
// offsets of the whole token in the source.
type WikiLink struct {
	Target string
	Alias  string
	Start  int
	End    int
}

// Label is the display text: the alias when present, else the target.
func (l WikiLink) Label() string {
	if l.Alias != "" {
		return l.Alias
	}
	return l.Target
}

// FindWikiLinks returns every wiki-link occurrence in source order, including
// repeats. Tokens with a blank target are skipped.
func FindWikiLinks(content string) []WikiLink {
	var out []WikiLink
	for _, m := range wikilinkRe.FindAllStringSubmatchIndex(content, -1) {
		if l, ok := newWikiLink(content[m[2]:m[3]]); ok {
			l.Start, l.End = m[0], m[1]
			out = append(out, l)
		}
	}
	return out
}

func newWikiLink(raw string) (WikiLink, bool) {
	target, alias, _ := strings.Cut(raw, "|")
	target = strings.TrimSpace(target)
	if target == "" {
		return WikiLink{}, false
	}
	return WikiLink{Target: target, Alias: strings.TrimSpace(alias)}, true
}

// ExtractWikiLinks returns the distinct, trimmed wiki-link targets in order of
// first appearance.
func ExtractWikiLinks(content string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, l := range FindWikiLinks(content) {
		if _, ok := seen[l.Target]; ok {
			continue
		}
		seen[l.Target] = struct{}{}
		out = append(out, l.Target)
	}
	return out
}

// ExtractHashtags returns the distinct lower-cased #hashtags in order of first
// appearance. Headings, URL fragments, HTML entities and in-word '#' are not
// picked up.
func ExtractHashtags(content string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, m := range hashtagRe.FindAllStringSubmatch(content, -1) {
		t := strings.ToLower(m[1])
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Resolver maps a wiki-link to its replacement text. Returning false leaves
// the original [[...]] syntax in place.
type Resolver func(link WikiLink) (string, bool)

// RenderLinks replaces every resolved wiki-link in content with the
// resolver's output. Unresolved links stay as raw [[...]] text so they remain
// visually distinct from resolved ones.
func RenderLinks(content string, resolve Resolver) string {
	links := FindWikiLinks(content)
	if len(links) == 0 || resolve == nil {
		return content
	}
	var b strings.Builder
	b.Grow(len(content))
	last := 0
	for _, l := range links {
		repl, ok := resolve(l)
		if !ok {
			continue
		}
		b.WriteString(content[last:l.Start])
		b.WriteString(repl)
		last = l.End
	}
	b.WriteString(content[last:])
	return b.String()
}

// Excerpt returns up to radius bytes of context on each side of a link,
// collapsed onto a single line.
func Excerpt(content string, l WikiLink, radius int) string {
	start := max(l.Start-radius, 0)
	end := min(l.End+radius, len(content))
	// Do not cut a multi-byte rune in half.
	for start > 0 && !utf8RuneStart(content[start]) {
		start--
	}
	for end < len(content) && !utf8RuneStart(content[end]) {
		end++
	}
	return strings.Join(strings.Fields(content[start:end]), " ")
}

func utf8RuneStart(b byte) bool { return b&0xC0 != 0x80 }

func frontmatterTags(fm map[string]interface{}) []string {
	if fm == nil {
		return nil
	}
	var out []string
	switch v := fm["tags"].(type) {
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, strings.TrimSpace(s))
			}
		}
	case string:
		// Legacy exports stored the tag list as a JSON array string.
		out = models.ParseTagRefs(v)
	}
	return models.Dedup(out)
}

// deriveTitle returns the frontmatter "title" if present, otherwise the first
// H1 heading, otherwise empty string.
func deriveTitle(fm map[string]interface{}, body string) string {
	if fm != nil {
		if t, ok := fm["title"]; ok {
			if s, ok := t.(string); ok && s != "" {
				return s
			}
		}
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
