package noteservice

import (
	"context"
	"errors"

	"github.com/starford/lumina/internal/apperr"
	"github.com/starford/lumina/internal/parser"
)

// NoteHref is the path a rendered wiki-link points at.
func NoteHref(id string) string {
	return "/notes/" + id
}

// RenderHTML renders a note's plaintext content to HTML with resolvable
// wiki-links turned into anchors.
func (s *Service) RenderHTML(ctx context.Context, id, password string) (string, error) {
	n, err := s.OpenNote(ctx, id, password)
	if err != nil {
		return "", err
	}

	var resolveErr error
	html, err := parser.RenderHTML(n.Content, func(l parser.WikiLink) (string, bool) {
		target, err := s.store.ResolveTitle(ctx, l.Target)
		if err != nil {
			if !errors.Is(err, apperr.ErrNotFound) && resolveErr == nil {
				resolveErr = err
			}
			return "", false
		}
		return parser.MarkdownLink(l.Label(), NoteHref(target)), true
	})
	if resolveErr != nil {
		return "", resolveErr
	}
	return html, err
}

// PlainText returns a note's content with markdown formatting stripped.
func (s *Service) PlainText(ctx context.Context, id, password string) (string, error) {
	n, err := s.OpenNote(ctx, id, password)
	if err != nil {
		return "", err
	}
	return parser.ToPlainText(n.Content), nil
}
