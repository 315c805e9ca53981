package noteservice

import (
	"context"
	"strings"

	"github.com/starford/lumina/internal/apperr"
	"github.com/starford/lumina/internal/models"
)

// CreateLink records an explicit link between two notes. Linking the same
// ordered pair twice returns the existing link. A note may link to itself
// explicitly; only wiki-link derived edges skip self-links.
func (s *Service) CreateLink(ctx context.Context, sourceID, targetID, linkContext string) (*models.Link, bool, error) {
	sourceID, targetID = strings.TrimSpace(sourceID), strings.TrimSpace(targetID)
	if sourceID == "" || targetID == "" {
		return nil, false, apperr.Validationf("source and target note ids are required")
	}
	l, created, err := s.store.CreateLink(ctx, models.Link{
		SourceNoteID: sourceID,
		TargetNoteID: targetID,
		Context:      linkContext,
		LinkType:     models.LinkTypeManual,
	})
	if err != nil {
		return nil, false, err
	}
	if created {
		s.publish(EventUpdated, sourceID)
	}
	return l, created, nil
}

// LinksForNote returns links where the note is source or target.
func (s *Service) LinksForNote(ctx context.Context, noteID string) ([]models.Link, error) {
	return s.store.LinksForNote(ctx, noteID)
}

// AllLinks returns every link.
func (s *Service) AllLinks(ctx context.Context) ([]models.Link, error) {
	return s.store.AllLinks(ctx)
}

// DeleteLink removes a link by id.
func (s *Service) DeleteLink(ctx context.Context, id string) error {
	return s.store.DeleteLink(ctx, id)
}

// DeleteLinksForNote removes every link touching a note.
func (s *Service) DeleteLinksForNote(ctx context.Context, noteID string) (int, error) {
	return s.store.DeleteLinksForNote(ctx, noteID)
}

// ReconcileNoteLinks adds derived links for every resolvable wiki-link in a
// note's content and returns how many were created. Links whose wiki-link
// has since been removed from the content are kept.
func (s *Service) ReconcileNoteLinks(ctx context.Context, id, password string) (int, error) {
	n, err := s.OpenNote(ctx, id, password)
	if err != nil {
		return 0, err
	}
	created, err := s.store.ReconcileLinks(ctx, n.ID, linkRefs(n.Content, !n.IsEncrypted))
	if err != nil {
		return 0, err
	}
	if created > 0 {
		s.publish(EventUpdated, n.ID)
	}
	return created, nil
}
