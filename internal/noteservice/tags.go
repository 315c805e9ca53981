package noteservice

import (
	"context"
	"strings"

	"github.com/starford/lumina/internal/apperr"
	"github.com/starford/lumina/internal/models"
)

// TagInput carries the caller-editable fields of a tag. On update, an empty
// Name, Color or ParentID keeps the current value; ClearParent makes the tag
// a root.
type TagInput struct {
	Name        string `json:"name"`
	Color       string `json:"color"`
	ParentID    string `json:"parent_id"`
	ClearParent bool   `json:"clear_parent,omitempty"`
}

// CreateTag stores a new tag.
func (s *Service) CreateTag(ctx context.Context, in TagInput) (*models.Tag, error) {
	t := &models.Tag{
		Name:     strings.TrimSpace(in.Name),
		Color:    strings.TrimSpace(in.Color),
		ParentID: strings.TrimSpace(in.ParentID),
	}
	if err := s.store.CreateTag(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// UpdateTag renames, recolors or reparents a tag.
func (s *Service) UpdateTag(ctx context.Context, id string, in TagInput) (*models.Tag, error) {
	parentID := strings.TrimSpace(in.ParentID)
	if in.ClearParent && parentID != "" {
		return nil, apperr.Validationf("parent_id and clear_parent are mutually exclusive")
	}
	t, err := s.store.GetTag(ctx, id)
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		t.Name = name
	}
	if color := strings.TrimSpace(in.Color); color != "" {
		t.Color = color
	}
	switch {
	case in.ClearParent:
		t.ParentID = ""
	case parentID != "":
		t.ParentID = parentID
	}

	if err := s.store.UpdateTag(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// DeleteTag removes a tag, detaching it from notes and re-rooting children.
func (s *Service) DeleteTag(ctx context.Context, id string) error {
	return s.store.DeleteTag(ctx, id)
}

// GetTag returns a tag by id.
func (s *Service) GetTag(ctx context.Context, id string) (*models.Tag, error) {
	return s.store.GetTag(ctx, id)
}

// GetTagByName returns a tag by name, ignoring case.
func (s *Service) GetTagByName(ctx context.Context, name string) (*models.Tag, error) {
	return s.store.GetTagByName(ctx, name)
}

// ListTags returns every tag.
func (s *Service) ListTags(ctx context.Context) ([]models.Tag, error) {
	return s.store.ListTags(ctx)
}

// TagChildren returns the direct children of a tag, or the roots for "".
func (s *Service) TagChildren(ctx context.Context, parentID string) ([]models.Tag, error) {
	return s.store.TagChildren(ctx, parentID)
}
