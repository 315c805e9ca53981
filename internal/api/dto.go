package api

import (
	"github.com/starford/lumina/internal/models"
	"github.com/starford/lumina/internal/noteservice"
)

// NoteRequest is the request body for creating or replacing a note. Content
// is plaintext; set is_encrypted and send the password in X-Note-Password to
// store it encrypted.
type NoteRequest = noteservice.NoteInput

// TagRequest is the request body for creating or updating a tag.
type TagRequest = noteservice.TagInput

// PinRequest is the request body for PUT /notes/{id}/pin.
type PinRequest struct {
	Pinned bool `json:"pinned" example:"true"`
}

// LinkRequest is the request body for POST /links.
type LinkRequest struct {
	SourceID string `json:"source_note_id" validate:"required"`
	TargetID string `json:"target_note_id" validate:"required"`
	Context  string `json:"context,omitempty"`
}

// LinkResponse reports the link and whether this call created it.
type LinkResponse struct {
	Link    *models.Link `json:"link" validate:"required"`
	Created bool         `json:"created"`
}

// NoteListResponse wraps paginated note listings.
type NoteListResponse struct {
	Notes  []models.Note `json:"notes" validate:"required"`
	Limit  int           `json:"limit,omitempty" example:"100"`
	Offset int           `json:"offset,omitempty" example:"0"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []models.Note `json:"results" validate:"required"`
}

// TagListResponse wraps tag listings.
type TagListResponse struct {
	Tags []models.Tag `json:"tags" validate:"required"`
}

// LinkListResponse wraps link listings.
type LinkListResponse struct {
	Links []models.Link `json:"links" validate:"required"`
}

// CountResponse reports how many rows an operation touched.
type CountResponse struct {
	Count int `json:"count" example:"2"`
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
