// Package models defines the domain types for Lumina.
package models

import (
	"encoding/json"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// DateLayout is the calendar-day format used for daily notes.
const DateLayout = "2006-01-02"

const (
	MaxTitleLen   = 500
	MaxTagNameLen = 100
	DefaultColor  = "#0078D4"
)

// Link types recorded on edges.
const (
	LinkTypeWiki   = "wikilink"
	LinkTypeManual = "manual"
)

var hexColorRe = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Note is a titled unit of markdown content. When IsEncrypted is set Content
// holds the base64 ciphertext blob, never plaintext.
type Note struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	Tags          TagRefs   `json:"tags"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	IsDailyNote   bool      `json:"is_daily_note"`
	DailyNoteDate string    `json:"daily_note_date,omitempty"`
	IsEncrypted   bool      `json:"is_encrypted"`
	IsPinned      bool      `json:"is_pinned"`
}

// Validate checks the field-level invariants of a note.
func (n *Note) Validate() error {
	return validation.ValidateStruct(n,
		validation.Field(&n.Title, validation.Length(0, MaxTitleLen)),
		validation.Field(&n.DailyNoteDate,
			validation.When(n.IsDailyNote, validation.Required, validation.Date(DateLayout)).
				Else(validation.Empty),
		),
	)
}

// Tag is a named, optionally hierarchical label.
type Tag struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Color      string    `json:"color"`
	ParentID   string    `json:"parent_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UsageCount int       `json:"usage_count"`
}

// Validate checks the field-level invariants of a tag. Uniqueness and the
// parent chain are enforced by the store.
func (t *Tag) Validate() error {
	return validation.ValidateStruct(t,
		validation.Field(&t.Name, validation.Required, validation.Length(1, MaxTagNameLen)),
		validation.Field(&t.Color, validation.Required, validation.Match(hexColorRe)),
		validation.Field(&t.ParentID, validation.When(t.ParentID == t.ID && t.ID != "",
			validation.Empty.Error("a tag cannot be its own parent"))),
	)
}

// Link is a directed edge between two notes.
type Link struct {
	ID           string    `json:"id"`
	SourceNoteID string    `json:"source_note_id"`
	TargetNoteID string    `json:"target_note_id"`
	CreatedAt    time.Time `json:"created_at"`
	Context      string    `json:"context,omitempty"`
	LinkType     string    `json:"link_type,omitempty"`
}

// GraphNode is a note as seen by the graph view.
type GraphNode struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	IsPinned bool   `json:"is_pinned"`
}

// GraphEdge is a link as seen by the graph view.
type GraphEdge struct {
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
	LinkType string `json:"link_type,omitempty"`
}

// GraphData is a bounded node/edge snapshot. Edges may reference nodes that
// fell outside the node limit.
type GraphData struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// TagRefs is the ordered list of tag identifiers attached to a note.
type TagRefs []string

// MarshalJSON encodes an empty list as [] rather than null.
func (r TagRefs) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(r))
}

// String returns the JSON array encoding, "[]" when empty.
func (r TagRefs) String() string {
	b, _ := r.MarshalJSON()
	return string(b)
}

// ParseTagRefs decodes a JSON array of tag identifiers. Malformed input is
// treated as no tags.
func ParseTagRefs(s string) TagRefs {
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return TagRefs{}
	}
	return Dedup(out)
}

// Dedup returns refs without blanks or repeats, keeping first occurrences.
func Dedup(refs []string) TagRefs {
	seen := make(map[string]struct{}, len(refs))
	out := make(TagRefs, 0, len(refs))
	for _, r := range refs {
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

// Day returns the calendar day of t in DateLayout, using t's location.
func Day(t time.Time) string {
	return t.Format(DateLayout)
}
