package index

import (
	"context"

	"github.com/starford/lumina/internal/models"
)

// Store defines the persistence operations the note service relies on.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type Store interface {
	InsertNote(ctx context.Context, n *models.Note, refs []LinkRef) error
	UpdateNote(ctx context.Context, n *models.Note, refs []LinkRef) error
	DeleteNote(ctx context.Context, id string) error
	GetNote(ctx context.Context, id string) (*models.Note, error)
	ListNotes(ctx context.Context, limit, offset int) ([]models.Note, error)
	SearchNotes(ctx context.Context, query string, limit int) ([]models.Note, error)
	NotesByTag(ctx context.Context, ref string) ([]models.Note, error)
	PinnedNotes(ctx context.Context) ([]models.Note, error)
	DailyNote(ctx context.Context, date string) (*models.Note, error)
	GetOrCreateDailyNote(ctx context.Context, n *models.Note) (*models.Note, bool, error)
	ResolveTitle(ctx context.Context, title string) (string, error)

	CreateTag(ctx context.Context, t *models.Tag) error
	UpdateTag(ctx context.Context, t *models.Tag) error
	DeleteTag(ctx context.Context, id string) error
	GetTag(ctx context.Context, id string) (*models.Tag, error)
	GetTagByName(ctx context.Context, name string) (*models.Tag, error)
	ListTags(ctx context.Context) ([]models.Tag, error)
	TagChildren(ctx context.Context, parentID string) ([]models.Tag, error)

	CreateLink(ctx context.Context, l models.Link) (*models.Link, bool, error)
	LinksForNote(ctx context.Context, noteID string) ([]models.Link, error)
	AllLinks(ctx context.Context) ([]models.Link, error)
	DeleteLink(ctx context.Context, id string) error
	DeleteLinksForNote(ctx context.Context, noteID string) (int, error)
	ReconcileLinks(ctx context.Context, noteID string, refs []LinkRef) (int, error)

	ImportChecksums(ctx context.Context) (map[string]string, error)
	ImportNote(ctx context.Context, path, checksum string, n *models.Note, refs []LinkRef) (bool, error)
	DeleteImported(ctx context.Context, path string) (string, error)

	Ping(ctx context.Context) error
	Close() error
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)
