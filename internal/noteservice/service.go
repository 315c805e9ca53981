// Package noteservice orchestrates the note, tag and link stores: it owns the
// encryption workflow, derives links and hashtag tags from content, and
// publishes change notifications.
package noteservice

import (
	"context"
	"time"

	"github.com/starford/lumina/internal/encryption"
	"github.com/starford/lumina/internal/index"
)

const (
	DefaultSearchLimit    = 50
	DefaultGraphNodeLimit = 500

	// excerptRadius is how much text on each side of a wiki-link is kept
	// as the derived link's context.
	excerptRadius = 40
)

// Event kinds passed to a Notifier.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// Notifier receives note change notifications after they are committed.
type Notifier func(kind, noteID string)

// Service coordinates the store, the crypto codec and change notification.
type Service struct {
	store  index.Store
	codec  *encryption.Codec
	notify Notifier
	now    func() time.Time

	passwordHash   string
	hashtagTags    bool
	searchLimit    int
	graphNodeLimit int
}

// Option configures a Service.
type Option func(*Service)

// WithCodec sets the codec used for encrypted notes.
func WithCodec(c *encryption.Codec) Option {
	return func(s *Service) { s.codec = c }
}

// WithPasswordHash makes every note password get verified against hash
// (as produced by Codec.HashPassword) before use.
func WithPasswordHash(hash string) Option {
	return func(s *Service) { s.passwordHash = hash }
}

// WithHashtagTags controls whether #hashtags in plaintext content are
// attached as tags.
func WithHashtagTags(on bool) Option {
	return func(s *Service) { s.hashtagTags = on }
}

// WithSearchLimit sets the default number of search results.
func WithSearchLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.searchLimit = n
		}
	}
}

// WithGraphNodeLimit sets the default node limit of Graph.
func WithGraphNodeLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.graphNodeLimit = n
		}
	}
}

// WithNotifier registers fn for change notifications.
func WithNotifier(fn Notifier) Option {
	return func(s *Service) { s.notify = fn }
}

// WithClock overrides the clock used to pick today's daily note.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new note service.
func NewService(store index.Store, opts ...Option) *Service {
	s := &Service{
		store:          store,
		codec:          encryption.New(encryption.MinIterations),
		now:            time.Now,
		hashtagTags:    true,
		searchLimit:    DefaultSearchLimit,
		graphNodeLimit: DefaultGraphNodeLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ping reports whether the backing store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) publish(kind, id string) {
	if s.notify != nil {
		s.notify(kind, id)
	}
}
