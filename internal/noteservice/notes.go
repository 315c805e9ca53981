package noteservice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/starford/lumina/internal/apperr"
	"github.com/starford/lumina/internal/index"
	"github.com/starford/lumina/internal/models"
	"github.com/starford/lumina/internal/parser"
)

// dailyTitleLayout formats the title of an auto-created daily note.
const dailyTitleLayout = "January 02, 2006"

// NoteInput carries the caller-editable fields of a note. Content is always
// plaintext; the service encrypts it when IsEncrypted is set.
type NoteInput struct {
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Tags        []string `json:"tags"`
	IsPinned    bool     `json:"is_pinned"`
	IsEncrypted bool     `json:"is_encrypted"`
}

// CreateNote stores a new note and adds derived links for every wiki-link in
// its content that resolves to an existing note. password is only used when
// in.IsEncrypted is set.
func (s *Service) CreateNote(ctx context.Context, in NoteInput, password string) (*models.Note, error) {
	n, refs, err := s.prepare(in, password)
	if err != nil {
		return nil, err
	}
	if err := s.store.InsertNote(ctx, n, refs); err != nil {
		return nil, err
	}
	s.publish(EventCreated, n.ID)
	return n, nil
}

// UpdateNote replaces the editable fields of a note. Changing a note that is
// currently encrypted requires its password, even when the update turns
// encryption off. Daily-note identity is preserved.
func (s *Service) UpdateNote(ctx context.Context, id string, in NoteInput, password string) (*models.Note, error) {
	prev, err := s.store.GetNote(ctx, id)
	if err != nil {
		return nil, err
	}
	if prev.IsEncrypted {
		if _, err := s.decrypt(prev.Content, password); err != nil {
			return nil, err
		}
	}

	n, refs, err := s.prepare(in, password)
	if err != nil {
		return nil, err
	}
	n.ID = id
	n.IsDailyNote, n.DailyNoteDate = prev.IsDailyNote, prev.DailyNoteDate

	if err := s.store.UpdateNote(ctx, n, refs); err != nil {
		return nil, err
	}
	s.publish(EventUpdated, n.ID)
	return n, nil
}

// SetPinned pins or unpins a note without touching its content.
func (s *Service) SetPinned(ctx context.Context, id string, pinned bool) (*models.Note, error) {
	n, err := s.store.GetNote(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.IsPinned == pinned {
		return n, nil
	}
	n.IsPinned = pinned
	if err := s.store.UpdateNote(ctx, n, nil); err != nil {
		return nil, err
	}
	s.publish(EventUpdated, n.ID)
	return n, nil
}

// DeleteNote removes a note and every link that touches it.
func (s *Service) DeleteNote(ctx context.Context, id string) error {
	if err := s.store.DeleteNote(ctx, id); err != nil {
		return err
	}
	s.publish(EventDeleted, id)
	return nil
}

// GetNote returns a note as stored. Encrypted notes carry their ciphertext.
func (s *Service) GetNote(ctx context.Context, id string) (*models.Note, error) {
	return s.store.GetNote(ctx, id)
}

// OpenNote returns a note with plaintext content, decrypting it with password
// when the note is encrypted.
func (s *Service) OpenNote(ctx context.Context, id, password string) (*models.Note, error) {
	n, err := s.store.GetNote(ctx, id)
	if err != nil {
		return nil, err
	}
	if !n.IsEncrypted {
		return n, nil
	}
	plain, err := s.decrypt(n.Content, password)
	if err != nil {
		return nil, err
	}
	n.Content = plain
	return n, nil
}

// ListNotes returns notes newest first.
func (s *Service) ListNotes(ctx context.Context, limit, offset int) ([]models.Note, error) {
	return s.store.ListNotes(ctx, limit, offset)
}

// Search matches query against titles and unencrypted content. A blank query
// matches nothing.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]models.Note, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 || limit > s.searchLimit {
		limit = s.searchLimit
	}
	return s.store.SearchNotes(ctx, query, limit)
}

// NotesByTag returns notes carrying the tag with the given id or name.
func (s *Service) NotesByTag(ctx context.Context, ref string) ([]models.Note, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, apperr.Validationf("tag reference is required")
	}
	return s.store.NotesByTag(ctx, ref)
}

// PinnedNotes returns every pinned note.
func (s *Service) PinnedNotes(ctx context.Context) ([]models.Note, error) {
	return s.store.PinnedNotes(ctx)
}

// GetOrCreateDailyNote returns the daily note for date (YYYY-MM-DD),
// creating an empty one titled after the date if none exists.
func (s *Service) GetOrCreateDailyNote(ctx context.Context, date string) (*models.Note, error) {
	day, err := time.Parse(models.DateLayout, strings.TrimSpace(date))
	if err != nil {
		return nil, apperr.Validationf("malformed date %q: want %s", date, models.DateLayout)
	}
	n := &models.Note{
		Title:         DailyTitle(day),
		IsDailyNote:   true,
		DailyNoteDate: models.Day(day),
	}
	out, created, err := s.store.GetOrCreateDailyNote(ctx, n)
	if err != nil {
		return nil, err
	}
	if created {
		s.publish(EventCreated, out.ID)
	}
	return out, nil
}

// Today returns today's daily note, creating it if needed.
func (s *Service) Today(ctx context.Context) (*models.Note, error) {
	return s.GetOrCreateDailyNote(ctx, models.Day(s.now()))
}

// DailyTitle is the title given to the daily note of day.
func DailyTitle(day time.Time) string {
	return "Daily Note - " + day.Format(dailyTitleLayout)
}

// ImportNote stores the note backing an imported markdown file, keyed by its
// path. Imported notes are never encrypted.
func (s *Service) ImportNote(ctx context.Context, path, checksum string, in NoteInput) (*models.Note, bool, error) {
	in.IsEncrypted = false
	n, refs, err := s.prepare(in, "")
	if err != nil {
		return nil, false, err
	}
	created, err := s.store.ImportNote(ctx, path, checksum, n, refs)
	if err != nil {
		return nil, false, err
	}
	if created {
		s.publish(EventCreated, n.ID)
	} else {
		s.publish(EventUpdated, n.ID)
	}
	return n, created, nil
}

// RemoveImported deletes the note backing an imported file.
func (s *Service) RemoveImported(ctx context.Context, path string) error {
	id, err := s.store.DeleteImported(ctx, path)
	if err != nil {
		return err
	}
	s.publish(EventDeleted, id)
	return nil
}

// ImportChecksums returns the recorded checksum of every imported file.
func (s *Service) ImportChecksums(ctx context.Context) (map[string]string, error) {
	return s.store.ImportChecksums(ctx)
}

// prepare validates in and turns it into a storable note plus the wiki-link
// references found in its plaintext.
func (s *Service) prepare(in NoteInput, password string) (*models.Note, []index.LinkRef, error) {
	n := &models.Note{
		Title:       strings.TrimSpace(in.Title),
		Content:     in.Content,
		Tags:        models.Dedup(in.Tags),
		IsPinned:    in.IsPinned,
		IsEncrypted: in.IsEncrypted,
	}
	if err := n.Validate(); err != nil {
		return nil, nil, apperr.Validation(err)
	}
	// Empty plaintext encrypts to an empty blob, which any password opens.
	if in.IsEncrypted && in.Content == "" {
		return nil, nil, apperr.Validationf("encrypted notes need content")
	}

	refs := linkRefs(in.Content, !in.IsEncrypted)
	if !in.IsEncrypted && s.hashtagTags {
		n.Tags = models.Dedup(append(n.Tags, hashtagTags(in.Content)...))
	}

	if in.IsEncrypted {
		blob, err := s.encrypt(in.Content, password)
		if err != nil {
			return nil, nil, err
		}
		n.Content = blob
	}
	return n, refs, nil
}

// hashtagTags returns the hashtags of content that fit a tag name. Longer
// ones are left in the text only.
func hashtagTags(content string) []string {
	var out []string
	for _, h := range parser.ExtractHashtags(content) {
		if utf8.RuneCountInString(h) <= models.MaxTagNameLen {
			out = append(out, h)
		}
	}
	return out
}

// linkRefs lists each distinct wiki-link target of content with the text
// around its first occurrence. Context is left out for encrypted notes so
// no plaintext is stored beside the ciphertext.
func linkRefs(content string, withContext bool) []index.LinkRef {
	var refs []index.LinkRef
	seen := make(map[string]struct{})
	for _, l := range parser.FindWikiLinks(content) {
		if _, ok := seen[l.Target]; ok {
			continue
		}
		seen[l.Target] = struct{}{}
		ref := index.LinkRef{Title: l.Target}
		if withContext {
			ref.Context = parser.Excerpt(content, l, excerptRadius)
		}
		refs = append(refs, ref)
	}
	return refs
}

func (s *Service) checkPassword(password string) error {
	if password == "" {
		return fmt.Errorf("%w: password is required", apperr.ErrDecryption)
	}
	if s.passwordHash != "" && !s.codec.VerifyPassword(password, s.passwordHash) {
		return apperr.ErrDecryption
	}
	return nil
}

func (s *Service) encrypt(plaintext, password string) (string, error) {
	if err := s.checkPassword(password); err != nil {
		return "", err
	}
	return s.codec.Encrypt(plaintext, password)
}

func (s *Service) decrypt(blob, password string) (string, error) {
	if err := s.checkPassword(password); err != nil {
		return "", err
	}
	plain, err := s.codec.Decrypt(blob, password)
	if err != nil {
		if errors.Is(err, apperr.ErrDecryption) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", apperr.ErrDecryption, err)
	}
	return plain, nil
}
