package index

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starford/lumina/internal/apperr"
	"github.com/starford/lumina/internal/models"
)

const defaultListLimit = 100

// noteColumns selects a full note row; the tag list is aggregated from
// note_tags in position order as a JSON array.
const noteColumns = `n.id, n.title, n.content, n.created_at, n.updated_at,
	n.is_daily_note, COALESCE(n.daily_note_date, ''), n.is_encrypted, n.is_pinned,
	(SELECT json_group_array(tag_id) FROM
		(SELECT tag_id FROM note_tags WHERE note_id = n.id ORDER BY position))`

// LinkRef is a wiki-link target extracted from note content, with the text
// surrounding its first occurrence.
type LinkRef struct {
	Title   string
	Context string
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(r rowScanner) (*models.Note, error) {
	var (
		n    models.Note
		tags string
	)
	if err := r.Scan(&n.ID, &n.Title, &n.Content, &n.CreatedAt, &n.UpdatedAt,
		&n.IsDailyNote, &n.DailyNoteDate, &n.IsEncrypted, &n.IsPinned, &tags); err != nil {
		return nil, err
	}
	n.Tags = models.ParseTagRefs(tags)
	return &n, nil
}

func queryNotes(ctx context.Context, q querier, op, query string, args ...any) ([]models.Note, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(op, err)
	}
	defer rows.Close()

	var out []models.Note
	for rows.Next() {
		// Abandon the scan between rows once the caller gives up; partial
		// results are never returned.
		if err := ctx.Err(); err != nil {
			return nil, classify(op, err)
		}
		n, err := scanNote(rows)
		if err != nil {
			return nil, classify(op, err)
		}
		out = append(out, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}
	return out, nil
}

func getNote(ctx context.Context, q querier, id string) (*models.Note, error) {
	n, err := scanNote(q.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes n WHERE n.id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFoundf("note %s", id)
		}
		return nil, classify("get note", err)
	}
	return n, nil
}

// GetNote returns the stored note, content exactly as persisted.
func (db *DB) GetNote(ctx context.Context, id string) (*models.Note, error) {
	return getNote(ctx, db.conn, id)
}

// InsertNote stores a new note, attaches its tags and adds derived links, all
// in one transaction. ID and timestamps are assigned here; n is updated in
// place with the resolved tag ids.
func (db *DB) InsertNote(ctx context.Context, n *models.Note, refs []LinkRef) error {
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		return insertNote(ctx, tx, n, refs)
	})
	if err == nil {
		db.titleIDs.Purge()
	}
	return err
}

// UpdateNote replaces a note's mutable fields, bumps updated_at, re-attaches
// tags and adds any new derived links. Links are never removed here.
func (db *DB) UpdateNote(ctx context.Context, n *models.Note, refs []LinkRef) error {
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		return updateNote(ctx, tx, n, refs)
	})
	if err == nil {
		db.titleIDs.Purge()
	}
	return err
}

// DeleteNote removes a note together with every link touching it and its tag
// attachments.
func (db *DB) DeleteNote(ctx context.Context, id string) error {
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		return deleteNote(ctx, tx, id)
	})
	if err == nil {
		db.titleIDs.Purge()
	}
	return err
}

func insertNote(ctx context.Context, q querier, n *models.Note, refs []LinkRef) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	n.CreatedAt, n.UpdatedAt = now, now

	_, err := q.ExecContext(ctx, `
		INSERT INTO notes (id, title, content, created_at, updated_at,
			is_daily_note, daily_note_date, is_encrypted, is_pinned)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, n.ID, n.Title, n.Content, n.CreatedAt, n.UpdatedAt,
		boolInt(n.IsDailyNote), dailyDate(n), boolInt(n.IsEncrypted), boolInt(n.IsPinned))
	if err != nil {
		return classify("insert note", err)
	}

	if n.Tags, err = setNoteTags(ctx, q, n.ID, n.Tags); err != nil {
		return err
	}
	_, err = reconcileLinks(ctx, q, n.ID, refs)
	return err
}

func updateNote(ctx context.Context, q querier, n *models.Note, refs []LinkRef) error {
	prev, err := getNote(ctx, q, n.ID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if now.Before(prev.UpdatedAt) {
		now = prev.UpdatedAt
	}
	n.CreatedAt, n.UpdatedAt = prev.CreatedAt, now

	_, err = q.ExecContext(ctx, `
		UPDATE notes SET
			title           = ?,
			content         = ?,
			updated_at      = ?,
			is_daily_note   = ?,
			daily_note_date = ?,
			is_encrypted    = ?,
			is_pinned       = ?
		WHERE id = ?
	`, n.Title, n.Content, n.UpdatedAt, boolInt(n.IsDailyNote), dailyDate(n),
		boolInt(n.IsEncrypted), boolInt(n.IsPinned), n.ID)
	if err != nil {
		return classify("update note", err)
	}

	if n.Tags, err = setNoteTags(ctx, q, n.ID, n.Tags); err != nil {
		return err
	}
	_, err = reconcileLinks(ctx, q, n.ID, refs)
	return err
}

func deleteNote(ctx context.Context, q querier, id string) error {
	if _, err := getNote(ctx, q, id); err != nil {
		return err
	}
	tagIDs, err := noteTagIDs(ctx, q, id)
	if err != nil {
		return err
	}
	if _, err := deleteLinksForNote(ctx, q, id); err != nil {
		return err
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM note_tags WHERE note_id = ?`, id); err != nil {
		return classify("delete note tags", err)
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id); err != nil {
		return classify("delete note", err)
	}
	return refreshUsage(ctx, q, tagIDs)
}

func dailyDate(n *models.Note) sql.NullString {
	return sql.NullString{String: n.DailyNoteDate, Valid: n.IsDailyNote}
}

// ListNotes returns notes ordered by updated_at, newest first.
func (db *DB) ListNotes(ctx context.Context, limit, offset int) ([]models.Note, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	offset = max(offset, 0)
	return queryNotes(ctx, db.conn, "list notes", `
		SELECT `+noteColumns+` FROM notes n
		ORDER BY n.updated_at DESC, n.id
		LIMIT ? OFFSET ?
	`, limit, offset)
}

// SearchNotes is a case-insensitive substring match over title, and over
// content for notes that are not encrypted. Ciphertext is never matched.
func (db *DB) SearchNotes(ctx context.Context, query string, limit int) ([]models.Note, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	like := "%" + escapeLike(query) + "%"
	return queryNotes(ctx, db.conn, "search notes", `
		SELECT `+noteColumns+` FROM notes n
		WHERE n.title LIKE ? ESCAPE '\'
		   OR (n.is_encrypted = 0 AND n.content LIKE ? ESCAPE '\')
		ORDER BY n.updated_at DESC, n.id
		LIMIT ?
	`, like, like, limit)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// NotesByTag returns the notes carrying the tag whose id or name (case
// insensitive) equals ref.
func (db *DB) NotesByTag(ctx context.Context, ref string) ([]models.Note, error) {
	return queryNotes(ctx, db.conn, "notes by tag", `
		SELECT DISTINCT `+noteColumns+` FROM notes n
		JOIN note_tags nt ON nt.note_id = n.id
		JOIN tags t ON t.id = nt.tag_id
		WHERE t.id = ? OR t.name = ?
		ORDER BY n.updated_at DESC, n.id
	`, ref, ref)
}

// PinnedNotes returns every pinned note, newest first.
func (db *DB) PinnedNotes(ctx context.Context) ([]models.Note, error) {
	return queryNotes(ctx, db.conn, "pinned notes", `
		SELECT `+noteColumns+` FROM notes n
		WHERE n.is_pinned = 1
		ORDER BY n.updated_at DESC, n.id
	`)
}

func dailyNote(ctx context.Context, q querier, date string) (*models.Note, error) {
	n, err := scanNote(q.QueryRowContext(ctx, `
		SELECT `+noteColumns+` FROM notes n
		WHERE n.is_daily_note = 1 AND n.daily_note_date = ?
	`, date))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFoundf("daily note %s", date)
		}
		return nil, classify("daily note", err)
	}
	return n, nil
}

// DailyNote returns the daily note for a calendar date (DateLayout).
func (db *DB) DailyNote(ctx context.Context, date string) (*models.Note, error) {
	return dailyNote(ctx, db.conn, date)
}

// GetOrCreateDailyNote returns the daily note for n.DailyNoteDate, inserting
// n when none exists. The lookup and insert share one transaction and the
// partial unique index on daily_note_date backs it up.
func (db *DB) GetOrCreateDailyNote(ctx context.Context, n *models.Note) (*models.Note, bool, error) {
	var (
		out     *models.Note
		created bool
	)
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		existing, err := dailyNote(ctx, tx, n.DailyNoteDate)
		if err == nil {
			out = existing
			return nil
		}
		if !errors.Is(err, apperr.ErrNotFound) {
			return err
		}
		if err := insertNote(ctx, tx, n, nil); err != nil {
			return err
		}
		out, created = n, true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if created {
		db.titleIDs.Purge()
	}
	return out, created, nil
}

func resolveTitle(ctx context.Context, q querier, title string) (string, error) {
	var id string
	err := q.QueryRowContext(ctx, `
		SELECT id FROM notes
		WHERE title = ? COLLATE NOCASE
		ORDER BY created_at, id
		LIMIT 1
	`, strings.TrimSpace(title)).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", apperr.NotFoundf("note titled %q", title)
		}
		return "", classify("resolve title", err)
	}
	return id, nil
}

// ResolveTitle returns the id of the oldest note whose title matches,
// ignoring case.
func (db *DB) ResolveTitle(ctx context.Context, title string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(title))
	if id, ok := db.titleIDs.Get(key); ok {
		return id, nil
	}
	id, err := resolveTitle(ctx, db.conn, title)
	if err != nil {
		return "", err
	}
	db.titleIDs.Add(key, id)
	return id, nil
}
