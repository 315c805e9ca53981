package index

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/starford/lumina/internal/apperr"
	"github.com/starford/lumina/internal/models"
)

const linkColumns = `id, source_note_id, target_note_id, created_at, context, link_type`

func scanLink(r rowScanner) (*models.Link, error) {
	var l models.Link
	if err := r.Scan(&l.ID, &l.SourceNoteID, &l.TargetNoteID, &l.CreatedAt, &l.Context, &l.LinkType); err != nil {
		return nil, err
	}
	return &l, nil
}

func queryLinks(ctx context.Context, q querier, op, query string, args ...any) ([]models.Link, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(op, err)
	}
	defer rows.Close()

	var out []models.Link
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, classify(op, err)
		}
		out = append(out, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}
	return out, nil
}

// CreateLink records a directed edge. It is idempotent: when the pair is
// already linked the existing link is returned and created is false.
func (db *DB) CreateLink(ctx context.Context, l models.Link) (*models.Link, bool, error) {
	var (
		out     *models.Link
		created bool
	)
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		out, created, err = createLink(ctx, tx, l)
		return err
	})
	return out, created, err
}

func createLink(ctx context.Context, q querier, l models.Link) (*models.Link, bool, error) {
	existing, err := scanLink(q.QueryRowContext(ctx, `
		SELECT `+linkColumns+` FROM links
		WHERE source_note_id = ? AND target_note_id = ?
	`, l.SourceNoteID, l.TargetNoteID))
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, classify("find link", err)
	}

	for _, id := range []string{l.SourceNoteID, l.TargetNoteID} {
		if _, err := getNote(ctx, q, id); err != nil {
			return nil, false, err
		}
	}

	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	l.CreatedAt = time.Now().UTC()
	_, err = q.ExecContext(ctx, `
		INSERT INTO links (id, source_note_id, target_note_id, created_at, context, link_type)
		VALUES (?, ?, ?, ?, ?, ?)
	`, l.ID, l.SourceNoteID, l.TargetNoteID, l.CreatedAt, l.Context, l.LinkType)
	if err != nil {
		return nil, false, classify("insert link", err)
	}
	return &l, true, nil
}

// LinksForNote returns every link where the note is source or target.
func (db *DB) LinksForNote(ctx context.Context, noteID string) ([]models.Link, error) {
	return queryLinks(ctx, db.conn, "links for note", `
		SELECT `+linkColumns+` FROM links
		WHERE source_note_id = ? OR target_note_id = ?
		ORDER BY created_at, id
	`, noteID, noteID)
}

// AllLinks returns every stored link.
func (db *DB) AllLinks(ctx context.Context) ([]models.Link, error) {
	return queryLinks(ctx, db.conn, "all links",
		`SELECT `+linkColumns+` FROM links ORDER BY created_at, id`)
}

// DeleteLink removes one link by id.
func (db *DB) DeleteLink(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM links WHERE id = ?`, id)
	if err != nil {
		return classify("delete link", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFoundf("link %s", id)
	}
	return nil
}

// DeleteLinksForNote removes every link touching the note and reports how
// many were removed.
func (db *DB) DeleteLinksForNote(ctx context.Context, noteID string) (int, error) {
	return deleteLinksForNote(ctx, db.conn, noteID)
}

func deleteLinksForNote(ctx context.Context, q querier, noteID string) (int, error) {
	res, err := q.ExecContext(ctx,
		`DELETE FROM links WHERE source_note_id = ? OR target_note_id = ?`, noteID, noteID)
	if err != nil {
		return 0, classify("delete note links", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// ReconcileLinks adds wiki-links from noteID to every resolvable target in
// refs and returns the number created. Existing links are left alone;
// unresolved titles and self-references are skipped.
func (db *DB) ReconcileLinks(ctx context.Context, noteID string, refs []LinkRef) (int, error) {
	var n int
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getNote(ctx, tx, noteID); err != nil {
			return err
		}
		var err error
		n, err = reconcileLinks(ctx, tx, noteID, refs)
		return err
	})
	return n, err
}

func reconcileLinks(ctx context.Context, q querier, sourceID string, refs []LinkRef) (int, error) {
	created := 0
	for _, ref := range refs {
		target, err := resolveTitle(ctx, q, ref.Title)
		if errors.Is(err, apperr.ErrNotFound) {
			continue
		}
		if err != nil {
			return created, err
		}
		if target == sourceID {
			continue
		}
		_, ok, err := createLink(ctx, q, models.Link{
			SourceNoteID: sourceID,
			TargetNoteID: target,
			Context:      ref.Context,
			LinkType:     models.LinkTypeWiki,
		})
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}
	return created, nil
}
