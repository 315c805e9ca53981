package index

import (
	"context"
	"database/sql"
	"errors"

	"github.com/starford/lumina/internal/apperr"
	"github.com/starford/lumina/internal/models"
)

// ImportChecksums returns the checksum recorded for every imported file,
// keyed by its path relative to the import root.
func (db *DB) ImportChecksums(ctx context.Context) (map[string]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT path, checksum FROM imports`)
	if err != nil {
		return nil, classify("import checksums", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, classify("import checksums", err)
		}
		out[p] = cs
	}
	return out, classify("import checksums", rows.Err())
}

// ImportNote inserts or refreshes the note backing an imported file. The file
// keeps the same note id across imports; created reports whether a new note
// was stored.
func (db *DB) ImportNote(ctx context.Context, path, checksum string, n *models.Note, refs []LinkRef) (bool, error) {
	var created bool
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		noteID, err := importedNoteID(ctx, tx, path)
		switch {
		case err == nil:
			n.ID = noteID
			if err := updateNote(ctx, tx, n, refs); err != nil {
				return err
			}
		case errors.Is(err, apperr.ErrNotFound):
			n.ID = ""
			if err := insertNote(ctx, tx, n, refs); err != nil {
				return err
			}
			created = true
		default:
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO imports (path, checksum, note_id) VALUES (?, ?, ?)
			ON CONFLICT(path) DO UPDATE SET checksum = excluded.checksum, note_id = excluded.note_id
		`, path, checksum, n.ID)
		return classify("record import", err)
	})
	if err == nil {
		db.titleIDs.Purge()
	}
	return created, err
}

// DeleteImported removes the note backing an imported file that no longer
// exists and returns its id.
func (db *DB) DeleteImported(ctx context.Context, path string) (string, error) {
	var noteID string
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		if noteID, err = importedNoteID(ctx, tx, path); err != nil {
			return err
		}
		if err := deleteNote(ctx, tx, noteID); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM imports WHERE path = ?`, path)
		return classify("forget import", err)
	})
	if err == nil {
		db.titleIDs.Purge()
	}
	return noteID, err
}

func importedNoteID(ctx context.Context, q querier, path string) (string, error) {
	var id string
	err := q.QueryRowContext(ctx, `SELECT note_id FROM imports WHERE path = ?`, path).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", apperr.NotFoundf("import %s", path)
		}
		return "", classify("imported note", err)
	}
	return id, nil
}
