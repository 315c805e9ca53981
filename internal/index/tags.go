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

const tagColumns = `id, name, color, COALESCE(parent_id, ''), created_at, usage_count`

func scanTag(r rowScanner) (*models.Tag, error) {
	var t models.Tag
	if err := r.Scan(&t.ID, &t.Name, &t.Color, &t.ParentID, &t.CreatedAt, &t.UsageCount); err != nil {
		return nil, err
	}
	return &t, nil
}

func queryTags(ctx context.Context, q querier, op, query string, args ...any) ([]models.Tag, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(op, err)
	}
	defer rows.Close()

	var out []models.Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, classify(op, err)
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}
	return out, nil
}

func getTag(ctx context.Context, q querier, where string, arg any) (*models.Tag, error) {
	t, err := scanTag(q.QueryRowContext(ctx, `SELECT `+tagColumns+` FROM tags WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFoundf("tag %v", arg)
		}
		return nil, classify("get tag", err)
	}
	return t, nil
}

// GetTag returns a tag by id.
func (db *DB) GetTag(ctx context.Context, id string) (*models.Tag, error) {
	return getTag(ctx, db.conn, "id = ?", id)
}

// GetTagByName returns a tag by name, ignoring case.
func (db *DB) GetTagByName(ctx context.Context, name string) (*models.Tag, error) {
	return getTag(ctx, db.conn, "name = ?", strings.TrimSpace(name))
}

// ListTags returns all tags ordered by name.
func (db *DB) ListTags(ctx context.Context) ([]models.Tag, error) {
	return queryTags(ctx, db.conn, "list tags", `SELECT `+tagColumns+` FROM tags ORDER BY name`)
}

// TagChildren returns the direct children of parentID, or the root tags when
// parentID is empty.
func (db *DB) TagChildren(ctx context.Context, parentID string) ([]models.Tag, error) {
	if parentID == "" {
		return queryTags(ctx, db.conn, "tag roots",
			`SELECT `+tagColumns+` FROM tags WHERE parent_id IS NULL ORDER BY name`)
	}
	return queryTags(ctx, db.conn, "tag children",
		`SELECT `+tagColumns+` FROM tags WHERE parent_id = ? ORDER BY name`, parentID)
}

// CreateTag stores a new tag. Names are unique ignoring case and the parent,
// when given, must exist.
func (db *DB) CreateTag(ctx context.Context, t *models.Tag) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		return insertTag(ctx, tx, t)
	})
}

func insertTag(ctx context.Context, q querier, t *models.Tag) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Color == "" {
		t.Color = models.DefaultColor
	}
	t.Name = strings.TrimSpace(t.Name)
	if err := t.Validate(); err != nil {
		return apperr.Validation(err)
	}
	if err := checkNameFree(ctx, q, t.Name, t.ID); err != nil {
		return err
	}
	if t.ParentID != "" {
		if _, err := getTag(ctx, q, "id = ?", t.ParentID); err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return apperr.Validationf("parent tag %s does not exist", t.ParentID)
			}
			return err
		}
	}
	t.CreatedAt = time.Now().UTC()
	t.UsageCount = 0

	_, err := q.ExecContext(ctx, `
		INSERT INTO tags (id, name, color, parent_id, created_at, usage_count)
		VALUES (?, ?, ?, ?, ?, 0)
	`, t.ID, t.Name, t.Color, nullable(t.ParentID), t.CreatedAt)
	return classify("insert tag", err)
}

// UpdateTag changes a tag's name, color and parent. A parent that would make
// the tag its own ancestor is rejected.
func (db *DB) UpdateTag(ctx context.Context, t *models.Tag) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		prev, err := getTag(ctx, tx, "id = ?", t.ID)
		if err != nil {
			return err
		}
		t.Name = strings.TrimSpace(t.Name)
		if t.Color == "" {
			t.Color = prev.Color
		}
		if err := t.Validate(); err != nil {
			return apperr.Validation(err)
		}
		if err := checkNameFree(ctx, tx, t.Name, t.ID); err != nil {
			return err
		}
		if err := checkParent(ctx, tx, t.ID, t.ParentID); err != nil {
			return err
		}
		t.CreatedAt, t.UsageCount = prev.CreatedAt, prev.UsageCount

		_, err = tx.ExecContext(ctx, `
			UPDATE tags SET name = ?, color = ?, parent_id = ? WHERE id = ?
		`, t.Name, t.Color, nullable(t.ParentID), t.ID)
		return classify("update tag", err)
	})
}

// DeleteTag removes a tag. Notes carrying it lose the reference and child
// tags become roots.
func (db *DB) DeleteTag(ctx context.Context, id string) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getTag(ctx, tx, "id = ?", id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM note_tags WHERE tag_id = ?`, id); err != nil {
			return classify("detach tag", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE tags SET parent_id = NULL WHERE parent_id = ?`, id); err != nil {
			return classify("orphan child tags", err)
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, id)
		return classify("delete tag", err)
	})
}

func checkNameFree(ctx context.Context, q querier, name, selfID string) error {
	var id string
	err := q.QueryRowContext(ctx, `SELECT id FROM tags WHERE name = ? AND id != ?`, name, selfID).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil
	case err != nil:
		return classify("check tag name", err)
	default:
		return apperr.Validationf("tag %q already exists", name)
	}
}

// checkParent walks the ancestors of parentID and fails if tagID is among
// them.
func checkParent(ctx context.Context, q querier, tagID, parentID string) error {
	seen := map[string]bool{}
	for cur := parentID; cur != ""; {
		if cur == tagID {
			return apperr.Validationf("tag %s cannot be its own ancestor", tagID)
		}
		if seen[cur] {
			return apperr.Validationf("tag hierarchy already contains a cycle at %s", cur)
		}
		seen[cur] = true

		p, err := getTag(ctx, q, "id = ?", cur)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return apperr.Validationf("parent tag %s does not exist", cur)
			}
			return err
		}
		cur = p.ParentID
	}
	return nil
}

// resolveTagRef maps a tag reference onto a tag id: an exact id match wins,
// then a case-insensitive name match; otherwise a tag with that name is
// created.
func resolveTagRef(ctx context.Context, q querier, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", apperr.Validationf("empty tag reference")
	}
	var id string
	err := q.QueryRowContext(ctx, `
		SELECT id FROM tags WHERE id = ? OR name = ?
		ORDER BY (id = ?) DESC
		LIMIT 1
	`, ref, ref, ref).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", classify("resolve tag", err)
	}

	t := &models.Tag{Name: ref}
	if err := insertTag(ctx, q, t); err != nil {
		return "", err
	}
	return t.ID, nil
}

func noteTagIDs(ctx context.Context, q querier, noteID string) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT tag_id FROM note_tags WHERE note_id = ? ORDER BY position`, noteID)
	if err != nil {
		return nil, classify("note tags", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, classify("note tags", err)
		}
		ids = append(ids, id)
	}
	return ids, classify("note tags", rows.Err())
}

// setNoteTags replaces the tag attachments of a note, creating tags for
// unknown names, and returns the resolved ids in order.
func setNoteTags(ctx context.Context, q querier, noteID string, refs models.TagRefs) (models.TagRefs, error) {
	old, err := noteTagIDs(ctx, q, noteID)
	if err != nil {
		return nil, err
	}

	ids := make(models.TagRefs, 0, len(refs))
	for _, ref := range models.Dedup(refs) {
		if strings.TrimSpace(ref) == "" {
			continue
		}
		id, err := resolveTagRef(ctx, q, ref)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	ids = models.Dedup(ids)

	if _, err := q.ExecContext(ctx, `DELETE FROM note_tags WHERE note_id = ?`, noteID); err != nil {
		return nil, classify("clear note tags", err)
	}
	for pos, id := range ids {
		if _, err := q.ExecContext(ctx,
			`INSERT INTO note_tags (note_id, tag_id, position) VALUES (?, ?, ?)`,
			noteID, id, pos); err != nil {
			return nil, classify("attach tag", err)
		}
	}
	if err := refreshUsage(ctx, q, append(old, ids...)); err != nil {
		return nil, err
	}
	return ids, nil
}

// refreshUsage recounts usage_count for the given tags.
func refreshUsage(ctx context.Context, q querier, tagIDs []string) error {
	for _, id := range models.Dedup(tagIDs) {
		if _, err := q.ExecContext(ctx, `
			UPDATE tags SET usage_count = (SELECT COUNT(*) FROM note_tags WHERE tag_id = tags.id)
			WHERE id = ?
		`, id); err != nil {
			return classify("refresh tag usage", err)
		}
	}
	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
