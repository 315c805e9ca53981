// Package importer mirrors a directory of markdown files into the note
// store and exports notes back out as markdown.
package importer

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/starford/lumina/internal/models"
	"github.com/starford/lumina/internal/noteservice"
	"github.com/starford/lumina/internal/parser"
	"github.com/starford/lumina/internal/storage"
)

// NoteImporter is the slice of the note service the importer drives.
type NoteImporter interface {
	ImportNote(ctx context.Context, path, checksum string, in noteservice.NoteInput) (*models.Note, bool, error)
	RemoveImported(ctx context.Context, path string) error
	ImportChecksums(ctx context.Context) (map[string]string, error)
}

// Importer keeps notes in sync with the markdown files under a directory.
// Each file maps to one note for its whole lifetime.
type Importer struct {
	notes  NoteImporter
	store  storage.Provider
	logger *slog.Logger
}

// Stats summarizes one Sync pass.
type Stats struct {
	Imported  int `json:"imported"`
	Unchanged int `json:"unchanged"`
	Removed   int `json:"removed"`
	Failed    int `json:"failed"`
}

// New creates an Importer.
func New(notes NoteImporter, store storage.Provider, logger *slog.Logger) *Importer {
	return &Importer{notes: notes, store: store, logger: logger}
}

// Sync walks the directory and brings the store up to date:
//   - new/changed files are parsed and imported
//   - notes whose file was removed are deleted
//
// Failures on single files are logged and counted, not returned.
func (im *Importer) Sync(ctx context.Context) (Stats, error) {
	var st Stats

	files, err := im.store.List("")
	if err != nil {
		return st, err
	}
	known, err := im.notes.ImportChecksums(ctx)
	if err != nil {
		return st, err
	}

	disk := make(map[string]struct{}, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		disk[f.Path] = struct{}{}

		if known[f.Path] == f.Checksum {
			st.Unchanged++
			continue
		}
		if err := im.importPath(ctx, f.Path); err != nil {
			st.Failed++
			im.logger.Warn("sync: import failed", slog.String("path", f.Path), slog.String("error", err.Error()))
			continue
		}
		st.Imported++
		im.logger.Debug("sync: imported", slog.String("path", f.Path))
	}

	for p := range known {
		if _, ok := disk[p]; ok {
			continue
		}
		if err := im.notes.RemoveImported(ctx, p); err != nil {
			st.Failed++
			im.logger.Warn("sync: remove failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		st.Removed++
		im.logger.Debug("sync: removed stale", slog.String("path", p))
	}

	return st, nil
}

// importPath reads, parses and imports one file.
func (im *Importer) importPath(ctx context.Context, rel string) error {
	data, err := im.store.Read(rel)
	if err != nil {
		return err
	}
	in, err := noteFromMarkdown(rel, data)
	if err != nil {
		return err
	}
	_, _, err = im.notes.ImportNote(ctx, rel, storage.Checksum(data), in)
	return err
}

// noteFromMarkdown builds the note for a file: title from frontmatter, else
// the first H1, else the file name; tags from frontmatter.
func noteFromMarkdown(rel string, data []byte) (noteservice.NoteInput, error) {
	res, err := parser.Parse(data)
	if err != nil {
		return noteservice.NoteInput{}, fmt.Errorf("parse %s: %w", rel, err)
	}
	if enc, _ := res.Frontmatter["encrypted"].(bool); enc {
		return noteservice.NoteInput{}, fmt.Errorf("%s holds encrypted content; not importing", rel)
	}

	title := res.Title
	if title == "" {
		title = strings.TrimSuffix(path.Base(rel), ".md")
	}
	pinned, _ := res.Frontmatter["pinned"].(bool)

	return noteservice.NoteInput{
		Title:    title,
		Content:  strings.TrimLeft(res.Body, "\n"),
		Tags:     res.Tags,
		IsPinned: pinned,
	}, nil
}
