package importer

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/starford/lumina/internal/models"
	"github.com/starford/lumina/internal/storage"
)

const exportPageSize = 200

// NoteLister is the read side of the note service used by Export.
type NoteLister interface {
	ListNotes(ctx context.Context, limit, offset int) ([]models.Note, error)
	ListTags(ctx context.Context) ([]models.Tag, error)
}

// frontmatter is the YAML header written on exported notes.
type frontmatter struct {
	ID        string    `yaml:"id"`
	Title     string    `yaml:"title"`
	Tags      []string  `yaml:"tags,omitempty"`
	Created   time.Time `yaml:"created"`
	Updated   time.Time `yaml:"updated"`
	Pinned    bool      `yaml:"pinned,omitempty"`
	Encrypted bool      `yaml:"encrypted,omitempty"`
	DailyDate string    `yaml:"daily_note_date,omitempty"`
}

// Export writes every note to dest as a markdown file with YAML frontmatter
// and returns the number written. Daily notes go under daily/<date>.md.
// Encrypted notes are written with their ciphertext and marked encrypted,
// which makes the importer skip them.
func Export(ctx context.Context, notes NoteLister, dest storage.Provider) (int, error) {
	tags, err := notes.ListTags(ctx)
	if err != nil {
		return 0, err
	}
	tagNames := make(map[string]string, len(tags))
	for _, t := range tags {
		tagNames[t.ID] = t.Name
	}

	used := make(map[string]struct{})
	written := 0
	for offset := 0; ; offset += exportPageSize {
		page, err := notes.ListNotes(ctx, exportPageSize, offset)
		if err != nil {
			return written, err
		}
		for i := range page {
			n := &page[i]
			data, err := renderNote(n, tagNames)
			if err != nil {
				return written, err
			}
			if err := dest.Write(exportPath(n, used), data); err != nil {
				return written, err
			}
			written++
		}
		if len(page) < exportPageSize {
			return written, nil
		}
	}
}

func renderNote(n *models.Note, tagNames map[string]string) ([]byte, error) {
	fm := frontmatter{
		ID:        n.ID,
		Title:     n.Title,
		Created:   n.CreatedAt,
		Updated:   n.UpdatedAt,
		Pinned:    n.IsPinned,
		Encrypted: n.IsEncrypted,
		DailyDate: n.DailyNoteDate,
	}
	for _, id := range n.Tags {
		if name, ok := tagNames[id]; ok {
			fm.Tags = append(fm.Tags, name)
		}
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(fm); err != nil {
		return nil, fmt.Errorf("export %s: %w", n.ID, err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("export %s: %w", n.ID, err)
	}
	buf.WriteString("---\n\n")
	buf.WriteString(n.Content)
	if n.Content != "" && !strings.HasSuffix(n.Content, "\n") {
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

var unsafeName = regexp.MustCompile(`[^\p{L}\p{N}._ -]+`)

// exportPath picks a file name from the title, falling back to the id, and
// disambiguates repeats with a short id suffix.
func exportPath(n *models.Note, used map[string]struct{}) string {
	if n.IsDailyNote {
		p := "daily/" + n.DailyNoteDate + ".md"
		used[p] = struct{}{}
		return p
	}

	name := strings.TrimSpace(unsafeName.ReplaceAllString(n.Title, "-"))
	name = strings.Trim(name, ".-")
	if name == "" {
		name = n.ID
	}
	p := name + ".md"
	if _, dup := used[strings.ToLower(p)]; dup {
		p = fmt.Sprintf("%s-%.8s.md", name, n.ID)
	}
	used[strings.ToLower(p)] = struct{}{}
	return p
}
