package importer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/starford/lumina/internal/testutil"
)

func write(t *testing.T, dir, rel, content string) {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func TestSync(t *testing.T) {
	ctx := context.Background()
	dir, svc, im := watcherTestEnv(t)

	write(t, dir, "plan.md", "---\ntitle: Project Plan\ntags: [work, q3]\npinned: true\n---\nSee [[Ideas]].\n")
	write(t, dir, "notes/ideas.md", "# Ideas\n\nBack to [[Project Plan]] #brainstorm\n")
	write(t, dir, "untitled.md", "just text")
	write(t, dir, "secret.md", "---\nencrypted: true\n---\nU2FsdGVk\n")
	write(t, dir, ".git/HEAD.md", "ignored")

	st, err := im.Sync(ctx)
	require.NoError(t, err)
	require.Equal(t, Stats{Imported: 3, Failed: 1}, st)

	pinned, err := svc.PinnedNotes(ctx)
	require.NoError(t, err)
	require.Len(t, pinned, 1)
	require.Equal(t, "Project Plan", pinned[0].Title)
	require.Equal(t, "See [[Ideas]].\n", pinned[0].Content)

	res, err := svc.Search(ctx, "untitled", 0)
	require.NoError(t, err)
	require.Len(t, res, 1, "file name is the title fallback")

	// notes/ideas.md is imported first, so only plan.md's link resolves.
	links, err := svc.LinksForNote(ctx, pinned[0].ID)
	require.NoError(t, err)
	require.Len(t, links, 1)

	brainstorm, err := svc.NotesByTag(ctx, "brainstorm")
	require.NoError(t, err)
	require.Len(t, brainstorm, 1)

	st, err = im.Sync(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, st.Unchanged)
	require.Equal(t, 0, st.Imported)

	write(t, dir, "untitled.md", "changed text")
	require.NoError(t, os.Remove(filepath.Join(dir, "notes", "ideas.md")))

	st, err = im.Sync(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, st.Imported)
	require.Equal(t, 1, st.Removed)

	res, err = svc.Search(ctx, "Ideas", 0)
	require.NoError(t, err)
	for _, n := range res {
		require.NotEqual(t, "Ideas", n.Title)
	}
}

func TestNoteFromMarkdown(t *testing.T) {
	in, err := noteFromMarkdown("dir/My File.md", []byte("no heading here"))
	require.NoError(t, err)
	require.Equal(t, "My File", in.Title)

	in, err = noteFromMarkdown("x.md", []byte("---\ntags: '[\"a\",\"b\"]'\n---\n# Heading\nbody"))
	require.NoError(t, err)
	require.Equal(t, "Heading", in.Title)
	require.Equal(t, []string{"a", "b"}, in.Tags)
	require.True(t, strings.HasPrefix(in.Content, "# Heading"))

	_, err = noteFromMarkdown("e.md", []byte("---\nencrypted: true\n---\nblob"))
	require.Error(t, err)
}
