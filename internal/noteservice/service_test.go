package noteservice

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/starford/lumina/internal/apperr"
	"github.com/starford/lumina/internal/encryption"
	"github.com/starford/lumina/internal/index"
	"github.com/starford/lumina/internal/models"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) notify(kind, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, kind+":"+id)
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func testService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	f, err := os.CreateTemp("", "lumina-svc-*.db")
	require.NoError(t, err)
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := index.Open(f.Name())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewService(db, opts...)
}

func TestDerivedLinkScenario(t *testing.T) {
	ctx := context.Background()
	svc := testService(t)

	n1, err := svc.CreateNote(ctx, NoteInput{Title: "N1", Content: "Link to [[N2]]"}, "")
	require.NoError(t, err)
	links, err := svc.LinksForNote(ctx, n1.ID)
	require.NoError(t, err)
	require.Empty(t, links, "unresolved wiki-link must not create a link")

	n2, err := svc.CreateNote(ctx, NoteInput{Title: "N2"}, "")
	require.NoError(t, err)

	created, err := svc.ReconcileNoteLinks(ctx, n1.ID, "")
	require.NoError(t, err)
	require.Equal(t, 1, created)

	links, err = svc.LinksForNote(ctx, n1.ID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	require.Equal(t, n1.ID, links[0].SourceNoteID)
	require.Equal(t, n2.ID, links[0].TargetNoteID)
	require.Equal(t, "Link to [[N2]]", links[0].Context)

	require.NoError(t, svc.DeleteNote(ctx, n2.ID))
	links, err = svc.LinksForNote(ctx, n1.ID)
	require.NoError(t, err)
	require.Empty(t, links)
}

func TestCreateNote_LinksAndHashtags(t *testing.T) {
	ctx := context.Background()
	svc := testService(t)

	target, err := svc.CreateNote(ctx, NoteInput{Title: "Project Plan"}, "")
	require.NoError(t, err)

	n, err := svc.CreateNote(ctx, NoteInput{
		Title:   "  Meeting  ",
		Content: "See [[project plan|the plan]] and [[Project Plan]] #Work #work #ideas",
		Tags:    []string{"explicit"},
	}, "")
	require.NoError(t, err)
	require.Equal(t, "Meeting", n.Title)
	require.Len(t, n.Tags, 3)

	work, err := svc.GetTagByName(ctx, "work")
	require.NoError(t, err)
	require.Equal(t, 1, work.UsageCount)

	links, err := svc.LinksForNote(ctx, target.ID)
	require.NoError(t, err)
	require.Len(t, links, 1)
}

func TestCreateNote_LongHashtagIgnored(t *testing.T) {
	ctx := context.Background()
	svc := testService(t)

	long := strings.Repeat("a", models.MaxTagNameLen+1)
	n, err := svc.CreateNote(ctx, NoteInput{Title: "Token", Content: "key #" + long + " #short"}, "")
	require.NoError(t, err)
	require.Len(t, n.Tags, 1)

	tags, err := svc.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	require.Equal(t, "short", tags[0].Name)

	_, err = svc.UpdateNote(ctx, n.ID, NoteInput{Title: "Token", Content: "#" + long}, "")
	require.NoError(t, err)
}

func TestHashtagTagsDisabled(t *testing.T) {
	ctx := context.Background()
	svc := testService(t, WithHashtagTags(false))

	n, err := svc.CreateNote(ctx, NoteInput{Title: "t", Content: "#solo"}, "")
	require.NoError(t, err)
	require.Empty(t, n.Tags)
}

func TestEncryptedNote(t *testing.T) {
	ctx := context.Background()
	svc := testService(t)

	n, err := svc.CreateNote(ctx, NoteInput{
		Title:       "Diary",
		Content:     "secret plans #private",
		IsEncrypted: true,
	}, "hunter2")
	require.NoError(t, err)
	require.NotContains(t, n.Content, "secret")
	require.Empty(t, n.Tags, "hashtags of encrypted content must not become tags")

	stored, err := svc.GetNote(ctx, n.ID)
	require.NoError(t, err)
	require.Equal(t, n.Content, stored.Content)

	opened, err := svc.OpenNote(ctx, n.ID, "hunter2")
	require.NoError(t, err)
	require.Equal(t, "secret plans #private", opened.Content)

	_, err = svc.OpenNote(ctx, n.ID, "wrong")
	require.ErrorIs(t, err, apperr.ErrDecryption)

	_, err = svc.OpenNote(ctx, n.ID, "")
	require.ErrorIs(t, err, apperr.ErrDecryption)

	res, err := svc.Search(ctx, "secret", 0)
	require.NoError(t, err)
	require.Empty(t, res)

	_, err = svc.UpdateNote(ctx, n.ID, NoteInput{Title: "Diary", Content: "plain now"}, "wrong")
	require.ErrorIs(t, err, apperr.ErrDecryption)

	upd, err := svc.UpdateNote(ctx, n.ID, NoteInput{Title: "Diary", Content: "plain now"}, "hunter2")
	require.NoError(t, err)
	require.False(t, upd.IsEncrypted)
	require.Equal(t, "plain now", upd.Content)
}

func TestEncryptedNote_EmptyContentRejected(t *testing.T) {
	ctx := context.Background()
	svc := testService(t)

	_, err := svc.CreateNote(ctx, NoteInput{Title: "blank", IsEncrypted: true}, "pw")
	require.ErrorIs(t, err, apperr.ErrValidation)

	n, err := svc.CreateNote(ctx, NoteInput{Title: "locked", Content: "s", IsEncrypted: true}, "pw")
	require.NoError(t, err)
	_, err = svc.UpdateNote(ctx, n.ID, NoteInput{Title: "locked", IsEncrypted: true}, "pw")
	require.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.UpdateNote(ctx, n.ID, NoteInput{Title: "locked", Content: "t", IsEncrypted: true}, "guess")
	require.ErrorIs(t, err, apperr.ErrDecryption, "a stored blob always checks the current password")
}

func TestEncryptedNote_RequiresPassword(t *testing.T) {
	svc := testService(t)
	_, err := svc.CreateNote(context.Background(), NoteInput{Title: "x", Content: "y", IsEncrypted: true}, "")
	require.ErrorIs(t, err, apperr.ErrDecryption)
}

func TestPasswordHashGate(t *testing.T) {
	ctx := context.Background()
	codec := encryption.New(encryption.MinIterations)
	hash, err := codec.HashPassword("correct")
	require.NoError(t, err)
	svc := testService(t, WithCodec(codec), WithPasswordHash(hash))

	_, err = svc.CreateNote(ctx, NoteInput{Title: "x", Content: "y", IsEncrypted: true}, "other")
	require.ErrorIs(t, err, apperr.ErrDecryption)

	n, err := svc.CreateNote(ctx, NoteInput{Title: "x", Content: "y", IsEncrypted: true}, "correct")
	require.NoError(t, err)
	opened, err := svc.OpenNote(ctx, n.ID, "correct")
	require.NoError(t, err)
	require.Equal(t, "y", opened.Content)
}

func TestUpdateNote_KeepsDailyIdentity(t *testing.T) {
	ctx := context.Background()
	svc := testService(t)

	daily, err := svc.GetOrCreateDailyNote(ctx, "2024-01-15")
	require.NoError(t, err)

	upd, err := svc.UpdateNote(ctx, daily.ID, NoteInput{Title: daily.Title, Content: "notes"}, "")
	require.NoError(t, err)
	require.True(t, upd.IsDailyNote)
	require.Equal(t, "2024-01-15", upd.DailyNoteDate)
	require.True(t, !upd.UpdatedAt.Before(daily.UpdatedAt))
	require.True(t, upd.CreatedAt.Equal(daily.CreatedAt))

	_, err = svc.UpdateNote(ctx, "missing", NoteInput{Title: "x"}, "")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDailyNote(t *testing.T) {
	ctx := context.Background()
	svc := testService(t, WithClock(func() time.Time {
		return time.Date(2024, time.March, 5, 23, 0, 0, 0, time.UTC)
	}))

	a, err := svc.GetOrCreateDailyNote(ctx, "2024-03-05")
	require.NoError(t, err)
	require.Equal(t, "Daily Note - March 05, 2024", a.Title)
	require.Empty(t, a.Content)

	b, err := svc.Today(ctx)
	require.NoError(t, err)
	require.Equal(t, a.ID, b.ID)

	notes, err := svc.ListNotes(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, notes, 1)

	_, err = svc.GetOrCreateDailyNote(ctx, "2024-13-01")
	require.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.GetOrCreateDailyNote(ctx, "yesterday")
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestSetPinnedAndPinnedNotes(t *testing.T) {
	ctx := context.Background()
	svc := testService(t)

	n, err := svc.CreateNote(ctx, NoteInput{Title: "pin me"}, "")
	require.NoError(t, err)
	_, err = svc.SetPinned(ctx, n.ID, true)
	require.NoError(t, err)

	pinned, err := svc.PinnedNotes(ctx)
	require.NoError(t, err)
	require.Len(t, pinned, 1)
	require.Equal(t, n.ID, pinned[0].ID)
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	svc := testService(t, WithSearchLimit(2))

	for _, title := range []string{"alpha one", "alpha two", "alpha three", "beta"} {
		_, err := svc.CreateNote(ctx, NoteInput{Title: title}, "")
		require.NoError(t, err)
	}

	res, err := svc.Search(ctx, "ALPHA", 10)
	require.NoError(t, err)
	require.Len(t, res, 2)

	res, err = svc.Search(ctx, "   ", 0)
	require.NoError(t, err)
	require.Empty(t, res)
}

func TestNotesByTag(t *testing.T) {
	ctx := context.Background()
	svc := testService(t)

	n, err := svc.CreateNote(ctx, NoteInput{Title: "t", Tags: []string{"Reading"}}, "")
	require.NoError(t, err)

	res, err := svc.NotesByTag(ctx, "reading")
	require.NoError(t, err)
	require.Len(t, res, 1)
	require.Equal(t, n.ID, res[0].ID)

	_, err = svc.NotesByTag(ctx, " ")
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestTags(t *testing.T) {
	ctx := context.Background()
	svc := testService(t)

	root, err := svc.CreateTag(ctx, TagInput{Name: "Projects"})
	require.NoError(t, err)
	child, err := svc.CreateTag(ctx, TagInput{Name: "Lumina", ParentID: root.ID})
	require.NoError(t, err)
	grand, err := svc.CreateTag(ctx, TagInput{Name: "Backend", ParentID: child.ID})
	require.NoError(t, err)

	_, err = svc.CreateTag(ctx, TagInput{Name: "projects"})
	require.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.UpdateTag(ctx, root.ID, TagInput{ParentID: grand.ID})
	require.ErrorIs(t, err, apperr.ErrValidation)
	got, err := svc.GetTag(ctx, root.ID)
	require.NoError(t, err)
	require.Empty(t, got.ParentID, "rejected reparent must leave the chain unchanged")

	upd, err := svc.UpdateTag(ctx, grand.ID, TagInput{Color: "#112233", ParentID: root.ID})
	require.NoError(t, err)
	require.Equal(t, "Backend", upd.Name)
	require.Equal(t, "#112233", upd.Color)

	kids, err := svc.TagChildren(ctx, root.ID)
	require.NoError(t, err)
	require.Len(t, kids, 2)

	require.NoError(t, svc.DeleteTag(ctx, root.ID))
	roots, err := svc.TagChildren(ctx, "")
	require.NoError(t, err)
	require.Len(t, roots, 2)

	_, err = svc.GetTag(ctx, "nope")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdateTag_ParentChangesAreExplicit(t *testing.T) {
	ctx := context.Background()
	svc := testService(t)

	parent, err := svc.CreateTag(ctx, TagInput{Name: "Work"})
	require.NoError(t, err)
	child, err := svc.CreateTag(ctx, TagInput{Name: "Meetings", ParentID: parent.ID})
	require.NoError(t, err)

	renamed, err := svc.UpdateTag(ctx, child.ID, TagInput{Name: "Standups"})
	require.NoError(t, err)
	require.Equal(t, "Standups", renamed.Name)
	require.Equal(t, parent.ID, renamed.ParentID, "rename keeps the parent")

	_, err = svc.UpdateTag(ctx, child.ID, TagInput{ParentID: parent.ID, ClearParent: true})
	require.ErrorIs(t, err, apperr.ErrValidation)

	rooted, err := svc.UpdateTag(ctx, child.ID, TagInput{ClearParent: true})
	require.NoError(t, err)
	require.Empty(t, rooted.ParentID)

	got, err := svc.GetTag(ctx, child.ID)
	require.NoError(t, err)
	require.Empty(t, got.ParentID)
	require.Equal(t, "Standups", got.Name)
}

func TestCreateLink(t *testing.T) {
	ctx := context.Background()
	svc := testService(t)

	a, err := svc.CreateNote(ctx, NoteInput{Title: "A"}, "")
	require.NoError(t, err)
	b, err := svc.CreateNote(ctx, NoteInput{Title: "B"}, "")
	require.NoError(t, err)

	l1, created, err := svc.CreateLink(ctx, a.ID, b.ID, "why")
	require.NoError(t, err)
	require.True(t, created)
	l2, created, err := svc.CreateLink(ctx, a.ID, b.ID, "again")
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, l1.ID, l2.ID)

	all, err := svc.AllLinks(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	self1, created, err := svc.CreateLink(ctx, a.ID, a.ID, "")
	require.NoError(t, err)
	require.True(t, created, "explicit self-links are allowed")
	self2, created, err := svc.CreateLink(ctx, a.ID, a.ID, "")
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, self1.ID, self2.ID)

	_, _, err = svc.CreateLink(ctx, " ", b.ID, "")
	require.ErrorIs(t, err, apperr.ErrValidation)
	_, _, err = svc.CreateLink(ctx, a.ID, "ghost", "")
	require.ErrorIs(t, err, apperr.ErrNotFound)

	n, err := svc.DeleteLinksForNote(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestCreateNote_OwnTitleMakesNoDerivedEdge(t *testing.T) {
	ctx := context.Background()
	svc := testService(t)

	n, err := svc.CreateNote(ctx, NoteInput{Title: "Mirror", Content: "see [[mirror]]"}, "")
	require.NoError(t, err)
	created, err := svc.ReconcileNoteLinks(ctx, n.ID, "")
	require.NoError(t, err)
	require.Zero(t, created)

	links, err := svc.LinksForNote(ctx, n.ID)
	require.NoError(t, err)
	require.Empty(t, links)
}

func TestGraph(t *testing.T) {
	ctx := context.Background()
	svc := testService(t)

	a, err := svc.CreateNote(ctx, NoteInput{Title: "A"}, "")
	require.NoError(t, err)
	_, err = svc.CreateNote(ctx, NoteInput{Title: "B", Content: "[[A]]"}, "")
	require.NoError(t, err)
	_, err = svc.CreateNote(ctx, NoteInput{Title: "C", Content: "[[A]]"}, "")
	require.NoError(t, err)

	g, err := svc.Graph(ctx, 2)
	require.NoError(t, err)
	require.Len(t, g.Nodes, 2)
	require.Len(t, g.Edges, 2, "edges are not filtered by the node limit")

	ids := map[string]bool{}
	for _, n := range g.Nodes {
		ids[n.ID] = true
	}
	require.False(t, ids[a.ID], "oldest note falls outside the limit")
}

func TestRenderHTML(t *testing.T) {
	ctx := context.Background()
	svc := testService(t)

	target, err := svc.CreateNote(ctx, NoteInput{Title: "Target"}, "")
	require.NoError(t, err)
	n, err := svc.CreateNote(ctx, NoteInput{Title: "Src", Content: "Go to [[Target|there]] or [[Missing]]."}, "")
	require.NoError(t, err)

	html, err := svc.RenderHTML(ctx, n.ID, "")
	require.NoError(t, err)
	require.Contains(t, html, `<a href="/notes/`+target.ID+`">there</a>`)
	require.Contains(t, html, `<span class="wiki-link unresolved">Missing</span>`)

	plain, err := svc.PlainText(ctx, n.ID, "")
	require.NoError(t, err)
	require.Equal(t, "Go to there or Missing.", plain)
}

func TestNotifications(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	svc := testService(t, WithNotifier(rec.notify))

	n, err := svc.CreateNote(ctx, NoteInput{Title: "x"}, "")
	require.NoError(t, err)
	_, err = svc.UpdateNote(ctx, n.ID, NoteInput{Title: "y"}, "")
	require.NoError(t, err)
	require.NoError(t, svc.DeleteNote(ctx, n.ID))

	require.Equal(t, []string{
		EventCreated + ":" + n.ID,
		EventUpdated + ":" + n.ID,
		EventDeleted + ":" + n.ID,
	}, rec.all())
}

func TestImportNote(t *testing.T) {
	ctx := context.Background()
	svc := testService(t)

	n, created, err := svc.ImportNote(ctx, "a.md", "c1", NoteInput{Title: "A", Content: "#tagged", IsEncrypted: true})
	require.NoError(t, err)
	require.True(t, created)
	require.False(t, n.IsEncrypted)

	again, created, err := svc.ImportNote(ctx, "a.md", "c2", NoteInput{Title: "A", Content: "changed"})
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, n.ID, again.ID)

	sums, err := svc.ImportChecksums(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"a.md": "c2"}, sums)

	require.NoError(t, svc.RemoveImported(ctx, "a.md"))
	_, err = svc.GetNote(ctx, n.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestNoGenerator(t *testing.T) {
	var g Generator = NoGenerator{}
	_, err := g.Generate(context.Background(), "summarize")
	require.ErrorIs(t, err, ErrGeneratorUnavailable)
}

func TestDailyTitle(t *testing.T) {
	day := time.Date(2023, time.December, 1, 0, 0, 0, 0, time.UTC)
	require.True(t, strings.HasSuffix(DailyTitle(day), "December 01, 2023"))
}
