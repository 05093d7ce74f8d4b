package store

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/vault/internal/config"
	"github.com/hpungsan/vault/internal/db"
	"github.com/hpungsan/vault/internal/enrich"
	"github.com/hpungsan/vault/internal/errors"
	"github.com/hpungsan/vault/internal/prompt"
)

// fakeEnricher is a deterministic Enricher for store tests.
type fakeEnricher struct {
	draft      enrich.DraftResult
	suggestion enrich.Suggestion
	formatFn   func(string) string // nil = identity
}

func (f *fakeEnricher) GenerateDraft(_ context.Context, _ string) enrich.DraftResult {
	return f.draft
}

func (f *fakeEnricher) SuggestCategories(_ context.Context, _ string, _ []string) enrich.Suggestion {
	return f.suggestion
}

func (f *fakeEnricher) AutoFormat(_ context.Context, raw string) string {
	if f.formatFn == nil {
		return raw
	}
	return f.formatFn(raw)
}

func defaultFake() *fakeEnricher {
	return &fakeEnricher{
		draft:      enrich.DraftResult{Title: "AI Title", Summary: "AI Summary", Draft: "## AI Draft"},
		suggestion: enrich.Suggestion{Best: "Planning", Second: "Development"},
	}
}

// recorder collects published snapshots.
type recorder struct {
	mu        sync.Mutex
	snapshots []State
}

func (r *recorder) record(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, s)
}

func (r *recorder) all() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State{}, r.snapshots...)
}

func newTestStore(t *testing.T, fake Enricher) (*Store, *sql.DB) {
	t.Helper()

	database, err := db.Init(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	cfg := config.DefaultConfig()
	cfg.SortDoneDelayMs = 40

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := New(database, fake, cfg, logger)
	t.Cleanup(s.Close)

	require.NoError(t, s.Initialize(context.Background()))
	return s, database
}

func TestInitialize(t *testing.T) {
	s, _ := newTestStore(t, defaultFake())

	state := s.GetState()
	require.Len(t, state.Categories, 3)
	require.Empty(t, state.Prompts)
	require.Equal(t, ModeList, state.ViewMode)
	require.Equal(t, FilterAll, state.CurrentCategoryID)
	require.Zero(t, state.SelectedPromptID)
}

func TestSelectCategoryAndPrompt(t *testing.T) {
	s, _ := newTestStore(t, defaultFake())

	s.SelectPrompt(7)
	state := s.GetState()
	require.Equal(t, int64(7), state.SelectedPromptID)
	require.Equal(t, ModeList, state.ViewMode)

	s.SelectCategory(FilterUnsorted)
	state = s.GetState()
	require.Equal(t, FilterUnsorted, state.CurrentCategoryID)
	require.Zero(t, state.SelectedPromptID, "selecting a category clears the selection")
}

func TestSubscribe_SnapshotOrderAndRetention(t *testing.T) {
	s, _ := newTestStore(t, defaultFake())

	var first, second recorder
	s.Subscribe(first.record)
	s.Subscribe(second.record)

	s.SelectPrompt(1)
	s.SetSearchQuery("idea")

	require.Len(t, first.all(), 2)
	require.Len(t, second.all(), 2)

	// A retained snapshot is unaffected by later mutations.
	old := first.all()[0]
	require.Equal(t, "", old.SearchQuery)
	require.Equal(t, int64(1), old.SelectedPromptID)
}

func TestCaptureMode(t *testing.T) {
	s, _ := newTestStore(t, defaultFake())

	s.CreateNewPrompt()
	require.Equal(t, ModeCapture, s.GetState().ViewMode)

	s.ExitCaptureMode()
	require.Equal(t, ModeList, s.GetState().ViewMode)
}

func TestSaveCapturedPrompt_EmptyInput(t *testing.T) {
	s, _ := newTestStore(t, defaultFake())
	s.CreateNewPrompt()

	id, err := s.SaveCapturedPrompt(context.Background(), "   \n  ")
	require.NoError(t, err)
	require.Zero(t, id)

	state := s.GetState()
	require.Equal(t, ModeList, state.ViewMode)
	require.Empty(t, state.Prompts, "no record created for empty input")
}

func TestSaveCapturedPrompt_ImmediatelyVisible(t *testing.T) {
	s, _ := newTestStore(t, defaultFake())
	s.CreateNewPrompt()

	id, err := s.SaveCapturedPrompt(context.Background(), "idea text")
	require.NoError(t, err)
	require.NotZero(t, id)

	// Phase 2 guarantees: record visible before enrichment completes.
	state := s.GetState()
	require.Len(t, state.Prompts, 1)
	require.Equal(t, "idea text", state.Prompts[0].Content)
	require.True(t, state.Prompts[0].Unclassified())
	require.Equal(t, id, state.SelectedPromptID)
	require.Equal(t, FilterUnsorted, state.CurrentCategoryID)
	require.Equal(t, ModeList, state.ViewMode)
}

func TestSaveCapturedPrompt_BackgroundEnrichment(t *testing.T) {
	fake := defaultFake()
	fake.formatFn = func(raw string) string { return "# Formatted\n\n" + raw }
	s, _ := newTestStore(t, fake)

	id, err := s.SaveCapturedPrompt(context.Background(), "idea text")
	require.NoError(t, err)

	s.Close() // wait for phase 3

	state := s.GetState()
	require.Len(t, state.Prompts, 1)
	p := state.Prompts[0]
	require.Equal(t, id, p.ID)
	require.Equal(t, "# Formatted\n\nidea text", p.Content)
	require.Equal(t, "AI Title", p.Title)
	require.Equal(t, "AI Summary", p.Summary)
	require.Equal(t, "## AI Draft", p.AIDraftContent)
	require.GreaterOrEqual(t, p.UpdatedAt, p.CreatedAt)
}

func TestSaveCapturedPrompt_DeletedBeforeEnrichment(t *testing.T) {
	release := make(chan struct{})
	fake := defaultFake()
	fake.formatFn = func(raw string) string {
		<-release
		return raw
	}
	s, database := newTestStore(t, fake)

	id, err := s.SaveCapturedPrompt(context.Background(), "short lived")
	require.NoError(t, err)

	// Delete while phase 3 is blocked on the enrichment call.
	require.NoError(t, s.DeleteSelectedPrompt(context.Background(), nil))
	close(release)
	s.Close()

	// The background update must not resurrect the record.
	_, err = db.GetPrompt(database, id)
	require.True(t, errors.Is(err, errors.ErrNotFound))
	require.Empty(t, s.GetState().Prompts)
}

func TestUpdateSelectedPromptContent_ClearsPendingDraft(t *testing.T) {
	s, database := newTestStore(t, defaultFake())

	id, err := db.AddPrompt(database, &prompt.Prompt{
		Content: "original", AIDraftContent: "pending draft", CreatedAt: 100, UpdatedAt: 100,
	})
	require.NoError(t, err)
	require.NoError(t, s.Initialize(context.Background()))

	s.SelectPrompt(id)
	require.NoError(t, s.UpdateSelectedPromptContent(context.Background(), "edited"))

	p, err := db.GetPrompt(database, id)
	require.NoError(t, err)
	require.Equal(t, "edited", p.Content)
	require.Empty(t, p.AIDraftContent, "edits invalidate pending drafts")
	require.Greater(t, p.UpdatedAt, int64(100))
}

func TestUpdateSelectedPromptContent_NoSelection(t *testing.T) {
	s, _ := newTestStore(t, defaultFake())
	require.NoError(t, s.UpdateSelectedPromptContent(context.Background(), "text"))
	require.Empty(t, s.GetState().Prompts)
}

func TestGenerateAIDraft(t *testing.T) {
	s, database := newTestStore(t, defaultFake())

	id, err := db.AddPrompt(database, &prompt.Prompt{Content: "raw idea", CreatedAt: 1, UpdatedAt: 1})
	require.NoError(t, err)
	require.NoError(t, s.Initialize(context.Background()))
	s.SelectPrompt(id)

	var rec recorder
	s.Subscribe(rec.record)

	require.NoError(t, s.GenerateAIDraft(context.Background()))

	// A loading snapshot was published before the result.
	snapshots := rec.all()
	require.NotEmpty(t, snapshots)
	require.True(t, snapshots[0].IsLoading)
	require.False(t, snapshots[len(snapshots)-1].IsLoading)

	p, err := db.GetPrompt(database, id)
	require.NoError(t, err)
	require.Equal(t, "## AI Draft", p.AIDraftContent)
	require.Equal(t, "AI Title", p.Title)
	require.Equal(t, "raw idea", p.Content, "content untouched until confirmation")
}

func TestGenerateAIDraft_FallbackContent(t *testing.T) {
	// Simulates an unreachable endpoint: the enricher hands back its
	// pre-normalized fallback and the action completes without error.
	fake := defaultFake()
	fake.draft = enrich.DraftResult{
		Title:   "AI draft unavailable",
		Summary: "Draft generation failed; your original text is untouched.",
		Draft:   "## AI draft generation failed",
	}
	s, database := newTestStore(t, fake)

	id, err := db.AddPrompt(database, &prompt.Prompt{Content: "idea", CreatedAt: 1, UpdatedAt: 1})
	require.NoError(t, err)
	require.NoError(t, s.Initialize(context.Background()))
	s.SelectPrompt(id)

	require.NoError(t, s.GenerateAIDraft(context.Background()))

	p, err := db.GetPrompt(database, id)
	require.NoError(t, err)
	require.NotEmpty(t, p.AIDraftContent)
}

func TestGenerateAIDraft_NoSelection(t *testing.T) {
	s, _ := newTestStore(t, defaultFake())
	require.NoError(t, s.GenerateAIDraft(context.Background()))
	require.False(t, s.GetState().IsLoading)
}

func TestConfirmAIDraft(t *testing.T) {
	s, database := newTestStore(t, defaultFake())

	id, err := db.AddPrompt(database, &prompt.Prompt{
		Content: "old", AIDraftContent: "new content", CreatedAt: 10, UpdatedAt: 10,
	})
	require.NoError(t, err)
	require.NoError(t, s.Initialize(context.Background()))
	s.SelectPrompt(id)

	require.NoError(t, s.ConfirmAIDraft(context.Background()))

	p, err := db.GetPrompt(database, id)
	require.NoError(t, err)
	require.Equal(t, "new content", p.Content)
	require.Empty(t, p.AIDraftContent)
}

func TestConfirmAIDraft_NoopWithoutPendingDraft(t *testing.T) {
	s, database := newTestStore(t, defaultFake())

	id, err := db.AddPrompt(database, &prompt.Prompt{Content: "stable", CreatedAt: 10, UpdatedAt: 10})
	require.NoError(t, err)
	require.NoError(t, s.Initialize(context.Background()))
	s.SelectPrompt(id)

	before, err := db.GetPrompt(database, id)
	require.NoError(t, err)

	require.NoError(t, s.ConfirmAIDraft(context.Background()))

	after, err := db.GetPrompt(database, id)
	require.NoError(t, err)
	require.Equal(t, *before, *after, "record unchanged without a pending draft")
}

func TestDeleteSelectedPrompt_ConfirmationGate(t *testing.T) {
	s, database := newTestStore(t, defaultFake())

	id, err := db.AddPrompt(database, &prompt.Prompt{Content: "keep or kill", CreatedAt: 1, UpdatedAt: 1})
	require.NoError(t, err)
	require.NoError(t, s.Initialize(context.Background()))
	s.SelectPrompt(id)

	// Declined gate: nothing happens.
	require.NoError(t, s.DeleteSelectedPrompt(context.Background(), func() bool { return false }))
	_, err = db.GetPrompt(database, id)
	require.NoError(t, err)
	require.Equal(t, id, s.GetState().SelectedPromptID)

	// Approved gate: deleted, selection cleared.
	require.NoError(t, s.DeleteSelectedPrompt(context.Background(), func() bool { return true }))
	_, err = db.GetPrompt(database, id)
	require.True(t, errors.Is(err, errors.ErrNotFound))
	require.Zero(t, s.GetState().SelectedPromptID)
}

func TestAddCategory(t *testing.T) {
	s, _ := newTestStore(t, defaultFake())

	id, err := s.AddCategory(context.Background(), "Research")
	require.NoError(t, err)
	require.NotZero(t, id)
	require.Len(t, s.GetState().Categories, 4)

	_, err = s.AddCategory(context.Background(), "Research")
	require.True(t, errors.Is(err, errors.ErrNameAlreadyExists))

	_, err = s.AddCategory(context.Background(), "  ")
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestFilteredPrompts(t *testing.T) {
	s, database := newTestStore(t, defaultFake())

	categories, err := db.ListCategories(database)
	require.NoError(t, err)
	catID := categories[0].ID

	_, err = db.AddPrompt(database, &prompt.Prompt{Content: "sorted note", Title: "Sorted", CategoryID: catID, CreatedAt: 1, UpdatedAt: 1})
	require.NoError(t, err)
	_, err = db.AddPrompt(database, &prompt.Prompt{Content: "loose note", Title: "Loose", CreatedAt: 2, UpdatedAt: 2})
	require.NoError(t, err)
	require.NoError(t, s.Initialize(context.Background()))

	s.SelectCategory(FilterUnsorted)
	filtered := s.GetState().FilteredPrompts()
	require.Len(t, filtered, 1)
	require.Equal(t, "loose note", filtered[0].Content)

	s.SelectCategory(FilterFor(catID))
	filtered = s.GetState().FilteredPrompts()
	require.Len(t, filtered, 1)
	require.Equal(t, "sorted note", filtered[0].Content)

	s.SelectCategory(FilterAll)
	s.SetSearchQuery("LOOSE")
	filtered = s.GetState().FilteredPrompts()
	require.Len(t, filtered, 1)
	require.Equal(t, "Loose", filtered[0].Title)
}

// waitForMode polls until the store reaches the wanted view mode.
func waitForMode(t *testing.T, s *Store, want ViewMode) {
	t.Helper()
	require.Eventually(t, func() bool {
		return s.GetState().ViewMode == want
	}, 2*time.Second, 5*time.Millisecond)
}
