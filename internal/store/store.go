// Package store is the single source of truth for application state.
// All mutations go through Store action methods; every mutation publishes
// a complete state snapshot to subscribers. A single mutex serializes
// actions, so state reads and writes inside an action are atomic with
// respect to every other action.
package store

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/hpungsan/vault/internal/config"
	"github.com/hpungsan/vault/internal/db"
	"github.com/hpungsan/vault/internal/enrich"
	"github.com/hpungsan/vault/internal/errors"
	"github.com/hpungsan/vault/internal/prompt"
)

// Enricher is the slice of the enrichment service the Store depends on.
// Implementations never return errors; failures arrive pre-normalized as
// fallback values (see internal/enrich).
type Enricher interface {
	GenerateDraft(ctx context.Context, userInput string) enrich.DraftResult
	SuggestCategories(ctx context.Context, content string, categories []string) enrich.Suggestion
	AutoFormat(ctx context.Context, rawText string) string
}

// Store orchestrates the only state mutations in the system.
type Store struct {
	mu        sync.Mutex
	state     State
	listeners []func(State)

	db       *sql.DB
	enricher Enricher
	logger   *slog.Logger

	sortDoneDelay time.Duration
	summaryMax    int

	sortDoneTimer *time.Timer
	bg            sync.WaitGroup

	now func() time.Time // swapped in tests
}

// New creates a Store. It performs no I/O; call Initialize before use.
func New(database *sql.DB, enricher Enricher, cfg *config.Config, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		db:            database,
		enricher:      enricher,
		logger:        logger,
		sortDoneDelay: cfg.SortDoneDelay(),
		summaryMax:    cfg.SummaryMaxChars,
		now:           time.Now,
		state: State{
			CurrentCategoryID: FilterAll,
			ViewMode:          ModeList,
		},
	}
}

// Initialize loads the prompt and category collections and publishes the
// initial snapshot. Storage failures propagate; the application cannot
// proceed without them.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.reloadPrompts(); err != nil {
		return err
	}
	if err := s.reloadCategories(); err != nil {
		return err
	}
	s.publish()
	return nil
}

// Subscribe registers a listener that receives every subsequent snapshot,
// synchronously and in registration order. Listeners must not call back
// into Store actions; they run under the action lock.
func (s *Store) Subscribe(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// GetState returns the current snapshot.
func (s *Store) GetState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Close cancels the pending sort-done timer and waits for in-flight
// background enrichment to finish.
func (s *Store) Close() {
	s.mu.Lock()
	s.cancelSortTimer()
	s.mu.Unlock()
	s.bg.Wait()
}

// SelectCategory switches the list filter, clears the selection, and
// forces the list view.
func (s *Store) SelectCategory(filter CategoryFilter) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelSortTimer()
	s.state.CurrentCategoryID = filter
	s.state.SelectedPromptID = 0
	s.state.ViewMode = ModeList
	s.state.CurrentSortPrompt = nil
	s.publish()
}

// SelectPrompt selects a prompt and forces the list view.
func (s *Store) SelectPrompt(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelSortTimer()
	s.state.SelectedPromptID = id
	s.state.ViewMode = ModeList
	s.state.CurrentSortPrompt = nil
	s.publish()
}

// SetSearchQuery updates the search query. Filtering happens on read via
// State.FilteredPrompts.
func (s *Store) SetSearchQuery(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.SearchQuery = query
	s.publish()
}

// CreateNewPrompt enters capture mode. Nothing is persisted until
// SaveCapturedPrompt.
func (s *Store) CreateNewPrompt() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelSortTimer()
	s.state.ViewMode = ModeCapture
	s.state.CurrentSortPrompt = nil
	s.publish()
}

// ExitCaptureMode abandons capture and returns to the list view.
func (s *Store) ExitCaptureMode() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.ViewMode = ModeList
	s.publish()
}

// ExitSortMode unconditionally returns to the list view, clearing sort
// state and the pending auto-return timer.
func (s *Store) ExitSortMode() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelSortTimer()
	s.state.ViewMode = ModeList
	s.state.CurrentCategoryID = FilterAll
	s.state.CurrentSortPrompt = nil
	s.state.IsLoading = false
	s.publish()
}

// AddCategory creates a new category. A name colliding with an existing
// one returns NAME_ALREADY_EXISTS for the caller to handle.
func (s *Store) AddCategory(ctx context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		return 0, errors.NewInvalidRequest("category name must not be empty")
	}

	id, err := db.AddCategory(s.db, &prompt.Category{Name: name})
	if err != nil {
		return 0, err
	}

	if err := s.reloadCategories(); err != nil {
		return 0, err
	}
	s.publish()
	return id, nil
}

// publish hands the current snapshot to every listener. Caller holds mu.
func (s *Store) publish() {
	for _, fn := range s.listeners {
		fn(s.state)
	}
}

// reloadPrompts re-reads the full prompt collection from the database.
// Deliberately simple: every mutation costs a full re-read so the snapshot
// and the durable store can never drift. Caller holds mu.
func (s *Store) reloadPrompts() error {
	prompts, err := db.ListPrompts(s.db)
	if err != nil {
		return err
	}
	s.state.Prompts = prompts
	return nil
}

// reloadCategories re-reads the category collection. Caller holds mu.
func (s *Store) reloadCategories() error {
	categories, err := db.ListCategories(s.db)
	if err != nil {
		return err
	}
	s.state.Categories = categories
	return nil
}

// cancelSortTimer stops a pending sort-done auto-return. Caller holds mu.
func (s *Store) cancelSortTimer() {
	if s.sortDoneTimer != nil {
		s.sortDoneTimer.Stop()
		s.sortDoneTimer = nil
	}
}

// nowMillis returns the current Unix timestamp in milliseconds.
func (s *Store) nowMillis() int64 {
	return s.now().UnixMilli()
}

// bumpUpdated advances a prompt's UpdatedAt, keeping it non-decreasing.
func (s *Store) bumpUpdated(p *prompt.Prompt) {
	if now := s.nowMillis(); now > p.UpdatedAt {
		p.UpdatedAt = now
	} else {
		p.UpdatedAt++
	}
}

// categoryNames returns the names of all known categories. Caller holds mu.
func (s *Store) categoryNames() []string {
	names := make([]string, 0, len(s.state.Categories))
	for _, c := range s.state.Categories {
		names = append(names, c.Name)
	}
	return names
}
