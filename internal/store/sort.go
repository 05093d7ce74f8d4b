package store

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/hpungsan/vault/internal/db"
)

// ErrNothingToSort signals that sort mode was requested with zero
// unclassified prompts. The view mode is left unchanged.
var ErrNothingToSort = stderrors.New("no unclassified prompts to sort")

// EnterSortMode starts the one-at-a-time classification pipeline: it
// switches to sort mode, publishes a loading snapshot, fetches category
// suggestions for the first unclassified prompt, and publishes the working
// set. Returns ErrNothingToSort when the unclassified queue is empty.
func (s *Store) EnterSortMode(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	unsorted := s.state.UnclassifiedPrompts()
	if len(unsorted) == 0 {
		return ErrNothingToSort
	}

	s.cancelSortTimer()
	s.state.ViewMode = ModeSort
	s.state.IsLoading = true
	s.publish()

	head := unsorted[0]
	suggestions := s.enricher.SuggestCategories(ctx, head.Content, s.categoryNames())

	s.state.CurrentSortPrompt = &SortItem{Prompt: head, Suggestions: suggestions}
	s.state.IsLoading = false
	s.publish()
	return nil
}

// AssignCategoryAndGoNext persists a category assignment and advances the
// sort queue. An unresolvable category name is a no-op. When the queue
// empties, the working set is cleared and a cancellable timer returns the
// view to list mode after the configured delay, letting a "done" message
// display without blocking.
func (s *Store) AssignCategoryAndGoNext(ctx context.Context, promptID int64, categoryName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var categoryID int64
	for _, c := range s.state.Categories {
		if c.Name == categoryName {
			categoryID = c.ID
			break
		}
	}
	if categoryID == 0 {
		s.logger.Warn("cannot resolve category name", "name", categoryName)
		return nil
	}

	target, err := db.GetPrompt(s.db, promptID)
	if err != nil {
		return err
	}
	target.CategoryID = categoryID
	s.bumpUpdated(target)

	if err := db.UpdatePrompt(s.db, target); err != nil {
		return err
	}
	if err := s.reloadPrompts(); err != nil {
		return err
	}

	unsorted := s.state.UnclassifiedPrompts()
	if len(unsorted) > 0 {
		head := unsorted[0]
		suggestions := s.enricher.SuggestCategories(ctx, head.Content, s.categoryNames())
		s.state.CurrentSortPrompt = &SortItem{Prompt: head, Suggestions: suggestions}
		s.publish()
		return nil
	}

	// Queue drained: show the done state, then auto-return to the list.
	s.state.CurrentSortPrompt = nil
	s.publish()
	s.scheduleSortDone()
	return nil
}

// scheduleSortDone arms the delayed auto-return out of sort mode.
// Any transition away from sort mode cancels it. Caller holds mu.
func (s *Store) scheduleSortDone() {
	s.cancelSortTimer()
	s.sortDoneTimer = time.AfterFunc(s.sortDoneDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.sortDoneTimer = nil
		if s.state.ViewMode != ModeSort {
			return
		}
		s.state.ViewMode = ModeList
		s.state.CurrentCategoryID = FilterAll
		s.state.CurrentSortPrompt = nil
		s.publish()
	})
}
