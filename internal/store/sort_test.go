package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/vault/internal/db"
	"github.com/hpungsan/vault/internal/prompt"
)

func TestEnterSortMode_NothingToSort(t *testing.T) {
	s, database := newTestStore(t, defaultFake())

	categories, err := db.ListCategories(database)
	require.NoError(t, err)

	_, err = db.AddPrompt(database, &prompt.Prompt{
		Content: "already sorted", CategoryID: categories[0].ID, CreatedAt: 1, UpdatedAt: 1,
	})
	require.NoError(t, err)
	require.NoError(t, s.Initialize(context.Background()))

	err = s.EnterSortMode(context.Background())
	require.ErrorIs(t, err, ErrNothingToSort)
	require.Equal(t, ModeList, s.GetState().ViewMode, "mode unchanged when the queue is empty")
}

func TestSortWorkflow(t *testing.T) {
	s, database := newTestStore(t, defaultFake())

	first, err := db.AddPrompt(database, &prompt.Prompt{Content: "older idea", CreatedAt: 100, UpdatedAt: 100})
	require.NoError(t, err)
	second, err := db.AddPrompt(database, &prompt.Prompt{Content: "newer idea", CreatedAt: 200, UpdatedAt: 200})
	require.NoError(t, err)
	require.NoError(t, s.Initialize(context.Background()))

	require.NoError(t, s.EnterSortMode(context.Background()))

	state := s.GetState()
	require.Equal(t, ModeSort, state.ViewMode)
	require.False(t, state.IsLoading)
	require.NotNil(t, state.CurrentSortPrompt)
	require.Equal(t, second, state.CurrentSortPrompt.Prompt.ID, "most recent unclassified first")
	require.Equal(t, "Planning", state.CurrentSortPrompt.Suggestions.Best)
	require.Equal(t, "Development", state.CurrentSortPrompt.Suggestions.Second)

	require.NoError(t, s.AssignCategoryAndGoNext(context.Background(), second, "Planning"))

	p, err := db.GetPrompt(database, second)
	require.NoError(t, err)
	require.False(t, p.Unclassified())
	require.Equal(t, s.GetState().CategoryName(p.CategoryID), "Planning")

	state = s.GetState()
	require.Equal(t, ModeSort, state.ViewMode)
	require.NotNil(t, state.CurrentSortPrompt)
	require.Equal(t, first, state.CurrentSortPrompt.Prompt.ID)

	// Draining the queue arms the completion timer but stays in sort
	// mode until it fires.
	require.NoError(t, s.AssignCategoryAndGoNext(context.Background(), first, "Development"))
	state = s.GetState()
	require.Equal(t, ModeSort, state.ViewMode)
	require.Nil(t, state.CurrentSortPrompt)

	waitForMode(t, s, ModeList)
	require.Equal(t, FilterAll, s.GetState().CurrentCategoryID)
}

func TestAssignCategory_UnknownName(t *testing.T) {
	s, database := newTestStore(t, defaultFake())

	id, err := db.AddPrompt(database, &prompt.Prompt{Content: "idea", CreatedAt: 1, UpdatedAt: 1})
	require.NoError(t, err)
	require.NoError(t, s.Initialize(context.Background()))
	require.NoError(t, s.EnterSortMode(context.Background()))

	require.NoError(t, s.AssignCategoryAndGoNext(context.Background(), id, "No Such Category"))

	p, err := db.GetPrompt(database, id)
	require.NoError(t, err)
	require.True(t, p.Unclassified(), "unknown category leaves the record untouched")
	require.NotNil(t, s.GetState().CurrentSortPrompt)
}

func TestExitSortMode(t *testing.T) {
	s, database := newTestStore(t, defaultFake())

	_, err := db.AddPrompt(database, &prompt.Prompt{Content: "idea", CreatedAt: 1, UpdatedAt: 1})
	require.NoError(t, err)
	require.NoError(t, s.Initialize(context.Background()))
	require.NoError(t, s.EnterSortMode(context.Background()))

	s.ExitSortMode()

	state := s.GetState()
	require.Equal(t, ModeList, state.ViewMode)
	require.Equal(t, FilterAll, state.CurrentCategoryID)
	require.Nil(t, state.CurrentSortPrompt)
	require.False(t, state.IsLoading)
}

func TestSortDoneTimer_CancelledByNavigation(t *testing.T) {
	s, database := newTestStore(t, defaultFake())

	id, err := db.AddPrompt(database, &prompt.Prompt{Content: "idea", CreatedAt: 1, UpdatedAt: 1})
	require.NoError(t, err)
	require.NoError(t, s.Initialize(context.Background()))
	require.NoError(t, s.EnterSortMode(context.Background()))

	// Drain the queue, then leave sort mode before the timer fires.
	require.NoError(t, s.AssignCategoryAndGoNext(context.Background(), id, "Planning"))
	s.CreateNewPrompt()
	require.Equal(t, ModeCapture, s.GetState().ViewMode)

	// Past the configured delay the stale timer must not yank the user
	// out of capture mode.
	time.Sleep(150 * time.Millisecond)
	require.Equal(t, ModeCapture, s.GetState().ViewMode)
}
