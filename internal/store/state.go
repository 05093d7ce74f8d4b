package store

import (
	"strconv"
	"strings"

	"github.com/hpungsan/vault/internal/enrich"
	"github.com/hpungsan/vault/internal/prompt"
)

// ViewMode is the exclusive UI mode. Transitions never nest.
type ViewMode string

const (
	ModeList    ViewMode = "list"
	ModeSort    ViewMode = "sort"
	ModeCapture ViewMode = "capture"
)

// CategoryFilter selects which prompts the list view shows:
// "all", "unsorted", or a decimal category id.
type CategoryFilter string

const (
	FilterAll      CategoryFilter = "all"
	FilterUnsorted CategoryFilter = "unsorted"
)

// FilterFor returns the filter selecting a single category.
func FilterFor(categoryID int64) CategoryFilter {
	return CategoryFilter(strconv.FormatInt(categoryID, 10))
}

// CategoryID returns the category id a filter selects, or false for the
// "all"/"unsorted" pseudo-filters.
func (f CategoryFilter) CategoryID() (int64, bool) {
	if f == FilterAll || f == FilterUnsorted {
		return 0, false
	}
	id, err := strconv.ParseInt(string(f), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// SortItem is the transient working set of the classification pipeline:
// the prompt currently being sorted plus its AI-suggested categories.
type SortItem struct {
	Prompt      prompt.Prompt
	Suggestions enrich.Suggestion
}

// State is the complete application state. The Store holds the only
// mutable reference; every mutation publishes a fresh snapshot whose
// slices are rebuilt from the database, so subscribers may retain old
// snapshots indefinitely.
type State struct {
	Prompts           []prompt.Prompt
	Categories        []prompt.Category
	CurrentCategoryID CategoryFilter
	SelectedPromptID  int64 // 0 = none
	ViewMode          ViewMode
	IsLoading         bool
	SearchQuery       string
	CurrentSortPrompt *SortItem
}

// SelectedPrompt returns the currently selected prompt, or nil.
func (s State) SelectedPrompt() *prompt.Prompt {
	if s.SelectedPromptID == 0 {
		return nil
	}
	for i := range s.Prompts {
		if s.Prompts[i].ID == s.SelectedPromptID {
			p := s.Prompts[i]
			return &p
		}
	}
	return nil
}

// UnclassifiedPrompts returns the prompts with no category, preserving the
// collection's updatedAt-descending order.
func (s State) UnclassifiedPrompts() []prompt.Prompt {
	var out []prompt.Prompt
	for _, p := range s.Prompts {
		if p.Unclassified() {
			out = append(out, p)
		}
	}
	return out
}

// FilteredPrompts applies the current category filter and search query.
func (s State) FilteredPrompts() []prompt.Prompt {
	query := strings.ToLower(strings.TrimSpace(s.SearchQuery))
	catID, byCategory := s.CurrentCategoryID.CategoryID()

	var out []prompt.Prompt
	for _, p := range s.Prompts {
		switch {
		case s.CurrentCategoryID == FilterUnsorted && !p.Unclassified():
			continue
		case byCategory && p.CategoryID != catID:
			continue
		}
		if query != "" && !matchesQuery(p, query) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matchesQuery(p prompt.Prompt, query string) bool {
	return strings.Contains(strings.ToLower(p.Title), query) ||
		strings.Contains(strings.ToLower(p.Content), query)
}

// CategoryName resolves a category id to its name, or "" if unknown.
func (s State) CategoryName(id int64) string {
	for _, c := range s.Categories {
		if c.ID == id {
			return c.Name
		}
	}
	return ""
}
