package web

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/hpungsan/vault/internal/config"
	"github.com/hpungsan/vault/internal/errors"
	"github.com/hpungsan/vault/internal/store"
)

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	store    *store.Store
	cfg      *config.Config
	renderer *Renderer
}

// HandleList handles GET /prompts. Category and search parameters are
// applied to the store so the view state survives navigation.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if q.Has("category") {
		h.store.SelectCategory(parseFilter(q.Get("category")))
	}
	if q.Has("q") {
		h.store.SetSearchQuery(q.Get("q"))
	}

	state := h.store.GetState()

	h.renderer.renderPage(w, r, "list", ListPageData{
		PageData:       h.renderer.pageData("Prompts", "prompts", state.Categories),
		Prompts:        state.FilteredPrompts(),
		ActiveFilter:   string(state.CurrentCategoryID),
		SearchQuery:    state.SearchQuery,
		UnsortedCount:  len(state.UnclassifiedPrompts()),
		SelectedPrompt: state.SelectedPromptID,
	})
}

// HandleNew handles GET /prompts/new. Shows the capture form.
func (h *Handlers) HandleNew(w http.ResponseWriter, r *http.Request) {
	h.store.CreateNewPrompt()
	state := h.store.GetState()

	h.renderer.renderPage(w, r, "capture", CapturePageData{
		PageData: h.renderer.pageData("Capture", "prompts", state.Categories),
	})
}

// HandleCapture handles POST /prompts. Persists the raw text immediately
// and redirects; AI enrichment continues in the background.
func (h *Handlers) HandleCapture(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	id, err := h.store.SaveCapturedPrompt(r.Context(), r.FormValue("content"))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if id == 0 {
		// Empty input: nothing saved.
		http.Redirect(w, r, "/prompts", http.StatusFound)
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/prompts/%d", id), http.StatusFound)
}

// HandleDetail handles GET /prompts/{id}. Shows the rendered prompt and
// any pending AI draft side by side.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.store.SelectPrompt(id)
	state := h.store.GetState()
	p := state.SelectedPrompt()
	if p == nil {
		h.renderer.renderError(w, r, errors.NewNotFound("prompt", id))
		return
	}

	data := DetailPageData{
		PageData:     h.renderer.pageData(p.Title, "prompts", state.Categories),
		Prompt:       *p,
		CategoryName: state.CategoryName(p.CategoryID),
		RenderedHTML: renderMarkdown(p.Content),
		HasDraft:     p.HasPendingDraft(),
	}
	if data.HasDraft {
		data.DraftHTML = renderMarkdown(p.AIDraftContent)
	}

	h.renderer.renderPage(w, r, "detail", data)
}

// HandleUpdate handles POST /prompts/{id}. Replaces the prompt content,
// discarding any pending AI draft.
func (h *Handlers) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	h.store.SelectPrompt(id)
	if err := h.store.UpdateSelectedPromptContent(r.Context(), r.FormValue("content")); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/prompts/%d", id), http.StatusFound)
}

// HandleDelete handles DELETE and POST /prompts/{id}/delete. The browser
// confirm dialog is the confirmation gate, so deletion here is
// pre-confirmed.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.store.SelectPrompt(id)
	if err := h.store.DeleteSelectedPrompt(r.Context(), nil); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	// HTMX request: redirect via HX-Redirect header
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/prompts")
		w.WriteHeader(http.StatusOK)
		return
	}

	// JSON request
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		renderJSON(w, http.StatusOK, map[string]any{"deleted": true, "id": id})
		return
	}

	// Default: redirect
	http.Redirect(w, r, "/prompts", http.StatusFound)
}

// HandleDraft handles POST /prompts/{id}/draft. Requests a fresh AI
// draft for the prompt.
func (h *Handlers) HandleDraft(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.store.SelectPrompt(id)
	if err := h.store.GenerateAIDraft(r.Context()); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/prompts/%d", id), http.StatusFound)
}

// HandleConfirmDraft handles POST /prompts/{id}/confirm. Promotes the
// pending AI draft to the prompt content.
func (h *Handlers) HandleConfirmDraft(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.store.SelectPrompt(id)
	if err := h.store.ConfirmAIDraft(r.Context()); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/prompts/%d", id), http.StatusFound)
}

// HandleSort handles GET /sort. Enters sort mode and shows the next
// unclassified prompt with its category suggestions.
func (h *Handlers) HandleSort(w http.ResponseWriter, r *http.Request) {
	err := h.store.EnterSortMode(r.Context())
	if err != nil && !stderrors.Is(err, store.ErrNothingToSort) {
		h.renderer.renderError(w, r, err)
		return
	}

	state := h.store.GetState()
	h.renderer.renderPage(w, r, "sort", SortPageData{
		PageData:  h.renderer.pageData("Sort", "sort", state.Categories),
		Item:      state.CurrentSortPrompt,
		Remaining: len(state.UnclassifiedPrompts()),
		Done:      stderrors.Is(err, store.ErrNothingToSort),
	})
}

// HandleSortAssign handles POST /sort/assign. Files the prompt under the
// chosen category and advances to the next one.
func (h *Handlers) HandleSortAssign(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	promptID, err := strconv.ParseInt(r.FormValue("prompt_id"), 10, 64)
	if err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("prompt_id must be an integer"))
		return
	}

	if err := h.store.AssignCategoryAndGoNext(r.Context(), promptID, r.FormValue("category")); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	state := h.store.GetState()
	h.renderer.renderPage(w, r, "sort", SortPageData{
		PageData:  h.renderer.pageData("Sort", "sort", state.Categories),
		Item:      state.CurrentSortPrompt,
		Remaining: len(state.UnclassifiedPrompts()),
		Done:      state.CurrentSortPrompt == nil,
	})
}

// HandleSortExit handles POST /sort/exit.
func (h *Handlers) HandleSortExit(w http.ResponseWriter, r *http.Request) {
	h.store.ExitSortMode()
	http.Redirect(w, r, "/prompts", http.StatusFound)
}

// HandleCategories handles GET /categories.
func (h *Handlers) HandleCategories(w http.ResponseWriter, r *http.Request) {
	state := h.store.GetState()

	counts := make(map[int64]int, len(state.Categories))
	for _, p := range state.Prompts {
		if !p.Unclassified() {
			counts[p.CategoryID]++
		}
	}

	h.renderer.renderPage(w, r, "categories", CategoriesPageData{
		PageData: h.renderer.pageData("Categories", "categories", state.Categories),
		Counts:   counts,
	})
}

// HandleAddCategory handles POST /categories.
func (h *Handlers) HandleAddCategory(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	if _, err := h.store.AddCategory(r.Context(), r.FormValue("name")); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	http.Redirect(w, r, "/categories", http.StatusFound)
}

// parseFilter maps the category query parameter to a store filter.
func parseFilter(s string) store.CategoryFilter {
	switch s {
	case "", "all":
		return store.FilterAll
	case "unsorted":
		return store.FilterUnsorted
	default:
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil || id <= 0 {
			return store.FilterAll
		}
		return store.FilterFor(id)
	}
}

// parseID extracts the {id} path value as an int64.
func parseID(r *http.Request) (int64, error) {
	s := r.PathValue("id")
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewInvalidRequest("prompt ID must be a positive integer")
	}
	return id, nil
}
