package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/vault/internal/config"
	"github.com/hpungsan/vault/internal/errors"
	"github.com/hpungsan/vault/internal/prompt"
	"github.com/hpungsan/vault/internal/store"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	store *store.Store
	cfg   *config.Config
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(st *store.Store, cfg *config.Config) *Handlers {
	return &Handlers{store: st, cfg: cfg}
}

// decode unmarshals MCP request arguments into a typed struct.
func decode[T any](req mcp.CallToolRequest) (T, error) {
	var result T
	args := req.GetArguments()
	b, err := json.Marshal(args)
	if err != nil {
		return result, fmt.Errorf("marshal args: %w", err)
	}
	if err := json.Unmarshal(b, &result); err != nil {
		return result, fmt.Errorf("unmarshal args: %w", err)
	}
	return result, nil
}

// Request types for each tool

// CaptureRequest represents the arguments for prompt_capture.
type CaptureRequest struct {
	Content string `json:"content"`
}

// ListRequest represents the arguments for prompt_list.
type ListRequest struct {
	Category string `json:"category,omitempty"`
	Query    string `json:"query,omitempty"`
}

// GetRequest represents the arguments for prompt_get.
type GetRequest struct {
	ID int64 `json:"id"`
}

// UpdateRequest represents the arguments for prompt_update.
type UpdateRequest struct {
	ID      int64  `json:"id"`
	Content string `json:"content"`
}

// SortNextRequest represents the arguments for prompt_sort_next.
type SortNextRequest struct {
	PromptID int64  `json:"prompt_id,omitempty"`
	Category string `json:"category,omitempty"`
}

// CategoryAddRequest represents the arguments for category_add.
type CategoryAddRequest struct {
	Name string `json:"name"`
}

// promptPayload is the wire shape of a prompt in tool results.
type promptPayload struct {
	ID             int64  `json:"id"`
	Content        string `json:"content"`
	AIDraftContent string `json:"ai_draft_content,omitempty"`
	Title          string `json:"title"`
	Summary        string `json:"summary"`
	Category       string `json:"category,omitempty"`
	CreatedAt      int64  `json:"created_at"`
	UpdatedAt      int64  `json:"updated_at"`
}

func toPayload(p prompt.Prompt, state store.State) promptPayload {
	return promptPayload{
		ID:             p.ID,
		Content:        p.Content,
		AIDraftContent: p.AIDraftContent,
		Title:          p.Title,
		Summary:        p.Summary,
		Category:       state.CategoryName(p.CategoryID),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// findPrompt looks up a prompt in the current snapshot.
func (h *Handlers) findPrompt(id int64) (prompt.Prompt, store.State, bool) {
	state := h.store.GetState()
	for _, p := range state.Prompts {
		if p.ID == id {
			return p, state, true
		}
	}
	return prompt.Prompt{}, state, false
}

// Handler implementations

// HandleCapture handles the prompt_capture tool call.
func (h *Handlers) HandleCapture(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CaptureRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	id, err := h.store.SaveCapturedPrompt(ctx, input.Content)
	if err != nil {
		return errorResult(err), nil
	}
	if id == 0 {
		return errorResult(errors.NewInvalidRequest("content must not be empty")), nil
	}

	return successResult(map[string]any{
		"id":        id,
		"enriching": true,
	})
}

// HandleList handles the prompt_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	state := h.store.GetState()

	var categoryID int64
	filterByCategory := false
	switch input.Category {
	case "":
	case "unsorted":
		filterByCategory = true
	default:
		found := false
		for _, c := range state.Categories {
			if c.Name == input.Category {
				categoryID = c.ID
				found = true
				break
			}
		}
		if !found {
			return errorResult(errors.NewInvalidRequest(fmt.Sprintf("unknown category %q", input.Category))), nil
		}
		filterByCategory = true
	}

	query := strings.ToLower(input.Query)
	items := make([]promptPayload, 0, len(state.Prompts))
	for _, p := range state.Prompts {
		if filterByCategory && p.CategoryID != categoryID {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(p.Title), query) &&
			!strings.Contains(strings.ToLower(p.Content), query) {
			continue
		}
		items = append(items, toPayload(p, state))
	}

	return successResult(map[string]any{
		"prompts": items,
		"total":   len(items),
	})
}

// HandleGet handles the prompt_get tool call.
func (h *Handlers) HandleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[GetRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	p, state, ok := h.findPrompt(input.ID)
	if !ok {
		return errorResult(errors.NewNotFound("prompt", input.ID)), nil
	}

	return successResult(toPayload(p, state))
}

// HandleUpdate handles the prompt_update tool call.
func (h *Handlers) HandleUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[UpdateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	if _, _, ok := h.findPrompt(input.ID); !ok {
		return errorResult(errors.NewNotFound("prompt", input.ID)), nil
	}

	h.store.SelectPrompt(input.ID)
	if err := h.store.UpdateSelectedPromptContent(ctx, input.Content); err != nil {
		return errorResult(err), nil
	}

	p, state, ok := h.findPrompt(input.ID)
	if !ok {
		return errorResult(errors.NewNotFound("prompt", input.ID)), nil
	}
	return successResult(toPayload(p, state))
}

// HandleDelete handles the prompt_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[GetRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	if _, _, ok := h.findPrompt(input.ID); !ok {
		return errorResult(errors.NewNotFound("prompt", input.ID)), nil
	}

	// The MCP caller has already decided; deletion is pre-confirmed.
	h.store.SelectPrompt(input.ID)
	if err := h.store.DeleteSelectedPrompt(ctx, nil); err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{"deleted": true, "id": input.ID})
}

// HandleDraft handles the prompt_draft tool call.
func (h *Handlers) HandleDraft(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[GetRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	if _, _, ok := h.findPrompt(input.ID); !ok {
		return errorResult(errors.NewNotFound("prompt", input.ID)), nil
	}

	h.store.SelectPrompt(input.ID)
	if err := h.store.GenerateAIDraft(ctx); err != nil {
		return errorResult(err), nil
	}

	p, state, ok := h.findPrompt(input.ID)
	if !ok {
		return errorResult(errors.NewNotFound("prompt", input.ID)), nil
	}
	return successResult(toPayload(p, state))
}

// HandleConfirmDraft handles the prompt_confirm_draft tool call.
func (h *Handlers) HandleConfirmDraft(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[GetRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	p, _, ok := h.findPrompt(input.ID)
	if !ok {
		return errorResult(errors.NewNotFound("prompt", input.ID)), nil
	}
	hadDraft := p.HasPendingDraft()

	h.store.SelectPrompt(input.ID)
	if err := h.store.ConfirmAIDraft(ctx); err != nil {
		return errorResult(err), nil
	}

	p, state, ok := h.findPrompt(input.ID)
	if !ok {
		return errorResult(errors.NewNotFound("prompt", input.ID)), nil
	}
	return successResult(map[string]any{
		"confirmed": hadDraft,
		"prompt":    toPayload(p, state),
	})
}

// HandleSortNext handles the prompt_sort_next tool call.
func (h *Handlers) HandleSortNext(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SortNextRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	if input.PromptID != 0 {
		if input.Category == "" {
			return errorResult(errors.NewInvalidRequest("category is required when prompt_id is given")), nil
		}
		if _, _, ok := h.findPrompt(input.PromptID); !ok {
			return errorResult(errors.NewNotFound("prompt", input.PromptID)), nil
		}
		if err := h.store.AssignCategoryAndGoNext(ctx, input.PromptID, input.Category); err != nil {
			return errorResult(err), nil
		}
	} else {
		if err := h.store.EnterSortMode(ctx); err != nil {
			if err == store.ErrNothingToSort {
				return successResult(map[string]any{"done": true, "remaining": 0})
			}
			return errorResult(err), nil
		}
	}

	state := h.store.GetState()
	item := state.CurrentSortPrompt
	if item == nil {
		return successResult(map[string]any{
			"done":      true,
			"remaining": 0,
		})
	}

	return successResult(map[string]any{
		"done":      false,
		"remaining": len(state.UnclassifiedPrompts()),
		"prompt":    toPayload(item.Prompt, state),
		"suggestions": map[string]string{
			"best":   item.Suggestions.Best,
			"second": item.Suggestions.Second,
		},
	})
}

// HandleCategoryList handles the category_list tool call.
func (h *Handlers) HandleCategoryList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state := h.store.GetState()
	return successResult(map[string]any{
		"categories": state.Categories,
		"total":      len(state.Categories),
	})
}

// HandleCategoryAdd handles the category_add tool call.
func (h *Handlers) HandleCategoryAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CategoryAddRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	id, err := h.store.AddCategory(ctx, input.Name)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{
		"id":   id,
		"name": strings.TrimSpace(input.Name),
	})
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Note: Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if vErr, ok := err.(*errors.VaultError); ok {
		errorObj := map[string]any{
			"code":    vErr.Code,
			"message": vErr.Message,
			"status":  vErr.Status,
		}
		if vErr.Code != errors.ErrInternal && vErr.Details != nil {
			errorObj["details"] = vErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
