package store

import (
	"context"
	"strings"

	"github.com/hpungsan/vault/internal/db"
	"github.com/hpungsan/vault/internal/errors"
	"github.com/hpungsan/vault/internal/prompt"
)

// SaveCapturedPrompt runs the three-phase capture pipeline:
//
//  1. Trim input; empty input aborts back to the list view with no record.
//  2. Persist a placeholder record immediately and publish it selected, so
//     the capture is visible before any network round-trip.
//  3. In the background, auto-format the text and generate title, summary
//     and an AI draft, then overwrite the placeholder via a full-record
//     update and republish.
//
// Returns the assigned id after phase 2; callers can chain further actions
// without waiting on enrichment.
func (s *Store) SaveCapturedPrompt(ctx context.Context, text string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		s.state.ViewMode = ModeList
		s.publish()
		return 0, nil
	}

	now := s.nowMillis()
	placeholder := &prompt.Prompt{
		Content:   trimmed,
		Title:     prompt.FirstLine(trimmed),
		Summary:   prompt.Summarize(trimmed, s.summaryMax),
		CreatedAt: now,
		UpdatedAt: now,
	}

	id, err := db.AddPrompt(s.db, placeholder)
	if err != nil {
		return 0, err
	}

	if err := s.reloadPrompts(); err != nil {
		return 0, err
	}
	s.state.SelectedPromptID = id
	s.state.CurrentCategoryID = FilterUnsorted
	s.state.ViewMode = ModeList
	s.publish()

	// Phase 3 outlives the caller's request context.
	bgCtx := context.WithoutCancel(ctx)
	s.bg.Add(1)
	go s.enrichCaptured(bgCtx, id, trimmed)

	return id, nil
}

// enrichCaptured is phase 3 of the capture pipeline. If the record was
// deleted before it completes, the update is a no-op; it must never
// resurrect a deleted prompt.
func (s *Store) enrichCaptured(ctx context.Context, id int64, raw string) {
	defer s.bg.Done()

	formatted := s.enricher.AutoFormat(ctx, raw)
	result := s.enricher.GenerateDraft(ctx, formatted)

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := db.GetPrompt(s.db, id)
	if errors.Is(err, errors.ErrNotFound) {
		s.logger.Debug("captured prompt deleted before enrichment finished", "id", id)
		return
	}
	if err != nil {
		s.logger.Warn("re-reading captured prompt failed", "id", id, "err", err)
		return
	}

	current.Content = formatted
	current.Title = result.Title
	current.Summary = result.Summary
	current.AIDraftContent = result.Draft
	s.bumpUpdated(current)

	if err := db.UpdatePrompt(s.db, current); err != nil {
		if !errors.Is(err, errors.ErrNotFound) {
			s.logger.Warn("persisting enriched prompt failed", "id", id, "err", err)
		}
		return
	}

	if err := s.reloadPrompts(); err != nil {
		s.logger.Warn("reloading prompts after enrichment failed", "err", err)
		return
	}
	s.publish()
}

// UpdateSelectedPromptContent replaces the selected prompt's content.
// Editing always clears any pending AI draft: edits invalidate stale
// suggestions.
func (s *Store) UpdateSelectedPromptContent(ctx context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.state.SelectedPrompt()
	if p == nil {
		return nil
	}

	p.Content = text
	p.AIDraftContent = ""
	s.bumpUpdated(p)

	if err := db.UpdatePrompt(s.db, p); err != nil {
		return err
	}
	if err := s.reloadPrompts(); err != nil {
		return err
	}
	s.publish()
	return nil
}

// GenerateAIDraft requests a strategist draft for the selected prompt.
// Publishes a loading snapshot first so views can show an indicator.
// Enrichment failures surface as fallback content, never as an error;
// only storage failures propagate. No-op without a selection.
func (s *Store) GenerateAIDraft(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.state.SelectedPrompt()
	if p == nil {
		return nil
	}

	s.state.IsLoading = true
	s.publish()

	result := s.enricher.GenerateDraft(ctx, p.Content)

	p.Title = result.Title
	p.Summary = result.Summary
	p.AIDraftContent = result.Draft
	s.bumpUpdated(p)

	if err := db.UpdatePrompt(s.db, p); err != nil {
		s.state.IsLoading = false
		s.publish()
		return err
	}
	if err := s.reloadPrompts(); err != nil {
		s.state.IsLoading = false
		s.publish()
		return err
	}

	s.state.IsLoading = false
	s.publish()
	return nil
}

// ConfirmAIDraft promotes the selected prompt's pending draft to its
// content. Effectful only when a non-empty draft is pending; otherwise the
// record is left unchanged.
func (s *Store) ConfirmAIDraft(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.state.SelectedPrompt()
	if p == nil || !p.HasPendingDraft() {
		return nil
	}

	p.Content = p.AIDraftContent
	p.AIDraftContent = ""
	s.bumpUpdated(p)

	if err := db.UpdatePrompt(s.db, p); err != nil {
		return err
	}
	if err := s.reloadPrompts(); err != nil {
		return err
	}
	s.publish()
	return nil
}

// DeleteSelectedPrompt deletes the selected prompt after the
// caller-supplied confirmation gate approves. A nil gate means
// pre-confirmed. No-op without a selection.
func (s *Store) DeleteSelectedPrompt(ctx context.Context, confirm func() bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.state.SelectedPromptID
	if id == 0 {
		return nil
	}
	if confirm != nil && !confirm() {
		return nil
	}

	if err := db.DeletePrompt(s.db, id); err != nil {
		return err
	}
	if err := s.reloadPrompts(); err != nil {
		return err
	}
	s.state.SelectedPromptID = 0
	s.publish()
	return nil
}
