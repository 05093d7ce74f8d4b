// Package enrich is a stateless facade over an external text-generation
// endpoint. Every operation normalizes failures into deterministic fallback
// values: callers always receive a well-formed result and never an error.
package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/vault/internal/config"
	"github.com/hpungsan/vault/internal/errors"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

// DraftResult is the structured output of a draft generation call.
type DraftResult struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Draft   string `json:"draft"`
}

// Suggestion holds the two best category candidates for a prompt.
type Suggestion struct {
	Best   string `json:"best"`
	Second string `json:"second"`
}

// Client calls the text-generation endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	maxRetries int
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a Client from config. A nil logger uses slog.Default().
func New(cfg *config.Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	baseURL := cfg.AIBaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     cfg.AIAPIKey,
		model:      cfg.AIModel,
		maxRetries: cfg.AIMaxRetries,
		httpClient: &http.Client{Timeout: cfg.AITimeout()},
		logger:     logger,
	}
}

// GenerateDraft reworks raw user input into a structured strategist draft.
// On any failure (missing key, network, parse, missing fields) it returns a
// fallback result carrying a human-readable explanation instead of an error.
func (c *Client) GenerateDraft(ctx context.Context, userInput string) DraftResult {
	if c.apiKey == "" {
		return draftFallback(fmt.Errorf("no API key configured; set GEMINI_API_KEY or ai_api_key in config.json"))
	}

	text, err := c.generateText(ctx, buildDraftPrompt(userInput))
	if err != nil {
		c.logger.Warn("draft generation failed", "err", err)
		return draftFallback(err)
	}

	var result DraftResult
	if err := unmarshalPayload(text, &result); err != nil {
		c.logger.Warn("draft response parse failed", "err", err)
		return draftFallback(errors.NewEnrichment("draft", err))
	}
	if result.Title == "" || result.Summary == "" || result.Draft == "" {
		c.logger.Warn("draft response missing required fields")
		return draftFallback(errors.NewEnrichment("draft", fmt.Errorf("response missing required fields")))
	}
	return result
}

// SuggestCategories asks the endpoint for the two best-fitting category
// names for content, drawn from categories. Any failure, including a
// returned name outside the candidate set, falls back to two names chosen
// uniformly at random without replacement.
func (c *Client) SuggestCategories(ctx context.Context, content string, categories []string) Suggestion {
	if c.apiKey == "" {
		return randomSuggestion(categories)
	}

	text, err := c.generateText(ctx, buildSuggestPrompt(content, categories))
	if err != nil {
		c.logger.Warn("category suggestion failed", "err", err)
		return randomSuggestion(categories)
	}

	var result Suggestion
	if err := unmarshalPayload(text, &result); err != nil {
		c.logger.Warn("suggestion response parse failed", "err", err)
		return randomSuggestion(categories)
	}
	if !contains(categories, result.Best) || !contains(categories, result.Second) {
		c.logger.Warn("suggestion returned unknown category names",
			"best", result.Best, "second", result.Second)
		return randomSuggestion(categories)
	}
	return result
}

// AutoFormat restructures raw text as tidy markdown without changing its
// meaning. On any failure the original text is returned unchanged.
func (c *Client) AutoFormat(ctx context.Context, rawText string) string {
	if c.apiKey == "" {
		return rawText
	}

	text, err := c.generateText(ctx, buildFormatPrompt(rawText))
	if err != nil {
		c.logger.Warn("auto-format failed", "err", err)
		return rawText
	}
	formatted := stripFences(text)
	if formatted == "" {
		return rawText
	}
	return formatted
}

// generateContent wire types (Gemini REST surface)

type apiRequest struct {
	Contents []apiContent `json:"contents"`
}

type apiContent struct {
	Parts []apiPart `json:"parts"`
}

type apiPart struct {
	Text string `json:"text"`
}

type apiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []apiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// generateText posts a single free-form prompt and returns the response
// text. Transport failures and 5xx responses are retried up to maxRetries
// additional times; each attempt is bounded by the client timeout.
func (c *Client) generateText(ctx context.Context, prompt string) (string, error) {
	reqID := ulid.Make().String()

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		text, retryable, err := c.callEndpoint(ctx, prompt, reqID)
		if err == nil {
			return text, nil
		}
		lastErr = err
		c.logger.Debug("endpoint call failed", "request_id", reqID, "attempt", attempt+1, "err", err)
		if !retryable || ctx.Err() != nil {
			break
		}
	}
	return "", lastErr
}

// callEndpoint performs one generateContent request. The second return
// value reports whether the failure is worth retrying.
func (c *Client) callEndpoint(ctx context.Context, prompt, reqID string) (string, bool, error) {
	reqBody := apiRequest{
		Contents: []apiContent{{Parts: []apiPart{{Text: prompt}}}},
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", false, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", reqID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", true, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", resp.StatusCode >= 500, fmt.Errorf("api error (status %d): %s", resp.StatusCode, string(body))
	}

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", false, fmt.Errorf("unmarshal response: %w", err)
	}
	if apiResp.Error != nil {
		return "", false, fmt.Errorf("api error: %s", apiResp.Error.Message)
	}
	if len(apiResp.Candidates) == 0 || len(apiResp.Candidates[0].Content.Parts) == 0 {
		return "", false, fmt.Errorf("empty response")
	}

	return apiResp.Candidates[0].Content.Parts[0].Text, false, nil
}

// draftFallback builds the well-formed triple shown to the user when
// enrichment fails.
func draftFallback(err error) DraftResult {
	return DraftResult{
		Title:   "AI draft unavailable",
		Summary: "Draft generation failed; your original text is untouched.",
		Draft: fmt.Sprintf("## AI draft generation failed\n\n"+
			"An error occurred: %v\n\n"+
			"- Check that your API key is valid.\n"+
			"- Try again in a moment.", err),
	}
}

// randomSuggestion picks two distinct names uniformly at random.
// With fewer than two candidates the available name fills both slots.
func randomSuggestion(categories []string) Suggestion {
	switch len(categories) {
	case 0:
		return Suggestion{}
	case 1:
		return Suggestion{Best: categories[0], Second: categories[0]}
	}
	i := rand.IntN(len(categories))
	j := rand.IntN(len(categories) - 1)
	if j >= i {
		j++
	}
	return Suggestion{Best: categories[i], Second: categories[j]}
}

func contains(names []string, s string) bool {
	for _, n := range names {
		if n == s {
			return true
		}
	}
	return false
}
