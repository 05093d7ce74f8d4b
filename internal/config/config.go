package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// Config holds application configuration.
type Config struct {
	// SiteTitle is the display title used by the web UI.
	SiteTitle string `json:"site_title,omitempty"`

	// AIAPIKey authenticates calls to the text-generation endpoint.
	// The GEMINI_API_KEY environment variable takes precedence.
	AIAPIKey string `json:"ai_api_key,omitempty"`

	// AIModel is the model name used for enrichment calls.
	AIModel string `json:"ai_model,omitempty"`

	// AIBaseURL overrides the text-generation endpoint base URL.
	// Empty means the public Gemini API. Mainly useful for tests and proxies.
	AIBaseURL string `json:"ai_base_url,omitempty"`

	// AITimeoutSecs bounds each enrichment HTTP request.
	AITimeoutSecs int `json:"ai_timeout_secs,omitempty"`

	// AIMaxRetries is the number of additional attempts after a failed
	// enrichment request. Retries apply to transport failures only.
	AIMaxRetries int `json:"ai_max_retries,omitempty"`

	// SortDoneDelayMs is how long the "all sorted" message is shown before
	// sort mode automatically returns to the list view.
	SortDoneDelayMs int `json:"sort_done_delay_ms,omitempty"`

	// SummaryMaxChars caps derived prompt summaries.
	SummaryMaxChars int `json:"summary_max_chars,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// If set to 1, all database access is serialized (reduces "database is
	// locked" errors). 0 means use sql.DB default. Only set under contention.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	// 0 means use sql.DB default. Typically set equal to DBMaxOpenConns.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are ignored with a warning.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		SiteTitle:       "Prompt Vault",
		AIModel:         "gemini-2.5-pro",
		AITimeoutSecs:   30,
		AIMaxRetries:    1,
		SortDoneDelayMs: 1500,
		SummaryMaxChars: 120,
	}
}

// AITimeout returns the enrichment request timeout as a duration.
func (c *Config) AITimeout() time.Duration {
	return time.Duration(c.AITimeoutSecs) * time.Second
}

// SortDoneDelay returns the sort-mode auto-return delay as a duration.
func (c *Config) SortDoneDelay() time.Duration {
	return time.Duration(c.SortDoneDelayMs) * time.Millisecond
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist. The GEMINI_API_KEY
// environment variable overrides the configured API key.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.vault.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	merged := Merge(DefaultConfig(), cfg)

	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		merged.AIAPIKey = key
	}

	return merged, nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for non-zero scalars; arrays are merged.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.SiteTitle = pick(overlay.SiteTitle, base.SiteTitle)
	result.AIAPIKey = pick(overlay.AIAPIKey, base.AIAPIKey)
	result.AIModel = pick(overlay.AIModel, base.AIModel)
	result.AIBaseURL = pick(overlay.AIBaseURL, base.AIBaseURL)

	result.AITimeoutSecs = pickInt(overlay.AITimeoutSecs, base.AITimeoutSecs)
	result.AIMaxRetries = pickInt(overlay.AIMaxRetries, base.AIMaxRetries)
	result.SortDoneDelayMs = pickInt(overlay.SortDoneDelayMs, base.SortDoneDelayMs)
	result.SummaryMaxChars = pickInt(overlay.SummaryMaxChars, base.SummaryMaxChars)
	result.DBMaxOpenConns = pickInt(overlay.DBMaxOpenConns, base.DBMaxOpenConns)
	result.DBMaxIdleConns = pickInt(overlay.DBMaxIdleConns, base.DBMaxIdleConns)

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

func pick(overlay, base string) string {
	if overlay != "" {
		return overlay
	}
	return base
}

func pickInt(overlay, base int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
