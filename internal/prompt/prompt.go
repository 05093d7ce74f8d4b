package prompt

// Prompt represents a captured idea with optional AI enrichment.
type Prompt struct {
	// ID uniquely identifies this prompt; assigned by the database, never reused
	ID int64 `json:"id"`

	// Content is the canonical markdown-flavored body
	Content string `json:"content"`

	// AIDraftContent is an AI-proposed replacement body awaiting confirmation.
	// Empty means no draft is pending.
	AIDraftContent string `json:"ai_draft_content,omitempty"`

	// Title is an optional display title
	Title string `json:"title,omitempty"`

	// Summary is an optional short preview
	Summary string `json:"summary,omitempty"`

	// CategoryID links to a category; 0 means unclassified
	CategoryID int64 `json:"category_id,omitempty"`

	// CreatedAt is the Unix timestamp in milliseconds when the prompt was created
	CreatedAt int64 `json:"created_at"`

	// UpdatedAt is the Unix timestamp in milliseconds of the last mutation.
	// Always >= CreatedAt.
	UpdatedAt int64 `json:"updated_at"`
}

// Unclassified reports whether the prompt has no category assigned.
func (p *Prompt) Unclassified() bool {
	return p.CategoryID == 0
}

// HasPendingDraft reports whether an AI draft is awaiting confirmation.
func (p *Prompt) HasPendingDraft() bool {
	return p.AIDraftContent != ""
}

// Category represents a user-visible classification bucket.
// Names are unique (case-sensitive) within the store.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// DefaultCategories are seeded on first initialization.
var DefaultCategories = []string{"Planning", "Marketing", "Development"}
