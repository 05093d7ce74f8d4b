package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

var captureToolDef = mcp.NewTool("prompt_capture",
	mcp.WithDescription("Capture a raw idea as a new prompt. The text is saved immediately; formatting, title, summary, and an AI draft are filled in asynchronously."),
	mcp.WithString("content",
		mcp.Required(),
		mcp.Description("The raw idea text to capture"),
	),
)

var listToolDef = mcp.NewTool("prompt_list",
	mcp.WithDescription("List prompts, most recently updated first. Optionally filter by category name, the special value 'unsorted', or a search query."),
	mcp.WithString("category",
		mcp.Description("Category name to filter by, or 'unsorted' for prompts without a category"),
	),
	mcp.WithString("query",
		mcp.Description("Case-insensitive substring match against title and content"),
	),
)

var getToolDef = mcp.NewTool("prompt_get",
	mcp.WithDescription("Fetch a single prompt by ID, including any pending AI draft."),
	mcp.WithNumber("id",
		mcp.Required(),
		mcp.Description("The prompt ID"),
	),
)

var updateToolDef = mcp.NewTool("prompt_update",
	mcp.WithDescription("Replace a prompt's content. Any pending AI draft is discarded."),
	mcp.WithNumber("id",
		mcp.Required(),
		mcp.Description("The prompt ID"),
	),
	mcp.WithString("content",
		mcp.Required(),
		mcp.Description("The new content"),
	),
)

var deleteToolDef = mcp.NewTool("prompt_delete",
	mcp.WithDescription("Permanently delete a prompt."),
	mcp.WithNumber("id",
		mcp.Required(),
		mcp.Description("The prompt ID"),
	),
)

var draftToolDef = mcp.NewTool("prompt_draft",
	mcp.WithDescription("Generate a structured AI draft for a prompt. The draft is stored alongside the original content until confirmed."),
	mcp.WithNumber("id",
		mcp.Required(),
		mcp.Description("The prompt ID"),
	),
)

var confirmDraftToolDef = mcp.NewTool("prompt_confirm_draft",
	mcp.WithDescription("Promote a prompt's pending AI draft to its content. No-op when there is no pending draft."),
	mcp.WithNumber("id",
		mcp.Required(),
		mcp.Description("The prompt ID"),
	),
)

var sortNextToolDef = mcp.NewTool("prompt_sort_next",
	mcp.WithDescription("Work through unclassified prompts. Called without arguments it returns the next prompt to sort with two suggested categories. Pass prompt_id and category to file that prompt and receive the next one."),
	mcp.WithNumber("prompt_id",
		mcp.Description("ID of the prompt to file under the given category"),
	),
	mcp.WithString("category",
		mcp.Description("Category name to assign"),
	),
)

var categoryListToolDef = mcp.NewTool("category_list",
	mcp.WithDescription("List all categories."),
)

var categoryAddToolDef = mcp.NewTool("category_add",
	mcp.WithDescription("Create a new category. Names are unique."),
	mcp.WithString("name",
		mcp.Required(),
		mcp.Description("The category name"),
	),
)
