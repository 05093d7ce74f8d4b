package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/vault/internal/config"
	"github.com/hpungsan/vault/internal/errors"
	"github.com/hpungsan/vault/internal/prompt"
	"github.com/hpungsan/vault/internal/store"
	"github.com/hpungsan/vault/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(st *store.Store, cfg *config.Config) *cli.App {
	app := &cli.App{
		Name:    "vault",
		Usage:   "Personal prompt vault",
		Version: Version,
		Commands: []*cli.Command{
			captureCmd(st),
			listCmd(st),
			showCmd(st),
			editCmd(st),
			deleteCmd(st),
			draftCmd(st),
			confirmCmd(st),
			sortCmd(st),
			categoriesCmd(st),
			addCategoryCmd(st),
			uiCmd(st, cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// promptOut is the JSON shape of a prompt in CLI output.
type promptOut struct {
	ID             int64  `json:"id"`
	Content        string `json:"content,omitempty"`
	AIDraftContent string `json:"ai_draft_content,omitempty"`
	Title          string `json:"title"`
	Summary        string `json:"summary"`
	Category       string `json:"category,omitempty"`
	CreatedAt      int64  `json:"created_at"`
	UpdatedAt      int64  `json:"updated_at"`
}

func toOut(p prompt.Prompt, state store.State, includeContent bool) promptOut {
	out := promptOut{
		ID:             p.ID,
		Title:          p.Title,
		Summary:        p.Summary,
		Category:       state.CategoryName(p.CategoryID),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
	if includeContent {
		out.Content = p.Content
		out.AIDraftContent = p.AIDraftContent
	}
	return out
}

// captureCmd creates the capture command.
func captureCmd(st *store.Store) *cli.Command {
	return &cli.Command{
		Name:  "capture",
		Usage: "Capture a new prompt (reads content from stdin)",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "no-wait", Usage: "Return immediately without waiting for AI enrichment"},
		},
		Action: func(c *cli.Context) error {
			if !stdinHasData() {
				return outputError(errors.NewInvalidRequest("content must be piped via stdin"))
			}

			content, err := readStdin()
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			if content == "" {
				return outputError(errors.NewInvalidRequest("content is required"))
			}

			id, err := st.SaveCapturedPrompt(c.Context, content)
			if err != nil {
				return outputError(err)
			}

			if !c.Bool("no-wait") {
				// Block until background enrichment lands.
				st.Close()
			}

			state := st.GetState()
			p := state.SelectedPrompt()
			if p == nil || p.ID != id {
				return outputError(errors.NewNotFound("prompt", id))
			}
			return outputJSON(toOut(*p, state, true))
		},
	}
}

// listCmd creates the list command.
func listCmd(st *store.Store) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List prompts, most recently updated first",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Filter by category name"},
			&cli.BoolFlag{Name: "unsorted", Aliases: []string{"u"}, Usage: "Only prompts without a category"},
			&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Case-insensitive search in title and content"},
		},
		Action: func(c *cli.Context) error {
			state := st.GetState()

			filterID := int64(-1) // -1 = no category filter
			if c.Bool("unsorted") {
				filterID = 0
			} else if name := c.String("category"); name != "" {
				found := false
				for _, cat := range state.Categories {
					if cat.Name == name {
						filterID = cat.ID
						found = true
						break
					}
				}
				if !found {
					return outputError(errors.NewInvalidRequest(fmt.Sprintf("unknown category %q", name)))
				}
			}

			query := strings.ToLower(c.String("query"))
			items := make([]promptOut, 0, len(state.Prompts))
			for _, p := range state.Prompts {
				if filterID >= 0 && p.CategoryID != filterID {
					continue
				}
				if query != "" &&
					!strings.Contains(strings.ToLower(p.Title), query) &&
					!strings.Contains(strings.ToLower(p.Content), query) {
					continue
				}
				items = append(items, toOut(p, state, false))
			}

			return outputJSON(map[string]any{
				"prompts": items,
				"total":   len(items),
			})
		},
	}
}

// showCmd creates the show command.
func showCmd(st *store.Store) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show a prompt by ID",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := argID(c)
			if err != nil {
				return outputError(err)
			}

			st.SelectPrompt(id)
			state := st.GetState()
			p := state.SelectedPrompt()
			if p == nil {
				return outputError(errors.NewNotFound("prompt", id))
			}
			return outputJSON(toOut(*p, state, true))
		},
	}
}

// editCmd creates the edit command.
func editCmd(st *store.Store) *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Replace a prompt's content (reads new content from stdin); discards any pending AI draft",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := argID(c)
			if err != nil {
				return outputError(err)
			}
			if !stdinHasData() {
				return outputError(errors.NewInvalidRequest("new content must be piped via stdin"))
			}
			content, err := readStdin()
			if err != nil {
				return outputError(errors.NewInternal(err))
			}

			st.SelectPrompt(id)
			state := st.GetState()
			if state.SelectedPrompt() == nil {
				return outputError(errors.NewNotFound("prompt", id))
			}

			if err := st.UpdateSelectedPromptContent(c.Context, content); err != nil {
				return outputError(err)
			}

			state = st.GetState()
			p := state.SelectedPrompt()
			if p == nil {
				return outputError(errors.NewNotFound("prompt", id))
			}
			return outputJSON(toOut(*p, state, true))
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(st *store.Store) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a prompt",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: "Skip the confirmation prompt"},
		},
		Action: func(c *cli.Context) error {
			id, err := argID(c)
			if err != nil {
				return outputError(err)
			}

			st.SelectPrompt(id)
			if st.GetState().SelectedPrompt() == nil {
				return outputError(errors.NewNotFound("prompt", id))
			}

			var confirm func() bool
			if !c.Bool("force") {
				confirm = func() bool { return askConfirm(id) }
			}

			if err := st.DeleteSelectedPrompt(c.Context, confirm); err != nil {
				return outputError(err)
			}

			if st.GetState().SelectedPromptID == id {
				// Confirmation declined; nothing deleted.
				return outputJSON(map[string]any{"deleted": false, "id": id})
			}
			return outputJSON(map[string]any{"deleted": true, "id": id})
		},
	}
}

// draftCmd creates the draft command.
func draftCmd(st *store.Store) *cli.Command {
	return &cli.Command{
		Name:      "draft",
		Usage:     "Generate an AI draft for a prompt",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := argID(c)
			if err != nil {
				return outputError(err)
			}

			st.SelectPrompt(id)
			if st.GetState().SelectedPrompt() == nil {
				return outputError(errors.NewNotFound("prompt", id))
			}

			if err := st.GenerateAIDraft(c.Context); err != nil {
				return outputError(err)
			}

			state := st.GetState()
			p := state.SelectedPrompt()
			if p == nil {
				return outputError(errors.NewNotFound("prompt", id))
			}
			return outputJSON(toOut(*p, state, true))
		},
	}
}

// confirmCmd creates the confirm command.
func confirmCmd(st *store.Store) *cli.Command {
	return &cli.Command{
		Name:      "confirm",
		Usage:     "Promote a prompt's pending AI draft to its content",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := argID(c)
			if err != nil {
				return outputError(err)
			}

			st.SelectPrompt(id)
			state := st.GetState()
			p := state.SelectedPrompt()
			if p == nil {
				return outputError(errors.NewNotFound("prompt", id))
			}
			hadDraft := p.HasPendingDraft()

			if err := st.ConfirmAIDraft(c.Context); err != nil {
				return outputError(err)
			}

			state = st.GetState()
			p = state.SelectedPrompt()
			if p == nil {
				return outputError(errors.NewNotFound("prompt", id))
			}
			return outputJSON(map[string]any{
				"confirmed": hadDraft,
				"prompt":    toOut(*p, state, true),
			})
		},
	}
}

// sortCmd creates the sort command.
func sortCmd(st *store.Store) *cli.Command {
	return &cli.Command{
		Name:  "sort",
		Usage: "Work through unclassified prompts. Without flags, shows the next prompt with suggestions; with --assign and --category, files it and shows the next",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "assign", Usage: "ID of the prompt to file"},
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Category name to assign"},
		},
		Action: func(c *cli.Context) error {
			if id := c.Int64("assign"); id != 0 {
				name := c.String("category")
				if name == "" {
					return outputError(errors.NewInvalidRequest("--category is required with --assign"))
				}
				if err := st.AssignCategoryAndGoNext(c.Context, id, name); err != nil {
					return outputError(err)
				}
			} else {
				if err := st.EnterSortMode(c.Context); err != nil {
					if err == store.ErrNothingToSort {
						return outputJSON(map[string]any{"done": true, "remaining": 0})
					}
					return outputError(err)
				}
			}

			state := st.GetState()
			item := state.CurrentSortPrompt
			if item == nil {
				return outputJSON(map[string]any{"done": true, "remaining": 0})
			}

			return outputJSON(map[string]any{
				"done":      false,
				"remaining": len(state.UnclassifiedPrompts()),
				"prompt":    toOut(item.Prompt, state, true),
				"suggestions": map[string]string{
					"best":   item.Suggestions.Best,
					"second": item.Suggestions.Second,
				},
			})
		},
	}
}

// categoriesCmd creates the categories command.
func categoriesCmd(st *store.Store) *cli.Command {
	return &cli.Command{
		Name:  "categories",
		Usage: "List all categories",
		Action: func(c *cli.Context) error {
			state := st.GetState()
			return outputJSON(map[string]any{
				"categories": state.Categories,
				"total":      len(state.Categories),
			})
		},
	}
}

// addCategoryCmd creates the add-category command.
func addCategoryCmd(st *store.Store) *cli.Command {
	return &cli.Command{
		Name:      "add-category",
		Usage:     "Create a new category",
		ArgsUsage: "<name>",
		Action: func(c *cli.Context) error {
			name := c.Args().First()
			if name == "" {
				return outputError(errors.NewInvalidRequest("category name is required"))
			}

			id, err := st.AddCategory(c.Context, name)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"id": id, "name": strings.TrimSpace(name)})
		},
	}
}

// uiCmd creates the ui command.
func uiCmd(st *store.Store, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "ui",
		Usage: "Start the local web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind to"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 8793, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			srv := web.NewServer(st, cfg, Version, c.String("bind"), c.Int("port"))
			return web.Run(srv)
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if vErr, ok := err.(*errors.VaultError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", vErr.Code, vErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// argID parses the first positional argument as a prompt ID.
func argID(c *cli.Context) (int64, error) {
	s := c.Args().First()
	if s == "" {
		return 0, errors.NewInvalidRequest("prompt ID is required")
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewInvalidRequest("prompt ID must be a positive integer")
	}
	return id, nil
}

// askConfirm prompts the user on stderr and reads a y/N answer.
func askConfirm(id int64) bool {
	fmt.Fprintf(os.Stderr, "Delete prompt %d? This cannot be undone. [y/N] ", id)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all content from stdin.
func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
