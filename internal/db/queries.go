package db

import (
	"database/sql"
	"strings"

	"github.com/hpungsan/vault/internal/errors"
	"github.com/hpungsan/vault/internal/prompt"
)

// Every write below runs in its own transaction: an engine-level failure
// rolls the whole operation back and never partially applies. Reads are
// single statements and get the same guarantee from SQLite implicitly.

// AddPrompt inserts a new prompt and returns the assigned id.
// The id is auto-assigned by the database and never reused.
func AddPrompt(db *sql.DB, p *prompt.Prompt) (int64, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, errors.NewStorageWrite(err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO prompts (content, ai_draft_content, title, summary, category_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.Content, p.AIDraftContent, p.Title, p.Summary, toNullID(p.CategoryID), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return 0, errors.NewStorageWrite(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.NewStorageWrite(err)
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.NewStorageWrite(err)
	}
	return id, nil
}

// UpdatePrompt replaces the full record identified by p.ID.
// The caller must supply the complete record; there are no partial-patch
// semantics. Returns NOT_FOUND if no row has that id.
func UpdatePrompt(db *sql.DB, p *prompt.Prompt) error {
	tx, err := db.Begin()
	if err != nil {
		return errors.NewStorageWrite(err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		UPDATE prompts
		SET content = ?, ai_draft_content = ?, title = ?, summary = ?, category_id = ?, created_at = ?, updated_at = ?
		WHERE id = ?`,
		p.Content, p.AIDraftContent, p.Title, p.Summary, toNullID(p.CategoryID), p.CreatedAt, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return errors.NewStorageWrite(err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errors.NewStorageWrite(err)
	}
	if affected == 0 {
		return errors.NewNotFound("prompt", p.ID)
	}

	if err := tx.Commit(); err != nil {
		return errors.NewStorageWrite(err)
	}
	return nil
}

// DeletePrompt removes the prompt with the given id.
// Deleting a missing id is not an error.
func DeletePrompt(db *sql.DB, id int64) error {
	tx, err := db.Begin()
	if err != nil {
		return errors.NewStorageWrite(err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM prompts WHERE id = ?`, id); err != nil {
		return errors.NewStorageWrite(err)
	}

	if err := tx.Commit(); err != nil {
		return errors.NewStorageWrite(err)
	}
	return nil
}

// GetPrompt retrieves a prompt by id.
func GetPrompt(db *sql.DB, id int64) (*prompt.Prompt, error) {
	row := db.QueryRow(`
		SELECT id, content, ai_draft_content, title, summary, category_id, created_at, updated_at
		FROM prompts WHERE id = ?`, id)

	p, err := scanPrompt(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("prompt", id)
	}
	if err != nil {
		return nil, errors.NewStorageRead(err)
	}
	return p, nil
}

// ListPrompts returns the full collection ordered by updated_at descending
// (most-recently-updated first). Reads ascending via the updated_at index
// and reverses, matching the index-ordered bulk read contract.
func ListPrompts(db *sql.DB) ([]prompt.Prompt, error) {
	rows, err := db.Query(`
		SELECT id, content, ai_draft_content, title, summary, category_id, created_at, updated_at
		FROM prompts ORDER BY updated_at ASC, id ASC`)
	if err != nil {
		return nil, errors.NewStorageRead(err)
	}
	defer rows.Close()

	var prompts []prompt.Prompt
	for rows.Next() {
		p, err := scanPrompt(rows)
		if err != nil {
			return nil, errors.NewStorageRead(err)
		}
		prompts = append(prompts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageRead(err)
	}

	for i, j := 0, len(prompts)-1; i < j; i, j = i+1, j-1 {
		prompts[i], prompts[j] = prompts[j], prompts[i]
	}
	return prompts, nil
}

// AddCategory inserts a new category and returns the assigned id.
// Returns NAME_ALREADY_EXISTS when name collides with the unique index.
func AddCategory(db *sql.DB, c *prompt.Category) (int64, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, errors.NewStorageWrite(err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`INSERT INTO categories (name) VALUES (?)`, c.Name)
	if err != nil {
		if isUniqueConstraintError(err) {
			return 0, errors.NewNameAlreadyExists(c.Name)
		}
		return 0, errors.NewStorageWrite(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.NewStorageWrite(err)
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.NewStorageWrite(err)
	}
	return id, nil
}

// ListCategories returns all categories. Order is unspecified.
func ListCategories(db *sql.DB) ([]prompt.Category, error) {
	rows, err := db.Query(`SELECT id, name FROM categories`)
	if err != nil {
		return nil, errors.NewStorageRead(err)
	}
	defer rows.Close()

	var categories []prompt.Category
	for rows.Next() {
		var c prompt.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, errors.NewStorageRead(err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageRead(err)
	}
	return categories, nil
}

// scanner abstracts *sql.Row and *sql.Rows for scanPrompt.
type scanner interface {
	Scan(dest ...any) error
}

// scanPrompt scans a prompt row, mapping NULL category_id to 0.
func scanPrompt(s scanner) (*prompt.Prompt, error) {
	var p prompt.Prompt
	var categoryID sql.NullInt64

	err := s.Scan(&p.ID, &p.Content, &p.AIDraftContent, &p.Title, &p.Summary, &categoryID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if categoryID.Valid {
		p.CategoryID = categoryID.Int64
	}
	return &p, nil
}

// toNullID maps the 0 "unclassified" sentinel to a SQL NULL.
func toNullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

// isUniqueConstraintError checks for a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	// SQLite returns "UNIQUE constraint failed: ..." for unique violations
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
