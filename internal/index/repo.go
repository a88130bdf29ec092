package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/starford/csaharvest/internal/apperr"
	"github.com/starford/csaharvest/internal/models"
)

// Document kinds.
const (
	KindHaul   = "haul"
	KindRecipe = "recipe"
)

// HaulRow is one row of the hauls table.
type HaulRow struct {
	Title     string
	Alias     string
	TimeStamp string
	Year      int
	Week      int
}

// RecipeRow summarises one recipe identity across the weeks it appears in.
type RecipeRow struct {
	ID          string
	Alias       string
	Picture     string
	Occurrences int
}

// SearchResult represents one search hit.
type SearchResult struct {
	Kind    string
	Key     string
	Title   string
	Snippet string
}

// ReplaceHauls swaps the indexed hauls for the given set within a transaction
// and records the source checksum.
func (db *DB) ReplaceHauls(hauls []models.Haul, checksum string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if err := clearKind(tx, KindHaul); err != nil {
		return err
	}
	for _, h := range hauls {
		data, err := json.Marshal(h)
		if err != nil {
			return fmt.Errorf("index: encode haul %s: %w", h.Title, err)
		}
		var year, week int
		_, _ = fmt.Sscanf(h.Title, "csa_haul_%d_%d", &year, &week)
		if _, err := tx.Exec(`
			INSERT OR REPLACE INTO hauls (title, alias, time_stamp, year, week, data)
			VALUES (?, ?, ?, ?, ?, ?)
		`, h.Title, h.Alias, h.TimeStamp, year, week, string(data)); err != nil {
			return fmt.Errorf("index: insert haul: %w", err)
		}
		if err := insertItems(tx, KindHaul, h.Title, h.Items); err != nil {
			return err
		}
		body := h.Message + "\n" + joinAliases(h.Items)
		if err := upsertDocument(tx, KindHaul, h.Title, h.Alias, body); err != nil {
			return err
		}
	}
	if err := setChecksum(tx, haulsFile, checksum); err != nil {
		return err
	}
	return tx.Commit()
}

// ReplaceRecipes swaps the indexed recipes for the given set within a
// transaction and records the source checksum.
func (db *DB) ReplaceRecipes(recipes []models.Recipe, checksum string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if err := clearKind(tx, KindRecipe); err != nil {
		return err
	}
	var order []string
	titles := make(map[string]string)
	bodies := make(map[string][]string)
	for i, r := range recipes {
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("index: encode recipe %s: %w", r.ID, err)
		}
		if _, err := tx.Exec(`
			INSERT INTO recipes (seq, recipe_id, alias, picture, data)
			VALUES (?, ?, ?, ?, ?)
		`, i+1, r.ID, r.Alias, r.Picture, string(data)); err != nil {
			return fmt.Errorf("index: insert recipe: %w", err)
		}
		if err := insertItems(tx, KindRecipe, r.ID, r.Items); err != nil {
			return err
		}
		if err := insertItems(tx, KindRecipe, r.ID, r.Ingredients); err != nil {
			return err
		}
		if _, seen := bodies[r.ID]; !seen {
			order = append(order, r.ID)
			titles[r.ID] = r.Alias
		}
		bodies[r.ID] = append(bodies[r.ID], strings.Join(r.Instructions(), "\n"), joinAliases(r.Items), joinAliases(r.Ingredients))
	}
	// One search document per identity, covering every occurrence.
	for _, id := range order {
		if err := upsertDocument(tx, KindRecipe, id, titles[id], strings.Join(bodies[id], "\n")); err != nil {
			return err
		}
	}
	if err := setChecksum(tx, recipesFile, checksum); err != nil {
		return err
	}
	return tx.Commit()
}

// ClearFile removes everything indexed from the named catalog file.
func (db *DB) ClearFile(name string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if kind, ok := fileKinds[name]; ok {
		if err := clearKind(tx, kind); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(`DELETE FROM catalog_files WHERE name = ?`, name); err != nil {
		return fmt.Errorf("index: clear file: %w", err)
	}
	return tx.Commit()
}

// FileChecksums returns the checksum recorded for every indexed file.
func (db *DB) FileChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT name, checksum FROM catalog_files`)
	if err != nil {
		return nil, fmt.Errorf("index: file checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var name, cs string
		if err := rows.Scan(&name, &cs); err != nil {
			return nil, err
		}
		out[name] = cs
	}
	return out, rows.Err()
}

// ListHauls returns hauls in chronological order, optionally limited to one
// year, along with the total count before paging.
func (db *DB) ListHauls(year, limit, offset int) ([]HaulRow, int, error) {
	where, args := "", []any{}
	if year > 0 {
		where, args = "WHERE year = ?", append(args, year)
	}
	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM hauls `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count hauls: %w", err)
	}
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.conn.Query(`
		SELECT title, alias, time_stamp, year, week
		FROM hauls `+where+`
		ORDER BY year, week
		LIMIT ? OFFSET ?
	`, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list hauls: %w", err)
	}
	defer rows.Close()

	var out []HaulRow
	for rows.Next() {
		var h HaulRow
		if err := rows.Scan(&h.Title, &h.Alias, &h.TimeStamp, &h.Year, &h.Week); err != nil {
			return nil, 0, err
		}
		out = append(out, h)
	}
	return out, total, rows.Err()
}

// GetHaul returns the haul with the given title.
func (db *DB) GetHaul(title string) (*models.Haul, error) {
	var data string
	err := db.conn.QueryRow(`SELECT data FROM hauls WHERE title = ?`, title).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: get haul: %w", err)
	}
	var h models.Haul
	if err := json.Unmarshal([]byte(data), &h); err != nil {
		return nil, fmt.Errorf("index: decode haul: %w", err)
	}
	return &h, nil
}

const recipeSummarySQL = `
	SELECT recipe_id, MIN(alias), MIN(picture), count(*)
	FROM recipes
`

// ListRecipes returns one row per recipe identity in id order, optionally
// limited to recipes using item, along with the total count before paging.
func (db *DB) ListRecipes(item string, limit, offset int) ([]RecipeRow, int, error) {
	where, args := "", []any{}
	if item != "" {
		where = `WHERE recipe_id IN (SELECT owner_key FROM items WHERE owner_kind = 'recipe' AND alias = ?)`
		args = append(args, item)
	}
	var total int
	if err := db.conn.QueryRow(`SELECT count(DISTINCT recipe_id) FROM recipes `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count recipes: %w", err)
	}
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.conn.Query(recipeSummarySQL+where+`
		GROUP BY recipe_id
		ORDER BY CAST(recipe_id AS INTEGER)
		LIMIT ? OFFSET ?
	`, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list recipes: %w", err)
	}
	defer rows.Close()

	out, err := scanRecipeRows(rows)
	return out, total, err
}

// RecipesUsing returns every recipe that uses alias as a CSA item or an
// ingredient.
func (db *DB) RecipesUsing(alias string) ([]RecipeRow, error) {
	out, _, err := db.ListRecipes(alias, 0, 0)
	return out, err
}

// GetRecipe returns every occurrence of the recipe with the given id, in
// catalog order.
func (db *DB) GetRecipe(id string) ([]models.Recipe, error) {
	rows, err := db.conn.Query(`SELECT data FROM recipes WHERE recipe_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("index: get recipe: %w", err)
	}
	defer rows.Close()

	var out []models.Recipe
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		r, err := decodeRecipe(data)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, apperr.ErrNotFound
	}
	return out, nil
}

func decodeRecipe(data string) (models.Recipe, error) {
	var r models.Recipe
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return r, fmt.Errorf("index: decode recipe: %w", err)
	}
	for i := range r.Ingredients {
		r.Ingredients[i].Category = models.CategoryIngredient
	}
	return r, nil
}

func scanRecipeRows(rows *sql.Rows) ([]RecipeRow, error) {
	var out []RecipeRow
	for rows.Next() {
		var r RecipeRow
		if err := rows.Scan(&r.ID, &r.Alias, &r.Picture, &r.Occurrences); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func clearKind(tx *sql.Tx, kind string) error {
	table := "hauls"
	if kind == KindRecipe {
		table = "recipes"
	}
	for _, q := range []string{
		`DELETE FROM ` + table,
		`DELETE FROM items WHERE owner_kind = '` + kind + `'`,
		`DELETE FROM documents WHERE kind = '` + kind + `'`,
	} {
		if _, err := tx.Exec(q); err != nil {
			return fmt.Errorf("index: clear %s: %w", kind, err)
		}
	}
	return ftsClear(tx, kind)
}

func insertItems(tx *sql.Tx, kind, key string, refs []models.ItemRef) error {
	if len(refs) == 0 {
		return nil
	}
	stmt, err := tx.Prepare(`INSERT INTO items (owner_kind, owner_key, category, alias) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("index: prepare item insert: %w", err)
	}
	defer stmt.Close()
	for _, ref := range refs {
		if _, err := stmt.Exec(kind, key, ref.Category, ref.Alias); err != nil {
			return fmt.Errorf("index: insert item: %w", err)
		}
	}
	return nil
}

func upsertDocument(tx *sql.Tx, kind, key, title, body string) error {
	if _, err := tx.Exec(`
		INSERT INTO documents (kind, key, title, body) VALUES (?, ?, ?, ?)
		ON CONFLICT(kind, key) DO UPDATE SET title = excluded.title, body = excluded.body
	`, kind, key, title, body); err != nil {
		return fmt.Errorf("index: upsert document: %w", err)
	}
	return ftsUpsert(tx, kind, key, title, body)
}

func setChecksum(tx *sql.Tx, name, checksum string) error {
	if _, err := tx.Exec(`
		INSERT INTO catalog_files (name, checksum, indexed_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET checksum = excluded.checksum, indexed_at = excluded.indexed_at
	`, name, checksum); err != nil {
		return fmt.Errorf("index: record checksum: %w", err)
	}
	return nil
}

func joinAliases(refs []models.ItemRef) string {
	parts := make([]string, 0, len(refs))
	for _, r := range refs {
		parts = append(parts, strings.ReplaceAll(r.Alias, "_", " "))
	}
	return strings.Join(parts, " ")
}
