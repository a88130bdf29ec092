// Package registry allocates durable numeric identities to aliases and
// persists them as catalog files.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strconv"

	"github.com/starford/csaharvest/internal/models"
	"github.com/starford/csaharvest/internal/storage"
)

// Category names a registry and where it lives.
type Category struct {
	Name    string // top-level JSON key
	IDField string // per-entry id key
	File    string // catalog file name
}

// Known categories.
var (
	Products    = newCategory(models.CategoryProduct)
	Ingredients = newCategory(models.CategoryIngredient)
	Recipes     = newCategory(models.CategoryRecipe)
)

func newCategory(name string) Category {
	return Category{Name: name, IDField: models.IDField(name), File: name + ".json"}
}

// Entry is one alias/identity pair.
type Entry struct {
	Alias string
	ID    string
}

// Registry maps aliases to zero-padded identities. Identities are assigned
// as max+1 and never reused. A Registry is not safe for concurrent use.
type Registry struct {
	category Category
	ids      map[string]string // alias -> id
	owners   map[int]string    // numeric id -> alias
	max      int
	logger   *slog.Logger
}

// New returns an empty registry for category.
func New(category Category, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		category: category,
		ids:      make(map[string]string),
		owners:   make(map[int]string),
		logger:   logger,
	}
}

// Load reads the category's catalog file. A missing or malformed file yields
// an empty registry; entries with an empty alias or a non-numeric id are
// skipped.
func Load(store storage.Provider, category Category, logger *slog.Logger) *Registry {
	r := New(category, logger)

	data, err := store.Read(category.File)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			r.logger.Debug("registry: no catalog yet", slog.String("file", category.File))
		} else {
			r.logger.Warn("registry: read failed, starting empty",
				slog.String("file", category.File), slog.String("error", err.Error()))
		}
		return r
	}

	var doc map[string][]map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		r.logger.Warn("registry: malformed catalog, starting empty",
			slog.String("file", category.File), slog.String("error", err.Error()))
		return r
	}

	skipped := 0
	for _, raw := range doc[category.Name] {
		alias, _ := raw["alias"].(string)
		id, _ := raw[category.IDField].(string)
		if !r.Seed(alias, id) {
			skipped++
		}
	}
	if skipped > 0 {
		r.logger.Warn("registry: skipped invalid entries",
			slog.String("file", category.File), slog.Int("count", skipped))
	}
	return r
}

// Category returns the registry's category.
func (r *Registry) Category() Category { return r.category }

// Len returns the number of registered aliases.
func (r *Registry) Len() int { return len(r.ids) }

// Lookup returns the identity of alias, if registered.
func (r *Registry) Lookup(alias string) (string, bool) {
	id, ok := r.ids[alias]
	return id, ok
}

// Seed records an existing alias/identity pair. It reports false, leaving the
// registry unchanged, when the alias is empty or already registered, or when
// the id is not a positive number or belongs to another alias.
func (r *Registry) Seed(alias, id string) bool {
	if alias == "" {
		return false
	}
	if _, ok := r.ids[alias]; ok {
		return false
	}
	n, err := strconv.Atoi(id)
	if err != nil || n <= 0 {
		return false
	}
	if _, taken := r.owners[n]; taken {
		return false
	}
	r.ids[alias] = id
	r.owners[n] = alias
	if n > r.max {
		r.max = n
	}
	return true
}

// Ensure returns the identity of alias, allocating max+1 when it is new.
func (r *Registry) Ensure(alias string) string {
	if id, ok := r.ids[alias]; ok {
		return id
	}
	r.max++
	id := formatID(r.max)
	r.ids[alias] = id
	r.owners[r.max] = alias
	return id
}

// EnsureAll ensures every alias. New aliases are allocated in sorted order so
// the result does not depend on input order.
func (r *Registry) EnsureAll(aliases []string) map[string]string {
	out := make(map[string]string, len(aliases))
	var fresh []string
	for _, a := range aliases {
		if _, seen := out[a]; seen {
			continue
		}
		if id, ok := r.ids[a]; ok {
			out[a] = id
			continue
		}
		out[a] = ""
		fresh = append(fresh, a)
	}
	sort.Strings(fresh)
	for _, a := range fresh {
		out[a] = r.Ensure(a)
	}
	return out
}

// Entries returns every pair ordered by numeric identity.
func (r *Registry) Entries() []Entry {
	nums := make([]int, 0, len(r.owners))
	for n := range r.owners {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	out := make([]Entry, 0, len(nums))
	for _, n := range nums {
		alias := r.owners[n]
		out = append(out, Entry{Alias: alias, ID: r.ids[alias]})
	}
	return out
}

// Marshal renders the registry in its catalog file format.
func (r *Registry) Marshal() ([]byte, error) {
	entries := r.Entries()
	out := make([]models.Identity, 0, len(entries))
	for _, e := range entries {
		out = append(out, models.Identity{Field: r.category.IDField, ID: e.ID, Alias: e.Alias})
	}
	return models.Encode(map[string][]models.Identity{r.category.Name: out})
}

// Persist writes the registry to its catalog file atomically.
func (r *Registry) Persist(store storage.Provider) error {
	data, err := r.Marshal()
	if err != nil {
		return fmt.Errorf("registry: encode %s: %w", r.category.Name, err)
	}
	if err := store.Write(r.category.File, data); err != nil {
		return fmt.Errorf("registry: persist %s: %w", r.category.Name, err)
	}
	return nil
}

func formatID(n int) string {
	return fmt.Sprintf("%03d", n)
}
