package catalog

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/starford/csaharvest/internal/models"
	"github.com/starford/csaharvest/internal/registry"
	"github.com/starford/csaharvest/internal/storage"
)

// Registries holds the item registries built from the catalogs.
type Registries struct {
	Products    *registry.Registry
	Ingredients *registry.Registry
}

// BuildRegistries extends the products registry with every haul item alias
// and the ingredients registry with every recipe ingredient alias, then
// persists both. The two registries are independent and built concurrently.
func BuildRegistries(ctx context.Context, store storage.Provider, hauls []models.Haul, recipes []models.Recipe, logger *slog.Logger) (Registries, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var regs Registries
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var aliases []string
		for _, h := range hauls {
			aliases = appendAliases(aliases, h.Items)
		}
		regs.Products = buildRegistry(store, registry.Products, aliases, logger)
		if err := gctx.Err(); err != nil {
			return err
		}
		return regs.Products.Persist(store)
	})
	g.Go(func() error {
		var aliases []string
		for _, r := range recipes {
			aliases = appendAliases(aliases, r.Ingredients)
		}
		regs.Ingredients = buildRegistry(store, registry.Ingredients, aliases, logger)
		if err := gctx.Err(); err != nil {
			return err
		}
		return regs.Ingredients.Persist(store)
	})

	if err := g.Wait(); err != nil {
		return Registries{}, err
	}
	return regs, nil
}

func buildRegistry(store storage.Provider, category registry.Category, aliases []string, logger *slog.Logger) *registry.Registry {
	reg := registry.Load(store, category, logger)
	before := reg.Len()
	reg.EnsureAll(aliases)
	logger.Info("catalog: registry built",
		slog.String("category", category.Name),
		slog.Int("entries", reg.Len()),
		slog.Int("added", reg.Len()-before))
	return reg
}

func appendAliases(dst []string, refs []models.ItemRef) []string {
	for _, r := range refs {
		if r.Alias != "" {
			dst = append(dst, r.Alias)
		}
	}
	return dst
}

// Resolve returns copies of hauls and recipes with every item reference's
// placeholder replaced by its registered identity. References whose alias
// is not registered keep the placeholder.
func Resolve(hauls []models.Haul, recipes []models.Recipe, regs Registries) ([]models.Haul, []models.Recipe) {
	outHauls := make([]models.Haul, len(hauls))
	for i, h := range hauls {
		h.Items = resolveRefs(h.Items, regs.Products)
		outHauls[i] = h
	}
	outRecipes := make([]models.Recipe, len(recipes))
	for i, r := range recipes {
		r.Items = resolveRefs(r.Items, regs.Products)
		r.Ingredients = resolveRefs(r.Ingredients, regs.Ingredients)
		outRecipes[i] = r
	}
	return outHauls, outRecipes
}

func resolveRefs(refs []models.ItemRef, reg *registry.Registry) []models.ItemRef {
	out := make([]models.ItemRef, len(refs))
	for i, ref := range refs {
		if id, ok := reg.Lookup(ref.Alias); ok {
			ref.ID = id
		}
		out[i] = ref
	}
	return out
}

// SaveResolved writes the resolved copies next to the catalogs.
func SaveResolved(store storage.Provider, hauls []models.Haul, recipes []models.Recipe) error {
	if err := writeDocument(store, ResolvedHaulsFile, HaulsDocument{Hauls: nonNil(hauls)}); err != nil {
		return err
	}
	return writeDocument(store, ResolvedRecipesFile, RecipesDocument{Recipes: nonNil(recipes)})
}
