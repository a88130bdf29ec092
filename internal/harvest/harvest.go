// Package harvest drives the year/week scrape loop and persists the results.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/PuerkitoBio/goquery"

	"github.com/starford/csaharvest/internal/assemble"
	"github.com/starford/csaharvest/internal/catalog"
	"github.com/starford/csaharvest/internal/models"
	"github.com/starford/csaharvest/internal/registry"
	"github.com/starford/csaharvest/internal/storage"
)

// Fetcher returns the parsed page for one week.
type Fetcher interface {
	Fetch(ctx context.Context, year, week int) (*goquery.Document, error)
}

// Range selects the weeks to harvest.
type Range struct {
	FirstYear int
	LastYear  int
	MaxWeeks  int
}

// Summary counts the outcome of a run.
type Summary struct {
	Weeks   int // weeks attempted
	Hauls   int // weeks harvested
	Recipes int
	Skipped int // pages without recipe tables
	Failed  int // pages that could not be fetched
}

// Harvester scrapes every week in a Range and writes the catalogs once at
// the end.
type Harvester struct {
	fetcher Fetcher
	store   storage.Provider
	rng     Range
	opts    assemble.Options
	logger  *slog.Logger
}

// New creates a Harvester.
func New(fetcher Fetcher, store storage.Provider, rng Range, opts assemble.Options, logger *slog.Logger) *Harvester {
	if logger == nil {
		logger = slog.Default()
	}
	return &Harvester{fetcher: fetcher, store: store, rng: rng, opts: opts, logger: logger}
}

// Run harvests the configured range. Fetch failures and malformed pages are
// logged and skipped. Nothing is written if ctx is cancelled.
func (h *Harvester) Run(ctx context.Context) (Summary, error) {
	recipes := h.loadRecipeRegistry()
	asm := assemble.New(recipes, h.opts, h.logger)

	var (
		sum        Summary
		hauls      = []models.Haul{}
		allRecipes = []models.Recipe{}
	)
	for year := h.rng.FirstYear; year <= h.rng.LastYear; year++ {
		for week := 1; week <= h.rng.MaxWeeks; week++ {
			if err := ctx.Err(); err != nil {
				return sum, err
			}
			sum.Weeks++
			log := h.logger.With(slog.Int("year", year), slog.Int("week", week))

			doc, err := h.fetcher.Fetch(ctx, year, week)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return sum, ctxErr
				}
				sum.Failed++
				log.Warn("harvest: fetch failed", slog.String("error", err.Error()))
				continue
			}

			haul, recs, err := asm.AssembleWeek(year, week, doc)
			if errors.Is(err, assemble.ErrSkip) {
				sum.Skipped++
				log.Info("harvest: page skipped", slog.String("reason", err.Error()))
				continue
			}
			if err != nil {
				return sum, fmt.Errorf("harvest: assemble %d week %d: %w", year, week, err)
			}

			hauls = append(hauls, haul)
			allRecipes = append(allRecipes, recs...)
			sum.Hauls++
			sum.Recipes += len(recs)
			log.Info("harvest: week collected",
				slog.Int("items", len(haul.Items)), slog.Int("recipes", len(recs)))
		}
	}

	if err := catalog.SaveHauls(h.store, hauls); err != nil {
		return sum, err
	}
	if err := catalog.SaveRecipes(h.store, allRecipes); err != nil {
		return sum, err
	}
	if err := recipes.Persist(h.store); err != nil {
		return sum, err
	}

	h.logger.Info("harvest: done",
		slog.Int("weeks", sum.Weeks),
		slog.Int("hauls", sum.Hauls),
		slog.Int("recipes", sum.Recipes),
		slog.Int("skipped", sum.Skipped),
		slog.Int("failed", sum.Failed))
	return sum, nil
}

// loadRecipeRegistry restores recipe identities from the recipes registry
// and from any recipes catalog left by an earlier run.
func (h *Harvester) loadRecipeRegistry() *registry.Registry {
	reg := registry.Load(h.store, registry.Recipes, h.logger)
	existing, err := catalog.LoadRecipes(h.store)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return reg
	case err != nil:
		h.logger.Warn("harvest: recipes catalog unreadable, ids restored from registry only",
			slog.String("error", err.Error()))
		return reg
	}
	for _, r := range existing {
		reg.Seed(r.Alias, r.ID)
	}
	return reg
}
