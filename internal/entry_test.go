package internal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/starford/csaharvest/internal/catalog"
	"github.com/starford/csaharvest/internal/messages"
	"github.com/starford/csaharvest/internal/registry"
	"github.com/starford/csaharvest/internal/testutil"
)

const page = `<html><body>
<h2>Week 1: first pick of the season</h2>
<table>
  <tr><td></td><td>Soup</td><td>Salad</td><td>Stew</td></tr>
  <tr><th>Kale</th><td>x</td><td>x</td><td></td></tr>
</table>
<table>
  <tr><td></td><td>Soup</td><td>Salad</td><td>Stew</td></tr>
  <tr><th>Olive oil</th><td>x</td><td></td><td>x</td></tr>
</table>
</body></html>`

type pageFetcher map[string]string

func (p pageFetcher) Fetch(_ context.Context, year, week int) (*goquery.Document, error) {
	src, ok := p[fmt.Sprintf("%d/%d", year, week)]
	if !ok {
		return nil, fmt.Errorf("status 404")
	}
	return goquery.NewDocumentFromReader(strings.NewReader(src))
}

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := NewDefaultConfig()
	cfg.Catalog.Dir = t.TempDir()
	cfg.Source.FirstYear = 2024
	cfg.Source.LastYear = 2024
	cfg.Source.MaxWeeks = 2
	return cfg
}

func readFile(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return string(data)
}

func TestScrapeCatalogMessages(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()
	fetcher := pageFetcher{"2024/1": page}

	if err := Scrape(ctx, WithConfig(cfg), WithFetcher(fetcher)); err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	hauls := readFile(t, cfg.Catalog.Dir, catalog.HaulsFile)
	if !strings.Contains(hauls, `"title": "csa_haul_2024_1"`) || !strings.Contains(hauls, "first pick of the season") {
		t.Errorf("hauls = %s", hauls)
	}
	recipes := readFile(t, cfg.Catalog.Dir, catalog.RecipesFile)
	for _, id := range []string{`"recipe_id": "001"`, `"recipe_id": "002"`, `"recipe_id": "003"`} {
		if !strings.Contains(recipes, id) {
			t.Errorf("recipes missing %s", id)
		}
	}

	if err := Catalog(ctx, true, WithConfig(cfg)); err != nil {
		t.Fatalf("Catalog: %v", err)
	}
	if products := readFile(t, cfg.Catalog.Dir, registry.Products.File); !strings.Contains(products, `"kale"`) {
		t.Errorf("products = %s", products)
	}
	if ingredients := readFile(t, cfg.Catalog.Dir, registry.Ingredients.File); !strings.Contains(ingredients, `"olive_oil"`) {
		t.Errorf("ingredients = %s", ingredients)
	}
	if resolved := readFile(t, cfg.Catalog.Dir, catalog.ResolvedHaulsFile); !strings.Contains(resolved, `"product_id": "001"`) {
		t.Errorf("resolved hauls = %s", resolved)
	}

	if err := Messages(ctx, WithConfig(cfg)); err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if refs := readFile(t, cfg.Catalog.Dir, messages.RefHaulsFile); !strings.Contains(refs, `"message": "string_1"`) {
		t.Errorf("ref hauls = %s", refs)
	}
	if strs := readFile(t, cfg.Catalog.Dir, messages.StringsFile); !strings.Contains(strs, "first pick of the season") {
		t.Errorf("strings = %s", strs)
	}
}

func TestScrape_KeepsRecipeIDsAcrossRuns(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()
	fetcher := pageFetcher{"2024/1": page}

	if err := Scrape(ctx, WithConfig(cfg), WithFetcher(fetcher)); err != nil {
		t.Fatalf("first Scrape: %v", err)
	}
	first := readFile(t, cfg.Catalog.Dir, catalog.RecipesFile)
	if err := Scrape(ctx, WithConfig(cfg), WithFetcher(fetcher)); err != nil {
		t.Fatalf("second Scrape: %v", err)
	}
	if second := readFile(t, cfg.Catalog.Dir, catalog.RecipesFile); second != first {
		t.Errorf("recipes changed between runs:\n%s\n---\n%s", first, second)
	}
}

func TestCatalog_FromExistingCatalog(t *testing.T) {
	dir, _ := testutil.TestCatalog(t)
	cfg := NewDefaultConfig()
	cfg.Catalog.Dir = dir

	if err := Catalog(context.Background(), false, WithConfig(cfg)); err != nil {
		t.Fatalf("Catalog: %v", err)
	}
	products := readFile(t, dir, registry.Products.File)
	if !strings.Contains(products, `"kale"`) || !strings.Contains(products, `"oakleaf_lettuce"`) {
		t.Errorf("products = %s", products)
	}
	if _, err := os.Stat(filepath.Join(dir, catalog.ResolvedHaulsFile)); !os.IsNotExist(err) {
		t.Errorf("resolved copy written without resolve: %v", err)
	}
}

func TestSetup_RequiresConfig(t *testing.T) {
	if err := Scrape(context.Background()); err == nil {
		t.Error("Scrape without config should fail")
	}
}
