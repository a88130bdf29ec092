// Package testutil provides shared test helpers for setting up catalog
// directories and index databases.
package testutil

import (
	"os"
	"testing"

	"github.com/starford/csaharvest/internal/catalog"
	"github.com/starford/csaharvest/internal/index"
	"github.com/starford/csaharvest/internal/models"
	"github.com/starford/csaharvest/internal/storage"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "csa-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestCatalog creates a temporary catalog directory holding SampleHauls and
// SampleRecipes.
func TestCatalog(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := catalog.SaveHauls(store, SampleHauls()); err != nil {
		t.Fatal(err)
	}
	if err := catalog.SaveRecipes(store, SampleRecipes()); err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// SampleHauls returns two weeks of a 2024 season.
func SampleHauls() []models.Haul {
	return []models.Haul{
		{Title: "csa_haul_2024_1", Alias: "2024 CSA Week 1", TimeStamp: "2024_05_06", Picture: "csa_haul_2024_1.jpg",
			Items: []models.ItemRef{product("kale")}},
		{Title: "csa_haul_2024_2", Alias: "2024 CSA Week 2", TimeStamp: "2024_05_13", Picture: "csa_haul_2024_2.jpg",
			Items: []models.ItemRef{product("oakleaf_lettuce")}, Message: "Salad days"},
	}
}

// SampleRecipes returns the recipes matching SampleHauls.
func SampleRecipes() []models.Recipe {
	return []models.Recipe{
		{Alias: "Kale Chips", ID: "001", Picture: "csa_recipe_001.jpg",
			Items:       []models.ItemRef{product("kale")},
			Ingredients: []models.ItemRef{ingredient("olive_oil")},
			Message:     []models.Paragraphs{{"Bake until crisp."}}},
		{Alias: "Green Salad", ID: "002", Picture: "csa_recipe_002.jpg",
			Items:       []models.ItemRef{product("oakleaf_lettuce")},
			Ingredients: []models.ItemRef{ingredient("olive_oil")}},
	}
}

func product(alias string) models.ItemRef {
	return models.NewItemRef(models.CategoryProduct, alias)
}

func ingredient(alias string) models.ItemRef {
	return models.NewItemRef(models.CategoryIngredient, alias)
}
