// Package catalog reads and writes the hauls and recipes catalog documents.
package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/starford/csaharvest/internal/models"
	"github.com/starford/csaharvest/internal/storage"
)

// Catalog file names.
const (
	HaulsFile           = "csa_hauls.json"
	RecipesFile         = "csa_recipes.json"
	ResolvedHaulsFile   = "csa_hauls.resolved.json"
	ResolvedRecipesFile = "csa_recipes.resolved.json"
)

// HaulsDocument is the on-disk shape of the hauls catalog.
type HaulsDocument struct {
	Hauls []models.Haul `json:"csa_hauls"`
}

// RecipesDocument is the on-disk shape of the recipes catalog.
type RecipesDocument struct {
	Recipes []models.Recipe `json:"csa_recipes"`
}

// LoadHauls reads the hauls catalog.
func LoadHauls(store storage.Provider) ([]models.Haul, error) {
	return ReadHauls(store, HaulsFile)
}

// ReadHauls reads a hauls document from name.
func ReadHauls(store storage.Provider, name string) ([]models.Haul, error) {
	data, err := store.Read(name)
	if err != nil {
		return nil, err
	}
	return DecodeHauls(data)
}

// DecodeHauls parses a hauls document.
func DecodeHauls(data []byte) ([]models.Haul, error) {
	var doc HaulsDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalog: decode hauls: %w", err)
	}
	for i := range doc.Hauls {
		setCategory(doc.Hauls[i].Items, models.CategoryProduct)
	}
	return doc.Hauls, nil
}

// LoadRecipes reads the recipes catalog.
func LoadRecipes(store storage.Provider) ([]models.Recipe, error) {
	return ReadRecipes(store, RecipesFile)
}

// ReadRecipes reads a recipes document from name.
func ReadRecipes(store storage.Provider, name string) ([]models.Recipe, error) {
	data, err := store.Read(name)
	if err != nil {
		return nil, err
	}
	return DecodeRecipes(data)
}

// DecodeRecipes parses a recipes document. Ingredient references are
// recognised whichever id field they were written with.
func DecodeRecipes(data []byte) ([]models.Recipe, error) {
	var doc RecipesDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalog: decode recipes: %w", err)
	}
	for i := range doc.Recipes {
		setCategory(doc.Recipes[i].Items, models.CategoryProduct)
		setCategory(doc.Recipes[i].Ingredients, models.CategoryIngredient)
	}
	return doc.Recipes, nil
}

// SaveHauls writes the hauls catalog.
func SaveHauls(store storage.Provider, hauls []models.Haul) error {
	return writeDocument(store, HaulsFile, HaulsDocument{Hauls: nonNil(hauls)})
}

// SaveRecipes writes the recipes catalog.
func SaveRecipes(store storage.Provider, recipes []models.Recipe) error {
	return writeDocument(store, RecipesFile, RecipesDocument{Recipes: nonNil(recipes)})
}

func writeDocument(store storage.Provider, name string, doc any) error {
	data, err := models.Encode(doc)
	if err != nil {
		return fmt.Errorf("catalog: encode %s: %w", name, err)
	}
	if err := store.Write(name, data); err != nil {
		return fmt.Errorf("catalog: write %s: %w", name, err)
	}
	return nil
}

func setCategory(refs []models.ItemRef, category string) {
	for i := range refs {
		refs[i].Category = category
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
