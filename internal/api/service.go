package api

import (
	"github.com/starford/csaharvest/internal/index"
)

// Service adapts index queries to API payloads.
type Service struct {
	db index.CatalogIndex
}

// NewService creates a new API service.
func NewService(db index.CatalogIndex) *Service {
	return &Service{db: db}
}

// ListHauls returns a page of hauls, optionally for one year.
func (s *Service) ListHauls(year, limit, offset int) (HaulListResponse, error) {
	rows, total, err := s.db.ListHauls(year, limit, offset)
	if err != nil {
		return HaulListResponse{}, err
	}
	items := make([]HaulListItem, len(rows))
	for i, r := range rows {
		items[i] = HaulListItem{
			Title:     r.Title,
			Alias:     r.Alias,
			TimeStamp: r.TimeStamp,
			Year:      r.Year,
			Week:      r.Week,
		}
	}
	return HaulListResponse{Hauls: items, Total: total}, nil
}

// GetHaul returns one haul; apperr.ErrNotFound when missing.
func (s *Service) GetHaul(title string) (*HaulDetail, error) {
	return s.db.GetHaul(title)
}

// ListRecipes returns a page of recipes, optionally those using item.
func (s *Service) ListRecipes(item string, limit, offset int) (RecipeListResponse, error) {
	rows, total, err := s.db.ListRecipes(item, limit, offset)
	if err != nil {
		return RecipeListResponse{}, err
	}
	return RecipeListResponse{Recipes: recipeItems(rows), Total: total}, nil
}

// GetRecipe returns every occurrence of a recipe; apperr.ErrNotFound when
// missing.
func (s *Service) GetRecipe(id string) (*RecipeDetail, error) {
	occ, err := s.db.GetRecipe(id)
	if err != nil {
		return nil, err
	}
	return &RecipeDetail{ID: id, Alias: occ[0].Alias, Occurrences: occ}, nil
}

// RecipesUsing lists the recipes that use alias.
func (s *Service) RecipesUsing(alias string) (ItemRecipesResponse, error) {
	rows, err := s.db.RecipesUsing(alias)
	if err != nil {
		return ItemRecipesResponse{}, err
	}
	return ItemRecipesResponse{Alias: alias, Recipes: recipeItems(rows)}, nil
}

// Search delegates to the index.
func (s *Service) Search(query string, limit int) (SearchResponse, error) {
	hits, err := s.db.Search(query, limit)
	if err != nil {
		return SearchResponse{}, err
	}
	results := make([]SearchResult, len(hits))
	for i, h := range hits {
		results[i] = SearchResult{Kind: h.Kind, Key: h.Key, Title: h.Title, Snippet: h.Snippet}
	}
	return SearchResponse{Results: results}, nil
}

func recipeItems(rows []index.RecipeRow) []RecipeListItem {
	items := make([]RecipeListItem, len(rows))
	for i, r := range rows {
		items[i] = RecipeListItem{ID: r.ID, Alias: r.Alias, Picture: r.Picture, Occurrences: r.Occurrences}
	}
	return items
}
