package api

import "github.com/starford/csaharvest/internal/models"

// HaulListItem is a lightweight haul in a list response.
type HaulListItem struct {
	Title     string `json:"title" example:"csa_haul_2024_3" validate:"required"`
	Alias     string `json:"alias" example:"2024 CSA Week 3" validate:"required"`
	TimeStamp string `json:"time_stamp" example:"2024_05_20" validate:"required"`
	Year      int    `json:"year" example:"2024"`
	Week      int    `json:"week" example:"3"`
}

// HaulListResponse wraps paginated haul listings.
type HaulListResponse struct {
	Hauls []HaulListItem `json:"hauls" validate:"required"`
	Total int            `json:"total" example:"24" validate:"required"`
}

// HaulDetail is the full haul record.
type HaulDetail = models.Haul

// RecipeListItem summarises one recipe identity.
type RecipeListItem struct {
	ID          string `json:"recipe_id" example:"042" validate:"required"`
	Alias       string `json:"alias" example:"Kale Chips" validate:"required"`
	Picture     string `json:"picture" example:"assets/imgs/recipes/2024/csa_recipe_2024_3_1.jpg"`
	Occurrences int    `json:"occurrences" example:"2"`
}

// RecipeListResponse wraps paginated recipe listings.
type RecipeListResponse struct {
	Recipes []RecipeListItem `json:"recipes" validate:"required"`
	Total   int              `json:"total" example:"120" validate:"required"`
}

// RecipeDetail is every catalog occurrence of one recipe identity.
type RecipeDetail struct {
	ID          string          `json:"recipe_id" example:"042" validate:"required"`
	Alias       string          `json:"alias" example:"Kale Chips" validate:"required"`
	Occurrences []models.Recipe `json:"occurrences" validate:"required"`
}

// ItemRecipesResponse lists the recipes using one item alias.
type ItemRecipesResponse struct {
	Alias   string           `json:"alias" example:"oakleaf_lettuce" validate:"required"`
	Recipes []RecipeListItem `json:"recipes" validate:"required"`
}

// SearchResult is a single search hit in the API response.
type SearchResult struct {
	Kind    string `json:"kind" example:"recipe" validate:"required"`
	Key     string `json:"key" example:"042" validate:"required"`
	Title   string `json:"title" example:"Kale Chips" validate:"required"`
	Snippet string `json:"snippet" example:"...bake until <b>crisp</b>..." validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}
