package index

import "github.com/starford/csaharvest/internal/models"

// CatalogIndex defines the interface for catalog query operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type CatalogIndex interface {
	ReplaceHauls(hauls []models.Haul, checksum string) error
	ReplaceRecipes(recipes []models.Recipe, checksum string) error
	ClearFile(name string) error
	FileChecksums() (map[string]string, error)
	ListHauls(year, limit, offset int) ([]HaulRow, int, error)
	GetHaul(title string) (*models.Haul, error)
	ListRecipes(item string, limit, offset int) ([]RecipeRow, int, error)
	GetRecipe(id string) ([]models.Recipe, error)
	RecipesUsing(alias string) ([]RecipeRow, error)
	Search(query string, limit int) ([]SearchResult, error)
	Close() error
}

// Verify *DB satisfies CatalogIndex at compile time.
var _ CatalogIndex = (*DB)(nil)
