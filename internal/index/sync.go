package index

import (
	"fmt"
	"log/slog"

	"github.com/starford/csaharvest/internal/catalog"
	"github.com/starford/csaharvest/internal/storage"
)

const (
	haulsFile   = catalog.HaulsFile
	recipesFile = catalog.RecipesFile
)

// fileKinds maps the indexed catalog files to their document kind.
var fileKinds = map[string]string{
	haulsFile:   KindHaul,
	recipesFile: KindRecipe,
}

// Sync brings the index up to date with the catalog directory:
//   - new/changed catalogs are decoded and re-indexed
//   - catalogs removed from disk are cleared from the index
//
// It returns the names of the files whose index changed.
func Sync(db *DB, store storage.Provider, logger *slog.Logger) ([]string, error) {
	metas, err := store.List()
	if err != nil {
		return nil, err
	}

	checksums, err := db.FileChecksums()
	if err != nil {
		return nil, err
	}

	var changed []string
	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		if _, ok := fileKinds[m.Name]; !ok {
			continue
		}
		disk[m.Name] = struct{}{}

		if checksums[m.Name] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Name)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("file", m.Name), slog.String("error", err.Error()))
			continue
		}
		if err := indexFile(db, m.Name, data, m.Checksum); err != nil {
			logger.Warn("sync: index failed", slog.String("file", m.Name), slog.String("error", err.Error()))
			continue
		}
		logger.Debug("sync: indexed", slog.String("file", m.Name))
		changed = append(changed, m.Name)
	}

	// Remove stale entries.
	for name := range checksums {
		if _, ok := disk[name]; ok {
			continue
		}
		if err := db.ClearFile(name); err != nil {
			logger.Warn("sync: clear failed", slog.String("file", name), slog.String("error", err.Error()))
			continue
		}
		logger.Debug("sync: removed stale", slog.String("file", name))
		changed = append(changed, name)
	}

	return changed, nil
}

// indexFile decodes a catalog file and replaces its indexed records.
func indexFile(db *DB, name string, data []byte, checksum string) error {
	switch name {
	case haulsFile:
		hauls, err := catalog.DecodeHauls(data)
		if err != nil {
			return err
		}
		return db.ReplaceHauls(hauls, checksum)
	case recipesFile:
		recipes, err := catalog.DecodeRecipes(data)
		if err != nil {
			return err
		}
		return db.ReplaceRecipes(recipes, checksum)
	}
	return fmt.Errorf("index: %s is not an indexed catalog", name)
}
