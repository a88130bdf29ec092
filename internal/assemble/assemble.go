// Package assemble turns one parsed week page into a haul record and its
// recipe records.
package assemble

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/starford/csaharvest/internal/extract"
	"github.com/starford/csaharvest/internal/models"
	"github.com/starford/csaharvest/internal/registry"
)

// Default picture path templates.
const (
	DefaultHaulPicture   = "assets/imgs/csa/{year}/csa_haul_{year}_{week}.jpg"
	DefaultRecipePicture = "assets/imgs/recipes/{year}/csa_recipe_{year}_{week}_{index}.jpg"
)

var (
	// ErrSkip marks a page that does not have the expected structure. It
	// always wraps the specific reason.
	ErrSkip = errors.New("assemble: page skipped")
	// ErrNoRecipes is returned when the share table has no recipe names.
	ErrNoRecipes = errors.New("assemble: no recipe names")
)

// Options configures an Assembler.
type Options struct {
	HaulPicture   string
	RecipePicture string
	Classifier    extract.TableClassifier
}

// Assembler builds records for week pages, assigning recipe identities from
// a shared registry.
type Assembler struct {
	recipes *registry.Registry
	opts    Options
	logger  *slog.Logger
}

// New returns an Assembler that allocates recipe ids from recipes.
func New(recipes *registry.Registry, opts Options, logger *slog.Logger) *Assembler {
	if opts.HaulPicture == "" {
		opts.HaulPicture = DefaultHaulPicture
	}
	if opts.RecipePicture == "" {
		opts.RecipePicture = DefaultRecipePicture
	}
	if opts.Classifier == nil {
		opts.Classifier = extract.DefaultClassifier
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{recipes: recipes, opts: opts, logger: logger}
}

// AssembleWeek extracts the haul and recipes of one week. Pages without the
// expected tables or recipe names fail with an error wrapping ErrSkip.
func (a *Assembler) AssembleWeek(year, week int, doc *goquery.Document) (models.Haul, []models.Recipe, error) {
	pair, err := extract.Locate(doc, a.opts.Classifier)
	if err != nil {
		return models.Haul{}, nil, fmt.Errorf("%w: %w", ErrSkip, err)
	}
	if pair.Qualified > 2 {
		a.logger.Warn("assemble: extra recipe tables ignored",
			slog.Int("year", year), slog.Int("week", week), slog.Int("tables", pair.Qualified))
	}

	names := extract.RecipeNames(pair.Share)
	if len(names) == 0 {
		return models.Haul{}, nil, fmt.Errorf("%w: %w", ErrSkip, ErrNoRecipes)
	}

	share := extract.ParseTable(pair.Share)
	pantry := extract.ParseTable(pair.Ingredients)

	haul := models.Haul{
		TimeStamp: TimeStamp(year, week),
		Title:     fmt.Sprintf("csa_haul_%d_%d", year, week),
		Alias:     fmt.Sprintf("%d CSA Week %d", year, week),
		Picture:   expand(a.opts.HaulPicture, year, week, 0),
		Items:     refs(models.CategoryProduct, share, -1),
		Message:   extract.HaulIntro(doc),
	}

	ids := a.recipes.EnsureAll(names)
	recipes := make([]models.Recipe, 0, len(names))
	for idx, name := range names {
		rec := models.Recipe{
			Alias:       name,
			ID:          ids[name],
			Picture:     expand(a.opts.RecipePicture, year, week, idx+1),
			Items:       refs(models.CategoryProduct, share, idx),
			Ingredients: refs(models.CategoryIngredient, pantry, idx),
		}
		if paras := extract.Instructions(doc, name); len(paras) > 0 {
			rec.Message = []models.Paragraphs{paras}
		}
		recipes = append(recipes, rec)
	}
	return haul, recipes, nil
}

// refs lists the labels of data used by recipe col, or every label when col
// is negative.
func refs(category string, data extract.TableData, col int) []models.ItemRef {
	out := make([]models.ItemRef, 0, len(data.Labels))
	for row, label := range data.Labels {
		if col < 0 || data.Used(row, col) {
			out = append(out, models.NewItemRef(category, label))
		}
	}
	return out
}

// TimeStamp returns the Monday of the given CSA week as YYYY_MM_DD. Week 1
// starts on the first Monday of May.
func TimeStamp(year, week int) string {
	return FirstMonday(year, time.May).AddDate(0, 0, 7*(week-1)).Format("2006_01_02")
}

// FirstMonday returns the first Monday of month in year.
func FirstMonday(year int, month time.Month) time.Time {
	d := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(time.Monday) - int(d.Weekday()) + 7) % 7
	return d.AddDate(0, 0, offset)
}

func expand(template string, year, week, index int) string {
	return strings.NewReplacer(
		"{year}", strconv.Itoa(year),
		"{week}", strconv.Itoa(week),
		"{index}", strconv.Itoa(index),
	).Replace(template)
}
