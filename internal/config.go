package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/csaharvest/internal/assemble"
	"github.com/starford/csaharvest/internal/extract"
	"github.com/starford/csaharvest/internal/fetch"
	"github.com/starford/csaharvest/internal/harvest"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Source  SourceConfig      `yaml:"source"`
	Catalog CatalogConfig     `yaml:"catalog"`
	SQLite  SQLiteConfig      `yaml:"sqlite"`
	Auth    AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Source.Validate(); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	if err := c.Catalog.Validate(); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SourceConfig describes where and how week pages are fetched.
type SourceConfig struct {
	URLTemplate string        `yaml:"url_template"`
	FirstYear   int           `yaml:"first_year"`
	LastYear    int           `yaml:"last_year"`
	MaxWeeks    int           `yaml:"max_weeks"`
	Delay       time.Duration `yaml:"delay"`
	Timeout     time.Duration `yaml:"timeout"`
	UserAgent   string        `yaml:"user_agent"`
	// MinCells is the number of recipe names a table header needs to count
	// as a recipe table.
	MinCells int `yaml:"min_cells"`
}

// Validate validates the source configuration.
func (c *SourceConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.URLTemplate, validation.Required, validation.By(hasPlaceholders("{year}", "{week}"))),
		validation.Field(&c.FirstYear, validation.Required, validation.Min(1900)),
		validation.Field(&c.LastYear, validation.Required, validation.Min(c.FirstYear)),
		validation.Field(&c.MaxWeeks, validation.Required, validation.Min(1), validation.Max(53)),
		validation.Field(&c.Delay, validation.Min(time.Duration(0))),
		validation.Field(&c.Timeout, validation.Required),
		validation.Field(&c.MinCells, validation.Required, validation.Min(1)),
	)
}

// FetchOptions returns the page client options.
func (c *SourceConfig) FetchOptions() fetch.Options {
	return fetch.Options{
		URLTemplate: c.URLTemplate,
		Timeout:     c.Timeout,
		Delay:       c.Delay,
		UserAgent:   c.UserAgent,
	}
}

// Range returns the weeks to harvest.
func (c *SourceConfig) Range() harvest.Range {
	return harvest.Range{FirstYear: c.FirstYear, LastYear: c.LastYear, MaxWeeks: c.MaxWeeks}
}

// CatalogConfig holds the catalog directory and picture path templates.
type CatalogConfig struct {
	Dir           string `yaml:"dir"`
	HaulPicture   string `yaml:"haul_picture"`
	RecipePicture string `yaml:"recipe_picture"`
}

// Validate validates the catalog configuration.
func (c *CatalogConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
		validation.Field(&c.HaulPicture, validation.Required),
		validation.Field(&c.RecipePicture, validation.Required),
	)
}

// AssembleOptions returns the page assembler options.
func (c *Config) AssembleOptions() assemble.Options {
	return assemble.Options{
		HaulPicture:   c.Catalog.HaulPicture,
		RecipePicture: c.Catalog.RecipePicture,
		Classifier:    extract.HeaderClassifier{MinCells: c.Source.MinCells},
	}
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration for the catalog API.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

func hasPlaceholders(names ...string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		for _, n := range names {
			if !strings.Contains(s, n) {
				return errors.New("must contain " + n)
			}
		}
		return nil
	}
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Source: SourceConfig{
			URLTemplate: fetch.DefaultURLTemplate,
			FirstYear:   2017,
			LastYear:    2025,
			MaxWeeks:    28,
			Delay:       time.Second,
			Timeout:     15 * time.Second,
			UserAgent:   fetch.DefaultUserAgent,
			MinCells:    extract.DefaultClassifier.MinCells,
		},
		Catalog: CatalogConfig{
			Dir:           "./data",
			HaulPicture:   assemble.DefaultHaulPicture,
			RecipePicture: assemble.DefaultRecipePicture,
		},
		SQLite: SQLiteConfig{
			Path: "./csa.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
