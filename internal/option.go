package internal

import "github.com/starford/csaharvest/internal/harvest"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config  *Config
	fetcher harvest.Fetcher
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithFetcher replaces the HTTP page client used by Scrape.
func WithFetcher(f harvest.Fetcher) Option {
	return func(a *application) {
		a.fetcher = f
	}
}
