// Package fetch downloads CSA week pages and parses them into documents.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

// DefaultURLTemplate is the farm's weekly recipe page.
const DefaultURLTemplate = "https://front9farm.com/index.php/{year}-csa-week-{week}-recipes"

// DefaultUserAgent is sent with every request.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// Options configures a Client.
type Options struct {
	URLTemplate string        // with {year} and {week} placeholders
	Timeout     time.Duration // per request
	Delay       time.Duration // minimum spacing between requests
	UserAgent   string
}

// Client fetches week pages politely: requests are spaced by the configured
// delay and bounded by the configured timeout.
type Client struct {
	http     *resty.Client
	template string
}

// NewClient returns a Client for opts, filling unset fields with defaults.
func NewClient(opts Options) *Client {
	if opts.URLTemplate == "" {
		opts.URLTemplate = DefaultURLTemplate
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	limit := rate.Inf
	if opts.Delay > 0 {
		limit = rate.Every(opts.Delay)
	}
	limiter := rate.NewLimiter(limit, 1)

	httpClient := resty.New()
	httpClient.SetTimeout(opts.Timeout)
	httpClient.SetHeader("User-Agent", opts.UserAgent)
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return limiter.Wait(req.Context())
	})

	return &Client{http: httpClient, template: opts.URLTemplate}
}

// URL returns the page address for a year and week.
func (c *Client) URL(year, week int) string {
	return strings.NewReplacer(
		"{year}", strconv.Itoa(year),
		"{week}", strconv.Itoa(week),
	).Replace(c.template)
}

// Fetch downloads and parses the page for year and week. Any transport
// failure or non-200 status is returned as an error.
func (c *Client) Fetch(ctx context.Context, year, week int) (*goquery.Document, error) {
	url := c.URL(year, week)
	res, err := c.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch: get %s: %w", url, err)
	}
	if res.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("fetch: get %s: status %d", url, res.StatusCode())
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return nil, fmt.Errorf("fetch: parse %s: %w", url, err)
	}
	return doc, nil
}
