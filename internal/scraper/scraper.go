package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/temoto/robotstxt"
)

const (
	CatalogURL = "https://catalog.comifuro.net/catalog"
	UserAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	Timeout    = 30 * time.Second

	// MaxBodySize caps the catalog page read into memory.
	MaxBodySize   = 20 << 20
	robotsTimeout = 10 * time.Second
)

// ErrDisallowed is returned when robots.txt forbids fetching the catalog.
var ErrDisallowed = errors.New("fetch disallowed by robots.txt")

// Scraper fetches the catalog page.
type Scraper struct {
	client      *http.Client
	url         string
	userAgent   string
	checkRobots bool
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithURL overrides the catalog URL.
func WithURL(u string) Option {
	return func(s *Scraper) {
		if u != "" {
			s.url = u
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(s *Scraper) {
		if ua != "" {
			s.userAgent = ua
		}
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Scraper) {
		if d > 0 {
			s.client.Timeout = d
		}
	}
}

// WithRobots enables or disables the robots.txt check.
func WithRobots(enabled bool) Option {
	return func(s *Scraper) {
		s.checkRobots = enabled
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Scraper) {
		if c != nil {
			s.client = c
		}
	}
}

// New creates a new Scraper instance
func New(opts ...Option) *Scraper {
	s := &Scraper{
		client: &http.Client{
			Timeout: Timeout,
		},
		url:         CatalogURL,
		userAgent:   UserAgent,
		checkRobots: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// URL returns the catalog URL the scraper fetches.
func (s *Scraper) URL() string {
	return s.url
}

// Fetch downloads the catalog page and returns its HTML. Redirects are
// followed; any final status other than 200 is an error.
func (s *Scraper) Fetch(ctx context.Context) ([]byte, error) {
	log := zerolog.Ctx(ctx)

	if s.checkRobots {
		allowed, err := RobotsAllowed(ctx, s.client, s.url, s.userAgent)
		if err != nil {
			log.Warn().Err(err).Str("url", s.url).Msg("robots.txt check failed, proceeding as allowed")
			allowed = true
		}
		if !allowed {
			return nil, fmt.Errorf("%w: %s", ErrDisallowed, s.url)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("reading page: %w", err)
	}
	if len(body) > MaxBodySize {
		return nil, fmt.Errorf("page exceeds %d bytes", MaxBodySize)
	}

	log.Debug().Str("url", s.url).Int("bytes", len(body)).Msg("fetched catalog page")
	return body, nil
}

// RobotsAllowed reports whether robots.txt on the host of rawURL lets
// userAgent fetch it. A missing or malformed robots.txt allows everything.
func RobotsAllowed(ctx context.Context, client *http.Client, rawURL, userAgent string) (bool, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false, fmt.Errorf("parsing URL %q: %w", rawURL, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return false, fmt.Errorf("invalid URL %q: missing scheme or host", rawURL)
	}

	robotsURL := &url.URL{Scheme: parsed.Scheme, Host: parsed.Host, Path: "/robots.txt"}

	ctx, cancel := context.WithTimeout(ctx, robotsTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL.String(), nil)
	if err != nil {
		return false, fmt.Errorf("building robots.txt request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return false, fmt.Errorf("fetching robots.txt: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return true, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize))
	if err != nil {
		return false, fmt.Errorf("reading robots.txt: %w", err)
	}

	data, err := robotstxt.FromBytes(body)
	if err != nil {
		return true, nil
	}

	path := parsed.EscapedPath()
	if path == "" {
		path = "/"
	}
	return data.TestAgent(path, userAgent), nil
}
