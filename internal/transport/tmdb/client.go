// Package tmdb looks up poster art and metadata for catalog movies on
// The Movie Database. Lookups are best-effort decoration: a failure
// yields an empty result, never an error surfaced to the caller's page.
package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/cinedex/internal/domain"
)

// Movie is the subset of TMDB movie metadata the API exposes.
type Movie struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"release_date"`
	PosterPath  string  `json:"poster_path"`
	VoteAverage float64 `json:"vote_average"`
	VoteCount   int     `json:"vote_count"`
}

// Client is a minimal TMDB API client with a bounded poster cache.
type Client struct {
	apiKey       string
	baseURL      string
	imageBaseURL string
	httpClient   *http.Client
	logger       *zap.Logger

	posters *posterCache
}

// NewClient creates a TMDB client. An empty apiKey disables lookups:
// every call returns an empty decoration.
func NewClient(apiKey, baseURL, imageBaseURL string, timeout time.Duration, maxPosters int, logger *zap.Logger) *Client {
	return &Client{
		apiKey:       apiKey,
		baseURL:      baseURL,
		imageBaseURL: imageBaseURL,
		httpClient:   &http.Client{Timeout: timeout},
		logger:       logger,
		posters:      newPosterCache(maxPosters),
	}
}

// Enabled reports whether the client has an API key to work with.
func (c *Client) Enabled() bool { return c.apiKey != "" }

// PosterURL resolves the poster image URL for a catalog movie by
// searching TMDB with the cleaned title and release year. Results are
// cached by cleaned title. Returns "" when the lookup fails or finds
// nothing.
func (c *Client) PosterURL(ctx context.Context, m domain.Movie) string {
	if !c.Enabled() {
		return ""
	}

	title := m.CleanTitle()
	if poster, ok := c.posters.get(title); ok {
		return poster
	}

	found, err := c.searchMovie(ctx, title, m.Year())
	if err != nil {
		c.logger.Debug("tmdb poster lookup failed",
			zap.Int64("movie_id", m.ID), zap.Error(err))
		return ""
	}

	poster := ""
	if found != nil && found.PosterPath != "" {
		poster = c.imageBaseURL + found.PosterPath
	}
	c.posters.put(title, poster)
	return poster
}

// Details fetches TMDB metadata for a catalog movie. Returns nil when
// the lookup is disabled, fails, or finds nothing.
func (c *Client) Details(ctx context.Context, m domain.Movie) *Movie {
	if !c.Enabled() {
		return nil
	}

	found, err := c.searchMovie(ctx, m.CleanTitle(), m.Year())
	if err != nil {
		c.logger.Debug("tmdb details lookup failed",
			zap.Int64("movie_id", m.ID), zap.Error(err))
		return nil
	}
	return found
}

// searchMovie returns the top TMDB search result, or nil without error
// when nothing matches.
func (c *Client) searchMovie(ctx context.Context, title string, year int) (*Movie, error) {
	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("query", title)
	if year > 0 {
		q.Set("year", strconv.Itoa(year))
	}

	var result struct {
		Results []Movie `json:"results"`
	}
	if err := c.get(ctx, "/search/movie?"+q.Encode(), &result); err != nil {
		return nil, err
	}
	if len(result.Results) == 0 {
		return nil, nil
	}
	return &result.Results[0], nil
}

func (c *Client) get(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("tmdb: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("tmdb: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tmdb: unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("tmdb: decode response: %w", err)
	}
	return nil
}
