package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"mediashelf/internal/cache"
	"mediashelf/internal/models"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	omdbAPIURL         = "https://www.omdbapi.com"
	defaultTimeout     = 30 * time.Second
	rateLimitInterval  = 1 * time.Second
	userAgent          = "MediaShelf/1.0"
	maxSearchResults   = 10
	maxResponseSize    = 5 * 1024 * 1024 // 5MB
	searchCachePrefix  = "metadata:search:"
	detailsCachePrefix = "metadata:details:"
	searchCacheTTL     = 4 * time.Hour
	detailsCacheTTL    = 24 * time.Hour
)

// Client talks to the OMDb-style metadata API. Calls are rate limited (the
// provider throttles aggressively) and search/details responses are cached.
// No retries: a failed call means no results for that query, callers decide
// what to do with that.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *logrus.Logger
	kv         cache.KV
}

type ClientConfig struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	RateLimit time.Duration
	Logger    *logrus.Logger
	KV        cache.KV
}

func NewClient(config *ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = logrus.New()
	}
	if config.BaseURL == "" {
		config.BaseURL = omdbAPIURL
	}
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}
	if config.RateLimit == 0 {
		config.RateLimit = rateLimitInterval
	}

	return &Client{
		baseURL: config.BaseURL,
		apiKey:  config.APIKey,
		httpClient: &http.Client{
			Timeout: config.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Every(config.RateLimit), 1),
		logger:  config.Logger,
		kv:      config.KV,
	}
}

// SearchByText runs a free-text title search and returns normalized results.
func (c *Client) SearchByText(ctx context.Context, query string) ([]models.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}

	// check cache first
	cacheKey := searchCachePrefix + strings.ToLower(query)
	if c.kv != nil {
		cached, err := c.kv.Get(ctx, cacheKey)
		if err == nil {
			var results []models.SearchResult
			if err := json.Unmarshal([]byte(cached), &results); err == nil {
				c.logger.WithField("query", query).Debug("Search results served from cache")
				return results, nil
			}
			c.logger.WithError(err).Warn("Failed to unmarshal cached search result")
		} else if err != cache.ErrMiss {
			c.logger.WithError(err).Warn("Failed to read search cache")
		}
	}

	params := url.Values{}
	params.Set("apikey", c.apiKey)
	params.Set("s", query)
	params.Set("type", "movie")

	body, err := c.makeRequest(ctx, fmt.Sprintf("%s/?%s", c.baseURL, params.Encode()))
	if err != nil {
		return nil, err
	}

	var response models.OMDbSearchResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	if response.Response == "False" {
		// "Movie not found!" is a legitimate empty result; everything else
		// (bad key, "Request limit reached!") is an error for the caller.
		if strings.EqualFold(response.Error, "Movie not found!") {
			return []models.SearchResult{}, nil
		}
		return nil, fmt.Errorf("metadata provider error: %s", response.Error)
	}

	results := make([]models.SearchResult, 0, len(response.Search))
	for i, item := range response.Search {
		if i >= maxSearchResults {
			break
		}
		results = append(results, models.SearchResult{
			IMDbID:    item.IMDbID,
			Title:     item.Title,
			Year:      parseYear(item.Year),
			PosterURL: posterOrEmpty(item.Poster),
		})
	}

	c.storeInCache(ctx, cacheKey, results, searchCacheTTL)
	return results, nil
}

// GetDetails fetches full metadata for one title by IMDb id.
func (c *Client) GetDetails(ctx context.Context, imdbID string) (*models.TitleDetails, error) {
	if strings.TrimSpace(imdbID) == "" {
		return nil, fmt.Errorf("imdb id cannot be empty")
	}

	cacheKey := detailsCachePrefix + imdbID
	if c.kv != nil {
		cached, err := c.kv.Get(ctx, cacheKey)
		if err == nil {
			var details models.TitleDetails
			if err := json.Unmarshal([]byte(cached), &details); err == nil {
				return &details, nil
			}
		} else if err != cache.ErrMiss {
			c.logger.WithError(err).Warn("Failed to read details cache")
		}
	}

	params := url.Values{}
	params.Set("apikey", c.apiKey)
	params.Set("i", imdbID)
	params.Set("plot", "short")

	body, err := c.makeRequest(ctx, fmt.Sprintf("%s/?%s", c.baseURL, params.Encode()))
	if err != nil {
		return nil, err
	}

	var response models.OMDbTitleResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to decode details response: %w", err)
	}
	if response.Response == "False" {
		return nil, fmt.Errorf("metadata provider error: %s", response.Error)
	}

	rating, _ := strconv.ParseFloat(response.IMDbRating, 64)
	details := &models.TitleDetails{
		IMDbID:     response.IMDbID,
		Title:      response.Title,
		Year:       parseYear(response.Year),
		Genre:      response.Genre,
		Director:   response.Director,
		Plot:       response.Plot,
		PosterURL:  posterOrEmpty(response.Poster),
		IMDbRating: rating,
	}

	c.storeInCache(ctx, cacheKey, details, detailsCacheTTL)
	return details, nil
}

func (c *Client) makeRequest(ctx context.Context, requestURL string) ([]byte, error) {
	// the limiter is the serialization point between external calls
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status code %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(body) > maxResponseSize {
		return nil, fmt.Errorf("response too large: exceeded %d bytes", maxResponseSize)
	}

	c.logger.WithFields(logrus.Fields{
		"status":        resp.StatusCode,
		"response_size": len(body),
	}).Debug("Metadata request successful")

	return body, nil
}

func (c *Client) storeInCache(ctx context.Context, key string, value any, ttl time.Duration) {
	if c.kv == nil {
		return
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to marshal metadata for caching")
		return
	}
	if err := c.kv.Set(ctx, key, string(encoded), ttl); err != nil {
		c.logger.WithError(err).Warn("Failed to write metadata cache")
	}
}

// parseYear handles OMDb year strings like "2014" and ranges like "2011–2019".
func parseYear(s string) int {
	if len(s) >= 4 {
		if year, err := strconv.Atoi(s[:4]); err == nil {
			return year
		}
	}
	return 0
}

func posterOrEmpty(poster string) string {
	if poster == "" || poster == "N/A" {
		return ""
	}
	return poster
}
