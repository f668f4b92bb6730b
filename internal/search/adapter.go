package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"placelink/internal/core/match"
	"placelink/internal/core/resolve"
	"placelink/internal/logger"

	"golang.org/x/time/rate"
)

// HTTPAdapter implements resolve.SearchAdapter against a JSON web-search
// API. Transport details (endpoint, credentials) are injected; the core
// only sees the adapter interface.
type HTTPAdapter struct {
	endpoint string
	apiKey   string
	client   *http.Client
	limiter  *rate.Limiter
	log      *logger.Logger
}

type Options struct {
	Endpoint string
	APIKey   string
	// RPS caps outbound search calls across all workers. <=0 disables.
	RPS float64
	// Timeout bounds a single HTTP round trip. Defaults to 10s; the
	// worker's resolve deadline is the outer ceiling.
	Timeout time.Duration
}

func NewHTTPAdapter(opts Options) *HTTPAdapter {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	var limiter *rate.Limiter
	if opts.RPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RPS), 1)
	}
	return &HTTPAdapter{
		endpoint: opts.Endpoint,
		apiKey:   opts.APIKey,
		client:   &http.Client{Timeout: opts.Timeout},
		limiter:  limiter,
		log:      logger.New("SearchAdapter"),
	}
}

type searchResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Snippet string `json:"snippet"`
	} `json:"results"`
}

func (a *HTTPAdapter) Search(ctx context.Context, query string, limit int) ([]match.Candidate, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		a.log.LogWarnf("search %q returned status %d", query, resp.StatusCode)
		return nil, &resolve.StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("malformed search response: %w", err)
	}

	candidates := make([]match.Candidate, 0, len(sr.Results))
	for _, r := range sr.Results {
		if limit > 0 && len(candidates) >= limit {
			break
		}
		candidates = append(candidates, match.Candidate{Title: r.Title, URL: r.URL, Snippet: r.Snippet})
	}
	a.log.LogDebugf("search %q returned %d candidates", query, len(candidates))
	return candidates, nil
}
