package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"skillscope/internal/config"
	"skillscope/internal/errors"
	"skillscope/internal/types"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// Client retrieves supplemental passages for a role transition. Results
// feed the evidence body; a failing client never fails an analysis.
type Client interface {
	Search(ctx context.Context, query string) ([]types.Passage, error)
}

// HTTPClient is a Client backed by a JSON search API.
type HTTPClient struct {
	httpClient *http.Client
	config     *config.SearchConfig
	breaker    *gobreaker.CircuitBreaker[[]types.Passage]
	logger     *errors.Logger
}

var _ Client = (*HTTPClient)(nil)

type searchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

// NewHTTPClient creates a search client from configuration.
func NewHTTPClient(cfg *config.SearchConfig, logger *errors.Logger) *HTTPClient {
	settings := gobreaker.Settings{
		Name: "search",
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String())
		},
	}

	return &HTTPClient{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		config:  cfg,
		breaker: gobreaker.NewCircuitBreaker[[]types.Passage](settings),
		logger:  logger,
	}
}

// Search runs one query against the search API and maps the results to
// passages. The snippet becomes the passage content and the result title
// becomes its source label.
func (c *HTTPClient) Search(ctx context.Context, query string) ([]types.Passage, error) {
	tracer := otel.Tracer("skillscope.search")
	ctx, span := tracer.Start(ctx, "search.query")
	defer span.End()

	span.SetAttributes(
		attribute.String("search.query", query),
		attribute.Int("search.max_results", c.config.MaxResults),
	)

	passages, err := c.breaker.Execute(func() ([]types.Passage, error) {
		return c.doSearch(ctx, query)
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return nil, err
	}

	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.Int("search.result_count", len(passages)),
	)
	return passages, nil
}

func (c *HTTPClient) doSearch(ctx context.Context, query string) ([]types.Passage, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(c.config.MaxResults))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.config.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, errors.NewSearchError(errors.ErrCodeSearchFailed,
			"Failed to build search request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewSearchError(errors.ErrCodeSearchFailed,
			"Search request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.NewSearchError(errors.ErrCodeSearchFailed,
			fmt.Sprintf("Search API returned status %d: %s", resp.StatusCode, string(body)), nil)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, errors.NewSearchError(errors.ErrCodeSearchFailed,
			"Failed to decode search response", err)
	}

	passages := make([]types.Passage, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		if r.Snippet == "" {
			continue
		}
		source := r.Title
		if source == "" {
			source = r.URL
		}
		passages = append(passages, types.Passage{
			Source:  source,
			Content: r.Snippet,
			URL:     r.URL,
		})
	}
	return passages, nil
}
