package research

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/seed-pitcher/internal/ai"
)

const (
	defaultTavilyURL = "https://api.tavily.com"
	searchTimeout    = 30 * time.Second
)

// SearchResult is one web search hit.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Searcher is the web-search collaborator.
type Searcher interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
}

// TavilyClient implements Searcher against the Tavily REST API.
type TavilyClient struct {
	apiKey     string
	baseURL    string
	logger     *zap.Logger
	httpClient *http.Client
}

var _ Searcher = (*TavilyClient)(nil)

func NewTavilyClient(apiKey string, logger *zap.Logger) (*TavilyClient, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tavily api key is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &TavilyClient{
		apiKey:  apiKey,
		baseURL: defaultTavilyURL,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: searchTimeout,
		},
	}, nil
}

// Search posts one query and returns the hits. Failures are classified into
// ai.CallError kinds the same way the gemini client does.
func (c *TavilyClient) Search(ctx context.Context, query string) ([]SearchResult, error) {
	body, err := json.Marshal(map[string]any{
		"api_key":      c.apiKey,
		"query":        query,
		"search_depth": "advanced",
	})
	if err != nil {
		return nil, fmt.Errorf("marshal search payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("tavily search", zap.String("query", query))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, ai.NewCallError("tavily", ai.KindUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		statusErr := fmt.Errorf("tavily error %s: %s", resp.Status, strings.TrimSpace(string(payload)))

		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return nil, ai.NewCallError("tavily", ai.KindAuth, statusErr)
		case resp.StatusCode == http.StatusPaymentRequired:
			return nil, ai.NewCallError("tavily", ai.KindQuota, statusErr)
		case resp.StatusCode == http.StatusTooManyRequests:
			return nil, ai.NewCallError("tavily", ai.KindRateLimited, statusErr)
		default:
			return nil, ai.NewCallError("tavily", ai.KindUnavailable, statusErr)
		}
	}

	var parsed struct {
		Results []SearchResult `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, ai.NewCallError("tavily", ai.KindInvalid, err)
	}

	return parsed.Results, nil
}
