package linkedin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	defaultBaseURL = "http://localhost:5500"
	contentType    = "application/json"

	// Navigation can legitimately take a while on heavy profile pages.
	navigateTimeout = 60 * time.Second
)

// Client drives the local browser-automation server over its HTTP API.
type Client struct {
	logger     *zap.Logger
	HTTPClient *http.Client
	BaseURL    string
}

var _ Browser = (*Client)(nil)

func NewClient(logger *zap.Logger, baseURL string) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		logger:  logger,
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: navigateTimeout,
		},
	}
}

func (c *Client) Health(ctx context.Context) error {
	var health struct {
		Status string `json:"status"`
	}
	if err := c.getJSON(ctx, "/health", &health); err != nil {
		return fmt.Errorf("browser server is not reachable at %s: %w", c.BaseURL, err)
	}

	c.logger.Debug("browser server health", zap.String("status", health.Status))
	return nil
}

func (c *Client) Navigate(ctx context.Context, url string) error {
	err := c.postJSON(ctx, "/navigate", map[string]string{"url": url}, nil)
	if err == nil {
		return nil
	}

	var statusErr *statusError
	reason := "timeout"
	switch {
	case asStatus(err, &statusErr) && statusErr.code == http.StatusNotFound:
		reason = "not-found"
	case asStatus(err, &statusErr) && (statusErr.code == http.StatusForbidden || statusErr.code == http.StatusTooManyRequests):
		reason = "blocked"
	}

	return &NavigationError{Reason: reason, URL: url, Err: err}
}

func (c *Client) PageSource(ctx context.Context) (string, error) {
	var page struct {
		Source string `json:"source"`
	}
	if err := c.getJSON(ctx, "/page_source", &page); err != nil {
		return "", fmt.Errorf("get page source: %w", err)
	}
	return page.Source, nil
}

func (c *Client) Scroll(ctx context.Context, pixels int) error {
	return c.postJSON(ctx, "/scroll", map[string]int{"pixels": pixels}, nil)
}

func (c *Client) ProfileFields(ctx context.Context, url string) (map[string]any, error) {
	var fields map[string]any
	err := c.postJSON(ctx, "/linkedin_profile", map[string]string{"url": url}, &fields)
	if err == nil {
		return fields, nil
	}

	var statusErr *statusError
	reason := "malformed"
	switch {
	case asStatus(err, &statusErr) && statusErr.code == http.StatusNotFound:
		reason = "not-found"
	case asStatus(err, &statusErr) && statusErr.code == http.StatusTooManyRequests:
		reason = "rate-limited"
	}

	return nil, &ExtractionError{Reason: reason, URL: url, Err: err}
}

func (c *Client) Conversation(ctx context.Context, profileURL string) ([]string, error) {
	var resp struct {
		Messages []string `json:"messages"`
	}
	if err := c.postJSON(ctx, "/previous_messages", map[string]string{"url": profileURL}, &resp); err != nil {
		return nil, fmt.Errorf("get previous messages: %w", err)
	}
	return resp.Messages, nil
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("bad status %d: %s", e.code, e.body)
}

func asStatus(err error, target **statusError) bool {
	se, ok := err.(*statusError)
	if ok {
		*target = se
	}
	return ok
}

func (c *Client) getJSON(ctx context.Context, path string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	return c.do(req, target)
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, target any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	return c.do(req, target)
}

func (c *Client) do(req *http.Request, target any) error {
	c.logger.Debug("browser server request", zap.String("url", req.URL.String()))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return &statusError{code: resp.StatusCode, body: string(data[:min(len(data), 512)])}
	}

	if target == nil {
		return nil
	}

	return json.Unmarshal(data, target)
}
