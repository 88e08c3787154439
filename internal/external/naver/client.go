package naver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/wonny/sector-rotation/pkg/config"
	"github.com/wonny/sector-rotation/pkg/httputil"
	"github.com/wonny/sector-rotation/pkg/logger"
	"github.com/wonny/sector-rotation/pkg/redis"
)

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"

// Client handles communication with Naver search
// ⭐ SSOT: Naver 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	cache      *redis.Cache
	logger     *logger.Logger
	searchURL  string
}

// NewClient creates a new Naver client. cache may be nil.
func NewClient(httpClient *httputil.Client, cache *redis.Cache, cfg config.NaverConfig, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		cache:      cache,
		logger:     log.WithComponent("naver"),
		searchURL:  cfg.SearchURL,
	}
}

// fetchHTML fetches an HTML page with browser headers
func (c *Client) fetchHTML(ctx context.Context, params url.Values) (string, error) {
	fullURL := c.searchURL
	if len(params) > 0 {
		fullURL = fmt.Sprintf("%s?%s", fullURL, params.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	return string(body), nil
}
