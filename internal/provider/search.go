package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// SearchResult is one ranked web result, in provider order.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	Source  string `json:"source"`
}

// SearchClient calls the Serper web-search API.
type SearchClient struct {
	apiKey     string
	baseURL    string
	maxResults int
	httpClient *http.Client
	stats      *Stats
}

func NewSearchClient(apiKey, baseURL string, maxResults int, timeout time.Duration, stats *Stats) *SearchClient {
	if maxResults <= 0 {
		maxResults = 5
	}
	return &SearchClient{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		maxResults: maxResults,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		stats: stats,
	}
}

// Configured reports whether a credential is available.
func (c *SearchClient) Configured() bool {
	return c.apiKey != ""
}

type serperRequest struct {
	Query string `json:"q"`
	Num   int    `json:"num"`
}

type serperResponse struct {
	Organic []struct {
		Title         string `json:"title"`
		Link          string `json:"link"`
		Snippet       string `json:"snippet"`
		DisplayedLink string `json:"displayedLink"`
	} `json:"organic"`
}

// Search returns up to maxResults ranked results for the query. Transport
// and decode failures return a ProviderError; the answer engine treats any
// error as an empty result set.
func (c *SearchClient) Search(ctx context.Context, query string) ([]SearchResult, error) {
	if c.apiKey == "" {
		return nil, &CredentialError{Provider: "search"}
	}

	body, err := json.Marshal(serperRequest{Query: query, Num: c.maxResults})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-KEY", c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &ProviderError{Provider: "search", Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &ProviderError{Provider: "search", Message: "read response: " + err.Error()}
	}
	if c.stats != nil {
		c.stats.Record("search", time.Since(start).Milliseconds())
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Provider: "search", StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	var apiResp serperResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, &ProviderError{Provider: "search", Message: "decode response: " + err.Error()}
	}

	results := make([]SearchResult, 0, len(apiResp.Organic))
	for _, item := range apiResp.Organic {
		if len(results) >= c.maxResults {
			break
		}
		source := item.DisplayedLink
		if source == "" {
			source = "Unknown"
		}
		results = append(results, SearchResult{
			Title:   item.Title,
			URL:     item.Link,
			Snippet: item.Snippet,
			Source:  source,
		})
	}
	return results, nil
}

// Close releases resources.
func (c *SearchClient) Close() {
	c.httpClient.CloseIdleConnections()
}
