// Package newsapi fetches articles from the newsapi.org aggregator and maps
// them onto the pipeline's raw-item shape. Unlike the crawlers, an upstream
// failure here surfaces as a request-level error: the caller asked for this
// source explicitly and should know it failed.
package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/addispulse/addispulse/internal/news"
)

const defaultBaseURL = "https://newsapi.org/v2/everything"

// Request mirrors the /v2/everything query surface the service exposes.
type Request struct {
	Query   string   `json:"query"`
	Sources []string `json:"sources,omitempty"`
	From    string   `json:"from,omitempty"`
	To      string   `json:"to,omitempty"`
}

type Client struct {
	apiKey  string
	baseURL string
	httpc   *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
}

type apiResponse struct {
	Status   string `json:"status"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Author      string `json:"author"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Content     string `json:"content"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

// Fetch queries the API and returns raw candidates with content and dates
// already populated.
func (c *Client) Fetch(ctx context.Context, req Request) ([]news.Candidate, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("NEWSAPI_KEY not configured")
	}

	params := url.Values{}
	params.Set("q", req.Query)
	params.Set("apiKey", c.apiKey)
	if len(req.Sources) > 0 {
		params.Set("sources", strings.Join(req.Sources, ","))
	}
	if req.From != "" {
		params.Set("from", req.From)
	}
	if req.To != "" {
		params.Set("to", req.To)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("news API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("news API returned %d: %s", resp.StatusCode, string(body))
	}

	var parsed apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode news API response: %w", err)
	}

	cands := make([]news.Candidate, 0, len(parsed.Articles))
	for _, art := range parsed.Articles {
		if art.URL == "" {
			continue
		}
		site := art.Source.Name
		if site == "" {
			site = "newsapi.org"
		}
		content := art.Description
		if content == "" {
			content = art.Content
		}

		cand := news.NewCandidate(art.Title, art.URL, site, news.KindNewsAPI)
		cand.Content = content
		cand.PublishedRaw = art.PublishedAt
		cands = append(cands, cand)
	}
	return cands, nil
}
